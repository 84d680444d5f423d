// Command hashpw prints a password hash suitable for seeding the first
// administrator directly in the users table:
//
//	go run ./cmd/hashpw -password 'mudar123'
//
// Without -password the password is read from the first line of stdin.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"clinic-booking/internal/auth"
)

func main() {
	pw := flag.String("password", "", "password to hash (default: read from stdin)")
	flag.Parse()

	if *pw == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "hashpw: no password given")
			os.Exit(2)
		}
		*pw = strings.TrimRight(line, "\r\n")
	}

	hash, err := auth.HashPassword(*pw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hashpw: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

// Package validate wraps go-playground/validator for HTML form structs.
// Field names in messages are taken from the `form` tag so they match the
// inputs the user sees.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator"
)

// New returns a validator that reports fields by their form name and knows
// two extra tags: "isodate" (YYYY-MM-DD, calendar checked) and "clock"
// (24h HH:MM, optionally with seconds).
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return IsDate(fl.Field().String())
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, ok := ParseClock(fl.Field().String())
		return ok
	})
	return v
}

// IsDate reports whether s is a real calendar date written as YYYY-MM-DD.
func IsDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

// ParseClock accepts "15:04" or "15:04:05" and returns the HH:MM form.
func ParseClock(s string) (string, bool) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), true
		}
	}
	return "", false
}

// Messages turns a validator error into one human-readable line per field.
// Errors that did not come from the validator are returned as a single line.
func Messages(err error) []string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return []string{err.Error()}
	}

	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is required", fe.Field()))
		case "isodate":
			msgs = append(msgs, fmt.Sprintf("field %s must be a date in format YYYY-MM-DD", fe.Field()))
		case "clock":
			msgs = append(msgs, fmt.Sprintf("field %s must be a time in format HH:MM", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("field %s is too long", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is not valid", fe.Field()))
		}
	}
	return msgs
}

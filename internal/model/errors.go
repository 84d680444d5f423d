package model

import "errors"

// Storage-level outcomes shared by the store and the services above it.
var (
	ErrNotFound      = errors.New("not found")
	ErrSlotTaken     = errors.New("slot already taken")
	ErrDuplicateUser = errors.New("email or username already registered")
	ErrUnavailable   = errors.New("database unavailable")
)

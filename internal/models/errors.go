package models

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed request (maps to HTTP 400).
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Sentinel errors for validation.
var (
	ErrMissingName     error = &ValidationError{Msg: "name is required"}
	ErrMissingUsername error = &ValidationError{Msg: "username is required"}
	ErrMissingEmail    error = &ValidationError{Msg: "email is required"}
	ErrInvalidEmail    error = &ValidationError{Msg: "email is invalid"}
	ErrWeakPassword    error = &ValidationError{Msg: "password must be at least 8 characters"}
)

// Sentinel errors for lookups.
var (
	ErrNotFound     = errors.New("record not found")
	ErrUnknownTable = errors.New("unknown table")
)

// ErrDuplicateKey indicates a unique constraint violation (maps to HTTP 409 Conflict).
var ErrDuplicateKey = errors.New("duplicate key")

// Sentinel errors for authentication.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
)

// ErrUnresolvedProduct marks a dependent row whose product reference has no match.
var ErrUnresolvedProduct = errors.New("product reference not resolved")

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return &ValidationError{Msg: fmt.Sprintf("%s exceeds maximum length of %d", field, maxLen)}
}

// ErrInvalidFilter indicates a filter on an unknown or non-numeric column.
var ErrInvalidFilter = errors.New("invalid filter")

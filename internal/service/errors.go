// Package service holds the business rules behind the HTTP handlers.
package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidInput       = errors.New("invalid input")
)

// Error pairs a sentinel with the message shown to the client
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Message returns the client-facing text of err, or fallback when err
// carries none.
func Message(err error, fallback string) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	return fallback
}

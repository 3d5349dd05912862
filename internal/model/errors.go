package model

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every engagement operation. Entity-specific errors
// wrap one of these so callers can match either level with errors.Is.
var (
	// ErrSelfReference is returned when an actor targets itself with a follow.
	ErrSelfReference = errors.New("actor cannot target itself")

	// ErrNotFound is returned when an actor, target or collection does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned by explicit add paths when the edge is already present.
	ErrAlreadyExists = errors.New("already exists")

	// ErrForbidden is returned for mutations against soft-deleted targets or
	// resources the actor does not own.
	ErrForbidden = errors.New("forbidden")

	// ErrDataIntegrity marks a broken bootstrap invariant. It is not user-correctable.
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrInvalidInput is returned for malformed arguments (unknown kinds, empty content).
	ErrInvalidInput = errors.New("invalid input")
)

// Error codes for HTTP responses
const (
	CodeSelfReference = "SELF_REFERENCE"
	CodeDataIntegrity = "DATA_INTEGRITY"
	CodeTokenExpired  = "TOKEN_EXPIRED"
	CodeTokenInvalid  = "TOKEN_INVALID"
)

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

func forbidden(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrForbidden)
}

// Package errors provides error handling for loom.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Details and hints attached to errors
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := parent.AddChild(child); err != nil {
//	    return errors.Wrap(err, "failed to attach artifact")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrDuplicateDecorator) {
//	    // handle duplicate
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Sentinel errors for the generation engine.
// Wrap these with errors.Wrap() or errors.Mark() to add context while preserving identity.
var (
	// ErrInvalidArgument indicates a caller passed an unusable argument (e.g. an empty schema path)
	ErrInvalidArgument = New("invalid argument")

	// ErrInvalidState indicates an operation that would corrupt the artifact tree
	// (re-parenting an attached artifact, creating a cycle)
	ErrInvalidState = New("invalid state")

	// ErrDuplicateDecorator indicates a decorator with the same key is already attached
	ErrDuplicateDecorator = New("duplicate decorator")

	// ErrDecoratorMismatch indicates a decorator cannot be attached to the artifact's kind
	ErrDecoratorMismatch = New("decorator type mismatch")

	// ErrNilEvent indicates a nil event was published on the bus
	ErrNilEvent = New("nil event")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")
)

// IsInvalidArgument checks if an error is or wraps ErrInvalidArgument
func IsInvalidArgument(err error) bool {
	return err != nil && Is(err, ErrInvalidArgument)
}

// IsInvalidState checks if an error is or wraps ErrInvalidState
func IsInvalidState(err error) bool {
	return err != nil && Is(err, ErrInvalidState)
}

// IsNotFound checks if an error is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// NewInvalidArgumentError creates an invalid-argument error with a formatted message
func NewInvalidArgumentError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrInvalidArgument)
}

// NewInvalidStateError creates an invalid-state error with a formatted message
func NewInvalidStateError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrInvalidState)
}

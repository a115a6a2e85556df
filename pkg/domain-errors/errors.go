// Package domainerrors defines the failure taxonomy returned by registry
// operations. Every mutating operation returns either nil or a DomainError
// whose code a caller can branch on; codes carry stable small-integer tags
// so non-Go callers get a compact, machine-comparable discriminator.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a failure. The set is closed; adding a code is an API change.
type Code string

const (
	CodeValidation   Code = "validation_error"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal_error"
)

// codeTags assigns each code its wire-level integer tag. Tags are part of the
// public contract and must never be renumbered.
var codeTags = map[Code]int{
	CodeValidation:   1,
	CodeUnauthorized: 2,
	CodeForbidden:    3,
	CodeNotFound:     4,
	CodeConflict:     5,
	CodeInternal:     6,
}

// Tag returns the stable integer tag for a code, or 0 for an unknown code.
func Tag(code Code) int { return codeTags[code] }

// DomainError is a classified, expected failure.
type DomainError struct {
	Code    Code
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.Err }

// New creates a DomainError with the given code and message.
func New(code Code, message string) error {
	return &DomainError{Code: code, Message: message}
}

// Wrap annotates err with a code and message while preserving the chain.
func Wrap(err error, code Code, message string) error {
	return &DomainError{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// unclassified errors.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the human-readable message from err.
func MessageOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

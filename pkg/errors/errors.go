// Package errors provides structured error types for dtsm.
//
// Errors carry a machine-readable [Code] so callers can tell apart the
// recoverable, per-entry conditions of a batch operation from the fatal
// session-level ones:
//
//   - NOT_FOUND, AMBIGUOUS: a search term did not resolve to exactly one file
//   - FETCH_FAILED: one declaration file could not be retrieved
//   - INDEX_UNAVAILABLE: the index repository was never fetched
//   - MANIFEST_CORRUPT: the manifest on disk cannot be parsed
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNotFound, "no file matches %q", term)
//	if errors.Is(err, errors.ErrCodeNotFound) {
//	    // report and continue with the next term
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeManifestCorrupt, origErr, "parse %s", path)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidPath  Code = "INVALID_PATH"
	ErrCodeInvalidTerm  Code = "INVALID_TERM"

	// Resolution errors (recoverable, reported per term)
	ErrCodeNotFound  Code = "NOT_FOUND"
	ErrCodeAmbiguous Code = "AMBIGUOUS"

	// Fetch errors (recoverable, reported per identifier)
	ErrCodeFetch   Code = "FETCH_FAILED"
	ErrCodeNetwork Code = "NETWORK_ERROR"

	// Session preconditions (fatal)
	ErrCodeIndexUnavailable Code = "INDEX_UNAVAILABLE"
	ErrCodeManifestCorrupt  Code = "MANIFEST_CORRUPT"
	ErrCodeAlreadyExists    Code = "ALREADY_EXISTS"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// coder is implemented by the typed errors of this package that are not *Error.
type coder interface {
	Code() Code
}

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether the outermost coded error in err's chain has the given code.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no error in the chain carries a code.
func GetCode(err error) Code {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			return e.Code
		case coder:
			return e.Code()
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For coded errors, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	var a *AmbiguousError
	if errors.As(err, &a) {
		return a.message()
	}
	var f *FetchError
	if errors.As(err, &f) {
		return f.message()
	}
	return err.Error()
}

// AmbiguousError reports a term that matched more than one identifier.
// Candidates lists every match so the caller can retry with a narrower term.
type AmbiguousError struct {
	Term       string
	Candidates []string
}

// Error implements the error interface.
func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCodeAmbiguous, e.message())
}

func (e *AmbiguousError) message() string {
	const shown = 5
	list := e.Candidates
	suffix := ""
	if len(list) > shown {
		suffix = fmt.Sprintf(", ... (%d more)", len(list)-shown)
		list = list[:shown]
	}
	return fmt.Sprintf("%q matches %d files: %s%s", e.Term, len(e.Candidates), strings.Join(list, ", "), suffix)
}

// Code returns the error code for this error type.
func (e *AmbiguousError) Code() Code {
	return ErrCodeAmbiguous
}

// FetchError reports that the declaration file for Identifier could not be retrieved.
type FetchError struct {
	Identifier string
	Cause      error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCodeFetch, e.message())
}

func (e *FetchError) message() string {
	if e.Cause == nil {
		return fmt.Sprintf("fetch %s", e.Identifier)
	}
	return fmt.Sprintf("fetch %s: %v", e.Identifier, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Code returns the error code for this error type.
func (e *FetchError) Code() Code {
	return ErrCodeFetch
}

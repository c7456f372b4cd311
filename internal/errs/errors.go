// Package errs defines the error taxonomy shared by every nosqlite layer.
//
// Build-time errors (INVALID_PATH, QUERY_BUILD, ENCODE) are produced before any
// statement reaches the engine. Execution-time errors (DECODE, CONSTRAINT,
// STORAGE) carry the engine or decoder diagnostic as the wrapped error.
//
// Zero matched rows is never an error; it is reported as an affected count of 0.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Code categorizes an Error.
type Code string

const (
	// CodeInvalidPath indicates a malformed field reference.
	CodeInvalidPath Code = "INVALID_PATH"

	// CodeQueryBuild indicates a malformed query or statement description.
	CodeQueryBuild Code = "QUERY_BUILD"

	// CodeEncode indicates a host value that cannot be stored as a document.
	CodeEncode Code = "ENCODE"

	// CodeDecode indicates a type or shape mismatch while decoding a row.
	CodeDecode Code = "DECODE"

	// CodeConstraint indicates a primary-key or other engine constraint violation.
	CodeConstraint Code = "CONSTRAINT"

	// CodeStorage indicates any other engine-level failure.
	CodeStorage Code = "STORAGE"
)

// Error is the structured error returned by nosqlite operations.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Op names the operation that failed (e.g. "insert", "find").
	Op string

	// Path is the field reference involved, if any.
	Path string

	// Expected is the Go type a decode expected, if any.
	Expected string

	// Message is a human-readable description.
	Message string

	// Err is the underlying diagnostic.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Op != "" {
		b.WriteString(" ")
		b.WriteString(e.Op)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Path != "" {
		fmt.Fprintf(&b, " (path=%s", e.Path)
		if e.Expected != "" {
			fmt.Fprintf(&b, ", expected=%s", e.Expected)
		}
		b.WriteString(")")
	} else if e.Expected != "" {
		fmt.Fprintf(&b, " (expected=%s)", e.Expected)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying diagnostic.
func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidPath creates an INVALID_PATH error for path.
func InvalidPath(path, format string, args ...any) *Error {
	return &Error{
		Code:    CodeInvalidPath,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	}
}

// QueryBuild creates a QUERY_BUILD error.
func QueryBuild(format string, args ...any) *Error {
	return &Error{
		Code:    CodeQueryBuild,
		Message: fmt.Sprintf(format, args...),
	}
}

// Encode creates an ENCODE error wrapping err.
func Encode(message string, err error) *Error {
	return &Error{
		Code:    CodeEncode,
		Message: message,
		Err:     err,
	}
}

// Decode creates a DECODE error naming the offending field and expected type.
func Decode(path, expected, message string, err error) *Error {
	return &Error{
		Code:     CodeDecode,
		Path:     path,
		Expected: expected,
		Message:  message,
		Err:      err,
	}
}

// Constraint creates a CONSTRAINT error for op wrapping the engine diagnostic.
func Constraint(op string, err error) *Error {
	return &Error{
		Code:    CodeConstraint,
		Op:      op,
		Message: "constraint violation",
		Err:     err,
	}
}

// Storage creates a STORAGE error for op wrapping the engine diagnostic.
func Storage(op string, err error) *Error {
	return &Error{
		Code:    CodeStorage,
		Op:      op,
		Message: "engine failure",
		Err:     err,
	}
}

// CodeOf returns the Code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// IsInvalidPath reports whether err is an INVALID_PATH error.
func IsInvalidPath(err error) bool { return Is(err, CodeInvalidPath) }

// IsQueryBuild reports whether err is a QUERY_BUILD error.
func IsQueryBuild(err error) bool { return Is(err, CodeQueryBuild) }

// IsEncode reports whether err is an ENCODE error.
func IsEncode(err error) bool { return Is(err, CodeEncode) }

// IsDecode reports whether err is a DECODE error.
func IsDecode(err error) bool { return Is(err, CodeDecode) }

// IsConstraint reports whether err is a CONSTRAINT error.
func IsConstraint(err error) bool { return Is(err, CodeConstraint) }

// IsStorage reports whether err is a STORAGE error.
func IsStorage(err error) bool { return Is(err, CodeStorage) }

// IsBuildTime reports whether err was produced before reaching the engine.
func IsBuildTime(err error) bool {
	switch CodeOf(err) {
	case CodeInvalidPath, CodeQueryBuild, CodeEncode:
		return true
	}
	return false
}

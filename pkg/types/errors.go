package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the core can surface, so that callers
// have one error surface regardless of which backend or subsystem failed.
type ErrorKind int

const (
	// CommandError is a process spawn or I/O failure.
	CommandError ErrorKind = iota
	// Utf8Error means subprocess output was not valid text.
	Utf8Error
	// ParseError means output did not match the expected grammar, including
	// "package not found" responses from query tools.
	ParseError
	// SerializationError is a JSON encode/decode failure.
	SerializationError
	// RequestError is an HTTP transport failure.
	RequestError
	// UnknownError covers domain-specific failures such as a non-zero exit
	// status or an operation a backend does not implement.
	UnknownError
)

func (k ErrorKind) String() string {
	switch k {
	case CommandError:
		return "command error"
	case Utf8Error:
		return "invalid UTF-8 output"
	case ParseError:
		return "parse error"
	case SerializationError:
		return "serialization error"
	case RequestError:
		return "request error"
	case UnknownError:
		return "unknown error"
	}
	return "undefined error kind"
}

// Error is the single error value type of the core. It carries a kind, a
// message, and optionally the underlying cause for errors.Is/As chains.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg == "" && e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds an Error of the given kind with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapError attaches a kind and context message to an underlying error.
func WrapError(kind ErrorKind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the ErrorKind from err, walking wrapped chains. Errors that
// did not originate in this package report UnknownError.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return UnknownError
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

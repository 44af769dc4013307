package calc

import (
	"errors"
	"fmt"
)

// Kind classifies a caller-input failure. Every failure the engine reports
// carries exactly one Kind.
type Kind string

const (
	KindInvalidDateFormat    Kind = "InvalidDateFormat"
	KindInvalidParameter     Kind = "InvalidParameter"
	KindInvalidDateRange     Kind = "InvalidDateRange"
	KindUnknownTimezone      Kind = "UnknownTimezone"
	KindMissingParameter     Kind = "MissingParameter"
	KindInvalidFormatPattern Kind = "InvalidFormatPattern"
)

// Sentinels for errors.Is matching on kind alone.
var (
	ErrInvalidDateFormat    = &Error{Kind: KindInvalidDateFormat}
	ErrInvalidParameter     = &Error{Kind: KindInvalidParameter}
	ErrInvalidDateRange     = &Error{Kind: KindInvalidDateRange}
	ErrUnknownTimezone      = &Error{Kind: KindUnknownTimezone}
	ErrMissingParameter     = &Error{Kind: KindMissingParameter}
	ErrInvalidFormatPattern = &Error{Kind: KindInvalidFormatPattern}
)

// Error is the structured error returned by every engine operation.
type Error struct {
	Kind    Kind
	Param   string // offending parameter name, if known
	Message string
}

func (e *Error) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Param, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, param, format string, args ...any) *Error {
	return &Error{Kind: kind, Param: param, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind carried by err, or "" if err is not an engine error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Missing reports a required parameter that was not supplied.
func Missing(param string) *Error {
	return newError(KindMissingParameter, param, "parameter is required")
}

// Invalid reports a parameter whose value is outside its declared domain.
func Invalid(param, format string, args ...any) *Error {
	return newError(KindInvalidParameter, param, format, args...)
}

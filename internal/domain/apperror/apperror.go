// Package apperror carries user-facing business failures. They are reported
// to clients verbatim with HTTP 200 and status "error"; anything else is
// treated as an infrastructure failure.
package apperror

import "errors"

type Error struct {
	Message string
	// Data is merged into the response envelope when set.
	Data map[string]any
}

func (e *Error) Error() string { return e.Message }

func New(message string) *Error {
	return &Error{Message: message}
}

func WithData(message string, data map[string]any) *Error {
	return &Error{Message: message, Data: data}
}

// As reports whether err is, or wraps, a business failure.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

package core

import (
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError reports bad user or import input. It never implies that state was modified.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	msgs := make([]string, 0, len(err.Fields))
	for _, fld := range err.Fields {
		msgs = append(msgs, fld.Error)
	}
	return strings.Join(msgs, "; ")
}

func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// FormatError reports a file that exists but does not have the expected structure.
type FormatError struct {
	Path string
	Err  error
}

func NewFormatError(path string, err error) error {
	return &FormatError{Path: path, Err: err}
}

func (err FormatError) Error() string {
	msg := "invalid format"
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	if err.Path != "" {
		return err.Path + ": " + msg
	}
	return msg
}

func (err FormatError) Unwrap() error { return err.Err }

func IsFormatError(err error) bool {
	var fErr *FormatError
	return errors.As(err, &fErr)
}

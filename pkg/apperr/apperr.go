// Package apperr defines the error kinds raised by the CV ingestion pipeline
// and the HTTP layer that reports them.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies where in the pipeline an error originated.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindExtraction  Kind = "extraction"
	KindGateway     Kind = "gateway"
	KindParse       Kind = "parse"
	KindPersistence Kind = "persistence"
)

// Error carries a Kind plus the operation and item (file name, chunk, email)
// it applies to.
type Error struct {
	Kind    Kind
	Op      string
	Item    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}

	switch {
	case e.Op != "" && e.Item != "":
		return fmt.Sprintf("%s %s (%s): %s", e.Kind, e.Op, e.Item, msg)
	case e.Op != "":
		return fmt.Sprintf("%s %s: %s", e.Kind, e.Op, msg)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports missing or malformed caller input.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Extraction reports an unreadable upload.
func Extraction(file string, err error) *Error {
	return &Error{Kind: KindExtraction, Op: "extract", Item: file, Err: err}
}

// Gateway reports a failed completion call.
func Gateway(op string, err error) *Error {
	return &Error{Kind: KindGateway, Op: op, Err: err}
}

// Parse reports a model response that could not be decoded.
func Parse(err error) *Error {
	return &Error{Kind: KindParse, Op: "parse", Err: err}
}

// Persistence reports a store failure for a single record.
func Persistence(item string, err error) *Error {
	return &Error{Kind: KindPersistence, Op: "persist", Item: item, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the caller-facing text of an *Error, without the kind prefix.
func Message(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

// Package apperror defines the error kinds surfaced by the stock ledger.
package apperror

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Kind string

const (
	InvalidValue      Kind = "InvalidValue"
	NotFound          Kind = "NotFound"
	DuplicateName     Kind = "DuplicateName"
	DuplicateEmail    Kind = "DuplicateEmail"
	InsufficientStock Kind = "InsufficientStock"
	Conflict          Kind = "Conflict"
	StorageError      Kind = "StorageError"
)

// Code returns the gRPC status code the kind travels as.
func (k Kind) Code() codes.Code {
	switch k {
	case InvalidValue:
		return codes.InvalidArgument
	case NotFound:
		return codes.NotFound
	case DuplicateName, DuplicateEmail:
		return codes.AlreadyExists
	case InsufficientStock:
		return codes.FailedPrecondition
	case Conflict:
		return codes.Aborted
	default:
		return codes.Internal
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// GRPCStatus lets status.FromError recognise the error without conversion.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.Kind.Code(), e.Message)
}

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Storage wraps a persistence failure. A nil err yields nil.
func Storage(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return Wrap(StorageError, err, message)
}

// KindOf reports the kind of err. Errors that carry no kind are storage errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return StorageError
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

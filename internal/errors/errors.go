package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

func (e ErrorType) String() string {
	return string(e)
}

const (
	ErrInvalidArgument ErrorType = "Invalid Argument"
	ErrNotFound        ErrorType = "Resource Not Found"
	ErrInternalError   ErrorType = "Internal Error"
	ErrFailedPrecond   ErrorType = "Failed Precondition"
	ErrUnavailable     ErrorType = "Unavailable"
)

type DomainError struct {
	ErrorType  ErrorType
	Entity     string
	Message    string
	WrappedErr error
}

func (e *DomainError) Error() string {
	subError := ""
	if e.WrappedErr != nil {
		subError = ": " + e.WrappedErr.Error()
	}

	return fmt.Sprintf("%v for entity %v: %v%s", e.ErrorType, e.Entity, e.Message, subError)
}

func (e *DomainError) Unwrap() error {
	return e.WrappedErr
}

// DebugString returns the full chain of domain errors, one per entity.
func (e *DomainError) DebugString() string {
	var de *DomainError
	if e.WrappedErr != nil && errors.As(e.WrappedErr, &de) {
		return fmt.Sprintf("%v for %v: %v (%s)", e.ErrorType, e.Entity, e.Message, de.DebugString())
	}
	return fmt.Sprintf("%v for %v: %v", e.ErrorType, e.Entity, e.Message)
}

func NewError(errType ErrorType, entity, msg string) *DomainError {
	return &DomainError{
		ErrorType: errType,
		Entity:    entity,
		Message:   msg,
	}
}

func InvalidArgument(entity, msg string) *DomainError {
	return NewError(ErrInvalidArgument, entity, msg)
}

func NotFound(entity, msg string) *DomainError {
	return NewError(ErrNotFound, entity, msg)
}

func FailedPrecondition(entity, msg string) *DomainError {
	return NewError(ErrFailedPrecond, entity, msg)
}

func InternalError(entity, msg string, err error) *DomainError {
	return &DomainError{
		ErrorType:  ErrInternalError,
		Entity:     entity,
		Message:    msg,
		WrappedErr: err,
	}
}

// Wrap keeps the error type of a wrapped domain error, otherwise marks it as internal.
func Wrap(entity, msg string, err error) *DomainError {
	var de *DomainError
	if errors.As(err, &de) {
		return &DomainError{
			ErrorType:  de.ErrorType,
			Entity:     entity,
			Message:    msg,
			WrappedErr: err,
		}
	}

	return InternalError(entity, msg, err)
}

func WrapIfErr(entity, msg string, err error) error {
	if err == nil {
		return nil
	}
	return Wrap(entity, msg, err)
}

// AddErrContext wraps err with a message, returning err unchanged when it is nil.
func AddErrContext(err error, entity, msg string) error {
	return WrapIfErr(entity, msg, err)
}

func IsErrorType(err error, errType ErrorType) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.ErrorType == errType
	}
	return false
}

// HTTPStatus maps an error to the status code used by the http handlers.
func HTTPStatus(err error) int {
	var de *DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError
	}

	switch de.ErrorType {
	case ErrInvalidArgument:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrFailedPrecond:
		return http.StatusPreconditionFailed
	case ErrUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Join(errs ...error) error {
	return errors.Join(errs...)
}

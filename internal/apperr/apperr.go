// Package apperr defines the error kinds surfaced to API clients.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Afonso-Front-End/torre-de-controle/pkg/constants"
)

type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindInvalidFormat
	KindMissingColumn
	KindSizeLimitExceeded
	KindStorageFailure
	KindNotFound
	KindConflict
	KindUnauthorized
)

// Error carries a client-facing message and the HTTP class it maps to.
type Error struct {
	Kind    Kind
	Message string
	Column  string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func InvalidInput(msg string) *Error {
	return &Error{Kind: KindInvalidInput, Message: msg}
}

func InvalidFormat(err error) *Error {
	return &Error{Kind: KindInvalidFormat, Message: fmt.Sprintf(constants.ErrReadWorkbook, err), Err: err}
}

func EmptyWorkbook() *Error {
	return &Error{Kind: KindInvalidFormat, Message: constants.ErrEmptyWorkbook}
}

// MissingColumn names the column the uploaded header lacks.
func MissingColumn(column string) *Error {
	return &Error{
		Kind:    KindMissingColumn,
		Message: fmt.Sprintf(constants.ErrMissingExcelColumn, column),
		Column:  column,
	}
}

// MissingColumnf is MissingColumn with a caller-chosen message format.
func MissingColumnf(format, column string) *Error {
	return &Error{Kind: KindMissingColumn, Message: fmt.Sprintf(format, column), Column: column}
}

func SizeLimitExceeded(maxMB int) *Error {
	return &Error{Kind: KindSizeLimitExceeded, Message: fmt.Sprintf(constants.ErrFileTooLarge, maxMB)}
}

func Storage(msg string, err error) *Error {
	return &Error{Kind: KindStorageFailure, Message: msg, Err: err}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// IsKind reports whether err wraps an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// Status maps err to an HTTP status code and the message that is safe to
// show. Errors that are not *Error become a generic 500.
func Status(err error) (int, string) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, constants.ErrInternalServer
	}
	switch appErr.Kind {
	case KindInvalidInput, KindInvalidFormat, KindMissingColumn:
		return http.StatusBadRequest, appErr.Message
	case KindSizeLimitExceeded:
		return http.StatusRequestEntityTooLarge, appErr.Message
	case KindNotFound:
		return http.StatusNotFound, appErr.Message
	case KindConflict:
		return http.StatusConflict, appErr.Message
	case KindUnauthorized:
		return http.StatusUnauthorized, appErr.Message
	case KindStorageFailure:
		return http.StatusInternalServerError, appErr.Message
	default:
		return http.StatusInternalServerError, constants.ErrInternalServer
	}
}

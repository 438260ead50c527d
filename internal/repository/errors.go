package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a single-document lookup matches nothing.
var ErrNotFound = errors.New("record not found")

// BatchError reports the first failed document of an ordered insert.
type BatchError struct {
	Index   int
	Message string
	Err     error
}

func (e *BatchError) Error() string {
	return e.Message
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// BulkError collects the first write errors of an unordered bulk write.
type BulkError struct {
	Messages []string
	Err      error
}

func (e *BulkError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func (e *BulkError) Unwrap() error {
	return e.Err
}

package store

import (
	"errors"
	"fmt"
)

var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTaskNotFound       = errors.New("task not found")
	ErrCancelled          = errors.New("cancelled")
	ErrMalformedPayload   = errors.New("malformed payload")
	ErrDuplicateID        = errors.New("duplicate task id")
)

// RecordError rejects one record of a collection handed to Replace
type RecordError struct {
	Index int
	ID    string
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("task %d (id %q): %v", e.Index, e.ID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// StorageError reports a failed read or write against the key-value store
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// DeserializationError reports a stored payload that could not be decoded
// or does not have the expected shape
type DeserializationError struct {
	Key  string
	Path string
	Err  error
}

func (e *DeserializationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("decode %q at %s: %v", e.Key, e.Path, e.Err)
	}
	return fmt.Sprintf("decode %q: %v", e.Key, e.Err)
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}

// Is makes every DeserializationError match ErrMalformedPayload
func (e *DeserializationError) Is(target error) bool {
	return target == ErrMalformedPayload
}

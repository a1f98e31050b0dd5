package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an operation references a task id that does not exist.
var ErrNotFound = errors.New("task not found")

// StorageError reports that the underlying database could not serve a request.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err carries a *StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

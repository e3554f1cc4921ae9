package store

import (
	"errors"
	"fmt"

	"github.com/uptrace/bun/driver/pgdriver"
)

type StorageError struct {
	Message       string
	OriginalError error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s (original error: %v)", e.Message, e.OriginalError)
}

func (e *StorageError) Unwrap() error {
	return e.OriginalError
}

func NewStorageError(message string, originalError error) *StorageError {
	return &StorageError{Message: message, OriginalError: originalError}
}

// IsTransient reports whether err is a connection or serialization failure
// that may succeed when retried.
func IsTransient(err error) bool {
	var pgErr pgdriver.Error
	if !errors.As(err, &pgErr) {
		return false
	}
	code := pgErr.Field('C')
	if len(code) < 2 {
		return false
	}
	switch code[:2] {
	case "08", "40", "57":
		// connection exception, transaction rollback, operator intervention
		return true
	default:
		return false
	}
}

package service

import (
	"betline/database"
	"betline/models"
)

// storageError converts infrastructure timeouts into the retryable
// StorageTimeoutError. Domain errors pass through untouched.
func storageError(op string, err error) error {
	if database.IsTimeout(err) {
		return &models.StorageTimeoutError{Op: op, Err: err}
	}
	return err
}

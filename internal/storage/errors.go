package storage

import (
	"errors"
	"fmt"
)

// Sentinel errors for conversation storage.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrStorageUnavailable indicates the database could not be opened or
	// its schema could not be created.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNotFound indicates the requested conversation does not exist.
	ErrNotFound = errors.New("conversation not found")

	// ErrTransactionFailure indicates a read or write was aborted. Callers
	// may retry or surface it to the user.
	ErrTransactionFailure = errors.New("transaction failed")
)

// txError wraps err with ErrTransactionFailure unless it already carries
// one of the sentinels above.
func txError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrTransactionFailure) || errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: failed to %s: %v", ErrTransactionFailure, op, err)
}

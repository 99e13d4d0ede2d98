package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a malformed input or output shape. Never retried.
	ErrValidation = errors.New("validation failure")
	// ErrUnavailable marks a transient external failure after retries are exhausted.
	ErrUnavailable = errors.New("service unavailable")
	// ErrNotInitialized means the knowledge base holds zero indexed passages.
	ErrNotInitialized = errors.New("knowledge base not initialized")
	// ErrConfiguration marks missing credentials or endpoints. Fatal at startup.
	ErrConfiguration = errors.New("configuration error")
	// ErrRateLimited means the caller exceeded its request budget.
	ErrRateLimited = errors.New("rate limited")

	ErrInvalidInput    = errors.New("invalid input")
	ErrSessionNotFound = errors.New("session not found")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

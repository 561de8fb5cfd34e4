package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// capacity errors
	ErrCapacityExceeded = errors.New("mailbox daily send limit reached")

	// lead errors
	ErrLeadNotFound      = errors.New("lead not found")
	ErrInvalidTransition = errors.New("invalid lead status transition")

	// template errors
	ErrNoActiveTemplates = errors.New("no active templates for requested type")

	// reply errors
	ErrNoPendingSuggestion = errors.New("no pending suggested reply")
)

// ProvidersExhaustedError signals that every configured generation target failed.
// LastErr carries the failure of the final candidate tried.
type ProvidersExhaustedError struct {
	LastErr error
}

func (e *ProvidersExhaustedError) Error() string {
	return fmt.Sprintf("all generation targets failed, last error: %v", e.LastErr)
}

func (e *ProvidersExhaustedError) Unwrap() error {
	return e.LastErr
}

// IsProvidersExhausted reports whether err is (or wraps) a ProvidersExhaustedError.
func IsProvidersExhausted(err error) bool {
	var target *ProvidersExhaustedError
	return errors.As(err, &target)
}

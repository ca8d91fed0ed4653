package errors

import (
	"errors"
	"fmt"
)

// Common error types
var (
	ErrStorage       = errors.New("storage error")
	ErrTransport     = errors.New("transport error")
	ErrConfiguration = errors.New("configuration error")

	ErrForbidden   = fmt.Errorf("%w: forbidden", ErrTransport)
	ErrAlreadyGone = fmt.Errorf("%w: already gone", ErrTransport)
)

// Storage marks err as a durable storage failure of the given operation.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

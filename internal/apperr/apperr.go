// Package apperr defines the error kinds the core surfaces to its
// transports (spec.md §7), wrapped with enough context for logs while
// staying errors.Is/errors.As comparable against the sentinels below.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrGameAlreadyExists is returned by CreateGame when the target id
	// is already occupied.
	ErrGameAlreadyExists = errors.New("game already exists")

	// ErrGameDoesNotExist is returned by any non-Create command whose
	// target id is absent.
	ErrGameDoesNotExist = errors.New("game does not exist")

	// ErrRelay is returned once the realtime relay's retry envelope is
	// exhausted.
	ErrRelay = errors.New("realtime relay publish failed")

	// ErrStore wraps a durable-storage failure.
	ErrStore = errors.New("store operation failed")

	// ErrBus wraps an event-bus publish failure.
	ErrBus = errors.New("event bus publish failed")
)

// Wrap attaches context to a sentinel while keeping it errors.Is-comparable.
func Wrap(sentinel error, context string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", context, sentinel)
	}
	return fmt.Errorf("%s: %w: %v", context, sentinel, cause)
}

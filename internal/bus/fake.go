package bus

import (
	"context"
	"sync"

	"connectfour-engine/internal/model"
)

// Fake is an in-memory Publisher recording every event it was asked to
// publish, for unit-testing C7 without a live NATS connection.
type Fake struct {
	mu     sync.Mutex
	events []model.Event
}

func NewFake() *Fake { return &Fake{} }

func (f *Fake) Publish(ctx context.Context, event model.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

// Events returns every event published so far, in order.
func (f *Fake) Events() []model.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Event(nil), f.events...)
}

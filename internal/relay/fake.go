package relay

import (
	"context"
	"sync"
)

type fakePublication struct {
	Channel string
	Payload any
}

// Fake is an in-memory Publisher recording every publish, for
// unit-testing C7 without a live Centrifugo instance.
type Fake struct {
	mu            sync.Mutex
	publications  []fakePublication
}

func NewFake() *Fake { return &Fake{} }

func (f *Fake) Publish(ctx context.Context, channel string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publications = append(f.publications, fakePublication{Channel: channel, Payload: payload})
	return nil
}

// Channels returns every channel published to so far, in order.
func (f *Fake) Channels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.publications))
	for i, p := range f.publications {
		out[i] = p.Channel
	}
	return out
}

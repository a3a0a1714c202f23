// Package bus is the C5 EventBus: at-least-once publication of domain
// events on named subjects within a durable stream (spec.md §4.5). The
// backend is NATS JetStream — the one external dependency nothing in the
// example pack exercises in working code, named only in sibling repos'
// go.mod manifests, and adopted here because it is the direct fit for
// "durable stream... pull-style consumers, one durable name per subject"
// (spec.md §6).
package bus

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"connectfour-engine/internal/apperr"
	"connectfour-engine/internal/model"
)

// Subjects are the egress subjects on the "games" stream (spec.md §6).
const (
	SubjectGameCreated  = "connect_four.game.created"
	SubjectGameEnded    = "connect_four.game.ended"
	SubjectMoveAccepted = "connect_four.game.move_accepted"
	SubjectMoveRejected = "connect_four.game.move_rejected"
)

// ingressSubjects mirrors internal/transport's consumer subjects. The
// "games" stream carries both directions, the same way
// message_broker/stream_creator declares every subject, ingress and
// egress, on one stream; a consumer's FilterSubject has to be a member
// of the stream it binds to, so leaving these out of StreamConfig breaks
// every durable pull-consumer at creation time.
const (
	ingressSubjectGameCreated       = "connection_hub.connect_four.game.created"
	ingressSubjectGamePlayerDisqual = "connection_hub.connect_four.game.player_disqualified"
	ingressSubjectMoveWasMade       = "api_gateway.connect_four.game.move_was_made"
)

// Publisher is what C7's processors depend on; it exists so tests can
// swap in a fake without touching a real NATS connection.
type Publisher interface {
	Publish(ctx context.Context, event model.Event) error
}

// Bus publishes domain events to a NATS JetStream stream.
type Bus struct {
	js         jetstream.JetStream
	streamName string
}

// Connect dials NATS and ensures the durable stream exists, grounded on
// the teacher's Connect(url) (*Client, error) constructor idiom used for
// its own Redis/DB clients.
func Connect(ctx context.Context, natsURL, streamName string) (*Bus, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrBus, "bus: connect", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, apperr.Wrap(apperr.ErrBus, "bus: jetstream", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name: streamName,
		Subjects: []string{
			SubjectGameCreated,
			SubjectGameEnded,
			SubjectMoveAccepted,
			SubjectMoveRejected,
			ingressSubjectGameCreated,
			ingressSubjectGamePlayerDisqual,
			ingressSubjectMoveWasMade,
		},
	})
	if err != nil {
		nc.Close()
		return nil, apperr.Wrap(apperr.ErrBus, "bus: ensure stream", err)
	}

	return &Bus{js: js, streamName: streamName}, nil
}

// wirePayload is the stable egress JSON shape (spec.md §6): every event
// carries operation_id; game_ended additionally carries reason and
// chip_location.
type wirePayload struct {
	GameID       string              `json:"game_id"`
	OperationID  string              `json:"operation_id"`
	ChipLocation *model.ChipLocation `json:"chip_location,omitempty"`
	Reason       string              `json:"reason,omitempty"`
}

func subjectFor(kind model.EventKind) string {
	switch kind {
	case model.EventGameCreated:
		return SubjectGameCreated
	case model.EventGameEnded:
		return SubjectGameEnded
	case model.EventMoveAccepted:
		return SubjectMoveAccepted
	case model.EventMoveRejected:
		return SubjectMoveRejected
	default:
		return ""
	}
}

func encode(event model.Event) ([]byte, string, error) {
	subject := subjectFor(event.Kind)

	payload := wirePayload{
		GameID:       event.GameID.Hex(),
		OperationID:  event.OperationID,
		ChipLocation: event.Location,
	}
	switch event.Kind {
	case model.EventMoveRejected:
		payload.Reason = string(event.RejectionReason)
	case model.EventGameEnded:
		payload.Reason = string(event.EndReason)
	}

	data, err := json.Marshal(payload)
	return data, subject, err
}

// Publish sends event to its subject and waits for the broker's ack,
// satisfying the at-least-once contract spec.md §4.5 requires.
func (b *Bus) Publish(ctx context.Context, event model.Event) error {
	data, subject, err := encode(event)
	if err != nil {
		return apperr.Wrap(apperr.ErrBus, "bus: encode event", err)
	}
	if subject == "" {
		return apperr.Wrap(apperr.ErrBus, "bus: unknown event kind", nil)
	}

	if _, err := b.js.Publish(ctx, subject, data); err != nil {
		return apperr.Wrap(apperr.ErrBus, "bus: publish", err)
	}
	return nil
}

func (b *Bus) StreamName() string { return b.streamName }

// Stream returns the underlying jetstream.Stream handle so the consumer
// transport can create/bind durable pull-consumers directly; Publisher
// only needs Publish, but the ingress side needs the stream itself.
func (b *Bus) Stream(ctx context.Context) (jetstream.Stream, error) {
	return b.js.Stream(ctx, b.streamName)
}

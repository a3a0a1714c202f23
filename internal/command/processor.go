package command

import (
	"context"
	"time"

	"go.uber.org/zap"

	"connectfour-engine/internal/bus"
	"connectfour-engine/internal/model"
	"connectfour-engine/internal/relay"
	"connectfour-engine/internal/scheduler"
	"connectfour-engine/internal/store"
)

// Processors holds the C3–C6 dependencies every command handler binds
// together, constructed once at boot and shared across worker goroutines
// (spec.md §9's "explicit construction at the worker-boot boundary").
type Processors struct {
	store     store.GameStore
	scheduler scheduler.TaskScheduler
	bus       bus.Publisher
	relay     relay.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func New(s store.GameStore, sch scheduler.TaskScheduler, b bus.Publisher, r relay.Publisher, logger *zap.Logger) *Processors {
	return &Processors{store: s, scheduler: sch, bus: b, relay: r, logger: logger, now: time.Now}
}

// wantsRelay reports whether any player's client is reachable through
// the realtime relay (spec.md §4.6: relay publication is best-effort and
// conditional, never unconditional).
func wantsRelay(players model.Players) bool {
	for _, id := range players.IDs() {
		if state, ok := players.Get(id); ok && state.CommunicationType == model.CommunicationRelay {
			return true
		}
	}
	return false
}

// relayPayload is the best-effort JSON body the relay forwards verbatim
// to subscribed clients; it mirrors the bus event's own fields since both
// sinks exist to tell the same story to two different audiences.
type relayPayload struct {
	Type         string               `json:"type"`
	GameID       string               `json:"game_id"`
	ChipLocation *model.ChipLocation  `json:"chip_location,omitempty"`
	Reason       string               `json:"reason,omitempty"`
}

func (p *Processors) publishRelay(ctx context.Context, game *model.Game, event model.Event) error {
	if !wantsRelay(game.Players) {
		return nil
	}
	channel := relay.GameChannel(game.ID.Hex())
	payload := relayPayload{
		Type:         string(event.Kind),
		GameID:       game.ID.Hex(),
		ChipLocation: event.Location,
	}
	switch event.Kind {
	case model.EventMoveRejected:
		payload.Reason = string(event.RejectionReason)
	case model.EventGameEnded:
		payload.Reason = string(event.EndReason)
	}
	if err := p.relay.Publish(ctx, channel, payload); err != nil {
		return err
	}
	return nil
}

func (p *Processors) unscheduleTimeout(ctx context.Context, stateID model.GameStateId) error {
	return p.scheduler.Unschedule(ctx, model.TryToLoseByTimeTaskID(stateID))
}

func (p *Processors) scheduleTimeout(ctx context.Context, game *model.Game, operationID string) error {
	player, ok := game.Players.Get(game.CurrentTurn)
	if !ok {
		return nil
	}
	task := model.NewTryToLoseByTimeTask(game.ID, game.StateID, p.now().Add(player.TimeLeft), operationID)
	return p.scheduler.Schedule(ctx, task)
}

// eventForMoveResult maps the rules engine's MoveResult sum onto the
// Event sum the bus and relay publish (spec.md §3), the one place that
// has to switch exhaustively over MoveResultKind.
func eventForMoveResult(gameID model.GameId, operationID string, result model.MoveResult) model.Event {
	switch result.Kind {
	case model.MoveResultAccepted:
		return model.NewMoveAcceptedEvent(gameID, operationID, result.Location)
	case model.MoveResultRejected:
		return model.NewMoveRejectedEvent(gameID, operationID, result.Reason)
	case model.MoveResultWin:
		loc := result.Location
		return model.NewGameEndedEvent(gameID, operationID, model.EndReasonWin, &loc)
	case model.MoveResultDraw:
		loc := result.Location
		return model.NewGameEndedEvent(gameID, operationID, model.EndReasonDraw, &loc)
	case model.MoveResultLossByTime:
		loc := result.Location
		return model.NewGameEndedEvent(gameID, operationID, model.EndReasonLossByTime, &loc)
	default:
		panic("command: unhandled move result kind")
	}
}

package command

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	busp "connectfour-engine/internal/bus"
	"connectfour-engine/internal/model"
	relayp "connectfour-engine/internal/relay"
	schedp "connectfour-engine/internal/scheduler"
	storep "connectfour-engine/internal/store"
)

type harness struct {
	store     *storep.Fake
	scheduler *schedp.Fake
	bus       *busp.Fake
	relay     *relayp.Fake
	processors *Processors
}

func newHarness() *harness {
	h := &harness{
		store:     storep.NewFake(),
		scheduler: schedp.NewFake(),
		bus:       busp.NewFake(),
		relay:     relayp.NewFake(),
	}
	h.processors = New(h.store, h.scheduler, h.bus, h.relay, zap.NewNop())
	return h
}

func relaySpec() PlayerSpec {
	return PlayerSpec{UserID: model.NewUserId(), TimeLeft: time.Minute, CommunicationType: model.CommunicationRelay}
}

func otherSpec() PlayerSpec {
	return PlayerSpec{UserID: model.NewUserId(), TimeLeft: time.Minute, CommunicationType: model.CommunicationOther}
}

func TestCreateGamePublishesAndSchedulesNothingYet(t *testing.T) {
	h := newHarness()
	gameID := model.NewGameId()

	err := h.processors.CreateGame(context.Background(), CreateGameCommand{
		GameID:       gameID,
		LobbyID:      model.NewLobbyId(),
		FirstPlayer:  relaySpec(),
		SecondPlayer: otherSpec(),
		CreatedAt:    time.Now(),
		OperationID:  "op-1",
	})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	game, ok := h.store.Get(gameID)
	if !ok {
		t.Fatal("game was not persisted")
	}
	if game.Status != model.StatusNotStarted {
		t.Errorf("fresh game should be NotStarted, got %v", game.Status)
	}
	if h.scheduler.Len() != 0 {
		t.Errorf("CreateGame should not schedule a timeout before the first move, got %d", h.scheduler.Len())
	}

	events := h.bus.Events()
	if len(events) != 1 || events[0].Kind != model.EventGameCreated {
		t.Fatalf("expected exactly one game_created event, got %v", events)
	}

	// One player uses the relay, so the lobby channel should have received
	// the creation notification too.
	channels := h.relay.Channels()
	if len(channels) != 1 {
		t.Fatalf("expected exactly one relay publish for a relay-using player, got %v", channels)
	}
	_ = game
}

func TestCreateGameRejectsDuplicateId(t *testing.T) {
	h := newHarness()
	gameID := model.NewGameId()
	cmd := CreateGameCommand{
		GameID:       gameID,
		LobbyID:      model.NewLobbyId(),
		FirstPlayer:  otherSpec(),
		SecondPlayer: otherSpec(),
		CreatedAt:    time.Now(),
		OperationID:  "op-1",
	}

	if err := h.processors.CreateGame(context.Background(), cmd); err != nil {
		t.Fatalf("first CreateGame: %v", err)
	}
	if err := h.processors.CreateGame(context.Background(), cmd); err == nil {
		t.Fatal("expected the second CreateGame against the same id to fail")
	}
}

func TestMakeMoveSchedulesTimeoutOnAcceptedMove(t *testing.T) {
	h := newHarness()
	gameID := model.NewGameId()
	first, second := otherSpec(), otherSpec()

	if err := h.processors.CreateGame(context.Background(), CreateGameCommand{
		GameID: gameID, LobbyID: model.NewLobbyId(), FirstPlayer: first, SecondPlayer: second,
		CreatedAt: time.Now(), OperationID: "op-create",
	}); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	if err := h.processors.MakeMove(context.Background(), MakeMoveCommand{
		CurrentUserID: first.UserID, GameID: gameID, Column: 0, OperationID: "op-move-1",
	}); err != nil {
		t.Fatalf("MakeMove: %v", err)
	}

	game, _ := h.store.Get(gameID)
	if h.scheduler.Len() != 1 {
		t.Fatalf("expected exactly one scheduled timeout after an accepted move, got %d", h.scheduler.Len())
	}
	if !h.scheduler.Has(model.TryToLoseByTimeTaskID(game.StateID)) {
		t.Error("the scheduled task id should be keyed by the game's current state id")
	}
}

func TestMakeMoveUnschedulesPreviousTimeoutOnNextMove(t *testing.T) {
	h := newHarness()
	gameID := model.NewGameId()
	first, second := otherSpec(), otherSpec()

	h.processors.CreateGame(context.Background(), CreateGameCommand{
		GameID: gameID, LobbyID: model.NewLobbyId(), FirstPlayer: first, SecondPlayer: second,
		CreatedAt: time.Now(), OperationID: "op-create",
	})
	h.processors.MakeMove(context.Background(), MakeMoveCommand{
		CurrentUserID: first.UserID, GameID: gameID, Column: 0, OperationID: "op-move-1",
	})
	gameAfterFirst, _ := h.store.Get(gameID)
	firstTaskID := model.TryToLoseByTimeTaskID(gameAfterFirst.StateID)

	if err := h.processors.MakeMove(context.Background(), MakeMoveCommand{
		CurrentUserID: second.UserID, GameID: gameID, Column: 1, OperationID: "op-move-2",
	}); err != nil {
		t.Fatalf("MakeMove: %v", err)
	}

	if h.scheduler.Has(firstTaskID) {
		t.Error("the previous move's timeout task should have been unscheduled")
	}
	if h.scheduler.Len() != 1 {
		t.Errorf("expected exactly one live scheduled task, got %d", h.scheduler.Len())
	}
}

func TestMakeMoveRejectionDoesNotTouchScheduler(t *testing.T) {
	h := newHarness()
	gameID := model.NewGameId()
	first, second := otherSpec(), otherSpec()

	h.processors.CreateGame(context.Background(), CreateGameCommand{
		GameID: gameID, LobbyID: model.NewLobbyId(), FirstPlayer: first, SecondPlayer: second,
		CreatedAt: time.Now(), OperationID: "op-create",
	})
	h.processors.MakeMove(context.Background(), MakeMoveCommand{
		CurrentUserID: first.UserID, GameID: gameID, Column: 0, OperationID: "op-move-1",
	})
	before := h.scheduler.Len()

	// second's turn: have first try to move again, out of turn.
	if err := h.processors.MakeMove(context.Background(), MakeMoveCommand{
		CurrentUserID: first.UserID, GameID: gameID, Column: 1, OperationID: "op-move-bad",
	}); err != nil {
		t.Fatalf("MakeMove: %v", err)
	}

	if h.scheduler.Len() != before {
		t.Errorf("a rejected move must not change the scheduled task count: before=%d after=%d", before, h.scheduler.Len())
	}

	events := h.bus.Events()
	last := events[len(events)-1]
	if last.Kind != model.EventMoveRejected {
		t.Errorf("expected the rejection to publish a move_rejected event, got %v", last.Kind)
	}
}

func TestEndGameUnschedulesTimeout(t *testing.T) {
	h := newHarness()
	gameID := model.NewGameId()
	first, second := otherSpec(), otherSpec()

	h.processors.CreateGame(context.Background(), CreateGameCommand{
		GameID: gameID, LobbyID: model.NewLobbyId(), FirstPlayer: first, SecondPlayer: second,
		CreatedAt: time.Now(), OperationID: "op-create",
	})
	h.processors.MakeMove(context.Background(), MakeMoveCommand{
		CurrentUserID: first.UserID, GameID: gameID, Column: 0, OperationID: "op-move-1",
	})
	if h.scheduler.Len() != 1 {
		t.Fatalf("expected a scheduled timeout before EndGame, got %d", h.scheduler.Len())
	}

	if err := h.processors.EndGame(context.Background(), EndGameCommand{GameID: gameID, OperationID: "op-end"}); err != nil {
		t.Fatalf("EndGame: %v", err)
	}

	if h.scheduler.Len() != 0 {
		t.Errorf("EndGame should unschedule the pending timeout, got %d remaining", h.scheduler.Len())
	}
	game, _ := h.store.Get(gameID)
	if game.Status != model.StatusEnded {
		t.Error("EndGame should leave the game Ended")
	}
}

func TestTryToLoseByTimeEndsGameAndPublishes(t *testing.T) {
	h := newHarness()
	gameID := model.NewGameId()
	first, second := otherSpec(), otherSpec()

	h.processors.CreateGame(context.Background(), CreateGameCommand{
		GameID: gameID, LobbyID: model.NewLobbyId(), FirstPlayer: first, SecondPlayer: second,
		CreatedAt: time.Now(), OperationID: "op-create",
	})
	h.processors.MakeMove(context.Background(), MakeMoveCommand{
		CurrentUserID: first.UserID, GameID: gameID, Column: 0, OperationID: "op-move-1",
	})
	game, _ := h.store.Get(gameID)

	if err := h.processors.TryToLoseByTime(context.Background(), TryToLoseByTimeCommand{
		GameID: gameID, GameStateID: game.StateID, OperationID: "op-timeout",
	}); err != nil {
		t.Fatalf("TryToLoseByTime: %v", err)
	}

	ended, _ := h.store.Get(gameID)
	if ended.Status != model.StatusEnded {
		t.Error("TryToLoseByTime against the current state should end the game")
	}

	events := h.bus.Events()
	last := events[len(events)-1]
	if last.Kind != model.EventGameEnded || last.EndReason != model.EndReasonLossByTime {
		t.Errorf("expected a game_ended/loss_by_time event, got %v/%v", last.Kind, last.EndReason)
	}
}

func TestTryToLoseByTimeStaleStateIsNoOp(t *testing.T) {
	h := newHarness()
	gameID := model.NewGameId()
	first, second := otherSpec(), otherSpec()

	h.processors.CreateGame(context.Background(), CreateGameCommand{
		GameID: gameID, LobbyID: model.NewLobbyId(), FirstPlayer: first, SecondPlayer: second,
		CreatedAt: time.Now(), OperationID: "op-create",
	})
	staleGame, _ := h.store.Get(gameID)
	staleStateID := staleGame.StateID

	h.processors.MakeMove(context.Background(), MakeMoveCommand{
		CurrentUserID: first.UserID, GameID: gameID, Column: 0, OperationID: "op-move-1",
	})
	eventsBefore := len(h.bus.Events())

	if err := h.processors.TryToLoseByTime(context.Background(), TryToLoseByTimeCommand{
		GameID: gameID, GameStateID: staleStateID, OperationID: "op-timeout",
	}); err != nil {
		t.Fatalf("TryToLoseByTime: %v", err)
	}

	game, _ := h.store.Get(gameID)
	if game.Status == model.StatusEnded {
		t.Error("a stale try_to_lose_by_time must be a silent no-op (I8)")
	}
	if len(h.bus.Events()) != eventsBefore {
		t.Error("a no-op TryToLoseByTime must not publish anything")
	}
}

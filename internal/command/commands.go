// Package command is the C7 CommandProcessors: one per command kind,
// orchestrating the rules engine, store, scheduler, bus and relay under
// a single commit per incoming command (spec.md §4.7). The records below
// are what the inbound-message decoder yields; decoding/validating the
// wire payload itself is out of scope (spec.md §1) — these structs are
// the decoder's contract with this package.
package command

import (
	"time"

	"connectfour-engine/internal/model"
)

// PlayerSpec is one side of a CreateGameCommand.
type PlayerSpec struct {
	UserID            model.UserId
	TimeLeft          time.Duration
	CommunicationType model.CommunicationType
}

type CreateGameCommand struct {
	GameID      model.GameId
	LobbyID     model.LobbyId
	FirstPlayer PlayerSpec
	SecondPlayer PlayerSpec
	CreatedAt   time.Time
	OperationID string
}

type EndGameCommand struct {
	GameID      model.GameId
	OperationID string
}

type MakeMoveCommand struct {
	CurrentUserID model.UserId
	GameID        model.GameId
	Column        int
	OperationID   string
}

type TryToLoseByTimeCommand struct {
	GameID      model.GameId
	GameStateID model.GameStateId
	OperationID string
}

// Package rules implements the pure Connect Four state machine: the
// create, makeMove, endGame and tryToLoseByTime operations over a
// model.Game (spec.md §4.2). Nothing in this package performs I/O;
// "now" is always passed in by the caller so the processors that wrap
// these operations stay in control of the wall clock (spec.md §5).
package rules

import (
	"time"

	"connectfour-engine/internal/model"
)

// directions enumerates the four axes a four-in-a-row can run along.
// Each is checked both forward and backward from the placed chip.
var directions = [4]struct{ dr, dc int }{
	{0, 1},
	{1, 0},
	{1, 1},
	{1, -1},
}

// Create builds a fresh NotStarted game for the given pair. When lastGame
// is non-nil, each player inherits the *other* player's chip type from
// that previous meeting (the rematch color swap, spec.md §4.2).
func Create(gameID model.GameId, firstPlayer, secondPlayer model.UserId, firstTime, secondTime time.Duration, firstComm, secondComm model.CommunicationType, createdAt time.Time, lastGame *model.Game) model.Game {
	firstChip, secondChip := model.ChipFirst, model.ChipSecond
	if lastGame != nil {
		if prev, ok := lastGame.Players.Get(firstPlayer); ok {
			firstChip = prev.ChipType.Other()
		}
		if prev, ok := lastGame.Players.Get(secondPlayer); ok {
			secondChip = prev.ChipType.Other()
		}
	}

	players := model.NewPlayers(
		firstPlayer, model.PlayerState{ChipType: firstChip, TimeLeft: firstTime, CommunicationType: firstComm},
		secondPlayer, model.PlayerState{ChipType: secondChip, TimeLeft: secondTime, CommunicationType: secondComm},
	)

	return model.Game{
		ID:          gameID,
		StateID:     model.NewGameStateId(),
		Status:      model.StatusNotStarted,
		Players:     players,
		CurrentTurn: players.ByChipType(model.ChipFirst),
		Board:       model.Board{},
		CreatedAt:   createdAt,
	}
}

// MakeMove applies one player's drop to column, mutating game in place and
// returning the outcome (spec.md §4.2). game must already satisfy
// invariants I1/I2; currentPlayerId not being a member is a programmer
// error in the caller (spec.md §4.2 step 1) and panics rather than
// returning a value, the same way an out-of-range slice index would.
func MakeMove(game *model.Game, currentPlayerId model.UserId, column int, now time.Time) model.MoveResult {
	player, ok := game.Players.Get(currentPlayerId)
	if !ok {
		panic("rules: MakeMove called with a player that is not in the game")
	}

	if game.Status == model.StatusEnded {
		return model.MoveRejected(model.ReasonGameIsEnded)
	}
	if game.CurrentTurn != currentPlayerId {
		return model.MoveRejected(model.ReasonOtherPlayerTurn)
	}
	if column < 0 || column >= model.Columns {
		return model.MoveRejected(model.ReasonIllegalMove)
	}

	row := game.Board.LowestEmptyRow(column)
	if row < 0 {
		return model.MoveRejected(model.ReasonIllegalMove)
	}
	loc := model.ChipLocation{Row: row, Column: column}

	wasNotStarted := game.Status == model.StatusNotStarted
	if wasNotStarted {
		game.LastMoveMadeAt = timePtr(now)
	} else {
		elapsed := now.Sub(*game.LastMoveMadeAt)
		if elapsed >= player.TimeLeft {
			player.TimeLeft = 0
			game.Players.Set(currentPlayerId, player)
			game.LastMoveMadeAt = timePtr(now)
			game.StateID = model.NewGameStateId()
			game.Status = model.StatusEnded
			return model.LossByTime(loc)
		}
		player.TimeLeft -= elapsed
		game.Players.Set(currentPlayerId, player)
		game.LastMoveMadeAt = timePtr(now)
	}

	game.StateID = model.NewGameStateId()
	game.Board.Set(row, column, player.ChipType)

	if wasNotStarted {
		game.Status = model.StatusInProgress
		game.CurrentTurn = game.Players.Other(currentPlayerId)
		return model.MoveAccepted(loc)
	}

	if hasFourInARow(&game.Board, row, column, player.ChipType) {
		game.Status = model.StatusEnded
		return model.Win(loc)
	}
	if game.Board.IsFull() {
		game.Status = model.StatusEnded
		return model.Draw(loc)
	}

	game.CurrentTurn = game.Players.Other(currentPlayerId)
	return model.MoveAccepted(loc)
}

// EndGame unconditionally ends the game, leaving clocks untouched
// (spec.md §4.2).
func EndGame(game *model.Game) {
	game.StateID = model.NewGameStateId()
	game.Status = model.StatusEnded
}

// TryToLoseByTime ends the game by time if, and only if, game is still at
// the expected state; a stale call is a silent no-op (spec.md §4.2, I8).
func TryToLoseByTime(game *model.Game, expectedStateID model.GameStateId) bool {
	if game.StateID != expectedStateID {
		return false
	}
	player, ok := game.Players.Get(game.CurrentTurn)
	if ok {
		player.TimeLeft = 0
		game.Players.Set(game.CurrentTurn, player)
	}
	game.StateID = model.NewGameStateId()
	game.Status = model.StatusEnded
	return true
}

// hasFourInARow reports whether the chip just placed at (row, column)
// completes a run of four or more along any of the four axes.
func hasFourInARow(board *model.Board, row, column int, chip model.ChipType) bool {
	for _, d := range directions {
		forward := runLength(board, row, column, d.dr, d.dc, chip)
		backward := runLength(board, row, column, -d.dr, -d.dc, chip)
		if forward+backward-1 >= 4 {
			return true
		}
	}
	return false
}

// runLength counts consecutive chips of chip's type starting at (row,
// column) and stepping by (dr, dc), including the starting cell itself.
func runLength(board *model.Board, row, column, dr, dc int, chip model.ChipType) int {
	count := 0
	r, c := row, column
	for r >= 0 && r < model.Rows && c >= 0 && c < model.Columns && board.At(r, c) == chip {
		count++
		r += dr
		c += dc
	}
	return count
}

func timePtr(t time.Time) *time.Time { return &t }

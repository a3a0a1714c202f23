package rules

import (
	"testing"
	"time"

	"connectfour-engine/internal/model"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newGame(t *testing.T) (model.UserId, model.UserId, model.Game) {
	t.Helper()
	p1, p2 := model.NewUserId(), model.NewUserId()
	game := Create(model.NewGameId(), p1, p2, time.Minute, time.Minute, model.CommunicationRelay, model.CommunicationOther, epoch, nil)
	return p1, p2, game
}

func TestCreateAssignsFirstMoverToChipFirst(t *testing.T) {
	p1, _, game := newGame(t)
	if game.CurrentTurn != p1 {
		t.Errorf("first mover should hold the opening turn, got %v want %v", game.CurrentTurn, p1)
	}
	if game.Status != model.StatusNotStarted {
		t.Errorf("a fresh game should be NotStarted, got %v", game.Status)
	}
	if err := game.Players.Validate(); err != nil {
		t.Errorf("fresh game should satisfy I1: %v", err)
	}
}

func TestCreateRematchSwapsColors(t *testing.T) {
	p1, p2, _ := newGame(t)
	last := Create(model.NewGameId(), p1, p2, time.Minute, time.Minute, model.CommunicationRelay, model.CommunicationOther, epoch, nil)

	rematch := Create(model.NewGameId(), p1, p2, time.Minute, time.Minute, model.CommunicationRelay, model.CommunicationOther, epoch.Add(time.Hour), &last)

	lastP1, _ := last.Players.Get(p1)
	rematchP1, _ := rematch.Players.Get(p1)
	if rematchP1.ChipType == lastP1.ChipType {
		t.Errorf("rematch should swap chip colors: last=%v rematch=%v", lastP1.ChipType, rematchP1.ChipType)
	}
}

func TestMakeMoveFirstMoveNeverDebitsClock(t *testing.T) {
	p1, _, game := newGame(t)
	before, _ := game.Players.Get(p1)

	result := MakeMove(&game, p1, 0, epoch.Add(30*time.Second))

	if result.Kind != model.MoveResultAccepted {
		t.Fatalf("expected the first move to be accepted, got %v", result.Kind)
	}
	after, _ := game.Players.Get(p1)
	if after.TimeLeft != before.TimeLeft {
		t.Errorf("first move should never debit the clock: before=%v after=%v", before.TimeLeft, after.TimeLeft)
	}
}

func TestMakeMoveDebitsClockOnSubsequentMoves(t *testing.T) {
	p1, p2, game := newGame(t)
	MakeMove(&game, p1, 0, epoch) // opening move, status -> InProgress, turn -> p2

	before, _ := game.Players.Get(p2)
	result := MakeMove(&game, p2, 1, epoch.Add(10*time.Second))
	if result.Kind != model.MoveResultAccepted {
		t.Fatalf("expected acceptance, got %v", result.Kind)
	}
	after, _ := game.Players.Get(p2)
	if after.TimeLeft != before.TimeLeft-10*time.Second {
		t.Errorf("clock should debit elapsed wall time: before=%v after=%v", before.TimeLeft, after.TimeLeft)
	}
}

func TestMakeMoveRejectsWrongTurnWithoutTouchingClock(t *testing.T) {
	p1, p2, game := newGame(t)
	before, _ := game.Players.Get(p1)

	result := MakeMove(&game, p2, 0, epoch.Add(time.Minute))
	if result.Kind != model.MoveResultRejected || result.Reason != model.ReasonOtherPlayerTurn {
		t.Fatalf("expected a rejection for out-of-turn play, got %v/%v", result.Kind, result.Reason)
	}
	after, _ := game.Players.Get(p1)
	if after.TimeLeft != before.TimeLeft {
		t.Error("a rejected move must never touch any player's clock")
	}
	_ = p1
}

func TestMakeMoveRejectsEndedGame(t *testing.T) {
	p1, _, game := newGame(t)
	EndGame(&game)

	result := MakeMove(&game, p1, 0, epoch.Add(time.Minute))
	if result.Kind != model.MoveResultRejected || result.Reason != model.ReasonGameIsEnded {
		t.Fatalf("expected GameIsEnded rejection, got %v/%v", result.Kind, result.Reason)
	}
}

func TestMakeMoveRejectsOutOfRangeColumn(t *testing.T) {
	p1, _, game := newGame(t)
	for _, col := range []int{-1, model.Columns} {
		result := MakeMove(&game, p1, col, epoch)
		if result.Kind != model.MoveResultRejected || result.Reason != model.ReasonIllegalMove {
			t.Errorf("column %d should be rejected as illegal, got %v/%v", col, result.Kind, result.Reason)
		}
	}
}

func TestMakeMoveRejectsFullColumn(t *testing.T) {
	p1, p2, game := newGame(t)
	turn := p1
	other := p2
	for i := 0; i < model.Rows; i++ {
		result := MakeMove(&game, turn, 0, epoch.Add(time.Duration(i)*time.Second))
		if result.Kind == model.MoveResultRejected {
			t.Fatalf("column should not be full yet at fill %d: %v", i, result.Reason)
		}
		if game.Status == model.StatusEnded {
			break
		}
		turn, other = other, turn
	}

	result := MakeMove(&game, game.CurrentTurn, 0, epoch.Add(time.Minute))
	if result.Kind != model.MoveResultRejected || result.Reason != model.ReasonIllegalMove {
		t.Errorf("a full column must be rejected as illegal, got %v/%v", result.Kind, result.Reason)
	}
}

func TestMakeMoveTimeoutEndsGameAsLossByTime(t *testing.T) {
	p1, p2, game := newGame(t)
	MakeMove(&game, p1, 0, epoch)

	result := MakeMove(&game, p2, 1, epoch.Add(2*time.Minute))
	if result.Kind != model.MoveResultLossByTime {
		t.Fatalf("a move arriving after the clock expired should end the game by time, got %v", result.Kind)
	}
	if game.Status != model.StatusEnded {
		t.Error("a loss-by-time move should end the game")
	}
	after, _ := game.Players.Get(p2)
	if after.TimeLeft != 0 {
		t.Errorf("the timed-out player's clock should clamp to zero, got %v", after.TimeLeft)
	}
}

// TestHorizontalWin drops four same-colored chips into a row and checks
// the last drop is detected as a win (spec.md §8's literal scenarios).
func TestHorizontalWin(t *testing.T) {
	p1, p2, game := newGame(t)
	// p1 plays columns 0..3 on the bottom row; p2 stacks on top of p1's
	// first three chips, one row up, so p1's turn keeps coming back around.
	moves := []struct {
		player model.UserId
		column int
	}{
		{p1, 0}, {p2, 0},
		{p1, 1}, {p2, 1},
		{p1, 2}, {p2, 2},
		{p1, 3},
	}

	var last model.MoveResult
	for i, mv := range moves {
		last = MakeMove(&game, mv.player, mv.column, epoch.Add(time.Duration(i)*time.Second))
		if last.Kind == model.MoveResultRejected {
			t.Fatalf("move %d unexpectedly rejected: %v", i, last.Reason)
		}
	}

	if last.Kind != model.MoveResultWin {
		t.Fatalf("expected the fourth same-row drop to win, got %v", last.Kind)
	}
	if game.Status != model.StatusEnded {
		t.Error("a winning move should end the game")
	}
}

// TestVerticalWin stacks four of p1's chips in one column, with p2
// filling a neighboring column between each drop.
func TestVerticalWin(t *testing.T) {
	p1, p2, game := newGame(t)
	moves := []struct {
		player model.UserId
		column int
	}{
		{p1, 0}, {p2, 1},
		{p1, 0}, {p2, 1},
		{p1, 0}, {p2, 1},
		{p1, 0},
	}

	var last model.MoveResult
	for i, mv := range moves {
		last = MakeMove(&game, mv.player, mv.column, epoch.Add(time.Duration(i)*time.Second))
		if last.Kind == model.MoveResultRejected {
			t.Fatalf("move %d unexpectedly rejected: %v", i, last.Reason)
		}
	}

	if last.Kind != model.MoveResultWin {
		t.Fatalf("expected the fourth stacked drop to win, got %v", last.Kind)
	}
	if game.Status != model.StatusEnded {
		t.Error("a winning move should end the game")
	}
}

// TestDiagonalWin builds the classic staircase of filler drops beneath
// columns 1-3 so p1's chips land on the (6,0)-(5,1)-(4,2)-(3,3) diagonal
// (row 0 is the top of the board, row 6 the bottom).
func TestDiagonalWin(t *testing.T) {
	p1, p2, game := newGame(t)
	moves := []struct {
		player model.UserId
		column int
	}{
		{p1, 0}, // row6,col0 - diagonal piece
		{p2, 1}, // row6,col1 - filler
		{p1, 1}, // row5,col1 - diagonal piece
		{p2, 2}, // row6,col2 - filler
		{p1, 3}, // row6,col3 - filler
		{p2, 2}, // row5,col2 - filler
		{p1, 2}, // row4,col2 - diagonal piece
		{p2, 3}, // row5,col3 - filler
		{p1, 3}, // row4,col3 - filler
		{p2, 0}, // row5,col0 - filler, doesn't interfere
		{p1, 3}, // row3,col3 - diagonal piece, completes the win
	}

	var last model.MoveResult
	for i, mv := range moves {
		last = MakeMove(&game, mv.player, mv.column, epoch.Add(time.Duration(i)*time.Second))
		if last.Kind == model.MoveResultRejected {
			t.Fatalf("move %d unexpectedly rejected: %v", i, last.Reason)
		}
	}

	if last.Kind != model.MoveResultWin {
		t.Fatalf("expected the diagonal-completing drop to win, got %v", last.Kind)
	}
}

func TestTryToLoseByTimeIsNoOpOnStaleState(t *testing.T) {
	_, _, game := newGame(t)
	staleID := game.StateID
	MakeMove(&game, game.CurrentTurn, 0, epoch) // advances StateID

	applied := TryToLoseByTime(&game, staleID)
	if applied {
		t.Error("a stale state id must never end the game (I8)")
	}
	if game.Status == model.StatusEnded {
		t.Error("a no-op TryToLoseByTime must leave the game untouched")
	}
}

func TestTryToLoseByTimeAppliesOnCurrentState(t *testing.T) {
	_, _, game := newGame(t)
	applied := TryToLoseByTime(&game, game.StateID)
	if !applied {
		t.Error("TryToLoseByTime against the current state id should apply")
	}
	if game.Status != model.StatusEnded {
		t.Error("an applied TryToLoseByTime should end the game")
	}
}

func TestEndGameLeavesClocksUntouched(t *testing.T) {
	p1, _, game := newGame(t)
	before, _ := game.Players.Get(p1)
	EndGame(&game)
	after, _ := game.Players.Get(p1)
	if after.TimeLeft != before.TimeLeft {
		t.Error("EndGame must not touch any player's clock")
	}
	if game.Status != model.StatusEnded {
		t.Error("EndGame should end the game")
	}
}

func TestMakeMoveWithNonMemberPanics(t *testing.T) {
	_, _, game := newGame(t)
	defer func() {
		if recover() == nil {
			t.Error("MakeMove with a non-member player should panic")
		}
	}()
	MakeMove(&game, model.NewUserId(), 0, epoch)
}

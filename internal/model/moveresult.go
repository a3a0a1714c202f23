package model

// MoveRejectionReason explains why a MakeMove was rejected without
// touching the board or the clock.
type MoveRejectionReason string

const (
	ReasonGameIsEnded    MoveRejectionReason = "game_is_ended"
	ReasonOtherPlayerTurn MoveRejectionReason = "other_player_turn"
	ReasonIllegalMove    MoveRejectionReason = "illegal_move"
)

// MoveResultKind tags the variant held by a MoveResult. Processors are
// expected to switch over this exhaustively rather than test fields.
type MoveResultKind string

const (
	MoveResultAccepted   MoveResultKind = "move_accepted"
	MoveResultRejected   MoveResultKind = "move_rejected"
	MoveResultWin        MoveResultKind = "win"
	MoveResultDraw       MoveResultKind = "draw"
	MoveResultLossByTime MoveResultKind = "loss_by_time"
)

// MoveResult is the sum type makeMove returns (spec.md §3). Exactly one
// of Location/Reason is meaningful depending on Kind:
//
//	MoveResultAccepted, MoveResultWin, MoveResultDraw, MoveResultLossByTime -> Location
//	MoveResultRejected                                                     -> Reason
type MoveResult struct {
	Kind     MoveResultKind
	Location ChipLocation
	Reason   MoveRejectionReason
}

func MoveAccepted(loc ChipLocation) MoveResult {
	return MoveResult{Kind: MoveResultAccepted, Location: loc}
}

func MoveRejected(reason MoveRejectionReason) MoveResult {
	return MoveResult{Kind: MoveResultRejected, Reason: reason}
}

func Win(loc ChipLocation) MoveResult {
	return MoveResult{Kind: MoveResultWin, Location: loc}
}

func Draw(loc ChipLocation) MoveResult {
	return MoveResult{Kind: MoveResultDraw, Location: loc}
}

func LossByTime(loc ChipLocation) MoveResult {
	return MoveResult{Kind: MoveResultLossByTime, Location: loc}
}

// IsTerminal reports whether the result leaves the game in the Ended
// status.
func (r MoveResult) IsTerminal() bool {
	switch r.Kind {
	case MoveResultWin, MoveResultDraw, MoveResultLossByTime:
		return true
	default:
		return false
	}
}

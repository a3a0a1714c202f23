package model

import (
	"testing"
	"time"
)

func TestCloneDoesNotAliasLastMoveMadeAt(t *testing.T) {
	p1, p2 := NewUserId(), NewUserId()
	game := Game{
		Players: NewPlayers(p1, PlayerState{ChipType: ChipFirst}, p2, PlayerState{ChipType: ChipSecond}),
	}
	ts := time.Now()
	game.LastMoveMadeAt = &ts

	clone := game.Clone()
	*clone.LastMoveMadeAt = ts.Add(time.Second)

	if game.LastMoveMadeAt.Equal(*clone.LastMoveMadeAt) {
		t.Error("Clone should not alias the original's LastMoveMadeAt pointer")
	}
}

func TestTimeLeftOfNonMemberIsZero(t *testing.T) {
	p1, p2 := NewUserId(), NewUserId()
	game := Game{
		Players: NewPlayers(p1, PlayerState{TimeLeft: 5}, p2, PlayerState{TimeLeft: 7}),
	}
	if got := game.TimeLeft(NewUserId()); got != 0 {
		t.Errorf("TimeLeft of a non-member should be zero, got %v", got)
	}
	if got := game.TimeLeft(p1); got != 5 {
		t.Errorf("TimeLeft(p1) = %v, want 5", got)
	}
}

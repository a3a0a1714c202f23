package model

import "time"

// TaskIDPrefix is the namespace every scheduled lose-by-time task id is
// rendered under, so scheduling a fresh state never collides by id with a
// stale one (spec.md §3).
const TaskIDPrefix = "try_to_lose_by_time:"

// TryToLoseByTimeTaskID derives the scheduler task id for a game state.
func TryToLoseByTimeTaskID(stateID GameStateId) string {
	return TaskIDPrefix + stateID.Hex()
}

// TryToLoseByTimeTask is the payload a scheduled timeout carries until it
// fires (spec.md §3, §6).
type TryToLoseByTimeTask struct {
	ID          string      `json:"id"`
	ExecuteAt   time.Time   `json:"execute_at"`
	GameID      GameId      `json:"game_id"`
	GameStateID GameStateId `json:"game_state_id"`
	OperationID string      `json:"operation_id"`
}

func NewTryToLoseByTimeTask(gameID GameId, stateID GameStateId, executeAt time.Time, operationID string) TryToLoseByTimeTask {
	return TryToLoseByTimeTask{
		ID:          TryToLoseByTimeTaskID(stateID),
		ExecuteAt:   executeAt,
		GameID:      gameID,
		GameStateID: stateID,
		OperationID: operationID,
	}
}

package store

import "connectfour-engine/internal/model"

// Key layout, spec.md §6:
//
//	games:id:{gameIdHex}:player_ids:{minPlayerHex}:{maxPlayerHex}
//	locks:games:id:{gameIdHex}

func gameKey(id model.GameId, lo, hi model.UserId) string {
	return "games:id:" + id.Hex() + ":player_ids:" + lo.Hex() + ":" + hi.Hex()
}

func gameKeyScanPattern(id model.GameId) string {
	return "games:id:" + id.Hex() + ":player_ids:*"
}

func pairScanPattern(lo, hi model.UserId) string {
	return "games:id:*:player_ids:" + lo.Hex() + ":" + hi.Hex()
}

func lockKey(id model.GameId) string {
	return "locks:games:id:" + id.Hex()
}

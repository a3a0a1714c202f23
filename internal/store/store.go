// Package store is the C3 GameStore: durable game-by-id and
// games-by-player-pair lookup, an advisory per-game lock, and write
// batching with a single atomic commit (spec.md §4.3), backed by Redis.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"connectfour-engine/internal/apperr"
	"connectfour-engine/internal/model"
)

// SortBy selects the ordering listByPlayerIds returns games in.
type SortBy int

const (
	SortByNone SortBy = iota
	SortByDescCreatedAt
)

// GameStore is what C7's processors depend on; the interface exists so
// tests can inject an in-memory fake instead of a live Redis connection
// (mirrored by a Transaction interface below for the same reason).
type GameStore interface {
	Begin(ctx context.Context) Transaction
}

// Transaction is one command's load -> mutate -> persist -> commit
// sequence, narrowed to an interface for the same testability reason as
// GameStore.
type Transaction interface {
	ByID(id model.GameId, acquireLock bool) (*model.Game, error)
	ListByPlayerIds(pair [2]model.UserId, sortBy SortBy, limit int) ([]model.Game, error)
	Save(game model.Game) error
	Update(game model.Game) error
	Commit() error
	Rollback() error
}

// Store is the shared, concurrency-safe handle every worker gets one of
// at boot. Transactions are obtained with Begin.
type Store struct {
	client   *redis.Client
	gameTTL  time.Duration
	lockTTL  time.Duration
}

func New(client *redis.Client, gameTTL, lockTTL time.Duration) *Store {
	return &Store{client: client, gameTTL: gameTTL, lockTTL: lockTTL}
}

// saveScriptSrc sets key only if it does not already exist, so a
// redelivered or misrouted "save" can never clobber a game a prior
// command already persisted. Run with Eval rather than the cached-script
// Script type, since the latter's EvalSha-first behavior does not retry
// across a pipeline's deferred execution.
const saveScriptSrc = `
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "EX", ARGV[2])
return 1
`

// updateScriptSrc sets key only if it already exists, so a redelivered or
// misrouted "update" can never resurrect a game that was never saved (or
// has since expired).
const updateScriptSrc = `
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "EX", ARGV[2])
return 1
`

// pendingWrite is one queued save/update, flushed atomically by Commit.
type pendingWrite struct {
	game      model.Game
	isNewGame bool
}

// Tx is a single command's load -> mutate -> persist -> commit sequence.
// It is not safe for concurrent use by multiple goroutines; one command
// owns one Tx end to end, matching spec.md §4.3/§4.7/§5.
type Tx struct {
	store    *Store
	ctx      context.Context
	writes   []pendingWrite
	lockedID model.GameId
	lockTok  string
	haveLock bool
	done     bool
}

// Begin opens a transaction bound to ctx; ctx's deadline is the upstream
// command deadline every blocking call within the transaction inherits
// (spec.md §5).
func (s *Store) Begin(ctx context.Context) Transaction {
	return &Tx{store: s, ctx: ctx}
}

// ByID loads the game stored under id. When acquireLock is true, the
// calling transaction holds id's advisory lock until Commit or Rollback;
// re-entrant acquisition within the same Tx is a no-op, and acquisition
// against an id a different Tx already holds blocks until that Tx
// releases it or its lock TTL expires.
func (tx *Tx) ByID(id model.GameId, acquireLock bool) (*model.Game, error) {
	if acquireLock {
		if err := tx.ensureLock(id); err != nil {
			return nil, err
		}
	}

	pattern := gameKeyScanPattern(id)
	keys, err := tx.scan(pattern)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrStore, "store: scan by id", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	return tx.getGame(keys[0])
}

func (tx *Tx) ensureLock(id model.GameId) error {
	if tx.haveLock && tx.lockedID == id {
		return nil
	}
	if tx.haveLock {
		return fmt.Errorf("store: transaction already holds a lock for a different game")
	}
	token, err := acquireLock(tx.ctx, tx.store.client, id, tx.store.lockTTL)
	if err != nil {
		return apperr.Wrap(apperr.ErrStore, "store: acquire lock", err)
	}
	tx.lockedID = id
	tx.lockTok = token
	tx.haveLock = true
	return nil
}

// ListByPlayerIds returns games whose player set equals the unordered
// pair, newest first when sortBy is SortByDescCreatedAt. limit == 0 means
// no cap; limit < 0 is a programmer error.
func (tx *Tx) ListByPlayerIds(pair [2]model.UserId, sortBy SortBy, limit int) ([]model.Game, error) {
	if limit < 0 {
		panic("store: ListByPlayerIds called with a negative limit")
	}

	lo, hi := pair[0], pair[1]
	if lo.Hex() > hi.Hex() {
		lo, hi = hi, lo
	}

	keys, err := tx.scan(pairScanPattern(lo, hi))
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrStore, "store: scan by pair", err)
	}

	games := make([]model.Game, 0, len(keys))
	for _, key := range keys {
		game, err := tx.getGame(key)
		if err != nil {
			return nil, err
		}
		if game != nil {
			games = append(games, *game)
		}
	}

	if sortBy == SortByDescCreatedAt {
		sort.Slice(games, func(i, j int) bool {
			return games[i].CreatedAt.After(games[j].CreatedAt)
		})
	}

	if limit > 0 && len(games) > limit {
		games = games[:limit]
	}
	return games, nil
}

// Save enqueues a write for a game that must not already exist.
func (tx *Tx) Save(game model.Game) error {
	tx.writes = append(tx.writes, pendingWrite{game: game, isNewGame: true})
	return nil
}

// Update enqueues a write for a game that must already exist.
func (tx *Tx) Update(game model.Game) error {
	tx.writes = append(tx.writes, pendingWrite{game: game, isNewGame: false})
	return nil
}

// Commit atomically flushes every enqueued write and releases the lock
// this transaction holds. A failure returned here means no writes were
// applied.
func (tx *Tx) Commit() error {
	if tx.done {
		return errors.New("store: transaction already finished")
	}
	tx.done = true
	defer tx.releaseHeldLock()

	if len(tx.writes) == 0 {
		return nil
	}

	pipe := tx.store.client.TxPipeline()
	cmds := make([]*redis.Cmd, len(tx.writes))
	ttlSeconds := int64(tx.store.gameTTL.Seconds())

	for i, w := range tx.writes {
		lo, hi := w.game.Players.UnorderedPairKey()
		key := gameKey(w.game.ID, lo, hi)
		data, err := json.Marshal(w.game)
		if err != nil {
			return apperr.Wrap(apperr.ErrStore, "store: marshal game", err)
		}

		script := updateScriptSrc
		if w.isNewGame {
			script = saveScriptSrc
		}
		cmds[i] = pipe.Eval(tx.ctx, script, []string{key}, data, ttlSeconds)
	}

	if _, err := pipe.Exec(tx.ctx); err != nil {
		return apperr.Wrap(apperr.ErrStore, "store: commit pipeline", err)
	}

	for i, w := range tx.writes {
		applied, err := cmds[i].Int64()
		if err != nil {
			return apperr.Wrap(apperr.ErrStore, "store: read commit result", err)
		}
		if applied == 0 {
			if w.isNewGame {
				return apperr.Wrap(apperr.ErrGameAlreadyExists, fmt.Sprintf("store: save rejected, game %s already exists", w.game.ID), nil)
			}
			return apperr.Wrap(apperr.ErrGameDoesNotExist, fmt.Sprintf("store: update rejected, game %s does not exist", w.game.ID), nil)
		}
	}
	return nil
}

// Rollback releases any lock held by the transaction without persisting
// its queued writes, for the pre-commit failure path (spec.md §4.7).
func (tx *Tx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true
	tx.writes = nil
	return tx.releaseHeldLock()
}

func (tx *Tx) releaseHeldLock() error {
	if !tx.haveLock {
		return nil
	}
	tx.haveLock = false
	return releaseLock(context.Background(), tx.store.client, tx.lockedID, tx.lockTok)
}

func (tx *Tx) getGame(key string) (*model.Game, error) {
	data, err := tx.store.client.Get(tx.ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrStore, "store: get game", err)
	}
	var game model.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, apperr.Wrap(apperr.ErrStore, "store: unmarshal game", err)
	}
	return &game, nil
}

func (tx *Tx) scan(pattern string) ([]string, error) {
	var keys []string
	iter := tx.store.client.Scan(tx.ctx, 0, pattern, 0).Iterator()
	for iter.Next(tx.ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

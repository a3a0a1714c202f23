package store

import (
	"context"
	"sort"
	"sync"

	"connectfour-engine/internal/apperr"
	"connectfour-engine/internal/model"
)

// Fake is an in-memory GameStore for unit-testing C7 without a live
// Redis connection (the ambient test-tooling pattern mirrored beside
// every C3-C6 package). It is safe for concurrent use.
type Fake struct {
	mu    sync.Mutex
	games map[string]model.Game
	locks map[string]bool
}

func NewFake() *Fake {
	return &Fake{games: make(map[string]model.Game), locks: make(map[string]bool)}
}

func (f *Fake) Begin(ctx context.Context) Transaction {
	return &fakeTx{fake: f}
}

// Put seeds the fake with a game, bypassing the transaction protocol —
// for test setup only.
func (f *Fake) Put(game model.Game) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.games[game.ID.Hex()] = game
}

// Get returns the game currently stored under id — for test assertions
// only.
func (f *Fake) Get(id model.GameId) (model.Game, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[id.Hex()]
	return g, ok
}

type fakeTx struct {
	fake     *Fake
	writes   []pendingWrite
	lockedID model.GameId
	haveLock bool
	done     bool
}

func (tx *fakeTx) ByID(id model.GameId, acquireLock bool) (*model.Game, error) {
	if acquireLock {
		tx.fake.mu.Lock()
		if tx.fake.locks[id.Hex()] && !(tx.haveLock && tx.lockedID == id) {
			tx.fake.mu.Unlock()
			return nil, apperr.Wrap(apperr.ErrStore, "store: acquire lock", nil)
		}
		tx.fake.locks[id.Hex()] = true
		tx.lockedID = id
		tx.haveLock = true
		tx.fake.mu.Unlock()
	}

	tx.fake.mu.Lock()
	defer tx.fake.mu.Unlock()
	g, ok := tx.fake.games[id.Hex()]
	if !ok {
		return nil, nil
	}
	clone := g.Clone()
	return &clone, nil
}

func (tx *fakeTx) ListByPlayerIds(pair [2]model.UserId, sortBy SortBy, limit int) ([]model.Game, error) {
	if limit < 0 {
		panic("store: ListByPlayerIds called with a negative limit")
	}

	lo, hi := pair[0], pair[1]
	if lo.Hex() > hi.Hex() {
		lo, hi = hi, lo
	}

	tx.fake.mu.Lock()
	defer tx.fake.mu.Unlock()

	var out []model.Game
	for _, g := range tx.fake.games {
		a, b := g.Players.UnorderedPairKey()
		if a == lo && b == hi {
			out = append(out, g)
		}
	}

	if sortBy == SortByDescCreatedAt {
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (tx *fakeTx) Save(game model.Game) error {
	tx.writes = append(tx.writes, pendingWrite{game: game, isNewGame: true})
	return nil
}

func (tx *fakeTx) Update(game model.Game) error {
	tx.writes = append(tx.writes, pendingWrite{game: game, isNewGame: false})
	return nil
}

// Commit enforces the same new-vs-existing distinction the real store's
// save/update Lua scripts enforce, so a test exercising a misrouted
// save/update observes the same rejection a live Redis-backed commit
// would.
func (tx *fakeTx) Commit() error {
	if tx.done {
		return nil
	}
	tx.done = true
	defer tx.releaseHeldLock()

	tx.fake.mu.Lock()
	defer tx.fake.mu.Unlock()

	for _, w := range tx.writes {
		_, exists := tx.fake.games[w.game.ID.Hex()]
		if w.isNewGame && exists {
			return apperr.Wrap(apperr.ErrGameAlreadyExists, "store: save rejected, game already exists", nil)
		}
		if !w.isNewGame && !exists {
			return apperr.Wrap(apperr.ErrGameDoesNotExist, "store: update rejected, game does not exist", nil)
		}
	}
	for _, w := range tx.writes {
		tx.fake.games[w.game.ID.Hex()] = w.game
	}
	return nil
}

func (tx *fakeTx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true
	tx.writes = nil
	tx.releaseHeldLock()
	return nil
}

func (tx *fakeTx) releaseHeldLock() {
	if !tx.haveLock {
		return
	}
	tx.haveLock = false
	tx.fake.mu.Lock()
	delete(tx.fake.locks, tx.lockedID.Hex())
	tx.fake.mu.Unlock()
}

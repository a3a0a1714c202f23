package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"connectfour-engine/internal/model"
)

// releaseScript deletes a lock key only if it still holds the token this
// transaction wrote, so a transaction can never release a lock some other
// transaction has since acquired after this one's TTL expired.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const lockPollInterval = 25 * time.Millisecond

func newLockToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// acquireLock blocks until it owns the advisory lock for id or ctx is
// done, per spec.md §5's lock protocol: acquired lazily, held for the
// transaction's lifetime, TTL-bounded so a crashed worker cannot deadlock
// peers.
func acquireLock(ctx context.Context, client *redis.Client, id model.GameId, ttl time.Duration) (token string, err error) {
	key := lockKey(id)
	token = newLockToken()

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		ok, err := client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func releaseLock(ctx context.Context, client *redis.Client, id model.GameId, token string) error {
	_, err := releaseScript.Run(ctx, client, []string{lockKey(id)}, token).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

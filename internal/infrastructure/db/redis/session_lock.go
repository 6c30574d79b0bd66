package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mediciel/clinic-records/internal/core/ports"
)

const defaultLockTTL = 5 * time.Second

// releaseScript deletes the lock only if it still carries our owner value,
// so a lock that expired and was re-taken is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SessionLocker is a SET NX lock per principal. Key format: session-lock:<kind>:<id>
type SessionLocker struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

var _ ports.SessionLocker = (*SessionLocker)(nil)

func NewSessionLocker(client *redis.Client, ttl time.Duration, log zerolog.Logger) *SessionLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &SessionLocker{client: client, ttl: ttl, log: log}
}

// Acquire takes the lock for key. ok is false when another holder has it.
func (l *SessionLocker) Acquire(ctx context.Context, key string) (func(), bool, error) {
	owner, err := ownerToken()
	if err != nil {
		return nil, false, err
	}
	full := l.key(key)

	acquired, err := l.client.SetNX(ctx, full, owner, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("session lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}

	release := func() {
		// the request context may already be done; release on a fresh one
		rctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()
		if err := releaseScript.Run(rctx, l.client, []string{full}, owner).Err(); err != nil {
			l.log.Warn().Err(err).Str("key", full).Msg("failed to release session lock")
		}
	}
	return release, true, nil
}

func (l *SessionLocker) key(k string) string {
	return "session-lock:" + k
}

func ownerToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("lock owner: %w", err)
	}
	return hex.EncodeToString(b), nil
}

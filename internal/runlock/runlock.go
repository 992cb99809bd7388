// Package runlock keeps two scheduled runs of the same job from loading the
// warehouse at the same time. The lock is a Redis key set with NX and a TTL,
// so a crashed run frees it once the TTL expires.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a crashed run can block the next one.
const DefaultTTL = 2 * time.Hour

// ErrHeld is returned by Acquire when another run owns the lock.
var ErrHeld = errors.New("runlock: lock held by another run")

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is one job's run lock.
type Lock struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
	token  string
}

// New returns an unacquired lock for job. ttl <= 0 selects DefaultTTL.
func New(client redis.Cmdable, job string, ttl time.Duration) *Lock {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Lock{client: client, key: "ecomdw:runlock:" + job, ttl: ttl}
}

// Key returns the Redis key guarding the job.
func (l *Lock) Key() string { return l.key }

// Acquire takes the lock for runID. It returns an error wrapping ErrHeld,
// naming the current holder, when the lock is taken.
func (l *Lock) Acquire(ctx context.Context, runID string) error {
	if runID == "" {
		runID = uuid.NewString()
	}
	ok, err := l.client.SetNX(ctx, l.key, runID, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("runlock: acquire %s: %w", l.key, err)
	}
	if !ok {
		holder, _ := l.client.Get(ctx, l.key).Result()
		return fmt.Errorf("%w (key=%s holder=%s)", ErrHeld, l.key, holder)
	}
	l.token = runID
	log.Printf("runlock: acquired key=%s run=%s ttl=%s", l.key, runID, l.ttl)
	return nil
}

// Release frees the lock if this Lock still owns it. Releasing an
// unacquired lock is a no-op.
func (l *Lock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("runlock: release %s: %w", l.key, err)
	}
	if n == 0 {
		log.Printf("runlock: key=%s expired or taken over before release", l.key)
	}
	l.token = ""
	return nil
}

package common

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const orchestratorLockKey = "orchestrator:lock"

// acquireScript implements the lock's at-most-once-per-staleness-window
// contract atomically: a bare Redis `SET NX` can only express "set if
// absent", not "overwrite if the existing value is stale, else abort" —
// so the read-age-check-write sequence runs as a single Lua script instead.
const acquireScript = `
local current = redis.call("GET", KEYS[1])
if not current then
  redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
  return 1
end
local age = tonumber(ARGV[1]) - tonumber(current)
if age >= tonumber(ARGV[3]) then
  redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
  return 2
end
return 0
`

// OrchestratorLock is the at-most-once idempotency guard for the nightly
// orchestrator run.
type OrchestratorLock struct {
	client     *redis.Client
	ttl        time.Duration
	staleAfter time.Duration
}

func NewOrchestratorLock(client *redis.Client, ttl, staleAfter time.Duration) *OrchestratorLock {
	return &OrchestratorLock{client: client, ttl: ttl, staleAfter: staleAfter}
}

// AcquireResult distinguishes a fresh acquire from one that recovered a
// stale lock, purely for logging — both grant the caller the lock.
type AcquireResult int

const (
	NotAcquired AcquireResult = iota
	AcquiredFresh
	AcquiredStale
)

// Acquire attempts to take the lock. The lock value is the acquiring run's
// start time in Unix milliseconds; an existing value younger than
// staleAfter means another run is still within its window and this call
// aborts; older values are treated as abandoned (a crashed previous run)
// and overwritten.
func (l *OrchestratorLock) Acquire(ctx context.Context, now time.Time) (AcquireResult, error) {
	result, err := l.client.Eval(ctx, acquireScript, []string{orchestratorLockKey},
		now.UnixMilli(), l.ttl.Milliseconds(), l.staleAfter.Milliseconds(),
	).Int64()
	if err != nil {
		return NotAcquired, fmt.Errorf("failed to acquire orchestrator lock: %w", err)
	}

	switch result {
	case 1:
		return AcquiredFresh, nil
	case 2:
		return AcquiredStale, nil
	default:
		return NotAcquired, nil
	}
}

// Release deletes the lock. A missing key on release is non-fatal — the
// lock may have already expired past its TTL, the expected steady state
// for a run that completes well within the window.
func (l *OrchestratorLock) Release(ctx context.Context) error {
	if err := l.client.Del(ctx, orchestratorLockKey).Err(); err != nil {
		return fmt.Errorf("failed to release orchestrator lock: %w", err)
	}
	return nil
}

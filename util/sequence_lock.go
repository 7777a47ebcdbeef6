package util

import (
	"context"
	"fmt"
	"time"

	"github.com/ariebrainware/rental-unit-registry/config"
	"github.com/google/uuid"
)

const (
	sequenceLockTTL  = 5 * time.Second
	sequenceLockWait = 50 * time.Millisecond
)

// releaseScript deletes the lock only while it still holds our token.
const releaseScript = `
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`

var newLockToken = func() string { return uuid.NewString() }

func sequenceLockKey(propertyID string, floor int) string {
	return fmt.Sprintf("unit_sequence_lock:%s:%d", propertyID, floor)
}

// LockUnitSequence serialises unit index allocation for one floor of a property
// across service instances. Without Redis it is a no-op and the DB transaction and
// unique index guard allocation alone. It returns ErrSequenceBusy when ctx ends
// before the lock is acquired.
func LockUnitSequence(ctx context.Context, propertyID string, floor int) (func(), error) {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return func() {}, nil
	}

	key := sequenceLockKey(propertyID, floor)
	token := newLockToken()
	for {
		ok, err := rdb.SetNX(ctx, key, token, sequenceLockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire sequence lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ErrSequenceBusy
		case <-time.After(sequenceLockWait):
		}
	}

	release := func() {
		if err := rdb.Eval(context.Background(), releaseScript, []string{key}, token).Err(); err != nil {
			Logger.WithError(err).WithField("key", key).Warn("failed to release sequence lock")
		}
	}
	return release, nil
}

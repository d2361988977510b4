package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it is still held by the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles short-lived per-card locks in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

func tripLockKey(plateNumber, cardUID string) string {
	return fmt.Sprintf("lock:trip:%s:%s", plateNumber, cardUID)
}

// AcquireTripLock attempts to acquire the lock for a card on a bus.
// Returns the owner token and true if the lock was acquired, false if already held.
func (s *LockStore) AcquireTripLock(ctx context.Context, plateNumber, cardUID string, ttl time.Duration) (string, bool, error) {
	token := uuid.New().String()

	ok, err := s.client.SetNX(ctx, tripLockKey(plateNumber, cardUID), token, ttl).Result()
	if err != nil {
		return "", false, err
	}

	return token, ok, nil
}

// ReleaseTripLock releases the lock if it is still owned by token.
func (s *LockStore) ReleaseTripLock(ctx context.Context, plateNumber, cardUID, token string) error {
	return releaseScript.Run(ctx, s.client, []string{tripLockKey(plateNumber, cardUID)}, token).Err()
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyTTL = 24 * time.Hour
	// pendingTTL bounds how long a crashed request can hold a key.
	pendingTTL = 30 * time.Second
	// pending marks a key reserved by a create that has not finished.
	pending = 0
)

// IdempotencyStore remembers the task created for a (user, Idempotency-Key)
// pair. Key format: idem:task:<user_id>:<key>
//
// The value is 0 while the create is in progress and the task ID afterwards.
type IdempotencyStore struct {
	client     *redis.Client
	ttl        time.Duration
	pendingTTL time.Duration
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given Redis client.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: idempotencyTTL, pendingTTL: pendingTTL}
}

// Reserve claims key with SETNX. If another request holds it, the stored task
// ID is returned, which is 0 while that request is still running.
func (s *IdempotencyStore) Reserve(ctx context.Context, userID int64, key string) (int64, bool, error) {
	k := s.key(userID, key)
	// A second attempt covers the key expiring between SETNX and GET.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, k, pending, s.pendingTTL).Result()
		if err != nil {
			return 0, false, fmt.Errorf("idempotency reserve: %w", err)
		}
		if ok {
			return 0, true, nil
		}

		id, err := s.client.Get(ctx, k).Int64()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return 0, false, fmt.Errorf("idempotency lookup: %w", err)
		}
		return id, false, nil
	}
	return pending, false, nil
}

// Complete records taskID for a reserved key for the full TTL.
func (s *IdempotencyStore) Complete(ctx context.Context, userID int64, key string, taskID int64) error {
	if err := s.client.Set(ctx, s.key(userID, key), taskID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release frees a reserved key so a retry can create the task.
func (s *IdempotencyStore) Release(ctx context.Context, userID int64, key string) error {
	if err := s.client.Del(ctx, s.key(userID, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(userID int64, key string) string {
	return fmt.Sprintf("idem:task:%d:%s", userID, key)
}

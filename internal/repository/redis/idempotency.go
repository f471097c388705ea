package redisrepo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idemLockPrefix = "LOCK:"
	idemResPrefix  = "RES:"
)

// IdempotencyEntry is what a key currently holds. Fingerprint identifies the
// request that claimed the key; Payload is set once that request finished.
type IdempotencyEntry struct {
	Fingerprint string
	Payload     string
	Done        bool
}

// IdempotencyStore keeps one in-flight marker or one stored response per key.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

// AcquireLock claims key for the request with the given fingerprint.
func (s *IdempotencyStore) AcquireLock(ctx context.Context, key, fingerprint string, lockTTL time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, idemLockPrefix+fingerprint, lockTTL).Result()
}

func (s *IdempotencyStore) SaveResult(ctx context.Context, key, fingerprint, jsonPayload string) error {
	return s.rdb.Set(ctx, key, idemResPrefix+fingerprint+":"+jsonPayload, s.ttl).Err()
}

// Get reports what key holds. ok is false for a missing or unreadable value.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (IdempotencyEntry, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return IdempotencyEntry{}, false, nil
	}
	if err != nil {
		return IdempotencyEntry{}, false, err
	}

	switch {
	case strings.HasPrefix(v, idemLockPrefix):
		return IdempotencyEntry{Fingerprint: strings.TrimPrefix(v, idemLockPrefix)}, true, nil
	case strings.HasPrefix(v, idemResPrefix):
		fp, payload, found := strings.Cut(strings.TrimPrefix(v, idemResPrefix), ":")
		if !found {
			return IdempotencyEntry{}, false, nil
		}
		return IdempotencyEntry{Fingerprint: fp, Payload: payload, Done: true}, true, nil
	}

	return IdempotencyEntry{}, false, nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

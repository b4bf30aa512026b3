package idempotency

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store consumes idempotency tokens exactly once within a TTL window.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Remember stores value under key if the key is unseen and reports whether
// this call claimed it. When the key was already claimed, the originally
// stored value is returned instead.
func (s *Store) Remember(ctx context.Context, key, value string) (string, bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, value, s.ttl).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return value, true, nil
	}
	existing, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		return "", false, err
	}
	return existing, false, nil
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// Release frees a claimed key so the token can be retried. The delete is
// conditional on the stored value, so a claim made by another caller in the
// meantime is never removed.
func (s *Store) Release(ctx context.Context, key, value string) error {
	return releaseScript.Run(ctx, s.rdb, []string{key}, value).Err()
}

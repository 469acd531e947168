package locks

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Storage provides per-tier run locks so two processes never execute the
// same tier at the same time. The TTL guards against a crashed holder
// keeping a tier locked forever.
type Storage struct {
	redis *redis.Client
}

func NewStorage(client *redis.Client) *Storage {
	return &Storage{
		redis: client,
	}
}

// Acquire takes the named lock if it is free. It returns false when
// another holder has it.
func (s *Storage) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	return s.redis.SetNX(ctx, "run-lock:"+name, 1, ttl).Result()
}

func (s *Storage) Release(ctx context.Context, name string) error {
	return s.redis.Del(ctx, "run-lock:"+name).Err()
}

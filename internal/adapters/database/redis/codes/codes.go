package codes

import (
	"context"
	"errors"
	"time"

	"github.com/openportal/subscribe-notifier/internal/domain/common/errorz"
	"github.com/redis/go-redis/v9"
)

// Storage keeps subscription verification codes. The TTL doubles as the
// code expiry, so stale codes disappear on their own.
type Storage struct {
	redis *redis.Client
}

func NewStorage(client *redis.Client) *Storage {
	return &Storage{
		redis: client,
	}
}

// Get returns the subscription id a code was issued for.
func (s *Storage) Get(code string) (string, error) {
	subscriptionID, err := s.redis.Get(context.Background(), code).Result()
	if errors.Is(err, redis.Nil) {
		return "", errorz.ErrInvalidCode
	}
	return subscriptionID, err
}

func (s *Storage) Set(code string, subscriptionID string, expiration time.Duration) error {
	return s.redis.Set(context.Background(), code, subscriptionID, expiration).Err()
}

func (s *Storage) Clear(code string) error {
	return s.redis.Del(context.Background(), code).Err()
}

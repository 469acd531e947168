package redis

import (
	"context"
	"fmt"

	"github.com/openportal/subscribe-notifier/internal/adapters/database/redis/codes"
	"github.com/openportal/subscribe-notifier/internal/adapters/database/redis/locks"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	Codes *codes.Storage
	Locks *locks.Storage
}

type Options struct {
	Host     string
	Port     string
	Password string
}

func New(opts Options) (*Client, error) {
	codeStorage := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", opts.Host, opts.Port),
		Password: opts.Password,
		DB:       0,
	})
	if err := codeStorage.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping codes storage: %w", err)
	}

	lockStorage := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", opts.Host, opts.Port),
		Password: opts.Password,
		DB:       1,
	})
	if err := lockStorage.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping locks storage: %w", err)
	}

	return &Client{
		Codes: codes.NewStorage(codeStorage),
		Locks: locks.NewStorage(lockStorage),
	}, nil
}

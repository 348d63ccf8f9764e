package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const pausedKey = "stow:paused"

// RedisGate shares the pause flag across ledger instances through Redis. The
// flag is a plain key whose presence means paused, so an operator can flip it
// with redis-cli if the admin API is unreachable.
type RedisGate struct {
	client *redis.Client
}

func NewRedisGate(client *redis.Client) *RedisGate {
	return &RedisGate{client: client}
}

func (g *RedisGate) Paused(ctx context.Context) (bool, error) {
	_, err := g.client.Get(ctx, pausedKey).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read pause flag: %w", err)
	}
	return true, nil
}

func (g *RedisGate) Pause(ctx context.Context) error {
	if err := g.client.Set(ctx, pausedKey, "1", 0).Err(); err != nil {
		return fmt.Errorf("set pause flag: %w", err)
	}
	return nil
}

func (g *RedisGate) Resume(ctx context.Context) error {
	if err := g.client.Del(ctx, pausedKey).Err(); err != nil {
		return fmt.Errorf("clear pause flag: %w", err)
	}
	return nil
}

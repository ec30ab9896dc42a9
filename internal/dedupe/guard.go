// Package dedupe keeps at-least-once broker deliveries from running a booking
// workflow twice.
package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "booking-automation:event:"

// Guard claims an event key. Claim reports false when the key was already taken.
type Guard interface {
	Claim(ctx context.Context, routingKey, bookingID string) (bool, error)
	Release(ctx context.Context, routingKey, bookingID string) error
}

type redisGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisGuard(rdb *redis.Client, ttl time.Duration) Guard {
	return &redisGuard{rdb: rdb, ttl: ttl}
}

func Key(routingKey, bookingID string) string {
	return keyPrefix + routingKey + ":" + bookingID
}

func (g *redisGuard) Claim(ctx context.Context, routingKey, bookingID string) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, Key(routingKey, bookingID), "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim event key: %w", err)
	}
	return ok, nil
}

// Release frees a claim so a redelivered message can be processed again.
func (g *redisGuard) Release(ctx context.Context, routingKey, bookingID string) error {
	if err := g.rdb.Del(ctx, Key(routingKey, bookingID)).Err(); err != nil {
		return fmt.Errorf("release event key: %w", err)
	}
	return nil
}

type noop struct{}

// Noop claims every key. Used when Redis is not configured.
func Noop() Guard { return noop{} }

func (noop) Claim(context.Context, string, string) (bool, error) { return true, nil }
func (noop) Release(context.Context, string, string) error       { return nil }

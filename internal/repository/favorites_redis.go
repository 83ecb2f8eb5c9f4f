package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	domrepo "KryptoMarket/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

// RedisFavorites stores each owner's favorites in a sorted set scored by the
// time they were added, so List keeps insertion order like the other stores.
type RedisFavorites struct {
	client *redis.Client
	prefix string
}

var _ domrepo.FavoritesStore = (*RedisFavorites)(nil)

func NewRedisFavorites(client *redis.Client, prefix string) *RedisFavorites {
	return &RedisFavorites{client: client, prefix: prefix}
}

func (s *RedisFavorites) key(owner string) string {
	return fmt.Sprintf("%s:favorites:%s", s.prefix, owner)
}

func (s *RedisFavorites) List(ctx context.Context, owner string) ([]string, error) {
	out, err := s.client.ZRange(ctx, s.key(owner), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis favorites list: %w", err)
	}
	return out, nil
}

func (s *RedisFavorites) Add(ctx context.Context, owner, symbol string) error {
	err := s.client.ZAddNX(ctx, s.key(owner), redis.Z{
		Score:  float64(time.Now().UnixNano()),
		Member: symbol,
	}).Err()
	if err != nil {
		return fmt.Errorf("redis favorites add: %w", err)
	}
	return nil
}

func (s *RedisFavorites) Remove(ctx context.Context, owner, symbol string) error {
	if err := s.client.ZRem(ctx, s.key(owner), symbol).Err(); err != nil {
		return fmt.Errorf("redis favorites remove: %w", err)
	}
	return nil
}

func (s *RedisFavorites) Contains(ctx context.Context, owner, symbol string) (bool, error) {
	err := s.client.ZScore(ctx, s.key(owner), symbol).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis favorites contains: %w", err)
	}
	return true, nil
}

// Close is a no-op; the client belongs to the cache.
func (s *RedisFavorites) Close() error { return nil }

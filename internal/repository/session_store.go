package repository

import (
	"context"
	"errors"
	"time"

	"KryptoMarket/internal/domain/models"
	domrepo "KryptoMarket/internal/domain/repository"
	"KryptoMarket/pkg/cache"
)

// CacheSessionStore keeps login sessions in the shared cache and lets the
// cache TTL expire them.
type CacheSessionStore struct {
	cache cache.Service
}

var _ domrepo.SessionStore = (*CacheSessionStore)(nil)

func NewCacheSessionStore(c cache.Service) *CacheSessionStore {
	return &CacheSessionStore{cache: c}
}

func (s *CacheSessionStore) Save(ctx context.Context, sess models.LoginSession, ttl time.Duration) error {
	return s.cache.Set(ctx, cache.GenerateKey("session", sess.Nonce), sess, ttl)
}

func (s *CacheSessionStore) Get(ctx context.Context, nonce string) (models.LoginSession, error) {
	var sess models.LoginSession
	err := s.cache.Get(ctx, cache.GenerateKey("session", nonce), &sess)
	if errors.Is(err, cache.ErrCacheMiss) {
		return sess, domrepo.ErrSessionNotFound
	}
	return sess, err
}

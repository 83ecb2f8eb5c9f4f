package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	domrepo "KryptoMarket/internal/domain/repository"
)

// MemoryFavorites keeps favorites in process memory. Lost on restart.
type MemoryFavorites struct {
	mu    sync.RWMutex
	items map[string]map[string]time.Time
}

var _ domrepo.FavoritesStore = (*MemoryFavorites)(nil)

func NewMemoryFavorites() *MemoryFavorites {
	return &MemoryFavorites{items: make(map[string]map[string]time.Time)}
}

// List returns symbols in the order they were added.
func (s *MemoryFavorites) List(_ context.Context, owner string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.items[owner]
	out := make([]string, 0, len(set))
	for sym := range set {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := set[out[i]], set[out[j]]
		if ti.Equal(tj) {
			return out[i] < out[j]
		}
		return ti.Before(tj)
	})
	return out, nil
}

func (s *MemoryFavorites) Add(_ context.Context, owner, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.items[owner]
	if !ok {
		set = make(map[string]time.Time)
		s.items[owner] = set
	}
	if _, exists := set[symbol]; !exists {
		set[symbol] = time.Now()
	}
	return nil
}

func (s *MemoryFavorites) Remove(_ context.Context, owner, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if set, ok := s.items[owner]; ok {
		delete(set, symbol)
		if len(set) == 0 {
			delete(s.items, owner)
		}
	}
	return nil
}

func (s *MemoryFavorites) Contains(_ context.Context, owner, symbol string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[owner][symbol]
	return ok, nil
}

func (s *MemoryFavorites) Close() error { return nil }

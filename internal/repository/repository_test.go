package repository

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"KryptoMarket/internal/domain/models"
	domrepo "KryptoMarket/internal/domain/repository"
	"KryptoMarket/pkg/cache"

	"github.com/redis/go-redis/v9"
)

type countingMarket struct {
	klines  int32
	tickers int32
	symbols int32
	err     error
}

func (m *countingMarket) Klines(_ context.Context, pair, interval string, limit int) ([]models.Candle, error) {
	atomic.AddInt32(&m.klines, 1)
	if m.err != nil {
		return nil, m.err
	}
	return []models.Candle{{Timestamp: 1, Close: 10}, {Timestamp: 2, Close: 11}}, nil
}

func (m *countingMarket) Tickers(context.Context) ([]models.Ticker, error) {
	atomic.AddInt32(&m.tickers, 1)
	return []models.Ticker{{Symbol: "BTCUSDT", LastPrice: 1}}, nil
}

func (m *countingMarket) SymbolExists(_ context.Context, pair string) (bool, error) {
	atomic.AddInt32(&m.symbols, 1)
	return pair == "BTCUSDT", nil
}

func newCached(t *testing.T, next domrepo.MarketData) *CachedMarketData {
	t.Helper()
	mc := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })
	return NewCachedMarketData(next, mc, MarketCacheTTL{
		Tickers: time.Minute, Klines: time.Minute, Symbols: time.Minute,
	}, nil)
}

func TestCachedMarketDataServesRepeatsFromCache(t *testing.T) {
	up := &countingMarket{}
	m := newCached(t, up)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		candles, err := m.Klines(ctx, "BTCUSDT", "15m", 2)
		if err != nil || len(candles) != 2 || candles[1].Close != 11 {
			t.Fatalf("klines: %v %+v", err, candles)
		}
		if _, err := m.Tickers(ctx); err != nil {
			t.Fatalf("tickers: %v", err)
		}
		if ok, _ := m.SymbolExists(ctx, "NOPEUSDT"); ok {
			t.Fatalf("NOPEUSDT should not exist")
		}
	}
	if up.klines != 1 || up.tickers != 1 || up.symbols != 1 {
		t.Fatalf("upstream calls klines=%d tickers=%d symbols=%d", up.klines, up.tickers, up.symbols)
	}

	// a different limit is a different key
	if _, err := m.Klines(ctx, "BTCUSDT", "15m", 3); err != nil {
		t.Fatalf("klines: %v", err)
	}
	if up.klines != 2 {
		t.Fatalf("expected a second upstream call, got %d", up.klines)
	}
}

func TestCachedMarketDataDoesNotCacheErrors(t *testing.T) {
	up := &countingMarket{err: errors.New("boom")}
	m := newCached(t, up)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := m.Klines(ctx, "BTCUSDT", "1m", 5); err == nil {
			t.Fatalf("expected error")
		}
	}
	if up.klines != 2 {
		t.Fatalf("errors must not be cached, upstream calls=%d", up.klines)
	}
}

func favoritesContract(t *testing.T, s domrepo.FavoritesStore) {
	t.Helper()
	ctx := context.Background()

	list, err := s.List(ctx, "alice")
	if err != nil || len(list) != 0 {
		t.Fatalf("empty list: %v %v", list, err)
	}

	for _, sym := range []string{"ETH", "BTC", "ETH", "DOGE"} {
		if err := s.Add(ctx, "alice", sym); err != nil {
			t.Fatalf("add %s: %v", sym, err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	_ = s.Add(ctx, "bob", "PEPE")

	list, err = s.List(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"ETH", "BTC", "DOGE"}
	if len(list) != len(want) {
		t.Fatalf("list = %v, want %v", list, want)
	}
	for i := range want {
		if list[i] != want[i] {
			t.Fatalf("list = %v, want %v", list, want)
		}
	}

	if ok, _ := s.Contains(ctx, "alice", "BTC"); !ok {
		t.Fatalf("BTC should be a favorite")
	}
	if ok, _ := s.Contains(ctx, "alice", "PEPE"); ok {
		t.Fatalf("owners must be isolated")
	}

	if err := s.Remove(ctx, "alice", "BTC"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Remove(ctx, "alice", "BTC"); err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if ok, _ := s.Contains(ctx, "alice", "BTC"); ok {
		t.Fatalf("BTC should be gone")
	}
}

func TestFavoritesStores(t *testing.T) {
	backends := map[string]func(t *testing.T) domrepo.FavoritesStore{
		"memory": func(t *testing.T) domrepo.FavoritesStore {
			return NewMemoryFavorites()
		},
		"sqlite": func(t *testing.T) domrepo.FavoritesStore {
			s, err := NewSQLiteFavorites(context.Background(), filepath.Join(t.TempDir(), "favorites.db"))
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			return s
		},
		"redis": func(t *testing.T) domrepo.FavoritesStore {
			client := redis.NewClient(&redis.Options{Addr: startZSetServer(t)})
			t.Cleanup(func() { _ = client.Close() })
			return NewRedisFavorites(client, "test")
		},
	}
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()
			favoritesContract(t, s)
		})
	}
}

func TestRedisFavoritesKeysPerOwner(t *testing.T) {
	addr := startZSetServer(t)
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	s := NewRedisFavorites(client, "km")
	ctx := context.Background()

	if err := s.Add(ctx, "alice", "BTC"); err != nil {
		t.Fatalf("add: %v", err)
	}
	members, err := client.ZRange(ctx, "km:favorites:alice", 0, -1).Result()
	if err != nil || len(members) != 1 || members[0] != "BTC" {
		t.Fatalf("zset = %v %v", members, err)
	}
	if n, _ := client.ZCard(ctx, "km:favorites:bob").Result(); n != 0 {
		t.Fatalf("bob should have no favorites, got %d", n)
	}
}

func TestSQLiteFavorites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "favorites.db")
	s, err := NewSQLiteFavorites(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	favoritesContract(t, s)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// data survives a reopen
	s, err = NewSQLiteFavorites(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	list, _ := s.List(context.Background(), "alice")
	if len(list) != 2 || list[0] != "ETH" || list[1] != "DOGE" {
		t.Fatalf("after reopen: %v", list)
	}
}

type recordingPublisher struct {
	topic  string
	key    []byte
	value  interface{}
	closed bool
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	p.topic, p.key, p.value = topic, key, value
	return nil
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func TestKafkaSnapshotSinkKeysBySymbol(t *testing.T) {
	pub := &recordingPublisher{}
	sink := NewKafkaSnapshotSink(pub, "snapshots", false)

	snap := models.AnalysisSnapshot{Symbol: "BTCUSDT", Interval: "15m", Close: 1}
	if err := sink.Publish(context.Background(), snap); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if pub.topic != "snapshots" || string(pub.key) != "BTCUSDT" {
		t.Fatalf("topic=%s key=%s", pub.topic, pub.key)
	}
	if got, ok := pub.value.(models.AnalysisSnapshot); !ok || got.Interval != "15m" {
		t.Fatalf("unexpected value %#v", pub.value)
	}

	_ = sink.Close()
	if pub.closed {
		t.Fatalf("shared producer must stay open")
	}
	_ = NewKafkaSnapshotSink(pub, "snapshots", true).Close()
	if !pub.closed {
		t.Fatalf("owned producer should be closed")
	}
}

func TestSnapshotSchemaUsesDatabase(t *testing.T) {
	stmts := SnapshotSchema("market")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
	for _, s := range stmts {
		if !containsAll(s, "market") {
			t.Fatalf("statement does not use database: %s", s)
		}
	}
	if !containsAll(stmts[1], "market.analysis_snapshots", "ORDER BY (symbol, interval, candle_time)") {
		t.Fatalf("unexpected table DDL: %s", stmts[1])
	}
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}

func TestCacheSessionStore(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	s := NewCacheSessionStore(mc)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	if err := s.Save(ctx, models.LoginSession{Nonce: "n1", Status: models.SessionPending, CreatedAt: now}, time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Get(ctx, "n1")
	if err != nil || got.Status != models.SessionPending || !got.CreatedAt.Equal(now) {
		t.Fatalf("get: %+v %v", got, err)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, domrepo.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	_ = s.Save(ctx, models.LoginSession{Nonce: "n2"}, 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	if _, err := s.Get(ctx, "n2"); !errors.Is(err, domrepo.ErrSessionNotFound) {
		t.Fatalf("expired session should be gone, got %v", err)
	}
}

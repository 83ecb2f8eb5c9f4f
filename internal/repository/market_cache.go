package repository

import (
	"context"
	"errors"
	"time"

	"KryptoMarket/internal/domain/models"
	domrepo "KryptoMarket/internal/domain/repository"
	"KryptoMarket/pkg/cache"
	xlogger "KryptoMarket/pkg/logger"
)

// MarketCacheTTL holds how long each kind of exchange answer stays fresh.
type MarketCacheTTL struct {
	Tickers time.Duration
	Klines  time.Duration
	Symbols time.Duration
}

// CachedMarketData decorates a MarketData with a cache.Service. Cache failures
// are logged and fall through to the upstream; they never fail a request.
type CachedMarketData struct {
	next   domrepo.MarketData
	cache  cache.Service
	ttl    MarketCacheTTL
	logger *xlogger.Logger
}

var _ domrepo.MarketData = (*CachedMarketData)(nil)

func NewCachedMarketData(next domrepo.MarketData, c cache.Service, ttl MarketCacheTTL, logger *xlogger.Logger) *CachedMarketData {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &CachedMarketData{next: next, cache: c, ttl: ttl, logger: logger}
}

func (m *CachedMarketData) Klines(ctx context.Context, pair, interval string, limit int) ([]models.Candle, error) {
	key := cache.GenerateKeyWithParams("klines", pair, interval, limit)
	var candles []models.Candle
	if m.lookup(ctx, key, &candles) && len(candles) > 0 {
		return candles, nil
	}

	candles, err := m.next.Klines(ctx, pair, interval, limit)
	if err != nil {
		return nil, err
	}
	m.store(ctx, key, candles, m.ttl.Klines)
	return candles, nil
}

func (m *CachedMarketData) Tickers(ctx context.Context) ([]models.Ticker, error) {
	const key = "tickers:24hr"
	var tickers []models.Ticker
	if m.lookup(ctx, key, &tickers) {
		return tickers, nil
	}

	tickers, err := m.next.Tickers(ctx)
	if err != nil {
		return nil, err
	}
	m.store(ctx, key, tickers, m.ttl.Tickers)
	return tickers, nil
}

// SymbolExists caches negative answers as well, so a mistyped symbol does not
// hit exchangeInfo on every keystroke.
func (m *CachedMarketData) SymbolExists(ctx context.Context, pair string) (bool, error) {
	key := cache.GenerateKey("symbol", pair)
	var exists bool
	if m.lookup(ctx, key, &exists) {
		return exists, nil
	}

	exists, err := m.next.SymbolExists(ctx, pair)
	if err != nil {
		return false, err
	}
	m.store(ctx, key, exists, m.ttl.Symbols)
	return exists, nil
}

func (m *CachedMarketData) lookup(ctx context.Context, key string, dest interface{}) bool {
	err := m.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		m.logger.Warn("market cache read failed", xlogger.String("key", key), xlogger.Error(err))
	}
	return false
}

func (m *CachedMarketData) store(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := m.cache.Set(ctx, key, value, ttl); err != nil {
		m.logger.Warn("market cache write failed", xlogger.String("key", key), xlogger.Error(err))
	}
}

package repository

import (
	"context"
	"errors"
	"time"

	"KryptoMarket/internal/domain/models"
)

// MarketData is the exchange as seen by the use cases. Symbols are full pairs (BTCUSDT)
// and intervals are exchange tokens (15m); see ParseInterval.
type MarketData interface {
	Klines(ctx context.Context, pair, interval string, limit int) ([]models.Candle, error)
	Tickers(ctx context.Context) ([]models.Ticker, error)
	SymbolExists(ctx context.Context, pair string) (bool, error)
}

// FavoritesStore persists the favorite base assets of each owner.
type FavoritesStore interface {
	List(ctx context.Context, owner string) ([]string, error)
	Add(ctx context.Context, owner, symbol string) error
	Remove(ctx context.Context, owner, symbol string) error
	Contains(ctx context.Context, owner, symbol string) (bool, error)
	Close() error
}

// SnapshotSink receives every computed analysis.
type SnapshotSink interface {
	Publish(ctx context.Context, snap models.AnalysisSnapshot) error
	Name() string
	Close() error
}

// ErrSessionNotFound is returned for unknown or expired nonces.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps login sessions until they expire.
type SessionStore interface {
	Save(ctx context.Context, s models.LoginSession, ttl time.Duration) error
	Get(ctx context.Context, nonce string) (models.LoginSession, error)
}

type Metrics interface {
	RecordExchangeRequest(endpoint string, status int, seconds float64)
	RecordError(kind string)
	RecordIndicator(interval string)
	RecordLastPrice(symbol string, price float64)
	SetActiveViews(n int)
	RecordSinkPublish(sink string, ok bool)
}

// NoopMetrics discards everything. Used by tests and when metrics are disabled.
type NoopMetrics struct{}

func (NoopMetrics) RecordExchangeRequest(string, int, float64) {}
func (NoopMetrics) RecordError(string)                         {}
func (NoopMetrics) RecordIndicator(string)                     {}
func (NoopMetrics) RecordLastPrice(string, float64)            {}
func (NoopMetrics) SetActiveViews(int)                         {}
func (NoopMetrics) RecordSinkPublish(string, bool)             {}

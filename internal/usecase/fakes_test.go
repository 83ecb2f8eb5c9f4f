package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"KryptoMarket/internal/domain/models"
)

type fakeMarket struct {
	mu       sync.Mutex
	candles  map[string][]models.Candle
	tickers  []models.Ticker
	fail     map[string]error
	klineHit int32
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		candles: make(map[string][]models.Candle),
		fail:    make(map[string]error),
	}
}

func (f *fakeMarket) setCandles(pair string, closes ...float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candles[pair] = candlesOf(closes...)
}

func (f *fakeMarket) Klines(_ context.Context, pair, interval string, limit int) ([]models.Candle, error) {
	atomic.AddInt32(&f.klineHit, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[pair]; err != nil {
		return nil, err
	}
	c, ok := f.candles[pair]
	if !ok {
		return nil, errors.New("no candles for " + pair)
	}
	if limit > 0 && len(c) > limit {
		c = c[len(c)-limit:]
	}
	out := make([]models.Candle, len(c))
	copy(out, c)
	return out, nil
}

func (f *fakeMarket) Tickers(context.Context) ([]models.Ticker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Ticker(nil), f.tickers...), nil
}

func (f *fakeMarket) SymbolExists(_ context.Context, pair string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.candles[pair]; ok {
		return true, nil
	}
	if _, ok := f.fail[pair]; ok {
		return true, nil
	}
	for _, t := range f.tickers {
		if t.Symbol == pair {
			return true, nil
		}
	}
	return false, nil
}

func candlesOf(closes ...float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{Timestamp: int64(i+1) * 60_000, Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	return out
}

// accelerating returns n closes whose slope keeps growing, so MACD ends above its signal.
func accelerating(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i*i)/10
	}
	return out
}

func decelerating(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1000 - float64(i*i)/10
	}
	return out
}

type recordingSink struct {
	mu    sync.Mutex
	snaps []models.AnalysisSnapshot
	err   error
}

func (s *recordingSink) Publish(_ context.Context, snap models.AnalysisSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append(s.snaps, snap)
	return s.err
}

func (s *recordingSink) Name() string { return "recording" }
func (s *recordingSink) Close() error { return nil }

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snaps)
}

package usecase

import (
	"context"
	"sync"

	"KryptoMarket/internal/domain/models"
	domrepo "KryptoMarket/internal/domain/repository"
	"KryptoMarket/internal/service/binance"
	xlogger "KryptoMarket/pkg/logger"

	"github.com/shopspring/decimal"
)

type DashboardConfig struct {
	Symbols     []string
	Interval    string
	Limit       int
	Concurrency int
}

// DashboardUseCase builds the fixed set of dashboard cards.
type DashboardUseCase struct {
	market  *MarketUseCase
	cfg     DashboardConfig
	metrics domrepo.Metrics
	logger  *xlogger.Logger
}

func NewDashboardUseCase(market *MarketUseCase, cfg DashboardConfig, metrics domrepo.Metrics, logger *xlogger.Logger) *DashboardUseCase {
	if cfg.Interval == "" {
		cfg.Interval = "15m"
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 96
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if metrics == nil {
		metrics = domrepo.NoopMetrics{}
	}
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &DashboardUseCase{market: market, cfg: cfg, metrics: metrics, logger: logger}
}

// Cards returns one card per configured symbol, in configuration order.
// Symbols whose klines cannot be fetched are left out.
func (uc *DashboardUseCase) Cards(ctx context.Context) ([]models.DashboardCard, error) {
	results := make([]*models.DashboardCard, len(uc.cfg.Symbols))
	sem := make(chan struct{}, uc.cfg.Concurrency)
	var wg sync.WaitGroup

	for i, sym := range uc.cfg.Symbols {
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			candles, err := uc.market.Klines(ctx, sym, uc.cfg.Interval, uc.cfg.Limit)
			if err != nil {
				uc.logger.Warn("dashboard card skipped", xlogger.String("symbol", sym), xlogger.Error(err))
				uc.metrics.RecordError("dashboard_card")
				return
			}
			card, ok := buildCard(sym, uc.market.cfg.Quote, candles)
			if !ok {
				return
			}
			uc.metrics.RecordLastPrice(card.Pair, candles[len(candles)-1].Close)
			results[i] = &card
		}(i, sym)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cards := make([]models.DashboardCard, 0, len(results))
	for _, c := range results {
		if c != nil {
			cards = append(cards, *c)
		}
	}
	return cards, nil
}

// buildCard derives the card figures from the close history: price is the
// last close, change compares it with the previous close, and high and low
// span the window.
func buildCard(symbol, quote string, candles []models.Candle) (models.DashboardCard, bool) {
	if len(candles) == 0 {
		return models.DashboardCard{}, false
	}

	closes := models.Closes(candles)
	timestamps := make([]int64, len(candles))
	for i, c := range candles {
		timestamps[i] = c.Timestamp
	}

	last := decimal.NewFromFloat(closes[len(closes)-1])
	change := decimal.Zero
	if len(closes) > 1 {
		prev := decimal.NewFromFloat(closes[len(closes)-2])
		if !prev.IsZero() {
			change = last.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100))
		}
	}

	high, low := closes[0], closes[0]
	for _, c := range closes[1:] {
		if c > high {
			high = c
		}
		if c < low {
			low = c
		}
	}

	pair, _ := binance.NormalizeSymbol(symbol, quote)
	return models.DashboardCard{
		Symbol:     binance.BaseAsset(pair, quote),
		Pair:       pair,
		Price:      last.StringFixed(6),
		Change:     change.StringFixed(2),
		High:       decimal.NewFromFloat(high).StringFixed(6),
		Low:        decimal.NewFromFloat(low).StringFixed(6),
		Volume:     "N/A",
		History:    closes,
		Timestamps: timestamps,
	}, true
}

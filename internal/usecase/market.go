package usecase

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"

	"KryptoMarket/internal/domain/models"
	domrepo "KryptoMarket/internal/domain/repository"
	"KryptoMarket/internal/service/binance"
	xhttp "KryptoMarket/pkg/http"
	xlogger "KryptoMarket/pkg/logger"
	"KryptoMarket/pkg/util"
)

type MarketConfig struct {
	Quote             string
	MinVolume         float64
	Movers            int
	SparklineInterval string
	SparklineLimit    int
	Concurrency       int
}

// MarketUseCase serves klines, the coin list and the movers board.
type MarketUseCase struct {
	data   domrepo.MarketData
	cfg    MarketConfig
	logger *xlogger.Logger
}

func NewMarketUseCase(data domrepo.MarketData, cfg MarketConfig, logger *xlogger.Logger) *MarketUseCase {
	if cfg.Quote == "" {
		cfg.Quote = binance.DefaultQuote
	}
	if cfg.Movers <= 0 {
		cfg.Movers = 6
	}
	if cfg.SparklineInterval == "" {
		cfg.SparklineInterval = "15m"
	}
	if cfg.SparklineLimit <= 0 {
		cfg.SparklineLimit = 20
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &MarketUseCase{data: data, cfg: cfg, logger: logger}
}

// Resolve normalises a user symbol and a UI or exchange interval. It does not
// touch the network.
func (uc *MarketUseCase) Resolve(symbol, interval string) (pair, exInterval string, err error) {
	pair, err = binance.NormalizeSymbol(symbol, uc.cfg.Quote)
	if err != nil {
		return "", "", err
	}
	exInterval, err = domrepo.ParseInterval(interval)
	if err != nil {
		return "", "", err
	}
	return pair, exInterval, nil
}

// Klines validates the symbol against the exchange and returns up to limit candles.
func (uc *MarketUseCase) Klines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	pair, exInterval, err := uc.Resolve(symbol, interval)
	if err != nil {
		return nil, err
	}
	return uc.klines(ctx, pair, exInterval, limit)
}

func (uc *MarketUseCase) klines(ctx context.Context, pair, exInterval string, limit int) ([]models.Candle, error) {
	if err := uc.EnsureSymbol(ctx, pair); err != nil {
		return nil, err
	}
	return uc.fetch(ctx, pair, exInterval, limit)
}

// fetch reads klines for a pair already known to exist and rejects candles
// the engine and the JSON encoder cannot handle.
func (uc *MarketUseCase) fetch(ctx context.Context, pair, exInterval string, limit int) ([]models.Candle, error) {
	candles, err := uc.data.Klines(ctx, pair, exInterval, limit)
	if err != nil {
		return nil, err
	}
	if i := firstNonFinite(candles); i >= 0 {
		return nil, xhttp.UpstreamError(http.StatusBadGateway, fmt.Sprintf("malformed candle %d for %s", i, pair))
	}
	return candles, nil
}

// firstNonFinite returns the index of the first candle holding NaN or Inf, or -1.
// Such values cannot be encoded as JSON and poison every indicator after them.
func firstNonFinite(candles []models.Candle) int {
	for i, c := range candles {
		for _, v := range [...]float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return i
			}
		}
	}
	return -1
}

// EnsureSymbol returns a not-found error unless the exchange lists pair.
func (uc *MarketUseCase) EnsureSymbol(ctx context.Context, pair string) error {
	exists, err := uc.data.SymbolExists(ctx, pair)
	if err != nil {
		return err
	}
	if !exists {
		return xhttp.NotFoundErrorf("symbol %s not found", pair)
	}
	return nil
}

// Coins lists every quote pair, by volume descending, filtered by q.
func (uc *MarketUseCase) Coins(ctx context.Context, q string, limit int) ([]models.CoinSummary, error) {
	tickers, err := uc.data.Tickers(ctx)
	if err != nil {
		return nil, err
	}

	q = strings.TrimSpace(q)
	coins := make([]models.CoinSummary, 0, len(tickers))
	for _, t := range tickers {
		if !binance.IsQuotePair(t.Symbol, uc.cfg.Quote) {
			continue
		}
		c := summaryOf(t, uc.cfg.Quote)
		if q != "" && !util.ContainsFold(c.Symbol, q) {
			continue
		}
		coins = append(coins, c)
	}

	sort.SliceStable(coins, func(i, j int) bool { return coins[i].Volume > coins[j].Volume })
	if limit > 0 && len(coins) > limit {
		coins = coins[:limit]
	}
	return coins, nil
}

// Movers returns the top gainers followed by the top losers, each with a
// sparkline, sorted by sortBy (price or priceChangePercent) in order.
func (uc *MarketUseCase) Movers(ctx context.Context, sortBy, order string) ([]models.Mover, error) {
	tickers, err := uc.data.Tickers(ctx)
	if err != nil {
		return nil, err
	}

	eligible := make([]models.Ticker, 0, len(tickers))
	for _, t := range tickers {
		if binance.IsQuotePair(t.Symbol, uc.cfg.Quote) && t.LastPrice > 0 && t.Volume > uc.cfg.MinVolume {
			eligible = append(eligible, t)
		}
	}
	selected := selectMovers(eligible, uc.cfg.Movers)

	movers := make([]models.Mover, len(selected))
	sem := make(chan struct{}, uc.cfg.Concurrency)
	var wg sync.WaitGroup
	for i, t := range selected {
		movers[i] = models.Mover{
			Symbol:             binance.BaseAsset(t.Symbol, uc.cfg.Quote),
			Pair:               t.Symbol,
			Price:              t.LastPrice,
			PriceChangePercent: t.PriceChangePercent,
			Volume:             t.Volume,
			Sparkline:          []float64{},
		}

		wg.Add(1)
		go func(i int, pair string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			candles, err := uc.fetch(ctx, pair, uc.cfg.SparklineInterval, uc.cfg.SparklineLimit)
			if err != nil {
				uc.logger.Warn("sparkline fetch failed", xlogger.String("pair", pair), xlogger.Error(err))
				return
			}
			movers[i].Sparkline = models.Closes(candles)
		}(i, t.Symbol)
	}
	wg.Wait()

	sortMovers(movers, sortBy, order)
	return movers, nil
}

// selectMovers picks the n biggest gainers and the n biggest losers. A pair
// that qualifies for both lists appears once.
func selectMovers(tickers []models.Ticker, n int) []models.Ticker {
	sorted := make([]models.Ticker, len(tickers))
	copy(sorted, tickers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PriceChangePercent > sorted[j].PriceChangePercent
	})

	out := make([]models.Ticker, 0, 2*n)
	seen := make(map[string]struct{}, 2*n)
	for i := 0; i < n && i < len(sorted); i++ {
		out = append(out, sorted[i])
		seen[sorted[i].Symbol] = struct{}{}
	}
	for i := len(sorted) - 1; i >= 0 && i >= len(sorted)-n; i-- {
		if _, dup := seen[sorted[i].Symbol]; dup {
			continue
		}
		out = append(out, sorted[i])
	}
	return out
}

func sortMovers(movers []models.Mover, sortBy, order string) {
	key := func(m models.Mover) float64 { return m.PriceChangePercent }
	if sortBy == "price" {
		key = func(m models.Mover) float64 { return m.Price }
	}
	asc := order == "asc"
	sort.SliceStable(movers, func(i, j int) bool {
		if asc {
			return key(movers[i]) < key(movers[j])
		}
		return key(movers[i]) > key(movers[j])
	})
}

func summaryOf(t models.Ticker, quote string) models.CoinSummary {
	return models.CoinSummary{
		Symbol:    binance.BaseAsset(t.Symbol, quote),
		Pair:      t.Symbol,
		Price:     t.LastPrice,
		Change24h: t.PriceChangePercent,
		Volume:    t.Volume,
		MarketCap: t.QuoteVolume,
	}
}

func (uc *MarketUseCase) base(pair string) string {
	return binance.BaseAsset(pair, uc.cfg.Quote)
}

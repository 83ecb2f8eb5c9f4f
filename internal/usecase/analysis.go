package usecase

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"KryptoMarket/internal/domain/models"
	domrepo "KryptoMarket/internal/domain/repository"
	"KryptoMarket/internal/indicator"
	xhttp "KryptoMarket/pkg/http"
	xlogger "KryptoMarket/pkg/logger"
	"KryptoMarket/pkg/util"
)

type AnalysisConfig struct {
	DefaultInterval string
	Limit           int
	ListInterval    string
	ListLimit       int
	Concurrency     int
	SinkTimeout     time.Duration
}

// AnalysisUseCase runs the indicator engine over exchange klines.
type AnalysisUseCase struct {
	market  *MarketUseCase
	sink    domrepo.SnapshotSink
	cfg     AnalysisConfig
	metrics domrepo.Metrics
	logger  *xlogger.Logger
	now     func() time.Time
}

func NewAnalysisUseCase(market *MarketUseCase, sink domrepo.SnapshotSink, cfg AnalysisConfig, metrics domrepo.Metrics, logger *xlogger.Logger) *AnalysisUseCase {
	if cfg.DefaultInterval == "" {
		cfg.DefaultInterval = "15"
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 100
	}
	if cfg.ListInterval == "" {
		cfg.ListInterval = "1d"
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 200
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.SinkTimeout <= 0 {
		cfg.SinkTimeout = 5 * time.Second
	}
	if metrics == nil {
		metrics = domrepo.NoopMetrics{}
	}
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &AnalysisUseCase{
		market:  market,
		sink:    sink,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Resolve applies the defaults and normalises symbol and interval.
func (uc *AnalysisUseCase) Resolve(symbol, interval string, limit int) (pair, exInterval string, n int, err error) {
	if strings.TrimSpace(interval) == "" {
		interval = uc.cfg.DefaultInterval
	}
	if limit <= 0 {
		limit = uc.cfg.Limit
	}
	pair, exInterval, err = uc.market.Resolve(symbol, interval)
	return pair, exInterval, limit, err
}

// Detail computes the full indicator view of one symbol.
func (uc *AnalysisUseCase) Detail(ctx context.Context, symbol, interval string, limit int) (*models.Analysis, error) {
	pair, exInterval, limit, err := uc.Resolve(symbol, interval, limit)
	if err != nil {
		return nil, err
	}

	candles, err := uc.market.klines(ctx, pair, exInterval, limit)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, xhttp.UpstreamError(http.StatusBadGateway, "no candles returned for "+pair)
	}

	series := indicator.Compute(candles)
	uc.metrics.RecordIndicator(exInterval)
	latest, _ := series.Latest()
	last := candles[len(candles)-1]

	a := &models.Analysis{
		Symbol:    uc.market.base(pair),
		Pair:      pair,
		Interval:  exInterval,
		Candles:   len(candles),
		LastClose: last.Close,
		LastTime:  last.Timestamp,
		Series:    series,
		Latest:    latest,
		Signal:    indicator.SignalOf(latest),
		RSIZone:   indicator.ZoneOf(latest.RSI),
		UpdatedAt: uc.now().UTC(),
	}
	uc.metrics.RecordLastPrice(pair, last.Close)
	uc.publish(ctx, a)
	return a, nil
}

// publish hands the analysis to the sink. Failures are logged only.
func (uc *AnalysisUseCase) publish(ctx context.Context, a *models.Analysis) {
	if uc.sink == nil {
		return
	}
	snap := models.AnalysisSnapshot{
		Symbol:     a.Pair,
		Interval:   a.Interval,
		CandleTime: util.MillisToTime(a.LastTime),
		Close:      a.LastClose,
		RSI:        a.Latest.RSI,
		MACD:       a.Latest.MACD,
		MACDSignal: a.Latest.MACDSignal,
		MACDHist:   a.Latest.MACDHist,
		EMA20:      a.Latest.EMA20,
		EMA50:      a.Latest.EMA50,
		EMA200:     a.Latest.EMA200,
		Signal:     a.Signal,
		ComputedAt: a.UpdatedAt,
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.cfg.SinkTimeout)
	defer cancel()

	err := uc.sink.Publish(ctx, snap)
	uc.metrics.RecordSinkPublish(uc.sink.Name(), err == nil)
	if err != nil {
		uc.logger.Warn("snapshot publish failed",
			xlogger.String("sink", uc.sink.Name()),
			xlogger.String("pair", a.Pair),
			xlogger.Error(err),
		)
	}
}

// List returns the latest indicator snapshot for the top coins by volume.
// A coin whose klines fail carries an error message instead of indicators.
func (uc *AnalysisUseCase) List(ctx context.Context, interval, q string, limit int) ([]models.AnalysisListItem, error) {
	if interval == "" {
		interval = uc.cfg.ListInterval
	}
	exInterval, err := domrepo.ParseInterval(interval)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	coins, err := uc.market.Coins(ctx, q, limit)
	if err != nil {
		return nil, err
	}

	items := make([]models.AnalysisListItem, len(coins))
	sem := make(chan struct{}, uc.cfg.Concurrency)
	var wg sync.WaitGroup
	for i, c := range coins {
		items[i] = models.AnalysisListItem{CoinSummary: c, Interval: exInterval}

		wg.Add(1)
		go func(item *models.AnalysisListItem) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			candles, err := uc.market.fetch(ctx, item.Pair, exInterval, uc.cfg.ListLimit)
			if err != nil {
				item.Error = err.Error()
				uc.metrics.RecordError("analysis_list")
				return
			}
			snap, ok := indicator.Compute(candles).Latest()
			if !ok {
				item.Error = "no candles"
				return
			}
			uc.metrics.RecordIndicator(exInterval)
			item.Latest = &snap
			item.Signal = indicator.SignalOf(snap)
			item.RSIZone = indicator.ZoneOf(snap.RSI)
		}(&items[i])
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

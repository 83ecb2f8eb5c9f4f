package usecase

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"KryptoMarket/internal/domain/models"
	domrepo "KryptoMarket/internal/domain/repository"
	"KryptoMarket/internal/service/binance"
	xlogger "KryptoMarket/pkg/logger"
	"KryptoMarket/pkg/util"
)

// DefaultOwner is used when a request carries no client id.
const DefaultOwner = "default"

type FavoritesConfig struct {
	HistoryInterval string
	HistoryLimit    int
	CandidatesLimit int
	Concurrency     int
}

const ownerLockStripes = 32

// FavoritesUseCase manages each owner's favorite coins. Favorites are stored
// as base assets (BTC, not BTCUSDT).
//
// Writes for one owner are serialised within the process, so a toggle's
// read-then-write cannot interleave with another write for that owner.
// Several processes sharing a Redis or sqlite store are not coordinated.
type FavoritesUseCase struct {
	store  domrepo.FavoritesStore
	market *MarketUseCase
	cfg    FavoritesConfig
	logger *xlogger.Logger
	locks  [ownerLockStripes]sync.Mutex
}

func NewFavoritesUseCase(store domrepo.FavoritesStore, market *MarketUseCase, cfg FavoritesConfig, logger *xlogger.Logger) *FavoritesUseCase {
	if cfg.HistoryInterval == "" {
		cfg.HistoryInterval = "1m"
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 15
	}
	if cfg.CandidatesLimit <= 0 {
		cfg.CandidatesLimit = 20
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &FavoritesUseCase{store: store, market: market, cfg: cfg, logger: logger}
}

// List joins the owner's favorites with live prices and a short history.
// Favorites the exchange no longer lists are skipped.
func (uc *FavoritesUseCase) List(ctx context.Context, owner, q string) ([]models.Favorite, error) {
	symbols, err := uc.store.List(ctx, ownerOrDefault(owner))
	if err != nil {
		return nil, err
	}
	if len(symbols) == 0 {
		return []models.Favorite{}, nil
	}

	coins, err := uc.market.Coins(ctx, "", 0)
	if err != nil {
		return nil, err
	}
	bySymbol := make(map[string]models.CoinSummary, len(coins))
	for _, c := range coins {
		bySymbol[c.Symbol] = c
	}

	q = strings.TrimSpace(q)
	favs := make([]models.Favorite, 0, len(symbols))
	for _, sym := range symbols {
		coin, ok := bySymbol[sym]
		if !ok {
			uc.logger.Debug("favorite not listed", xlogger.String("symbol", sym))
			continue
		}
		if q != "" && !util.ContainsFold(coin.Symbol, q) {
			continue
		}
		favs = append(favs, models.Favorite{CoinSummary: coin, History: []float64{}})
	}

	sem := make(chan struct{}, uc.cfg.Concurrency)
	var wg sync.WaitGroup
	for i := range favs {
		wg.Add(1)
		go func(f *models.Favorite) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			candles, err := uc.market.fetch(ctx, f.Pair, uc.cfg.HistoryInterval, uc.cfg.HistoryLimit)
			if err != nil {
				uc.logger.Warn("favorite history fetch failed", xlogger.String("pair", f.Pair), xlogger.Error(err))
				return
			}
			f.History = models.Closes(candles)
		}(&favs[i])
	}
	wg.Wait()

	return favs, nil
}

// Toggle flips the favorite state of symbol and returns the new state.
func (uc *FavoritesUseCase) Toggle(ctx context.Context, owner, symbol string) (models.ToggleFavoriteResponse, error) {
	owner = ownerOrDefault(owner)
	base, err := uc.resolve(ctx, symbol)
	if err != nil {
		return models.ToggleFavoriteResponse{}, err
	}

	mu := uc.lockFor(owner)
	mu.Lock()
	defer mu.Unlock()

	fav, err := uc.store.Contains(ctx, owner, base)
	if err != nil {
		return models.ToggleFavoriteResponse{}, err
	}
	if fav {
		err = uc.store.Remove(ctx, owner, base)
	} else {
		err = uc.store.Add(ctx, owner, base)
	}
	if err != nil {
		return models.ToggleFavoriteResponse{}, err
	}
	return models.ToggleFavoriteResponse{Symbol: base, Favorite: !fav}, nil
}

func (uc *FavoritesUseCase) Add(ctx context.Context, owner, symbol string) (models.ToggleFavoriteResponse, error) {
	base, err := uc.resolve(ctx, symbol)
	if err != nil {
		return models.ToggleFavoriteResponse{}, err
	}
	owner = ownerOrDefault(owner)
	mu := uc.lockFor(owner)
	mu.Lock()
	defer mu.Unlock()
	if err := uc.store.Add(ctx, owner, base); err != nil {
		return models.ToggleFavoriteResponse{}, err
	}
	return models.ToggleFavoriteResponse{Symbol: base, Favorite: true}, nil
}

// Remove does not ask the exchange, so delisted coins can still be removed.
func (uc *FavoritesUseCase) Remove(ctx context.Context, owner, symbol string) (models.ToggleFavoriteResponse, error) {
	pair, err := binance.NormalizeSymbol(symbol, uc.market.cfg.Quote)
	if err != nil {
		return models.ToggleFavoriteResponse{}, err
	}
	base := binance.BaseAsset(pair, uc.market.cfg.Quote)
	owner = ownerOrDefault(owner)
	mu := uc.lockFor(owner)
	mu.Lock()
	defer mu.Unlock()
	if err := uc.store.Remove(ctx, owner, base); err != nil {
		return models.ToggleFavoriteResponse{}, err
	}
	return models.ToggleFavoriteResponse{Symbol: base, Favorite: false}, nil
}

// Candidates lists coins the owner has not favorited yet, for the add dialog.
func (uc *FavoritesUseCase) Candidates(ctx context.Context, owner, q string) ([]models.CoinSummary, error) {
	symbols, err := uc.store.List(ctx, ownerOrDefault(owner))
	if err != nil {
		return nil, err
	}
	taken := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		taken[s] = struct{}{}
	}

	coins, err := uc.market.Coins(ctx, q, 0)
	if err != nil {
		return nil, err
	}
	out := make([]models.CoinSummary, 0, uc.cfg.CandidatesLimit)
	for _, c := range coins {
		if _, ok := taken[c.Symbol]; ok {
			continue
		}
		out = append(out, c)
		if len(out) == uc.cfg.CandidatesLimit {
			break
		}
	}
	return out, nil
}

// resolve returns the base asset of symbol after checking that the exchange lists it.
func (uc *FavoritesUseCase) resolve(ctx context.Context, symbol string) (string, error) {
	pair, err := binance.NormalizeSymbol(symbol, uc.market.cfg.Quote)
	if err != nil {
		return "", err
	}
	if err := uc.market.EnsureSymbol(ctx, pair); err != nil {
		return "", err
	}
	return binance.BaseAsset(pair, uc.market.cfg.Quote), nil
}

func (uc *FavoritesUseCase) lockFor(owner string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(owner))
	return &uc.locks[h.Sum32()%ownerLockStripes]
}

func ownerOrDefault(owner string) string {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return DefaultOwner
	}
	return owner
}

package usecase

import (
	"context"
	"errors"
	"math"
	"net/http"
	"testing"

	"KryptoMarket/internal/domain/models"
	xhttp "KryptoMarket/pkg/http"
)

func moverTickers() []models.Ticker {
	return []models.Ticker{
		{Symbol: "AUSDT", LastPrice: 1, PriceChangePercent: 10, Volume: 5e6},
		{Symbol: "BUSDT", LastPrice: 50, PriceChangePercent: 8, Volume: 5e6},
		{Symbol: "CUSDT", LastPrice: 3, PriceChangePercent: 2, Volume: 5e6},
		{Symbol: "DUSDT", LastPrice: 4, PriceChangePercent: -1, Volume: 5e6},
		{Symbol: "EUSDT", LastPrice: 20, PriceChangePercent: -6, Volume: 5e6},
		{Symbol: "FUSDT", LastPrice: 6, PriceChangePercent: -9, Volume: 5e6},
		{Symbol: "GBTC", LastPrice: 1, PriceChangePercent: 50, Volume: 5e6},   // wrong quote
		{Symbol: "HUSDT", LastPrice: 1, PriceChangePercent: 40, Volume: 10},   // thin
		{Symbol: "IUSDT", LastPrice: 0, PriceChangePercent: -40, Volume: 5e6}, // no price
	}
}

func newMarket(f *fakeMarket, movers int) *MarketUseCase {
	return NewMarketUseCase(f, MarketConfig{Quote: "USDT", MinVolume: 1e6, Movers: movers}, nil)
}

func TestMoversSelectsGainersAndLosers(t *testing.T) {
	f := newFakeMarket()
	f.tickers = moverTickers()
	f.setCandles("AUSDT", 1, 2, 3)

	movers, err := newMarket(f, 2).Movers(context.Background(), "priceChangePercent", "desc")
	if err != nil {
		t.Fatalf("movers: %v", err)
	}

	want := []string{"A", "B", "E", "F"}
	if len(movers) != len(want) {
		t.Fatalf("got %d movers, want %d: %+v", len(movers), len(want), movers)
	}
	for i, sym := range want {
		if movers[i].Symbol != sym {
			t.Fatalf("movers[%d] = %s, want %s", i, movers[i].Symbol, sym)
		}
	}
	if len(movers[0].Sparkline) != 3 {
		t.Fatalf("sparkline not attached: %+v", movers[0])
	}
	if movers[1].Sparkline == nil || len(movers[1].Sparkline) != 0 {
		t.Fatalf("failed sparkline should be empty, got %v", movers[1].Sparkline)
	}
}

func TestMoversSortByPriceAscending(t *testing.T) {
	f := newFakeMarket()
	f.tickers = moverTickers()

	movers, err := newMarket(f, 2).Movers(context.Background(), "price", "asc")
	if err != nil {
		t.Fatalf("movers: %v", err)
	}
	for i := 1; i < len(movers); i++ {
		if movers[i-1].Price > movers[i].Price {
			t.Fatalf("not ascending by price: %+v", movers)
		}
	}
}

func TestMoversDoNotDuplicateWhenFewCoins(t *testing.T) {
	f := newFakeMarket()
	f.tickers = moverTickers()[:3]

	movers, err := newMarket(f, 6).Movers(context.Background(), "", "")
	if err != nil {
		t.Fatalf("movers: %v", err)
	}
	if len(movers) != 3 {
		t.Fatalf("expected 3 distinct movers, got %d", len(movers))
	}
}

func TestCoinsSortedFilteredAndLimited(t *testing.T) {
	f := newFakeMarket()
	f.tickers = []models.Ticker{
		{Symbol: "DOGEUSDT", LastPrice: 0.1, Volume: 300, QuoteVolume: 30},
		{Symbol: "BTCUSDT", LastPrice: 60000, Volume: 100, QuoteVolume: 6e6},
		{Symbol: "ETHBTC", LastPrice: 0.05, Volume: 999},
		{Symbol: "SHIBUSDT", LastPrice: 0.00001, Volume: 500},
	}
	uc := newMarket(f, 6)
	ctx := context.Background()

	coins, err := uc.Coins(ctx, "", 0)
	if err != nil {
		t.Fatalf("coins: %v", err)
	}
	if len(coins) != 3 || coins[0].Symbol != "SHIB" || coins[2].Symbol != "BTC" {
		t.Fatalf("unexpected order %+v", coins)
	}
	if coins[2].MarketCap != 6e6 || coins[2].Pair != "BTCUSDT" {
		t.Fatalf("unexpected summary %+v", coins[2])
	}

	coins, _ = uc.Coins(ctx, "do", 0)
	if len(coins) != 1 || coins[0].Symbol != "DOGE" {
		t.Fatalf("query filter failed: %+v", coins)
	}

	coins, _ = uc.Coins(ctx, "", 2)
	if len(coins) != 2 {
		t.Fatalf("limit ignored: %d", len(coins))
	}
}

func TestKlinesUnknownSymbolIsNotFound(t *testing.T) {
	f := newFakeMarket()
	_, err := newMarket(f, 6).Klines(context.Background(), "nope", "15", 10)
	var appErr *xhttp.AppError
	if !errors.As(err, &appErr) || appErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestKlinesRejectsUnknownInterval(t *testing.T) {
	f := newFakeMarket()
	f.setCandles("BTCUSDT", 1, 2)
	_, err := newMarket(f, 6).Klines(context.Background(), "btc", "7", 10)
	if xhttp.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestKlinesNormalisesInput(t *testing.T) {
	f := newFakeMarket()
	f.setCandles("BTCUSDT", 1, 2, 3)
	candles, err := newMarket(f, 6).Klines(context.Background(), " btc ", "1D", 2)
	if err != nil {
		t.Fatalf("klines: %v", err)
	}
	if len(candles) != 2 || candles[1].Close != 3 {
		t.Fatalf("unexpected candles %+v", candles)
	}
}

func TestKlinesRejectsNonFiniteCandles(t *testing.T) {
	f := newFakeMarket()
	f.setCandles("BTCUSDT", 1, 2, math.NaN())
	f.setCandles("ETHUSDT", 1, math.Inf(1), 3)
	uc := newMarket(f, 6)

	for _, sym := range []string{"btc", "eth"} {
		_, err := uc.Klines(context.Background(), sym, "15", 10)
		if xhttp.StatusOf(err) != http.StatusBadGateway {
			t.Fatalf("%s: expected 502, got %v", sym, err)
		}
	}
}

package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"KryptoMarket/internal/domain/models"
	domrepo "KryptoMarket/internal/domain/repository"
	xhttp "KryptoMarket/pkg/http"
)

func newAnalysis(f *fakeMarket, sink *recordingSink) *AnalysisUseCase {
	var s domrepo.SnapshotSink
	if sink != nil {
		s = sink
	}
	uc := NewAnalysisUseCase(newMarket(f, 6), s, AnalysisConfig{}, nil, nil)
	uc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return uc
}

func TestDetailBuySignalOnAcceleratingTrend(t *testing.T) {
	f := newFakeMarket()
	f.setCandles("BTCUSDT", accelerating(100)...)
	sink := &recordingSink{}

	a, err := newAnalysis(f, sink).Detail(context.Background(), "btc", "", 0)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if a.Pair != "BTCUSDT" || a.Symbol != "BTC" || a.Interval != "15m" || a.Candles != 100 {
		t.Fatalf("unexpected header %+v", a)
	}
	if a.Series.Len() != 100 || len(a.Series.EMA200) != 100 {
		t.Fatalf("series not aligned: %d", a.Series.Len())
	}
	if a.Signal != models.SignalBuy {
		t.Fatalf("signal = %s (hist %v)", a.Signal, a.Latest.MACDHist)
	}
	if a.RSIZone != models.RSIOverbought || a.Latest.RSI != 100 {
		t.Fatalf("zone = %s rsi = %v", a.RSIZone, a.Latest.RSI)
	}

	if sink.count() != 1 {
		t.Fatalf("expected one published snapshot, got %d", sink.count())
	}
	snap := sink.snaps[0]
	if snap.Symbol != "BTCUSDT" || snap.Close != a.LastClose || snap.CandleTime.UnixMilli() != a.LastTime || snap.Signal != models.SignalBuy {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestDetailSellSignalOnDeceleratingTrend(t *testing.T) {
	f := newFakeMarket()
	f.setCandles("ETHUSDT", decelerating(100)...)

	a, err := newAnalysis(f, &recordingSink{}).Detail(context.Background(), "ETHUSDT", "60", 100)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if a.Interval != "1h" {
		t.Fatalf("interval = %s", a.Interval)
	}
	if a.Signal != models.SignalSell || a.RSIZone != models.RSIOversold {
		t.Fatalf("signal = %s zone = %s", a.Signal, a.RSIZone)
	}
}

func TestDetailSinkFailureIsIgnored(t *testing.T) {
	f := newFakeMarket()
	f.setCandles("BTCUSDT", accelerating(40)...)
	sink := &recordingSink{err: errors.New("broker down")}

	if _, err := newAnalysis(f, sink).Detail(context.Background(), "BTC", "15", 40); err != nil {
		t.Fatalf("sink failure leaked: %v", err)
	}
	if sink.count() != 1 {
		t.Fatalf("sink not called")
	}
}

func TestDetailErrors(t *testing.T) {
	f := newFakeMarket()
	f.setCandles("EMPTYUSDT")
	uc := newAnalysis(f, nil)
	ctx := context.Background()

	if _, err := uc.Detail(ctx, "NOPE", "15", 10); xhttp.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("unknown symbol: %v", err)
	}
	if _, err := uc.Detail(ctx, "EMPTY", "15", 10); xhttp.StatusOf(err) != http.StatusBadGateway {
		t.Fatalf("empty candles: %v", err)
	}
	if _, err := uc.Detail(ctx, "", "15", 10); xhttp.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("empty symbol: %v", err)
	}
}

func TestListMarksFailedCoins(t *testing.T) {
	f := newFakeMarket()
	f.tickers = []models.Ticker{
		{Symbol: "BTCUSDT", LastPrice: 60000, Volume: 300},
		{Symbol: "ETHUSDT", LastPrice: 3000, Volume: 200},
		{Symbol: "DOGEUSDT", LastPrice: 0.1, Volume: 100},
	}
	f.setCandles("BTCUSDT", accelerating(60)...)
	f.setCandles("DOGEUSDT", decelerating(60)...)
	f.fail["ETHUSDT"] = errors.New("boom")

	items, err := newAnalysis(f, nil).List(context.Background(), "", "", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Symbol != "BTC" || items[0].Latest == nil || items[0].Signal != models.SignalBuy || items[0].Interval != "1d" {
		t.Fatalf("BTC item %+v", items[0])
	}
	if items[1].Error == "" || items[1].Latest != nil {
		t.Fatalf("ETH should carry an error: %+v", items[1])
	}
	if items[2].Signal != models.SignalSell {
		t.Fatalf("DOGE item %+v", items[2])
	}

	items, _ = newAnalysis(f, nil).List(context.Background(), "1w", "doge", 10)
	if len(items) != 1 || items[0].Interval != "1w" {
		t.Fatalf("filtered list %+v", items)
	}
}

package binance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	xhttp "KryptoMarket/pkg/http"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...xhttp.ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]xhttp.ClientOption{xhttp.WithRetry(time.Millisecond, 50*time.Millisecond)}, opts...)
	return New(xhttp.NewClient(opts...), srv.URL+"/api/v3/", "usdt", nil, nil)
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var appErr *xhttp.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}
	return appErr.Status
}

func TestNormalizeSymbol(t *testing.T) {
	cases := map[string]string{
		"btc":      "BTCUSDT",
		"BTC":      "BTCUSDT",
		"BTCUSDT":  "BTCUSDT",
		"btcusdt":  "BTCUSDT",
		" eth ":    "ETHUSDT",
		"PEPEUSDT": "PEPEUSDT",
	}
	for in, want := range cases {
		got, err := NormalizeSymbol(in, "USDT")
		if err != nil {
			t.Fatalf("NormalizeSymbol(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("NormalizeSymbol(%q) = %q, want %q", in, got, want)
		}
	}

	for _, in := range []string{"", "  ", "usdt"} {
		if _, err := NormalizeSymbol(in, "USDT"); err == nil {
			t.Fatalf("NormalizeSymbol(%q): expected error", in)
		}
	}
}

func TestBaseAssetAndQuotePair(t *testing.T) {
	if got := BaseAsset("DOGEUSDT", ""); got != "DOGE" {
		t.Fatalf("BaseAsset = %q", got)
	}
	if !IsQuotePair("BTCUSDT", "USDT") || IsQuotePair("USDT", "USDT") || IsQuotePair("ETHBTC", "USDT") {
		t.Fatalf("IsQuotePair misclassified")
	}
}

func TestKlinesParsesPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("symbol") != "BTCUSDT" || q.Get("interval") != "15m" || q.Get("limit") != "2" {
			t.Errorf("unexpected query %v", q)
		}
		_, _ = w.Write([]byte(`[
			[1700000000000,"100.5","101","99.5","100.75","12.5",1700000899999,"0",1,"0","0","0"],
			[1700000900000,"100.75","102","100","101.25","3",1700001799999,"0",1,"0","0","0"]
		]`))
	})

	candles, err := c.Klines(context.Background(), "BTCUSDT", "15m", 2)
	if err != nil {
		t.Fatalf("klines: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	first := candles[0]
	if first.Timestamp != 1700000000000 || first.Open != 100.5 || first.High != 101 || first.Low != 99.5 || first.Close != 100.75 || first.Volume != 12.5 {
		t.Fatalf("unexpected candle %+v", first)
	}
	if candles[1].Close != 101.25 {
		t.Fatalf("order not preserved: %+v", candles[1])
	}
}

func TestKlinesClampsLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "1000" {
			t.Errorf("limit = %s, want 1000", got)
		}
		_, _ = w.Write([]byte(`[[1,"1","1","1","1","1"]]`))
	})
	if _, err := c.Klines(context.Background(), "BTCUSDT", "1m", 5000); err != nil {
		t.Fatalf("klines: %v", err)
	}
}

func TestKlinesEmptyOrMalformedIsUpstreamError(t *testing.T) {
	for name, body := range map[string]string{
		"empty":     `[]`,
		"malformed": `[[1700000000000,"abc","1","1","1","1"]]`,
		"short":     `[[1700000000000,"1","1"]]`,
		"nan close": `[[1,"1","1","1","1","1"],[2,"1","1","1","NaN","1"]]`,
		"inf high":  `[[1,"1","Inf","1","1","1"]]`,
		"neg inf":   `[[1,"1","1","-Inf","1","1"]]`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := c.Klines(context.Background(), "BTCUSDT", "1m", 10)
			if got := statusOf(t, err); got != http.StatusBadGateway {
				t.Fatalf("status %d, want 502", got)
			}
		})
	}
}

func TestErrorTranslation(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   int
	}{
		{"not found", http.StatusNotFound, http.StatusNotFound},
		{"bad request", http.StatusBadRequest, http.StatusBadRequest},
		{"teapot", http.StatusTeapot, http.StatusTeapot},
		{"server error", http.StatusInternalServerError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
			})
			_, err := c.Klines(context.Background(), "XXXUSDT", "1m", 10)
			if got := statusOf(t, err); got != tc.want {
				t.Fatalf("status %d, want %d", got, tc.want)
			}
		})
	}
}

func TestBadRequestCarriesExchangeMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1120,"msg":"Invalid interval."}`))
	})
	_, err := c.Klines(context.Background(), "BTCUSDT", "7m", 10)
	var appErr *xhttp.AppError
	if !errors.As(err, &appErr) || appErr.Message != "Invalid interval." {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestTimeoutIsGatewayTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	}, xhttp.WithTimeout(20*time.Millisecond), xhttp.WithRetry(0, 0))

	_, err := c.Tickers(context.Background())
	if got := statusOf(t, err); got != http.StatusGatewayTimeout {
		t.Fatalf("status %d, want 504 (%v)", got, err)
	}
}

func TestConnectionRefusedIsServiceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(xhttp.NewClient(xhttp.WithRetry(0, 0)), url, "USDT", nil, nil)
	_, err := c.Tickers(context.Background())
	if got := statusOf(t, err); got != http.StatusServiceUnavailable {
		t.Fatalf("status %d, want 503 (%v)", got, err)
	}
}

func TestTickers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/24hr" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{"symbol":"BTCUSDT","lastPrice":"65000.1","priceChangePercent":"-1.25","volume":"1234.5","quoteVolume":"80000000"}]`))
	})
	tickers, err := c.Tickers(context.Background())
	if err != nil {
		t.Fatalf("tickers: %v", err)
	}
	if len(tickers) != 1 || tickers[0].LastPrice != 65000.1 || tickers[0].PriceChangePercent != -1.25 || tickers[0].QuoteVolume != 8e7 {
		t.Fatalf("unexpected tickers %+v", tickers)
	}
}

func TestSymbolExists(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") == "BTCUSDT" {
			_, _ = w.Write([]byte(`{"symbols":[{"symbol":"BTCUSDT","status":"TRADING"}]}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	})

	ok, err := c.SymbolExists(context.Background(), "BTCUSDT")
	if err != nil || !ok {
		t.Fatalf("BTCUSDT: ok=%v err=%v", ok, err)
	}
	ok, err = c.SymbolExists(context.Background(), "NOPEUSDT")
	if err != nil || ok {
		t.Fatalf("NOPEUSDT: ok=%v err=%v", ok, err)
	}
}

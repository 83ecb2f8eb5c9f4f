package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"KryptoMarket/internal/domain/models"
	domrepo "KryptoMarket/internal/domain/repository"
	xhttp "KryptoMarket/pkg/http"
	xlogger "KryptoMarket/pkg/logger"
	"KryptoMarket/pkg/util"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Client reads public market data from a Binance-compatible REST API.
type Client struct {
	http    *xhttp.Client
	baseURL string
	quote   string
	metrics domrepo.Metrics
	logger  *xlogger.Logger
}

var _ domrepo.MarketData = (*Client)(nil)

// New creates a client for baseURL, e.g. https://api.binance.com/api/v3.
func New(httpClient *xhttp.Client, baseURL, quote string, metrics domrepo.Metrics, logger *xlogger.Logger) *Client {
	if quote == "" {
		quote = DefaultQuote
	}
	if metrics == nil {
		metrics = domrepo.NoopMetrics{}
	}
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		quote:   strings.ToUpper(quote),
		metrics: metrics,
		logger:  logger,
	}
}

// Quote is the asset every pair is quoted in.
func (c *Client) Quote() string {
	return c.quote
}

// Klines fetches up to limit candles, oldest first.
func (c *Client) Klines(ctx context.Context, pair, interval string, limit int) ([]models.Candle, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = util.Clamp(limit, 1, MaxLimit)

	var raw [][]interface{}
	err := c.get(ctx, "klines", map[string][]string{
		"symbol":   {pair},
		"interval": {interval},
		"limit":    {strconv.Itoa(limit)},
	}, &raw)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, xhttp.UpstreamError(http.StatusBadGateway, fmt.Sprintf("no candles for %s %s", pair, interval))
	}

	candles := make([]models.Candle, 0, len(raw))
	for i, row := range raw {
		candle, err := parseKline(row)
		if err != nil {
			return nil, xhttp.UpstreamError(http.StatusBadGateway, fmt.Sprintf("malformed candle %d for %s", i, pair)).WithError(err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

type tickerDTO struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	Volume             string `json:"volume"`
	QuoteVolume        string `json:"quoteVolume"`
}

// Tickers returns the 24h statistics of every listed pair.
func (c *Client) Tickers(ctx context.Context) ([]models.Ticker, error) {
	var raw []tickerDTO
	if err := c.get(ctx, "ticker/24hr", nil, &raw); err != nil {
		return nil, err
	}

	out := make([]models.Ticker, 0, len(raw))
	for _, t := range raw {
		out = append(out, models.Ticker{
			Symbol:             t.Symbol,
			LastPrice:          util.ParseFloatDefault(t.LastPrice, 0),
			PriceChange:        util.ParseFloatDefault(t.PriceChange, 0),
			PriceChangePercent: util.ParseFloatDefault(t.PriceChangePercent, 0),
			HighPrice:          util.ParseFloatDefault(t.HighPrice, 0),
			LowPrice:           util.ParseFloatDefault(t.LowPrice, 0),
			Volume:             util.ParseFloatDefault(t.Volume, 0),
			QuoteVolume:        util.ParseFloatDefault(t.QuoteVolume, 0),
		})
	}
	return out, nil
}

// SymbolExists asks exchangeInfo about pair. An "invalid symbol" reply is a
// plain false, not an error.
func (c *Client) SymbolExists(ctx context.Context, pair string) (bool, error) {
	var info struct {
		Symbols []struct {
			Symbol string `json:"symbol"`
			Status string `json:"status"`
		} `json:"symbols"`
	}
	err := c.get(ctx, "exchangeInfo", map[string][]string{"symbol": {pair}}, &info)
	if err != nil {
		var appErr *xhttp.AppError
		if errors.As(err, &appErr) && (appErr.Status == http.StatusBadRequest || appErr.Status == http.StatusNotFound) {
			return false, nil
		}
		return false, err
	}
	for _, s := range info.Symbols {
		if s.Symbol == pair {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) get(ctx context.Context, endpoint string, query map[string][]string, dest interface{}) error {
	start := time.Now()
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/" + endpoint,
		QueryParams: query,
	}, dest)

	status := http.StatusOK
	if err != nil {
		status = 0
		var se *xhttp.StatusError
		if errors.As(err, &se) {
			status = se.StatusCode
		}
	}
	c.metrics.RecordExchangeRequest(endpoint, status, time.Since(start).Seconds())

	if err != nil {
		c.metrics.RecordError("exchange_" + strings.ReplaceAll(endpoint, "/", "_"))
		c.logger.Debug("exchange request failed",
			xlogger.String("endpoint", endpoint),
			xlogger.Int("status", status),
			xlogger.Error(err),
		)
		return translateError(err)
	}
	return nil
}

// translateError maps transport failures to the API error taxonomy.
func translateError(err error) error {
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		msg := upstreamMessage(se.Body)
		switch se.StatusCode {
		case http.StatusNotFound:
			return xhttp.NotFoundError(orDefault(msg, "symbol not found")).WithError(err)
		case http.StatusBadRequest:
			return xhttp.BadRequestError(orDefault(msg, "invalid request parameters")).WithError(err)
		default:
			return xhttp.UpstreamError(se.StatusCode, orDefault(msg, "exchange returned "+http.StatusText(se.StatusCode))).WithError(err)
		}
	}

	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return xhttp.GatewayTimeoutError("exchange request timed out").WithError(err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return xhttp.GatewayTimeoutError("exchange request timed out").WithError(err)
	}
	return xhttp.ServiceUnavailableError("exchange unavailable").WithError(err)
}

func upstreamMessage(body []byte) string {
	var payload struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(body, &payload) == nil {
		return payload.Msg
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// parseKline reads [openTime, open, high, low, close, volume, ...].
func parseKline(row []interface{}) (models.Candle, error) {
	if len(row) < 6 {
		return models.Candle{}, fmt.Errorf("expected at least 6 fields, got %d", len(row))
	}
	ts, ok := row[0].(float64)
	if !ok {
		return models.Candle{}, fmt.Errorf("open time is %T", row[0])
	}

	var vals [5]float64
	for i := 0; i < 5; i++ {
		v, err := numberField(row[i+1])
		if err != nil {
			return models.Candle{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		vals[i] = v
	}

	return models.Candle{
		Timestamp: int64(ts),
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}, nil
}

// numberField reads a price or volume. Only finite numbers are accepted;
// ParseFloat alone lets "NaN" and "Inf" through.
func numberField(v interface{}) (float64, error) {
	var f float64
	switch n := v.(type) {
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, err
		}
		f = parsed
	case float64:
		f = n
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %v", v)
	}
	return f, nil
}

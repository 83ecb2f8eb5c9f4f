package models

// Candle is one OHLCV bar. Sequences are ordered oldest first.
type Candle struct {
	Timestamp int64   `json:"timestamp"` // open time, ms since epoch
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Closes extracts the close prices, index-aligned with candles.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Ticker is the 24h rolling statistics for one pair.
type Ticker struct {
	Symbol             string  `json:"symbol"`
	LastPrice          float64 `json:"lastPrice"`
	PriceChange        float64 `json:"priceChange"`
	PriceChangePercent float64 `json:"priceChangePercent"`
	HighPrice          float64 `json:"highPrice"`
	LowPrice           float64 `json:"lowPrice"`
	Volume             float64 `json:"volume"`
	QuoteVolume        float64 `json:"quoteVolume"`
}

// CoinSummary is a quote-asset pair reduced to what the coin lists display.
type CoinSummary struct {
	Symbol    string  `json:"symbol"` // base asset, e.g. BTC
	Pair      string  `json:"pair"`   // e.g. BTCUSDT
	Price     float64 `json:"price"`
	Change24h float64 `json:"change24h"`
	Volume    float64 `json:"volume"`
	MarketCap float64 `json:"marketCap"` // quote volume, the closest figure the exchange offers
}

// DashboardCard is one tile on the dashboard page.
type DashboardCard struct {
	Symbol     string    `json:"symbol"`
	Pair       string    `json:"pair"`
	Price      string    `json:"price"`
	Change     string    `json:"change"`
	High       string    `json:"high"`
	Low        string    `json:"low"`
	Volume     string    `json:"volume"`
	History    []float64 `json:"history"`
	Timestamps []int64   `json:"timestamps"`
}

// Mover is a top gainer or loser with its sparkline.
type Mover struct {
	Symbol             string    `json:"symbol"`
	Pair               string    `json:"pair"`
	Price              float64   `json:"price"`
	PriceChangePercent float64   `json:"priceChangePercent"`
	Volume             float64   `json:"volume"`
	Sparkline          []float64 `json:"sparkline"`
}

// Favorite is a stored favorite joined with live market data.
type Favorite struct {
	CoinSummary
	History []float64 `json:"history"`
}

package models

import "time"

type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
)

type RSIZone string

const (
	RSIOverbought RSIZone = "overbought"
	RSIOversold   RSIZone = "oversold"
	RSINeutral    RSIZone = "neutral"
)

// Analysis is the technical view of one symbol at one interval.
type Analysis struct {
	Symbol    string            `json:"symbol"`
	Pair      string            `json:"pair"`
	Interval  string            `json:"interval"`
	Candles   int               `json:"candles"`
	LastClose float64           `json:"lastClose"`
	LastTime  int64             `json:"lastTime"`
	Series    IndicatorSeries   `json:"series"`
	Latest    IndicatorSnapshot `json:"latest"`
	Signal    Signal            `json:"signal"`
	RSIZone   RSIZone           `json:"rsiZone"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// AnalysisListItem is one row of the analysis list. Error is set instead of
// the indicators when the coin's candles could not be fetched.
type AnalysisListItem struct {
	CoinSummary
	Interval  string             `json:"interval"`
	Latest    *IndicatorSnapshot `json:"latest,omitempty"`
	Signal    Signal             `json:"signal,omitempty"`
	RSIZone   RSIZone            `json:"rsiZone,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// AnalysisSnapshot is what the sinks persist for each computed analysis.
type AnalysisSnapshot struct {
	Symbol     string    `json:"symbol"`
	Interval   string    `json:"interval"`
	CandleTime time.Time `json:"candleTime"`
	Close      float64   `json:"close"`
	RSI        float64   `json:"rsi"`
	MACD       float64   `json:"macd"`
	MACDSignal float64   `json:"macdSignal"`
	MACDHist   float64   `json:"macdHist"`
	EMA20      float64   `json:"ema20"`
	EMA50      float64   `json:"ema50"`
	EMA200     float64   `json:"ema200"`
	Signal     Signal    `json:"signal"`
	ComputedAt time.Time `json:"computedAt"`
}

// ViewUpdate is pushed to live view watchers after every refresh.
type ViewUpdate struct {
	Analysis *Analysis `json:"analysis,omitempty"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}

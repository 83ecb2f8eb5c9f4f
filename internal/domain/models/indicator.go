package models

// IndicatorSeries holds the derived series for one candle sequence.
// Every slice has the same length as the input and is index-aligned with it.
type IndicatorSeries struct {
	RSI        []float64 `json:"rsi"`
	MACD       []float64 `json:"macd"`
	MACDSignal []float64 `json:"macdSignal"`
	MACDHist   []float64 `json:"macdHist"`
	EMA20      []float64 `json:"ema20"`
	EMA50      []float64 `json:"ema50"`
	EMA200     []float64 `json:"ema200"`
}

// IndicatorSnapshot is the last-index value of every series.
type IndicatorSnapshot struct {
	RSI        float64 `json:"rsi"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macdSignal"`
	MACDHist   float64 `json:"macdHist"`
	EMA20      float64 `json:"ema20"`
	EMA50      float64 `json:"ema50"`
	EMA200     float64 `json:"ema200"`
}

// Len is the common length of the series.
func (s IndicatorSeries) Len() int {
	return len(s.RSI)
}

// Latest returns the last value of every series. ok is false for empty series.
func (s IndicatorSeries) Latest() (snap IndicatorSnapshot, ok bool) {
	n := s.Len()
	if n == 0 {
		return IndicatorSnapshot{}, false
	}
	i := n - 1
	return IndicatorSnapshot{
		RSI:        s.RSI[i],
		MACD:       s.MACD[i],
		MACDSignal: s.MACDSignal[i],
		MACDHist:   s.MACDHist[i],
		EMA20:      s.EMA20[i],
		EMA50:      s.EMA50[i],
		EMA200:     s.EMA200[i],
	}, true
}

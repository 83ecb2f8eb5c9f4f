// Package indicator derives EMA, MACD and RSI series from a candle sequence.
//
// Every function is pure: the output slices have exactly the length of the
// input and value i belongs to candle i. Warm-up positions hold placeholders
// instead of being dropped, so callers never need to realign indices.
// Inputs are not validated; callers reject empty sequences beforehand.
package indicator

import (
	"math"

	"KryptoMarket/internal/domain/models"
)

const (
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
	RSIPeriod  = 14

	rsiNeutral = 50.0
)

// EMA returns the exponential moving average of the closes.
//
//	i <  period-1  close[i]
//	i == period-1  mean(close[0..period-1])
//	i >  period-1  (close[i]-ema[i-1])*2/(period+1) + ema[i-1]
//
// A period longer than the input, or below 1, leaves every value at its close.
func EMA(candles []models.Candle, period int) []float64 {
	return emaOf(models.Closes(candles), period)
}

func emaOf(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if period < 1 || period > len(values) {
		copy(out, values)
		return out
	}

	var sum float64
	for i := 0; i < period-1; i++ {
		out[i] = values[i]
		sum += values[i]
	}
	sum += values[period-1]
	out[period-1] = sum / float64(period)

	k := 2 / float64(period+1)
	for i := period; i < len(values); i++ {
		out[i] = (values[i]-out[i-1])*k + out[i-1]
	}
	return out
}

// MACDResult holds the three MACD series.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes EMA12-EMA26, its 9-period signal and the histogram.
// The signal line runs the same EMA warm-up over the MACD values, so its
// first eight entries are raw MACD values.
func MACD(candles []models.Candle) MACDResult {
	fast := EMA(candles, MACDFast)
	slow := EMA(candles, MACDSlow)

	macd := make([]float64, len(candles))
	for i := range candles {
		macd[i] = fast[i] - slow[i]
	}

	signal := EMA(syntheticCandles(candles, macd), MACDSignal)

	hist := make([]float64, len(candles))
	for i := range macd {
		hist[i] = macd[i] - signal[i]
	}

	return MACDResult{MACD: macd, Signal: signal, Histogram: hist}
}

// syntheticCandles wraps a derived series as flat candles so it can be fed
// back into EMA.
func syntheticCandles(src []models.Candle, values []float64) []models.Candle {
	out := make([]models.Candle, len(values))
	for i, v := range values {
		out[i] = models.Candle{Timestamp: src[i].Timestamp, Open: v, High: v, Low: v, Close: v}
	}
	return out
}

// RSI computes the relative strength index with a simple (non-smoothed)
// average over the period changes preceding each index.
//
// Values before index period are 50. When the window has no losses the
// value is 100, or 50 when it has no gains either. Any other NaN or Inf in
// the input propagates.
func RSI(candles []models.Candle, period int) []float64 {
	out := make([]float64, len(candles))
	if period < 1 {
		for i := range out {
			out[i] = rsiNeutral
		}
		return out
	}

	change := make([]float64, len(candles))
	for i := 1; i < len(candles); i++ {
		change[i] = candles[i].Close - candles[i-1].Close
	}

	for i := range candles {
		if i < period {
			out[i] = rsiNeutral
			continue
		}

		var gains, losses float64
		for _, c := range change[i-period : i] {
			if math.IsNaN(c) {
				gains, losses = math.NaN(), math.NaN()
				break
			}
			if c > 0 {
				gains += c
			} else if c < 0 {
				losses -= c
			}
		}
		avgGain := gains / float64(period)
		avgLoss := losses / float64(period)

		switch {
		case avgLoss == 0 && avgGain == 0:
			out[i] = rsiNeutral
		case avgLoss == 0:
			out[i] = 100
		default:
			rs := avgGain / avgLoss
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}

// Compute derives every series the analysis view shows.
func Compute(candles []models.Candle) models.IndicatorSeries {
	macd := MACD(candles)
	return models.IndicatorSeries{
		RSI:        RSI(candles, RSIPeriod),
		MACD:       macd.MACD,
		MACDSignal: macd.Signal,
		MACDHist:   macd.Histogram,
		EMA20:      EMA(candles, 20),
		EMA50:      EMA(candles, 50),
		EMA200:     EMA(candles, 200),
	}
}

// SignalOf reads the trade signal off the MACD histogram.
func SignalOf(s models.IndicatorSnapshot) models.Signal {
	if s.MACDHist > 0 {
		return models.SignalBuy
	}
	return models.SignalSell
}

// ZoneOf classifies an RSI value.
func ZoneOf(rsi float64) models.RSIZone {
	switch {
	case rsi > 70:
		return models.RSIOverbought
	case rsi < 30:
		return models.RSIOversold
	default:
		return models.RSINeutral
	}
}

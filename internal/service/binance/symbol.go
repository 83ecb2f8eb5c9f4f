package binance

import (
	"strings"

	xhttp "KryptoMarket/pkg/http"
)

const DefaultQuote = "USDT"

// NormalizeSymbol turns user input such as "btc", "BTCUSDT" or " eth " into
// the exchange pair (BTCUSDT, ETHUSDT).
func NormalizeSymbol(s, quote string) (string, error) {
	if quote == "" {
		quote = DefaultQuote
	}
	quote = strings.ToUpper(quote)

	base := BaseAsset(s, quote)
	if base == "" {
		return "", xhttp.BadRequestError("symbol is required")
	}
	return base + quote, nil
}

// BaseAsset strips the quote suffix from a pair. The input is uppercased first.
func BaseAsset(pair, quote string) string {
	if quote == "" {
		quote = DefaultQuote
	}
	pair = strings.ToUpper(strings.TrimSpace(pair))
	return strings.TrimSuffix(pair, strings.ToUpper(quote))
}

// IsQuotePair reports whether pair is quoted in quote and has a non-empty base.
func IsQuotePair(pair, quote string) bool {
	if quote == "" {
		quote = DefaultQuote
	}
	return len(pair) > len(quote) && strings.HasSuffix(pair, quote)
}

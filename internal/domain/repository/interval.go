package repository

import (
	"strings"

	xhttp "KryptoMarket/pkg/http"
)

// intervals maps the dashboard's interval tokens to the exchange's.
var intervals = map[string]string{
	"1":   "1m",
	"5":   "5m",
	"15":  "15m",
	"30":  "30m",
	"60":  "1h",
	"240": "4h",
	"1D":  "1d",
	"1W":  "1w",
	"1M":  "1M",
}

// exchangeIntervals is the set of tokens accepted as-is.
var exchangeIntervals = map[string]struct{}{
	"1m": {}, "5m": {}, "15m": {}, "30m": {}, "1h": {}, "4h": {}, "1d": {}, "1w": {}, "1M": {},
}

// ParseInterval returns the exchange token for a UI or exchange interval.
// "1M" is a month in both vocabularies; "1m" is always a minute.
func ParseInterval(s string) (string, error) {
	s = strings.TrimSpace(s)
	if v, ok := intervals[s]; ok {
		return v, nil
	}
	if _, ok := exchangeIntervals[s]; ok {
		return s, nil
	}
	return "", xhttp.BadRequestErrorf("unsupported interval %q", s)
}

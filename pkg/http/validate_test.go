package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type klinesQuery struct {
	Symbol string `query:"symbol" validate:"required,ticker"`
	Limit  int    `query:"limit" default:"100" validate:"gte=1,lte=1000"`
}

func bindQuery(t *testing.T, rawQuery string) (*klinesQuery, []ValidationError) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/klines?"+rawQuery, nil)
	c := e.NewContext(req, httptest.NewRecorder())

	out := &klinesQuery{}
	if verr := ReadAndValidateRequest(c, out); verr != nil {
		errs, ok := verr.([]ValidationError)
		if !ok {
			t.Fatalf("unexpected validation payload %T", verr)
		}
		return out, errs
	}
	return out, nil
}

func TestReadAndValidateRequestAppliesDefaults(t *testing.T) {
	req, errs := bindQuery(t, "symbol=btc")
	if errs != nil {
		t.Fatalf("unexpected errors %+v", errs)
	}
	if req.Limit != 100 {
		t.Fatalf("limit = %d, want default 100", req.Limit)
	}
}

func TestTickerRule(t *testing.T) {
	for _, ok := range []string{"btc", "BTCUSDT", "1000SATS"} {
		if _, errs := bindQuery(t, "symbol="+ok); errs != nil {
			t.Fatalf("%q rejected: %+v", ok, errs)
		}
	}
	for _, bad := range []string{"BTC-USD", "btc%2Fusdt", "ABCDEFGHIJKLMNOPQRSTUV"} {
		_, errs := bindQuery(t, "symbol="+bad)
		if len(errs) != 1 || errs[0].Code != "ERR_TICKER" || errs[0].Field != "symbol" {
			t.Fatalf("%q: unexpected errors %+v", bad, errs)
		}
	}
}

func TestValidationReportsWireNames(t *testing.T) {
	_, errs := bindQuery(t, "limit=5000")
	if len(errs) != 2 {
		t.Fatalf("expected two errors, got %+v", errs)
	}
	if errs[0].Field != "symbol" || errs[0].Code != "ERR_REQUIRED" {
		t.Fatalf("unexpected first error %+v", errs[0])
	}
	if errs[1].Field != "limit" || errs[1].Params["max"] != "1000" {
		t.Fatalf("unexpected second error %+v", errs[1])
	}
}

func TestBindFailureIsReported(t *testing.T) {
	_, errs := bindQuery(t, "symbol=btc&limit=abc")
	if len(errs) != 1 || errs[0].Code != "ERR_BIND" {
		t.Fatalf("unexpected errors %+v", errs)
	}
}

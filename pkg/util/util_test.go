package util

import (
	"testing"
	"time"
)

func TestMillisRoundTrip(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 123_000_000, time.UTC)
	got := MillisToTime(TimeToMillis(ts))
	if !got.Equal(ts) {
		t.Fatalf("unexpected time %v", got)
	}
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", got.Location())
	}
}

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("", 7); got != 7 {
		t.Fatalf("expected default, got %d", got)
	}
	if got := ParseIntDefault("x", 7); got != 7 {
		t.Fatalf("expected default on garbage, got %d", got)
	}
	if got := ParseIntDefault("42", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestParseFloatDefault(t *testing.T) {
	if got := ParseFloatDefault("0.00001234", 0); got != 0.00001234 {
		t.Fatalf("unexpected %v", got)
	}
	if got := ParseFloatDefault("abc", -1); got != -1 {
		t.Fatalf("expected default, got %v", got)
	}
	for _, s := range []string{"NaN", "Inf", "+Inf", "-Inf"} {
		if got := ParseFloatDefault(s, 0); got != 0 {
			t.Fatalf("ParseFloatDefault(%q) = %v, want default", s, got)
		}
	}
}

func TestClamp(t *testing.T) {
	cases := []struct{ v, want int }{{0, 1}, {5, 5}, {5000, 1000}}
	for _, c := range cases {
		if got := Clamp(c.v, 1, 1000); got != c.want {
			t.Fatalf("Clamp(%d) = %d, want %d", c.v, got, c.want)
		}
	}
}

func TestContainsFold(t *testing.T) {
	if !ContainsFold("DOGE", "og") {
		t.Fatalf("expected match")
	}
	if !ContainsFold("BTC", "") {
		t.Fatalf("empty query matches everything")
	}
	if ContainsFold("ETH", "btc") {
		t.Fatalf("unexpected match")
	}
}

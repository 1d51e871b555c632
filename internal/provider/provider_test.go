package provider

import (
	"context"
	"testing"
	"time"

	"quote-engine/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// fetchFunc adapts a function to the httpx.Fetcher interface.
type fetchFunc func(ctx context.Context, url string) ([]byte, error)

func (f fetchFunc) Get(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

func testTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

func TestProbeNumberOrder(t *testing.T) {
	t.Parallel()

	obj := map[string]any{
		"regularMarketPrice": 0.0, // zero is unusable
		"postMarketPrice":    "38.52",
		"bid":                40.0,
	}
	price, ok := probeNumber(obj, "regularMarketPrice", "postMarketPrice", "preMarketPrice", "bid")
	if !ok {
		t.Fatal("expected a usable price")
	}
	if price != 38.52 {
		t.Fatalf("expected the first usable candidate to win, got %v", price)
	}
}

func TestProbeNumberNothingUsable(t *testing.T) {
	t.Parallel()

	obj := map[string]any{
		"regularMarketPrice": 0.0,
		"bid":                "not a number",
		"other":              true,
	}
	if _, ok := probeNumber(obj, "regularMarketPrice", "bid", "other", "missing"); ok {
		t.Fatal("expected no usable price")
	}
}

func TestProbeString(t *testing.T) {
	t.Parallel()

	obj := map[string]any{
		"longName":  "",
		"shortName": "Petrobras PN",
	}
	name, ok := probeString(obj, "longName", "shortName", "displayName")
	if !ok || name != "Petrobras PN" {
		t.Fatalf("expected the first non-empty candidate, got %q", name)
	}
	if _, ok := probeString(obj, "displayName"); ok {
		t.Fatal("expected no name from missing fields")
	}
}

func TestNearestCandlePicksClosestHour(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	candles := []domain.Candle{
		{Timestamp: day.Add(10 * time.Hour), Close: 100},
		{Timestamp: day.Add(11 * time.Hour), Close: 105},
		{Timestamp: day.Add(12 * time.Hour), Close: 110},
	}

	got, ok := nearestCandle(candles, day.Add(11*time.Hour+40*time.Minute))
	if !ok {
		t.Fatal("expected a candle")
	}
	// 11:40 floors to 11:00, the exact hour of the middle candle.
	if got.Close != 105 {
		t.Fatalf("expected close 105, got %v", got.Close)
	}
}

func TestNearestCandleOutsideRange(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	candles := []domain.Candle{
		{Timestamp: day.Add(10 * time.Hour), Close: 100},
		{Timestamp: day.Add(11 * time.Hour), Close: 105},
	}

	got, ok := nearestCandle(candles, day.Add(23*time.Hour))
	if !ok || got.Close != 105 {
		t.Fatalf("expected the last candle for a late timestamp, got %+v", got)
	}

	if _, ok := nearestCandle(nil, day); ok {
		t.Fatal("expected no candle from an empty series")
	}
}

func TestDomainOf(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"https://api.binance.com":             "api.binance.com",
		"https://query1.finance.yahoo.com/v7": "query1.finance.yahoo.com",
		"not a url":                           "not a url",
	}
	for in, want := range tests {
		if got := domainOf(in); got != want {
			t.Errorf("%q: expected %q, got %q", in, want, got)
		}
	}
}

package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"quote-engine/internal/domain"
)

var geckoNow = time.Date(2025, 6, 16, 15, 0, 0, 0, time.UTC)

var testIDs = map[string]string{
	"BTC": "bitcoin",
	"ETH": "ethereum",
}

func TestCoinGeckoCurrent(t *testing.T) {
	t.Parallel()

	var requestedURL string
	fetcher := fetchFunc(func(_ context.Context, url string) ([]byte, error) {
		requestedURL = url
		return []byte(`{"bitcoin":{"usd":97000.12}}`), nil
	})
	p := NewCoinGeckoProvider(testTracer(), fetcher, "https://api.coingecko.com", testIDs)

	got, err := p.Fetch(context.Background(), domain.QuoteRequest{Symbol: "BTC", Category: domain.CategoryCrypto}, geckoNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(requestedURL, "ids=bitcoin") {
		t.Fatalf("expected the mapped coin id, got %s", requestedURL)
	}
	if got.Price != 97000.12 || got.Currency != "USD" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestCoinGeckoCurrentMissingIDIsNotFound(t *testing.T) {
	t.Parallel()

	fetcher := fetchFunc(func(_ context.Context, _ string) ([]byte, error) {
		return []byte(`{}`), nil
	})
	p := NewCoinGeckoProvider(testTracer(), fetcher, "https://api.coingecko.com", testIDs)

	_, err := p.Fetch(context.Background(), domain.QuoteRequest{Symbol: "BTC", Category: domain.CategoryCrypto}, geckoNow)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not-found when the id is absent, got %v", err)
	}
}

func TestCoinGeckoUnmappedSymbolSkipsNetwork(t *testing.T) {
	t.Parallel()

	calls := 0
	fetcher := fetchFunc(func(_ context.Context, _ string) ([]byte, error) {
		calls++
		return nil, nil
	})
	p := NewCoinGeckoProvider(testTracer(), fetcher, "https://api.coingecko.com", testIDs)

	_, err := p.Fetch(context.Background(), domain.QuoteRequest{Symbol: "NOPE", Category: domain.CategoryCrypto}, geckoNow)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not-found for an unmapped symbol, got %v", err)
	}
	if calls != 0 {
		t.Fatal("unmapped symbols must not hit the network")
	}
}

func pricePoints(points [][2]any) string {
	rows := make([]string, len(points))
	for i, pt := range points {
		rows[i] = fmt.Sprintf("[%v,%v]", pt[0], pt[1])
	}
	return `{"prices":[` + strings.Join(rows, ",") + `]}`
}

func TestCoinGeckoIntradayPicksNearestPoint(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	at := day.Add(11*time.Hour + 40*time.Minute)

	fetcher := fetchFunc(func(_ context.Context, url string) ([]byte, error) {
		if !strings.Contains(url, "market_chart/range") {
			t.Errorf("expected the range endpoint, got %s", url)
		}
		return []byte(pricePoints([][2]any{
			{day.Add(10 * time.Hour).UnixMilli(), 100.0},
			{day.Add(11 * time.Hour).UnixMilli(), 105.0},
			{day.Add(12 * time.Hour).UnixMilli(), 110.0},
		})), nil
	})
	p := NewCoinGeckoProvider(testTracer(), fetcher, "https://api.coingecko.com", testIDs)

	got, err := p.Fetch(context.Background(), domain.QuoteRequest{Symbol: "BTC", Category: domain.CategoryCrypto, At: at}, geckoNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Price != 105 {
		t.Fatalf("expected the 11:00 point for an 11:40 request, got %v", got.Price)
	}
}

func TestCoinGeckoHistoricalTakesLastPointOfDay(t *testing.T) {
	t.Parallel()

	target := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	fetcher := fetchFunc(func(_ context.Context, _ string) ([]byte, error) {
		return []byte(pricePoints([][2]any{
			{target.Add(2 * time.Hour).UnixMilli(), 96000.0},
			{target.Add(23 * time.Hour).UnixMilli(), 97500.0},
		})), nil
	})
	p := NewCoinGeckoProvider(testTracer(), fetcher, "https://api.coingecko.com", testIDs)

	req := domain.QuoteRequest{Symbol: "BTC", Category: domain.CategoryCrypto, Date: target}
	got, err := p.Fetch(context.Background(), req, geckoNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Price != 97500 {
		t.Fatalf("the last point of the day is the close, got %v", got.Price)
	}
}

func TestCoinGeckoEmptySeriesIsNotFound(t *testing.T) {
	t.Parallel()

	fetcher := fetchFunc(func(_ context.Context, _ string) ([]byte, error) {
		return []byte(`{"prices":[]}`), nil
	})
	p := NewCoinGeckoProvider(testTracer(), fetcher, "https://api.coingecko.com", testIDs)

	req := domain.QuoteRequest{Symbol: "BTC", Category: domain.CategoryCrypto, Date: geckoNow.AddDate(0, 0, -5)}
	if _, err := p.Fetch(context.Background(), req, geckoNow); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

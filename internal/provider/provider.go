// Package provider implements the per-source fetch and parse logic. Every
// provider goes through the shared httpx fetch primitive; parse order and
// error-marker detection carry the business rules of which field wins and
// what counts as "not found".
package provider

import (
	"errors"
	"net/url"
	"strconv"
	"time"

	"quote-engine/internal/domain"
)

// ErrNotFound means the provider explicitly reported no data for the asset.
// The resolver advances to the next provider without recording backoff.
var ErrNotFound = errors.New("asset not found")

// probeNumber walks candidate field names in order and returns the first
// one holding a usable number. Numeric strings count; zero does not.
func probeNumber(obj map[string]any, fields ...string) (float64, bool) {
	for _, f := range fields {
		v, ok := obj[f]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			if n != 0 {
				return n, true
			}
		case string:
			if parsed, err := strconv.ParseFloat(n, 64); err == nil && parsed != 0 {
				return parsed, true
			}
		}
	}
	return 0, false
}

// probeString returns the first non-empty string among the candidate fields.
func probeString(obj map[string]any, fields ...string) (string, bool) {
	for _, f := range fields {
		if s, ok := obj[f].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// nearestCandle picks the candle whose hour-floored timestamp is closest to
// at; an exact hour match short-circuits the scan.
func nearestCandle(candles []domain.Candle, at time.Time) (domain.Candle, bool) {
	if len(candles) == 0 {
		return domain.Candle{}, false
	}
	targetHour := at.UTC().Truncate(time.Hour)

	best := candles[0]
	bestDiff := time.Duration(1<<63 - 1)
	for _, c := range candles {
		hour := c.Timestamp.UTC().Truncate(time.Hour)
		if hour.Equal(targetHour) {
			return c, true
		}
		diff := at.Sub(hour)
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			bestDiff = diff
			best = c
		}
	}
	return best, true
}

// domainOf extracts the host from a base URL, the key the backoff tracker
// blocks on.
func domainOf(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return baseURL
	}
	return u.Host
}

func dayBoundsUTC(t time.Time) (time.Time, time.Time) {
	y, m, d := t.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

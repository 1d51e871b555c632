package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"quote-engine/internal/domain"
	"quote-engine/internal/httpx"

	"go.opentelemetry.io/otel/trace"
)

// CoinGeckoProvider is the secondary crypto source, queried by coin id.
// Historical data comes as [timestampMs, price] points rather than full
// candles; each point is treated as a close.
type CoinGeckoProvider struct {
	fetcher httpx.Fetcher
	baseURL string
	host    string
	tracer  trace.Tracer
	ids     map[string]string
}

func NewCoinGeckoProvider(tracer trace.Tracer, fetcher httpx.Fetcher, baseURL string, ids map[string]string) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
		host:    domainOf(baseURL),
		tracer:  tracer,
		ids:     ids,
	}
}

func (p *CoinGeckoProvider) Name() string   { return "coingecko" }
func (p *CoinGeckoProvider) Domain() string { return p.host }

func (p *CoinGeckoProvider) Fetch(ctx context.Context, req domain.QuoteRequest, now time.Time) (domain.QuoteResult, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch")
	defer span.End()

	id, ok := p.ids[strings.ToUpper(strings.TrimSpace(req.Symbol))]
	if !ok {
		return domain.QuoteResult{}, ErrNotFound
	}

	switch req.Kind(now) {
	case domain.KindIntraday:
		return p.series(ctx, id, req.At, true)
	case domain.KindHistorical:
		return p.series(ctx, id, req.TargetDate(now), false)
	default:
		return p.current(ctx, id)
	}
}

func (p *CoinGeckoProvider) current(ctx context.Context, id string) (domain.QuoteResult, error) {
	url := fmt.Sprintf("%s/api/v3/simple/price?ids=%s&vs_currencies=usd", p.baseURL, id)
	body, err := p.fetcher.Get(ctx, url)
	if err != nil {
		return domain.QuoteResult{}, err
	}

	// Response shape: {"bitcoin": {"usd": 97000.12}}
	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.QuoteResult{}, fmt.Errorf("parse simple price for %s: %w", id, err)
	}
	entry, ok := raw[id]
	if !ok {
		return domain.QuoteResult{}, ErrNotFound
	}
	price := entry["usd"]
	if price == 0 {
		return domain.QuoteResult{}, ErrNotFound
	}
	return usdResult(price), nil
}

// series fetches the [tsMs, price] points covering the day of moment.
// Intraday picks the point nearest the requested time; historical takes the
// last point of the day as its close.
func (p *CoinGeckoProvider) series(ctx context.Context, id string, moment time.Time, intraday bool) (domain.QuoteResult, error) {
	start, end := dayBoundsUTC(moment)
	url := fmt.Sprintf("%s/api/v3/coins/%s/market_chart/range?vs_currency=usd&from=%d&to=%d",
		p.baseURL, id, start.Unix(), end.Unix())
	body, err := p.fetcher.Get(ctx, url)
	if err != nil {
		return domain.QuoteResult{}, err
	}

	var payload struct {
		Prices [][]float64 `json:"prices"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.QuoteResult{}, fmt.Errorf("parse market chart for %s: %w", id, err)
	}
	if len(payload.Prices) == 0 {
		return domain.QuoteResult{}, ErrNotFound
	}

	candles := make([]domain.Candle, 0, len(payload.Prices))
	for _, pt := range payload.Prices {
		if len(pt) < 2 || pt[1] == 0 {
			continue
		}
		candles = append(candles, domain.Candle{
			Timestamp: time.UnixMilli(int64(pt[0])).UTC(),
			Close:     pt[1],
		})
	}
	if len(candles) == 0 {
		return domain.QuoteResult{}, ErrNotFound
	}

	if intraday {
		candle, _ := nearestCandle(candles, moment)
		return usdResult(candle.Close), nil
	}
	return usdResult(candles[len(candles)-1].Close), nil
}

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"quote-engine/internal/domain"
	"quote-engine/internal/httpx"

	"go.opentelemetry.io/otel/trace"
)

// BinanceProvider is the primary crypto source, queried by trading pair.
type BinanceProvider struct {
	fetcher httpx.Fetcher
	baseURL string
	host    string
	tracer  trace.Tracer
	pairs   map[string]string
}

func NewBinanceProvider(tracer trace.Tracer, fetcher httpx.Fetcher, baseURL string, pairs map[string]string) *BinanceProvider {
	return &BinanceProvider{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
		host:    domainOf(baseURL),
		tracer:  tracer,
		pairs:   pairs,
	}
}

func (p *BinanceProvider) Name() string   { return "binance" }
func (p *BinanceProvider) Domain() string { return p.host }

func (p *BinanceProvider) Fetch(ctx context.Context, req domain.QuoteRequest, now time.Time) (domain.QuoteResult, error) {
	ctx, span := p.tracer.Start(ctx, "binance.fetch")
	defer span.End()

	pair, ok := p.pairs[strings.ToUpper(strings.TrimSpace(req.Symbol))]
	if !ok {
		return domain.QuoteResult{}, ErrNotFound
	}

	switch req.Kind(now) {
	case domain.KindIntraday:
		return p.intraday(ctx, pair, req.At)
	case domain.KindHistorical:
		return p.daily(ctx, pair, req.TargetDate(now))
	default:
		return p.current(ctx, pair)
	}
}

func (p *BinanceProvider) current(ctx context.Context, pair string) (domain.QuoteResult, error) {
	url := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", p.baseURL, pair)
	body, err := p.fetcher.Get(ctx, url)
	if err != nil {
		if httpx.KindOf(err) == httpx.FailureStatus && hasBinanceErrorMarker(body) {
			return domain.QuoteResult{}, ErrNotFound
		}
		return domain.QuoteResult{}, err
	}

	var payload struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.QuoteResult{}, fmt.Errorf("parse ticker for %s: %w", pair, err)
	}
	if payload.Price == "" {
		if hasBinanceErrorMarker(body) {
			return domain.QuoteResult{}, ErrNotFound
		}
		return domain.QuoteResult{}, fmt.Errorf("empty ticker price for %s", pair)
	}
	price, err := strconv.ParseFloat(payload.Price, 64)
	if err != nil || price == 0 {
		return domain.QuoteResult{}, fmt.Errorf("unparsable ticker price %q for %s", payload.Price, pair)
	}
	return usdResult(price), nil
}

// intraday fetches the hourly candles of the target UTC day and picks the
// one nearest the requested time.
func (p *BinanceProvider) intraday(ctx context.Context, pair string, at time.Time) (domain.QuoteResult, error) {
	candles, err := p.klines(ctx, pair, "1h", at)
	if err != nil {
		return domain.QuoteResult{}, err
	}
	candle, ok := nearestCandle(candles, at)
	if !ok {
		return domain.QuoteResult{}, ErrNotFound
	}
	return usdResult(candle.Close), nil
}

// daily fetches the single daily candle for the target UTC day.
func (p *BinanceProvider) daily(ctx context.Context, pair string, target time.Time) (domain.QuoteResult, error) {
	candles, err := p.klines(ctx, pair, "1d", target)
	if err != nil {
		return domain.QuoteResult{}, err
	}
	if len(candles) == 0 {
		return domain.QuoteResult{}, ErrNotFound
	}
	return usdResult(candles[0].Close), nil
}

func (p *BinanceProvider) klines(ctx context.Context, pair, interval string, day time.Time) ([]domain.Candle, error) {
	start, end := dayBoundsUTC(day)
	url := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&startTime=%d&endTime=%d",
		p.baseURL, pair, interval, start.UnixMilli(), end.UnixMilli()-1)
	body, err := p.fetcher.Get(ctx, url)
	if err != nil {
		if httpx.KindOf(err) == httpx.FailureStatus && hasBinanceErrorMarker(body) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return parseKlines(pair, body)
}

// parseKlines decodes the [[openTimeMs,"o","h","l","c","v",...],...] rows.
func parseKlines(pair string, body []byte) ([]domain.Candle, error) {
	var rows [][]any
	if err := json.Unmarshal(body, &rows); err != nil {
		if hasBinanceErrorMarker(body) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("parse klines for %s: %w", pair, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	candles := make([]domain.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 5 {
			continue
		}
		ts, ok := row[0].(float64)
		if !ok {
			continue
		}
		open, okO := klineNumber(row[1])
		high, okH := klineNumber(row[2])
		low, okL := klineNumber(row[3])
		closePrice, okC := klineNumber(row[4])
		if !okO || !okH || !okL || !okC {
			continue
		}
		candles = append(candles, domain.Candle{
			Timestamp: time.UnixMilli(int64(ts)).UTC(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
		})
	}
	if len(candles) == 0 {
		return nil, ErrNotFound
	}
	return candles, nil
}

func klineNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		return parsed, err == nil
	case float64:
		return n, true
	}
	return 0, false
}

// hasBinanceErrorMarker detects the {"code":-1121,"msg":"..."} error body.
func hasBinanceErrorMarker(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	var payload struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}
	return payload.Code != 0 && payload.Msg != ""
}

func usdResult(price float64) domain.QuoteResult {
	return domain.QuoteResult{
		Success:  true,
		Message:  "quote resolved",
		Price:    price,
		Currency: "USD",
	}
}

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

// equityPriceFields is the probe order for the current-quote payload. The
// first non-empty candidate wins.
var equityPriceFields = []string{
	"regularMarketPrice",
	"postMarketPrice",
	"preMarketPrice",
	"bid",
	"regularMarketPreviousClose",
}

var equityNameFields = []string{"longName", "shortName", "displayName"}

// localSuffix is the exchange suffix appended to Brazilian tickers.
const localSuffix = ".SA"

// historicalLookbackDays widens historical queries so weekends and holidays
// still return a candle.
const historicalLookbackDays = 7

// EquitiesProvider serves EQUITY_BR, REIT_BR and EQUITY_US through a
// Yahoo-shaped quote/chart API.
type EquitiesProvider struct {
	fetcher httpx.Fetcher
	baseURL string
	host    string
	tracer  trace.Tracer
	names   map[string]string
}

func NewEquitiesProvider(tracer trace.Tracer, fetcher httpx.Fetcher, baseURL string, names map[string]string) *EquitiesProvider {
	return &EquitiesProvider{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
		host:    domainOf(baseURL),
		tracer:  tracer,
		names:   names,
	}
}

func (p *EquitiesProvider) Name() string   { return "equities" }
func (p *EquitiesProvider) Domain() string { return p.host }

// Fetch resolves one request. Historical requests go through the chart
// endpoint; everything else reads the current snapshot.
func (p *EquitiesProvider) Fetch(ctx context.Context, req domain.QuoteRequest, now time.Time) (domain.QuoteResult, error) {
	ctx, span := p.tracer.Start(ctx, "equities.fetch")
	defer span.End()

	ticker := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.Category.Brazilian() && !strings.HasSuffix(ticker, localSuffix) {
		ticker += localSuffix
	}
	currency := "USD"
	if req.Category.Brazilian() {
		currency = "BRL"
	}

	if req.Kind(now) == domain.KindHistorical {
		return p.historical(ctx, req.Symbol, ticker, currency, req.TargetDate(now))
	}
	return p.current(ctx, req.Symbol, ticker, currency)
}

func (p *EquitiesProvider) current(ctx context.Context, symbol, ticker, currency string) (domain.QuoteResult, error) {
	url := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", p.baseURL, ticker)
	body, err := p.fetcher.Get(ctx, url)
	if err != nil {
		if httpx.KindOf(err) == httpx.FailureStatus && hasEquityErrorMarker(body) {
			return domain.QuoteResult{}, ErrNotFound
		}
		return domain.QuoteResult{}, err
	}

	var payload struct {
		QuoteResponse struct {
			Result []map[string]any `json:"result"`
			Error  any              `json:"error"`
		} `json:"quoteResponse"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.QuoteResult{}, fmt.Errorf("parse quote for %s: %w", ticker, err)
	}
	if payload.QuoteResponse.Error != nil || len(payload.QuoteResponse.Result) == 0 {
		return domain.QuoteResult{}, ErrNotFound
	}

	result := payload.QuoteResponse.Result[0]
	price, ok := probeNumber(result, equityPriceFields...)
	if !ok {
		return domain.QuoteResult{}, fmt.Errorf("no usable price field for %s", ticker)
	}

	name, _ := probeString(result, equityNameFields...)
	if name == "" {
		name = p.displayName(symbol)
	}

	return domain.QuoteResult{
		Success:   true,
		Message:   "quote resolved",
		Price:     price,
		Currency:  currency,
		AssetName: name,
	}, nil
}

// historical queries the chart endpoint with a window opening
// historicalLookbackDays before the target and takes the first candle with
// a usable close. On a weekend date this can answer with the next trading
// day rather than the previous one; the selection is kept as-is.
func (p *EquitiesProvider) historical(ctx context.Context, symbol, ticker, currency string, target time.Time) (domain.QuoteResult, error) {
	start, end := dayBoundsUTC(target)
	period1 := start.AddDate(0, 0, -historicalLookbackDays).Unix()
	period2 := end.Unix()

	url := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		p.baseURL, ticker, period1, period2)
	body, err := p.fetcher.Get(ctx, url)
	if err != nil {
		if httpx.KindOf(err) == httpx.FailureStatus && hasEquityErrorMarker(body) {
			return domain.QuoteResult{}, ErrNotFound
		}
		return domain.QuoteResult{}, err
	}

	var payload struct {
		Chart struct {
			Result []struct {
				Timestamp  []int64 `json:"timestamp"`
				Indicators struct {
					Quote []struct {
						Close []*float64 `json:"close"`
					} `json:"quote"`
				} `json:"indicators"`
			} `json:"result"`
			Error *struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			} `json:"error"`
		} `json:"chart"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.QuoteResult{}, fmt.Errorf("parse chart for %s: %w", ticker, err)
	}
	if payload.Chart.Error != nil {
		return domain.QuoteResult{}, ErrNotFound
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return domain.QuoteResult{}, ErrNotFound
	}

	series := payload.Chart.Result[0]
	closes := series.Indicators.Quote[0].Close
	for i := range series.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] == 0 {
			continue
		}
		return domain.QuoteResult{
			Success:   true,
			Message:   "quote resolved",
			Price:     *closes[i],
			Currency:  currency,
			AssetName: p.displayName(symbol),
		}, nil
	}
	return domain.QuoteResult{}, ErrNotFound
}

func (p *EquitiesProvider) displayName(symbol string) string {
	key := strings.ToUpper(strings.TrimSuffix(strings.TrimSpace(symbol), localSuffix))
	if name, ok := p.names[key]; ok {
		return name
	}
	return key
}

// hasEquityErrorMarker detects the explicit {"...":{"error":{...}}} body the
// API returns instead of data, so a 404 with a parseable marker counts as
// not-found rather than a transport problem.
func hasEquityErrorMarker(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	var payload struct {
		Chart struct {
			Error *struct {
				Code string `json:"code"`
			} `json:"error"`
		} `json:"chart"`
		QuoteResponse struct {
			Error *struct {
				Code string `json:"code"`
			} `json:"error"`
		} `json:"quoteResponse"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}
	return payload.Chart.Error != nil || payload.QuoteResponse.Error != nil
}

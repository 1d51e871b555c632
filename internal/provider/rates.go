package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"quote-engine/internal/httpx"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

// SGS series codes for the reference rates.
const (
	seriesSelic  = 432   // current SELIC target, % per year
	seriesIPCA12 = 13522 // IPCA accumulated over the last 12 months, %
)

// RatesProvider reads Brazilian reference rates from a central-bank SGS
// shaped API. Values arrive as strings with comma or dot decimals.
type RatesProvider struct {
	fetcher httpx.Fetcher
	baseURL string
	host    string
	tracer  trace.Tracer
}

func NewRatesProvider(tracer trace.Tracer, fetcher httpx.Fetcher, baseURL string) *RatesProvider {
	return &RatesProvider{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
		host:    domainOf(baseURL),
		tracer:  tracer,
	}
}

func (p *RatesProvider) Domain() string { return p.host }

// Selic returns the current annual SELIC rate in percent.
func (p *RatesProvider) Selic(ctx context.Context) (decimal.Decimal, error) {
	ctx, span := p.tracer.Start(ctx, "rates.fetch-selic")
	defer span.End()
	return p.latest(ctx, seriesSelic)
}

// IPCA12M returns the latest 12-month-accumulated IPCA figure in percent.
func (p *RatesProvider) IPCA12M(ctx context.Context) (decimal.Decimal, error) {
	ctx, span := p.tracer.Start(ctx, "rates.fetch-ipca")
	defer span.End()
	return p.latest(ctx, seriesIPCA12)
}

func (p *RatesProvider) latest(ctx context.Context, series int) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/dados/serie/bcdata.sgs.%d/dados/ultimos/1?formato=json", p.baseURL, series)
	body, err := p.fetcher.Get(ctx, url)
	if err != nil {
		return decimal.Zero, err
	}

	var rows []struct {
		Data  string `json:"data"`
		Valor string `json:"valor"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return decimal.Zero, fmt.Errorf("parse series %d: %w", series, err)
	}
	if len(rows) == 0 {
		return decimal.Zero, fmt.Errorf("series %d returned no rows", series)
	}

	// The newest observation is the last row.
	raw := strings.ReplaceAll(strings.TrimSpace(rows[len(rows)-1].Valor), ",", ".")
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse series %d value %q: %w", series, raw, err)
	}
	return value, nil
}

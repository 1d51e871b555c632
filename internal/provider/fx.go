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

// FXProvider reads a map of currency rates relative to USD.
type FXProvider struct {
	fetcher httpx.Fetcher
	baseURL string
	host    string
	tracer  trace.Tracer
}

func NewFXProvider(tracer trace.Tracer, fetcher httpx.Fetcher, baseURL string) *FXProvider {
	return &FXProvider{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
		host:    domainOf(baseURL),
		tracer:  tracer,
	}
}

func (p *FXProvider) Domain() string { return p.host }

// USDRates fetches the full USD-relative rate table.
func (p *FXProvider) USDRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	ctx, span := p.tracer.Start(ctx, "fx.fetch-usd-rates")
	defer span.End()

	url := fmt.Sprintf("%s/v6/latest/USD", p.baseURL)
	body, err := p.fetcher.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse fx rates: %w", err)
	}
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("fx response has no rates")
	}

	rates := make(map[string]decimal.Decimal, len(payload.Rates))
	for code, rate := range payload.Rates {
		rates[strings.ToUpper(code)] = decimal.NewFromFloat(rate)
	}
	return rates, nil
}

package service

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const fxCacheTTL = time.Hour

// fallbackUSDBRL answers when no live or cached rate exists.
var fallbackUSDBRL = decimal.NewFromFloat(6.0)

// FXSource fetches the USD-relative rate table.
type FXSource interface {
	Domain() string
	USDRates(ctx context.Context) (map[string]decimal.Decimal, error)
}

type fxEntry struct {
	rate     decimal.Decimal
	storedAt time.Time
}

// ExchangeService resolves currency conversion rates. Only USD→BRL is
// fetched live; everything else degrades to identity or the static
// fallback. A stale cached rate beats the fallback when the fetch fails.
type ExchangeService struct {
	tracer  trace.Tracer
	fx      FXSource
	tracker Blocklist

	mu    sync.Mutex
	rates map[string]fxEntry

	now func() time.Time
}

func NewExchangeService(tracer trace.Tracer, fx FXSource, tracker Blocklist) *ExchangeService {
	return &ExchangeService{
		tracer:  tracer,
		fx:      fx,
		tracker: tracker,
		rates:   make(map[string]fxEntry),
		now:     time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (s *ExchangeService) WithClock(now func() time.Time) *ExchangeService {
	s.now = now
	return s
}

// Rate returns the conversion rate from one currency to another. Never
// fails: the worst case is the static fallback constant.
func (s *ExchangeService) Rate(ctx context.Context, from, to string) decimal.Decimal {
	ctx, span := s.tracer.Start(ctx, "exchange-service.rate")
	defer span.End()

	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	span.SetAttributes(attribute.String("pair", from+"/"+to))

	if from == to {
		return decimal.NewFromInt(1)
	}
	if from != "USD" || to != "BRL" {
		return fallbackUSDBRL
	}

	key := from + "/" + to
	now := s.now()

	s.mu.Lock()
	entry, cached := s.rates[key]
	s.mu.Unlock()
	if cached && now.Sub(entry.storedAt) <= fxCacheTTL {
		return entry.rate
	}

	if !s.tracker.IsBlocked(s.fx.Domain()) {
		rates, err := s.fx.USDRates(ctx)
		if err == nil {
			if rate, ok := rates[to]; ok && rate.IsPositive() {
				s.mu.Lock()
				s.rates[key] = fxEntry{rate: rate, storedAt: now}
				s.mu.Unlock()
				return rate
			}
		} else {
			if kind, blockable := failureKind(err); blockable {
				s.tracker.RecordFailure(s.fx.Domain(), kind)
			}
			log.Printf("fx fetch error for %s: %v", key, err)
		}
	}

	// Fetch failed or skipped: a stale rate is better than the constant.
	if cached {
		return entry.rate
	}
	return fallbackUSDBRL
}

package service

import (
	"context"
	"time"

	"quote-engine/internal/domain"

	"github.com/shopspring/decimal"
)

// Valuer is the fixed-income calculator surface the engine re-exports.
type Valuer interface {
	Value(ctx context.Context, terms domain.FixedIncomeTerms, referenceDate time.Time) decimal.Decimal
}

// Sweepable lets the engine expire backoff records alongside cache entries.
type Sweepable interface {
	Sweep() int
}

// Engine bundles the four operations the rest of the system may call. It is
// constructed once at startup and handed to callers by reference.
type Engine struct {
	quotes   *QuoteService
	exchange *ExchangeService
	valuer   Valuer
	tracker  Sweepable
}

func NewEngine(quotes *QuoteService, exchange *ExchangeService, valuer Valuer, tracker Sweepable) *Engine {
	return &Engine{
		quotes:   quotes,
		exchange: exchange,
		valuer:   valuer,
		tracker:  tracker,
	}
}

// ResolveQuote prices one asset. Failures come back as typed results.
func (e *Engine) ResolveQuote(ctx context.Context, req domain.QuoteRequest) domain.QuoteResult {
	return e.quotes.ResolveQuote(ctx, req)
}

// ExchangeRate converts between currencies; see ExchangeService.Rate.
func (e *Engine) ExchangeRate(ctx context.Context, from, to string) decimal.Decimal {
	return e.exchange.Rate(ctx, from, to)
}

// ValueFixedIncome returns the net current value of a position.
func (e *Engine) ValueFixedIncome(ctx context.Context, terms domain.FixedIncomeTerms, referenceDate time.Time) decimal.Decimal {
	return e.valuer.Value(ctx, terms, referenceDate)
}

// CleanExpiredCache drops expired quote-cache entries and backoff records.
// Optional maintenance; reads re-check expiry regardless.
func (e *Engine) CleanExpiredCache(ctx context.Context) int {
	removed := e.quotes.CleanExpiredCache(ctx)
	if e.tracker != nil {
		removed += e.tracker.Sweep()
	}
	return removed
}

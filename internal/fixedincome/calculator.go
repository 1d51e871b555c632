// Package fixedincome values fixed-income positions by daily compounding
// under the Brazilian 252-trading-day convention, with progressive
// withholding tax on the yield.
package fixedincome

import (
	"context"
	"time"

	"quote-engine/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	one         = decimal.NewFromInt(1)
	hundred     = decimal.NewFromInt(100)
	tradingDays = decimal.NewFromInt(252)
)

// compoundScale caps intermediate precision in the day-by-day loop;
// unbounded decimal multiplication would grow the coefficient without limit.
const compoundScale = 16

// Progressive withholding brackets: tax drops the longer the money stays.
var taxBrackets = []struct {
	maxDays int
	rate    decimal.Decimal
}{
	{180, decimal.NewFromFloat(0.225)},
	{360, decimal.NewFromFloat(0.20)},
	{720, decimal.NewFromFloat(0.175)},
}

var residualTaxRate = decimal.NewFromFloat(0.15)

// RateSource supplies the annual nominal rate of a reference index, in
// percent.
type RateSource interface {
	AnnualRate(ctx context.Context, index domain.RateIndex) decimal.Decimal
}

// Calculator computes the net current value of fixed-income positions. It
// performs no network I/O of its own; index rates come from the source.
type Calculator struct {
	tracer trace.Tracer
	rates  RateSource
}

func NewCalculator(tracer trace.Tracer, rates RateSource) *Calculator {
	return &Calculator{tracer: tracer, rates: rates}
}

// Value returns principal plus net yield at referenceDate. Accrual stops at
// maturity and degenerate terms return the principal unchanged.
func (c *Calculator) Value(ctx context.Context, terms domain.FixedIncomeTerms, referenceDate time.Time) decimal.Decimal {
	ctx, span := c.tracer.Start(ctx, "fixed-income.value")
	defer span.End()
	span.SetAttributes(attribute.String("regime", string(terms.Regime)))

	effective := referenceDate
	if terms.MaturityDate.Before(effective) {
		effective = terms.MaturityDate
	}
	elapsed := daysBetween(terms.IssueDate, effective)
	term := daysBetween(terms.IssueDate, terms.MaturityDate)
	if elapsed <= 0 || term <= 0 {
		return terms.Principal
	}

	annual := c.annualRate(ctx, terms)
	daily := annual.Div(hundred).Div(tradingDays)
	factor := one.Add(daily)

	gross := terms.Principal
	for i := 0; i < elapsed; i++ {
		gross = gross.Mul(factor).Round(compoundScale)
	}

	grossYield := gross.Sub(terms.Principal)
	if terms.TaxExempt() || !grossYield.IsPositive() {
		return gross
	}

	netYield := grossYield.Mul(one.Sub(TaxRate(elapsed)))
	return terms.Principal.Add(netYield)
}

func (c *Calculator) annualRate(ctx context.Context, terms domain.FixedIncomeTerms) decimal.Decimal {
	switch terms.Regime {
	case domain.RegimePreFixed:
		return terms.FixedSpreadPercent
	case domain.RegimePostFixed:
		return c.indexedRate(ctx, terms)
	case domain.RegimePostFixedSpread:
		return c.indexedRate(ctx, terms).Add(terms.FixedSpreadPercent)
	default:
		return decimal.Zero
	}
}

func (c *Calculator) indexedRate(ctx context.Context, terms domain.FixedIncomeTerms) decimal.Decimal {
	return c.rates.AnnualRate(ctx, terms.Index).Mul(terms.IndexPercent).Div(hundred)
}

// TaxRate returns the withholding rate for a holding period in days.
func TaxRate(elapsedDays int) decimal.Decimal {
	for _, bracket := range taxBrackets {
		if elapsedDays <= bracket.maxDays {
			return bracket.rate
		}
	}
	return residualTaxRate
}

// daysBetween counts whole calendar days from a to b.
func daysBetween(a, b time.Time) int {
	a = dayOf(a)
	b = dayOf(b)
	return int(b.Sub(a).Hours() / 24)
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

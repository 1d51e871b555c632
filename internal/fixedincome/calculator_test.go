package fixedincome

import (
	"context"
	"testing"
	"time"

	"quote-engine/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

type stubRates struct {
	rates map[domain.RateIndex]decimal.Decimal
	calls int
}

func (s *stubRates) AnnualRate(_ context.Context, index domain.RateIndex) decimal.Decimal {
	s.calls++
	return s.rates[index]
}

func newTestCalculator(rates RateSource) *Calculator {
	return NewCalculator(trace.NewNoopTracerProvider().Tracer("test"), rates)
}

// compound reproduces the production accrual loop so assertions do not
// depend on float rounding.
func compound(principal decimal.Decimal, annualPercent decimal.Decimal, days int) decimal.Decimal {
	daily := annualPercent.Div(hundred).Div(tradingDays)
	factor := one.Add(daily)
	gross := principal
	for i := 0; i < days; i++ {
		gross = gross.Mul(factor).Round(compoundScale)
	}
	return gross
}

func TestValuePreFixedMidTerm(t *testing.T) {
	t.Parallel()

	terms := domain.FixedIncomeTerms{
		Principal:          decimal.NewFromInt(1000),
		Regime:             domain.RegimePreFixed,
		Index:              domain.IndexNone,
		FixedSpreadPercent: decimal.NewFromInt(12),
		IssueDate:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		MaturityDate:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		InstrumentType:     "CDB",
	}
	reference := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	calc := newTestCalculator(&stubRates{})
	got := calc.Value(context.Background(), terms, reference)

	// 182 elapsed days falls in the 181..360 bracket, taxed at 20%.
	gross := compound(terms.Principal, terms.FixedSpreadPercent, 182)
	yield := gross.Sub(terms.Principal)
	want := terms.Principal.Add(yield.Mul(one.Sub(decimal.NewFromFloat(0.20))))

	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if got.LessThanOrEqual(terms.Principal) {
		t.Fatal("net value should exceed principal")
	}
}

func TestValueStopsAtMaturity(t *testing.T) {
	t.Parallel()

	terms := domain.FixedIncomeTerms{
		Principal:          decimal.NewFromInt(1000),
		Regime:             domain.RegimePreFixed,
		Index:              domain.IndexNone,
		FixedSpreadPercent: decimal.NewFromInt(10),
		IssueDate:          time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		MaturityDate:       time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC),
	}

	calc := newTestCalculator(&stubRates{})
	atMaturity := calc.Value(context.Background(), terms, terms.MaturityDate)
	pastMaturity := calc.Value(context.Background(), terms, terms.MaturityDate.AddDate(1, 0, 0))

	if !atMaturity.Equal(pastMaturity) {
		t.Fatalf("value should freeze at maturity: %s vs %s", atMaturity, pastMaturity)
	}
}

func TestValueExemptInstrumentKeepsGrossYield(t *testing.T) {
	t.Parallel()

	base := domain.FixedIncomeTerms{
		Principal:          decimal.NewFromInt(5000),
		Regime:             domain.RegimePreFixed,
		Index:              domain.IndexNone,
		FixedSpreadPercent: decimal.NewFromInt(11),
		IssueDate:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		MaturityDate:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	reference := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	calc := newTestCalculator(&stubRates{})

	exempt := base
	exempt.InstrumentType = "LCI"
	taxed := base
	taxed.InstrumentType = "CDB"

	exemptValue := calc.Value(context.Background(), exempt, reference)
	taxedValue := calc.Value(context.Background(), taxed, reference)

	if !exemptValue.GreaterThan(taxedValue) {
		t.Fatalf("exempt value %s should exceed taxed value %s", exemptValue, taxedValue)
	}
	gross := compound(base.Principal, base.FixedSpreadPercent, daysBetween(base.IssueDate, reference))
	if !exemptValue.Equal(gross) {
		t.Fatalf("exempt value should equal gross: %s vs %s", exemptValue, gross)
	}
}

func TestValueDegenerateTermsReturnPrincipal(t *testing.T) {
	t.Parallel()

	calc := newTestCalculator(&stubRates{})
	principal := decimal.NewFromInt(1234)

	tests := []struct {
		name  string
		terms domain.FixedIncomeTerms
		ref   time.Time
	}{
		{
			"reference before issue",
			domain.FixedIncomeTerms{
				Principal:          principal,
				Regime:             domain.RegimePreFixed,
				FixedSpreadPercent: decimal.NewFromInt(10),
				IssueDate:          time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
				MaturityDate:       time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			},
			time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			"maturity not after issue",
			domain.FixedIncomeTerms{
				Principal:          principal,
				Regime:             domain.RegimePreFixed,
				FixedSpreadPercent: decimal.NewFromInt(10),
				IssueDate:          time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
				MaturityDate:       time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			},
			time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			"reference on issue date",
			domain.FixedIncomeTerms{
				Principal:          principal,
				Regime:             domain.RegimePreFixed,
				FixedSpreadPercent: decimal.NewFromInt(10),
				IssueDate:          time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
				MaturityDate:       time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			},
			time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range tests {
		if got := calc.Value(context.Background(), tc.terms, tc.ref); !got.Equal(principal) {
			t.Errorf("%s: expected principal %s, got %s", tc.name, principal, got)
		}
	}
}

func TestValuePostFixedUsesIndexPercent(t *testing.T) {
	t.Parallel()

	rates := &stubRates{rates: map[domain.RateIndex]decimal.Decimal{
		domain.IndexCDI: decimal.NewFromFloat(10.35),
	}}
	calc := newTestCalculator(rates)

	terms := domain.FixedIncomeTerms{
		Principal:    decimal.NewFromInt(2000),
		Regime:       domain.RegimePostFixed,
		Index:        domain.IndexCDI,
		IndexPercent: decimal.NewFromInt(110),
		IssueDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		MaturityDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	reference := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	got := calc.Value(context.Background(), terms, reference)

	// 110% of CDI, 91 elapsed days, first tax bracket.
	annual := decimal.NewFromFloat(10.35).Mul(decimal.NewFromInt(110)).Div(hundred)
	gross := compound(terms.Principal, annual, 91)
	yield := gross.Sub(terms.Principal)
	want := terms.Principal.Add(yield.Mul(one.Sub(decimal.NewFromFloat(0.225))))

	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if rates.calls == 0 {
		t.Fatal("post-fixed valuation should consult the rate source")
	}
}

func TestValuePostFixedSpreadAddsFixedComponent(t *testing.T) {
	t.Parallel()

	rates := &stubRates{rates: map[domain.RateIndex]decimal.Decimal{
		domain.IndexIPCA: decimal.NewFromFloat(4.62),
	}}
	calc := newTestCalculator(rates)

	base := domain.FixedIncomeTerms{
		Principal:    decimal.NewFromInt(2000),
		Regime:       domain.RegimePostFixed,
		Index:        domain.IndexIPCA,
		IndexPercent: decimal.NewFromInt(100),
		IssueDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		MaturityDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	withSpread := base
	withSpread.Regime = domain.RegimePostFixedSpread
	withSpread.FixedSpreadPercent = decimal.NewFromInt(6)

	reference := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	plain := calc.Value(context.Background(), base, reference)
	spread := calc.Value(context.Background(), withSpread, reference)

	if !spread.GreaterThan(plain) {
		t.Fatalf("index+spread %s should exceed plain index %s", spread, plain)
	}
}

func TestTaxRateBrackets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		days int
		want decimal.Decimal
	}{
		{1, decimal.NewFromFloat(0.225)},
		{180, decimal.NewFromFloat(0.225)},
		{181, decimal.NewFromFloat(0.20)},
		{360, decimal.NewFromFloat(0.20)},
		{361, decimal.NewFromFloat(0.175)},
		{720, decimal.NewFromFloat(0.175)},
		{721, decimal.NewFromFloat(0.15)},
		{2000, decimal.NewFromFloat(0.15)},
	}
	for _, tc := range tests {
		if got := TaxRate(tc.days); !got.Equal(tc.want) {
			t.Errorf("%d days: expected %s, got %s", tc.days, tc.want, got)
		}
	}
}

package service

import (
	"context"
	"log"
	"sync"
	"time"

	"quote-engine/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

const rateCacheTTL = time.Hour

// Hard-coded fallbacks used whenever the live reference-rate call fails.
var (
	fallbackSelic = decimal.NewFromFloat(10.5)
	fallbackIPCA  = decimal.NewFromFloat(4.62)
	cdiSpread     = decimal.NewFromFloat(0.15)
)

// ReferenceRateSource fetches the raw reference rates.
type ReferenceRateSource interface {
	Domain() string
	Selic(ctx context.Context) (decimal.Decimal, error)
	IPCA12M(ctx context.Context) (decimal.Decimal, error)
}

type rateEntry struct {
	value    decimal.Decimal
	storedAt time.Time
}

// RatesService supplies annual index rates for post-fixed valuation, with a
// best-effort cache and constant fallbacks. CDI is always derived from
// SELIC, never fetched on its own.
type RatesService struct {
	tracer  trace.Tracer
	src     ReferenceRateSource
	tracker Blocklist

	mu    sync.Mutex
	cache map[domain.RateIndex]rateEntry

	now func() time.Time
}

func NewRatesService(tracer trace.Tracer, src ReferenceRateSource, tracker Blocklist) *RatesService {
	return &RatesService{
		tracer:  tracer,
		src:     src,
		tracker: tracker,
		cache:   make(map[domain.RateIndex]rateEntry),
		now:     time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (s *RatesService) WithClock(now func() time.Time) *RatesService {
	s.now = now
	return s
}

// AnnualRate returns the annual nominal rate for an index, in percent.
// Never fails; the fallback constants cover every error path.
func (s *RatesService) AnnualRate(ctx context.Context, index domain.RateIndex) decimal.Decimal {
	ctx, span := s.tracer.Start(ctx, "rates-service.annual-rate")
	defer span.End()

	switch index {
	case domain.IndexSELIC:
		return s.lookup(ctx, domain.IndexSELIC, fallbackSelic, s.src.Selic)
	case domain.IndexCDI:
		return s.lookup(ctx, domain.IndexSELIC, fallbackSelic, s.src.Selic).Sub(cdiSpread)
	case domain.IndexIPCA:
		return s.lookup(ctx, domain.IndexIPCA, fallbackIPCA, s.src.IPCA12M)
	default:
		return decimal.Zero
	}
}

func (s *RatesService) lookup(
	ctx context.Context,
	index domain.RateIndex,
	fallback decimal.Decimal,
	fetch func(context.Context) (decimal.Decimal, error),
) decimal.Decimal {
	now := s.now()

	s.mu.Lock()
	entry, cached := s.cache[index]
	s.mu.Unlock()
	if cached && now.Sub(entry.storedAt) <= rateCacheTTL {
		return entry.value
	}

	if !s.tracker.IsBlocked(s.src.Domain()) {
		value, err := fetch(ctx)
		if err == nil && value.IsPositive() {
			s.mu.Lock()
			s.cache[index] = rateEntry{value: value, storedAt: now}
			s.mu.Unlock()
			return value
		}
		if err != nil {
			if kind, blockable := failureKind(err); blockable {
				s.tracker.RecordFailure(s.src.Domain(), kind)
			}
			log.Printf("%s rate fetch error: %v", index, err)
		}
	}

	if cached {
		return entry.value
	}
	return fallback
}

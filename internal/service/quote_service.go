package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"quote-engine/internal/backoff"
	"quote-engine/internal/cache"
	"quote-engine/internal/domain"
	"quote-engine/internal/httpx"
	"quote-engine/internal/provider"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Messages surfaced when resolution fails. Callers prompt the user for a
// manual price on either.
const (
	MsgNotFound    = "quote not found — enter the price manually"
	MsgUnavailable = "market data providers unavailable — enter the price manually"
)

// QuoteStrategy is one provider in a category's fallback chain.
type QuoteStrategy interface {
	Name() string
	Domain() string
	Fetch(ctx context.Context, req domain.QuoteRequest, now time.Time) (domain.QuoteResult, error)
}

// Blocklist is the backoff tracker surface the resolver needs.
type Blocklist interface {
	IsBlocked(domain string) bool
	RecordFailure(domain string, kind backoff.Kind)
}

// QuoteService maps a request to an ordered provider chain and executes it
// until one provider answers or the chain is exhausted.
type QuoteService struct {
	tracer  trace.Tracer
	cache   cache.QuoteCache
	tracker Blocklist
	chains  map[domain.AssetCategory][]QuoteStrategy
	names   map[string]string
	now     func() time.Time
}

func NewQuoteService(
	tracer trace.Tracer,
	quoteCache cache.QuoteCache,
	tracker Blocklist,
	equities QuoteStrategy,
	binance QuoteStrategy,
	coingecko QuoteStrategy,
	names map[string]string,
) *QuoteService {
	return &QuoteService{
		tracer:  tracer,
		cache:   quoteCache,
		tracker: tracker,
		chains: map[domain.AssetCategory][]QuoteStrategy{
			domain.CategoryEquityBR: {equities},
			domain.CategoryREITBR:   {equities},
			domain.CategoryEquityUS: {equities},
			domain.CategoryCrypto:   {binance, coingecko},
		},
		names: names,
		now:   time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (s *QuoteService) WithClock(now func() time.Time) *QuoteService {
	s.now = now
	return s
}

// ResolveQuote consults the cache, then walks the category's provider chain.
// Every outcome is a typed result; no failure escapes as an error.
func (s *QuoteService) ResolveQuote(ctx context.Context, req domain.QuoteRequest) domain.QuoteResult {
	ctx, span := s.tracer.Start(ctx, "quote-service.resolve")
	defer span.End()
	span.SetAttributes(
		attribute.String("symbol", req.Symbol),
		attribute.String("category", string(req.Category)),
	)

	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.Symbol == "" || !req.Category.IsValid() {
		return failure(MsgNotFound)
	}

	// Fixed income has no market price; positions are valued by the
	// calculator, not quoted.
	if req.Category == domain.CategoryFixedIncome {
		return domain.QuoteResult{
			Success:   true,
			Message:   "nominal fixed income reference",
			Price:     1,
			Currency:  "BRL",
			AssetName: s.displayName(req.Symbol),
		}
	}

	now := s.now()
	kind := req.Kind(now)
	key := req.CacheKey(now)

	// Current-day requests without a timestamp always go to the providers
	// so the price reflects live movement; the result is still cached for
	// reuse once the date rolls over.
	if kind != domain.KindCurrent {
		if cached, ok := s.cache.Get(ctx, key); ok {
			return cached
		}
	}

	chain := s.chains[req.Category]
	transportOnly := true
	attempted := false

	for _, strategy := range chain {
		if s.tracker.IsBlocked(strategy.Domain()) {
			continue
		}
		attempted = true

		result, err := strategy.Fetch(ctx, req, now)
		if err == nil && result.Success {
			if result.AssetName == "" {
				result.AssetName = s.displayName(req.Symbol)
			}
			s.cache.Put(ctx, key, result, ttlFor(kind, req.Category))
			return result
		}

		switch {
		case err == nil, errors.Is(err, provider.ErrNotFound):
			transportOnly = false
		default:
			if kind, blockable := failureKind(err); blockable {
				s.tracker.RecordFailure(strategy.Domain(), kind)
			} else {
				// unparsable success response, equivalent to not-found
				transportOnly = false
				log.Printf("provider %s parse failure for %s: %v", strategy.Name(), req.Symbol, err)
			}
		}
	}

	if attempted && transportOnly {
		return failure(MsgUnavailable)
	}
	return failure(MsgNotFound)
}

// CleanExpiredCache sweeps expired cache entries; safe on any schedule.
func (s *QuoteService) CleanExpiredCache(ctx context.Context) int {
	return s.cache.CleanExpired(ctx)
}

func (s *QuoteService) displayName(symbol string) string {
	if name, ok := s.names[symbol]; ok {
		return name
	}
	return symbol
}

// ttlFor picks the write-time TTL from the request kind and category.
func ttlFor(kind domain.RequestKind, category domain.AssetCategory) time.Duration {
	crypto := category == domain.CategoryCrypto
	switch kind {
	case domain.KindIntraday:
		return 5 * time.Minute
	case domain.KindHistorical:
		if crypto {
			return 24 * time.Hour
		}
		return 30 * time.Minute
	default:
		if crypto {
			return time.Hour
		}
		return 30 * time.Minute
	}
}

// failureKind maps a classified fetch error to a backoff kind. Client-side
// HTTP statuses and parse failures never block a domain; server errors get
// the general cool-down.
func failureKind(err error) (backoff.Kind, bool) {
	switch httpx.KindOf(err) {
	case httpx.FailureSSL:
		return backoff.KindSSL, true
	case httpx.FailureRateLimited:
		return backoff.KindRateLimit, true
	case httpx.FailureTransport:
		return backoff.KindGeneral, true
	case httpx.FailureStatus:
		var fe *httpx.Error
		if errors.As(err, &fe) && fe.Status >= 500 {
			return backoff.KindGeneral, true
		}
		return 0, false
	default:
		return 0, false
	}
}

func failure(message string) domain.QuoteResult {
	return domain.QuoteResult{Success: false, Message: message, Price: 0}
}

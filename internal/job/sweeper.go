package job

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// CacheCleaner is the engine surface the sweeper drives.
type CacheCleaner interface {
	CleanExpiredCache(ctx context.Context) int
}

// Sweeper periodically drops expired cache entries and backoff records.
// Purely memory hygiene: reads re-check expiry on their own.
type Sweeper struct {
	tracer   trace.Tracer
	cleaner  CacheCleaner
	interval time.Duration
}

func NewSweeper(tracer trace.Tracer, cleaner CacheCleaner, intervalSecs int) *Sweeper {
	return &Sweeper{
		tracer:   tracer,
		cleaner:  cleaner,
		interval: time.Duration(intervalSecs) * time.Second,
	}
}

// Start runs the sweep loop. Sweeps once immediately, then on every tick;
// blocks until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	log.Println("Cache sweeper starting...")

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Cache sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "sweeper.sweep")
	defer span.End()

	if removed := s.cleaner.CleanExpiredCache(ctx); removed > 0 {
		log.Printf("swept %d expired entries", removed)
	}
}

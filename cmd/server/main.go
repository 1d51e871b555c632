package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quote-engine/internal/backoff"
	"quote-engine/internal/cache"
	"quote-engine/internal/config"
	"quote-engine/internal/fixedincome"
	"quote-engine/internal/handler"
	"quote-engine/internal/httpx"
	"quote-engine/internal/job"
	"quote-engine/internal/provider"
	"quote-engine/internal/service"
	"quote-engine/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "quote-engine/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Quote Engine API
// @version         1.0
// @description     Investment quote resolution and fixed-income valuation engine.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Quote cache: in-memory by default, redis-backed when configured
	var quoteCache cache.QuoteCache = cache.NewMemoryCache()
	if cfg.RedisURL != "" {
		initRedisFunc(ctx, cfg.RedisURL)
		quoteCache = cache.NewRedisCache(cache.Client)
	}

	// Shared fetch primitive and backoff tracker
	fetcher := httpx.New(time.Duration(cfg.HTTPTimeoutSecs) * time.Second)
	tracker := backoff.NewTracker()

	// Providers
	equities := provider.NewEquitiesProvider(tracer, fetcher, cfg.EquitiesBaseURL, cfg.AssetNames)
	binance := provider.NewBinanceProvider(tracer, fetcher, cfg.BinanceBaseURL, cfg.CryptoPairs)
	coingecko := provider.NewCoinGeckoProvider(tracer, fetcher, cfg.CoinGeckoBaseURL, cfg.CoinIDs)
	rates := provider.NewRatesProvider(tracer, fetcher, cfg.RatesBaseURL)
	fx := provider.NewFXProvider(tracer, fetcher, cfg.FXBaseURL)

	// Services and the engine facade
	quoteService := service.NewQuoteService(tracer, quoteCache, tracker, equities, binance, coingecko, cfg.AssetNames)
	exchangeService := service.NewExchangeService(tracer, fx, tracker)
	ratesService := service.NewRatesService(tracer, rates, tracker)
	calculator := fixedincome.NewCalculator(tracer, ratesService)
	engine := service.NewEngine(quoteService, exchangeService, calculator, tracker)

	// Background sweep (memory hygiene only; reads re-check expiry)
	sweeper := job.NewSweeper(tracer, engine, cfg.CacheSweepSecs)
	go sweeper.Start(ctx)

	// Create handlers and routes
	h := handler.New(tracer, engine, cfg.APIKey)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("quote-engine"))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

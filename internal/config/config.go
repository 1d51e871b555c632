package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"strings"

	"quote-engine/internal/domain"
)

type Config struct {
	BindAddr string
	APIKey   string
	RedisURL string

	HTTPTimeoutSecs int
	CacheSweepSecs  int

	EquitiesBaseURL  string
	BinanceBaseURL   string
	CoinGeckoBaseURL string
	RatesBaseURL     string
	FXBaseURL        string

	// Lookup tables, seeded from domain defaults and extendable via JSON
	// env overrides.
	CryptoPairs map[string]string
	CoinIDs     map[string]string
	AssetNames  map[string]string
}

func Load() *Config {
	cfg := &Config{
		BindAddr: ":8080",
		APIKey:   os.Getenv("API_KEY"),
		RedisURL: os.Getenv("REDIS_URL"),
	}

	if v := strings.TrimSpace(os.Getenv("BIND_ADDR")); v != "" {
		cfg.BindAddr = v
	}
	if cfg.APIKey == "" {
		log.Println("Warning: API_KEY not set, admin endpoints are open")
	}
	if cfg.RedisURL == "" {
		log.Println("REDIS_URL not set, using in-memory quote cache")
	}

	cfg.HTTPTimeoutSecs = 10
	if v := os.Getenv("HTTP_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPTimeoutSecs = n
		}
	}

	cfg.CacheSweepSecs = 300
	if v := os.Getenv("CACHE_SWEEP_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheSweepSecs = n
		}
	}

	cfg.EquitiesBaseURL = envOr("EQUITIES_BASE_URL", "https://query1.finance.yahoo.com")
	cfg.BinanceBaseURL = envOr("BINANCE_BASE_URL", "https://api.binance.com")
	cfg.CoinGeckoBaseURL = envOr("COINGECKO_BASE_URL", "https://api.coingecko.com")
	cfg.RatesBaseURL = envOr("RATES_BASE_URL", "https://api.bcb.gov.br")
	cfg.FXBaseURL = envOr("FX_BASE_URL", "https://open.er-api.com")

	cfg.CryptoPairs = tableWithOverrides(domain.DefaultCryptoPairs, "CRYPTO_PAIRS_JSON")
	cfg.CoinIDs = tableWithOverrides(domain.DefaultCoinIDs, "COIN_IDS_JSON")
	cfg.AssetNames = tableWithOverrides(domain.DefaultAssetNames, "ASSET_NAMES_JSON")

	return cfg
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return strings.TrimRight(v, "/")
	}
	return fallback
}

// tableWithOverrides copies the defaults and merges a {"KEY":"value"} JSON
// override from the environment on top. A malformed override is logged and
// ignored.
func tableWithOverrides(defaults map[string]string, envKey string) map[string]string {
	table := make(map[string]string, len(defaults))
	for k, v := range defaults {
		table[k] = v
	}

	raw := strings.TrimSpace(os.Getenv(envKey))
	if raw == "" {
		return table
	}

	var overrides map[string]string
	if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
		log.Printf("Warning: invalid %s, ignoring: %v", envKey, err)
		return table
	}
	for k, v := range overrides {
		table[strings.ToUpper(k)] = v
	}
	return table
}

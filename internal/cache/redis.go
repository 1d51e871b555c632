package cache

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"quote-engine/internal/domain"

	"github.com/redis/go-redis/v9"
)

var Client *redis.Client

var (
	newRedisClient = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
	parseRedisURL = redis.ParseURL
)

// InitRedis connects the package-level client to addr. Accepts either a
// bare host:port or a redis:// URL.
func InitRedis(ctx context.Context, addr string) {
	if addr == "" {
		addr = "localhost:6379"
	}

	opts := &redis.Options{Addr: addr}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := parseRedisURL(addr)
		if err != nil {
			log.Fatalf("failed to parse REDIS_URL: %v", err)
		}
		opts = parsed
	}

	Client = newRedisClient(opts)
	if err := pingRedis(ctx, Client); err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis")
}

// RedisClient is the subset of the go-redis API the cache needs.
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisCache stores JSON-marshaled quote results under a quote: prefix and
// lets redis enforce the TTL.
type RedisCache struct {
	client RedisClient
}

func NewRedisCache(client RedisClient) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (domain.QuoteResult, bool) {
	data, err := c.client.Get(ctx, "quote:"+key).Bytes()
	if err == redis.Nil {
		return domain.QuoteResult{}, false
	}
	if err != nil {
		log.Printf("redis cache read error: %v", err)
		return domain.QuoteResult{}, false
	}
	var result domain.QuoteResult
	if err := json.Unmarshal(data, &result); err != nil {
		log.Printf("redis cache decode error: %v", err)
		return domain.QuoteResult{}, false
	}
	return result, true
}

func (c *RedisCache) Put(ctx context.Context, key string, result domain.QuoteResult, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, "quote:"+key, data, ttl).Err(); err != nil {
		log.Printf("redis cache write error: %v", err)
	}
}

// CleanExpired is a no-op: redis evicts expired keys itself.
func (c *RedisCache) CleanExpired(context.Context) int { return 0 }

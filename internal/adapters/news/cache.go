package news

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/pkg/logger"
	"github.com/selivandex/portfolio-digest/pkg/models"
)

// DefaultCacheTTL is how long a fetch result is reused
const DefaultCacheTTL = 30 * time.Minute

// Store is the subset of the Redis client the cache needs
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Source is anything that fetches articles for tickers
type Source interface {
	Fetch(ctx context.Context, tickers []string) ([]models.Article, error)
}

// CachedSource memoizes fetches in Redis per ticker set, so subscribers with
// the same portfolio share one upstream request per TTL
type CachedSource struct {
	next  Source
	store Store
	ttl   time.Duration
}

// NewCachedSource wraps next with a Redis cache
func NewCachedSource(next Source, store Store, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedSource{next: next, store: store, ttl: ttl}
}

// Fetch returns cached articles when present; cache failures fall through to the source
func (c *CachedSource) Fetch(ctx context.Context, tickers []string) ([]models.Article, error) {
	key := CacheKey(tickers)

	raw, err := c.store.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []models.Article
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			logger.Debug("news cache hit", zap.String("key", key), zap.Int("count", len(cached)))
			return cached, nil
		}
		logger.Warn("corrupt news cache entry, refetching", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		logger.Warn("news cache read failed", zap.String("key", key), zap.Error(err))
	}

	articles, err := c.next.Fetch(ctx, tickers)
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return articles, nil
	}

	payload, err := json.Marshal(articles)
	if err != nil {
		logger.Warn("failed to encode news for cache", zap.Error(err))
		return articles, nil
	}
	if err := c.store.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		logger.Warn("news cache write failed", zap.String("key", key), zap.Error(err))
	}

	return articles, nil
}

// CacheKey is order and case insensitive over the ticker set
func CacheKey(tickers []string) string {
	norm := make([]string, 0, len(tickers))
	seen := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		norm = append(norm, t)
	}
	sort.Strings(norm)

	sum := sha1.Sum([]byte(strings.Join(norm, ",")))
	return "news:articles:" + hex.EncodeToString(sum[:])
}

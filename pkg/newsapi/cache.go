package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/andressep95/city-news-api/internal/domain"
	"github.com/andressep95/city-news-api/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "news:city:"

// CachedProvider serves repeated city lookups from Redis. Any cache failure
// falls through to the wrapped provider.
type CachedProvider struct {
	next  Provider
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedProvider(next Provider, redisClient *redis.Client, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		next:  next,
		redis: redisClient,
		ttl:   ttl,
	}
}

func (p *CachedProvider) SearchNews(ctx context.Context, city string) (*domain.NewsResult, error) {
	key := cacheKey(city)

	raw, err := p.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached domain.NewsResult
		if err := json.Unmarshal(raw, &cached); err == nil {
			// Keep the caller's spelling of the city
			cached.City = city
			cached.Query = Query(city)
			return &cached, nil
		}
		logger.Warnw(ctx, "discarding undecodable news cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		logger.Warnw(ctx, "news cache read failed", "key", key, "error", err)
	}

	result, err := p.next.SearchNews(ctx, city)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(result); err == nil {
		if err := p.redis.Set(ctx, key, data, p.ttl).Err(); err != nil {
			logger.Warnw(ctx, "news cache write failed", "key", key, "error", err)
		}
	}

	return result, nil
}

func cacheKey(city string) string {
	return cacheKeyPrefix + strings.ToLower(strings.TrimSpace(city))
}

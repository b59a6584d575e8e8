package routing

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"aerosense/internal/models"
)

// CachedProvider memoises successful answers of another provider for a
// while. Failures are never cached so the next request retries upstream.
type CachedProvider struct {
	next  Provider
	cache *expirable.LRU[string, Route]
}

func NewCachedProvider(next Provider, size int, ttl time.Duration) *CachedProvider {
	if size <= 0 {
		size = 64
	}
	return &CachedProvider{
		next:  next,
		cache: expirable.NewLRU[string, Route](size, nil, ttl),
	}
}

func cacheKey(from, to models.LngLat) string {
	return fmt.Sprintf("%.6f,%.6f;%.6f,%.6f", from.Lng(), from.Lat(), to.Lng(), to.Lat())
}

func (c *CachedProvider) Route(ctx context.Context, from, to models.LngLat) (Route, error) {
	key := cacheKey(from, to)
	if r, ok := c.cache.Get(key); ok {
		return Route{Points: slices.Clone(r.Points), DistanceMeters: r.DistanceMeters}, nil
	}

	r, err := c.next.Route(ctx, from, to)
	if err != nil {
		return Route{}, err
	}
	c.cache.Add(key, Route{Points: slices.Clone(r.Points), DistanceMeters: r.DistanceMeters})
	return r, nil
}

// Len reports the number of cached routes.
func (c *CachedProvider) Len() int {
	return c.cache.Len()
}

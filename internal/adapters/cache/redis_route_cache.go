package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"parcel-sim-service/internal/domain"
	"parcel-sim-service/internal/platform/obs"
)

// RedisRouteCache is a Redis-backed cache of calculated route
// descriptors keyed by endpoint pair. Entries expire so a long-running
// simulation does not serve indefinitely stale routes.
type RedisRouteCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRouteCache(client *redis.Client, ttl time.Duration) *RedisRouteCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisRouteCache{client: client, ttl: ttl}
}

// cachedRoute is the stored wire form of a route descriptor.
type cachedRoute struct {
	ID              string  `json:"id"`
	Geometry        string  `json:"geometry"`
	TotalDistanceKm float64 `json:"total_distance_km"`
	DurationMinutes float64 `json:"duration_minutes"`
}

func routeKey(origin, destination domain.GeoPoint) string {
	return fmt.Sprintf("route:%.6f,%.6f|%.6f,%.6f", origin.Lat, origin.Lng, destination.Lat, destination.Lng)
}

func (c *RedisRouteCache) Get(
	ctx context.Context,
	origin, destination domain.GeoPoint,
) (_ domain.Route, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	if c.client == nil {
		return domain.Route{}, false, errors.New("route cache: client is nil")
	}

	raw, err := c.client.Get(ctx, routeKey(origin, destination)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Route{}, false, nil
	}
	if err != nil {
		return domain.Route{}, false, fmt.Errorf("get route cache: %w", err)
	}

	var cr cachedRoute
	if err := json.Unmarshal([]byte(raw), &cr); err != nil {
		// A corrupt entry is a miss, not a failure; the caller refetches.
		return domain.Route{}, false, nil
	}

	return domain.Route{
		ID:                       cr.ID,
		Geometry:                 cr.Geometry,
		TotalDistanceKm:          cr.TotalDistanceKm,
		EstimatedDurationMinutes: cr.DurationMinutes,
	}, true, nil
}

func (c *RedisRouteCache) Put(
	ctx context.Context,
	origin, destination domain.GeoPoint,
	route domain.Route,
) error {
	if c.client == nil {
		return errors.New("route cache: client is nil")
	}
	if route.ID == "" || route.Geometry == "" {
		return errors.New("insert route cache: route must carry an id and geometry")
	}

	payload, err := json.Marshal(cachedRoute{
		ID:              route.ID,
		Geometry:        route.Geometry,
		TotalDistanceKm: route.TotalDistanceKm,
		DurationMinutes: route.EstimatedDurationMinutes,
	})
	if err != nil {
		return fmt.Errorf("insert route cache: marshal: %w", err)
	}

	if err := c.client.Set(ctx, routeKey(origin, destination), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("insert route cache: %w", err)
	}
	return nil
}

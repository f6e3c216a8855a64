package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"parcel-sim-service/internal/domain"
)

func testCache(t *testing.T) (*RedisRouteCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisRouteCache(client, time.Hour), mr
}

func TestRouteCacheRoundTrip(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()

	origin := domain.GeoPoint{Lat: 33.45, Lng: -112.07}
	dest := domain.GeoPoint{Lat: 33.40, Lng: -112.00}
	route := domain.Route{
		ID:                       "r-1",
		Geometry:                 "_p~iF~ps|U_ulLnnqC",
		TotalDistanceKm:          12.5,
		EstimatedDurationMinutes: 15,
	}

	if _, hit, err := c.Get(ctx, origin, dest); err != nil || hit {
		t.Fatalf("empty cache: hit=%v err=%v", hit, err)
	}

	if err := c.Put(ctx, origin, dest, route); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, hit, err := c.Get(ctx, origin, dest)
	if err != nil || !hit {
		t.Fatalf("get after put: hit=%v err=%v", hit, err)
	}
	if got != route {
		t.Fatalf("cached route = %+v, want %+v", got, route)
	}

	// The reverse direction is a different key.
	if _, hit, _ := c.Get(ctx, dest, origin); hit {
		t.Fatal("reverse endpoint pair must not hit")
	}
}

func TestRouteCacheExpiry(t *testing.T) {
	c, mr := testCache(t)
	ctx := context.Background()

	origin := domain.GeoPoint{Lat: 33.45, Lng: -112.07}
	dest := domain.GeoPoint{Lat: 33.40, Lng: -112.00}
	route := domain.Route{ID: "r-1", Geometry: "abc", TotalDistanceKm: 1}

	if err := c.Put(ctx, origin, dest, route); err != nil {
		t.Fatalf("put: %v", err)
	}

	mr.FastForward(2 * time.Hour)

	if _, hit, err := c.Get(ctx, origin, dest); err != nil || hit {
		t.Fatalf("expired entry: hit=%v err=%v", hit, err)
	}
}

func TestRouteCacheCorruptEntryIsAMiss(t *testing.T) {
	c, mr := testCache(t)
	ctx := context.Background()

	origin := domain.GeoPoint{Lat: 33.45, Lng: -112.07}
	dest := domain.GeoPoint{Lat: 33.40, Lng: -112.00}
	mr.Set(routeKey(origin, dest), "not json")

	if _, hit, err := c.Get(ctx, origin, dest); err != nil || hit {
		t.Fatalf("corrupt entry: hit=%v err=%v, want clean miss", hit, err)
	}
}

func TestRouteCacheRejectsIncompleteRoute(t *testing.T) {
	c, _ := testCache(t)

	err := c.Put(context.Background(), domain.GeoPoint{}, domain.GeoPoint{}, domain.Route{})
	if err == nil {
		t.Fatal("cached a route with no id or geometry")
	}
}

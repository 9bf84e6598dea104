package maprender

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang/geo/s2"
	"github.com/redis/go-redis/v9"

	id "patrimonio/pkg/domain"
)

// RedisOffsetCache memoizes offsets in Redis keyed by (session, report).
// The TTL bounds the lifetime of a browsing session; after expiry a new
// offset may be generated, which is acceptable because stability is only
// promised within one session.
type RedisOffsetCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisOffsetCache(client *redis.Client, ttl time.Duration) *RedisOffsetCache {
	return &RedisOffsetCache{client: client, ttl: ttl}
}

func (c *RedisOffsetCache) GetOrCreate(ctx context.Context, session id.SessionID, report id.ReportID, create func() s2.LatLng) (s2.LatLng, error) {
	key := redisOffsetKey(session, report)

	val, err := c.client.Get(ctx, key).Result()
	if err == nil {
		return decodeOffset(val)
	}
	if !errors.Is(err, redis.Nil) {
		return s2.LatLng{}, fmt.Errorf("get offset: %w", err)
	}

	p := create()
	set, err := c.client.SetNX(ctx, key, encodeOffset(p), c.ttl).Result()
	if err != nil {
		return s2.LatLng{}, fmt.Errorf("set offset: %w", err)
	}
	if set {
		return p, nil
	}

	// A concurrent request for the same session won the race; honor its
	// offset so the session stays consistent.
	val, err = c.client.Get(ctx, key).Result()
	if err != nil {
		return s2.LatLng{}, fmt.Errorf("get offset after race: %w", err)
	}
	return decodeOffset(val)
}

func redisOffsetKey(session id.SessionID, report id.ReportID) string {
	return fmt.Sprintf("map:offset:%s:%s", session, report)
}

func encodeOffset(p s2.LatLng) string {
	return strconv.FormatFloat(p.Lat.Degrees(), 'f', -1, 64) + "," +
		strconv.FormatFloat(p.Lng.Degrees(), 'f', -1, 64)
}

func decodeOffset(val string) (s2.LatLng, error) {
	lat, lng, ok := strings.Cut(val, ",")
	if !ok {
		return s2.LatLng{}, fmt.Errorf("malformed offset value %q", val)
	}
	latDeg, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return s2.LatLng{}, fmt.Errorf("malformed offset latitude %q", val)
	}
	lngDeg, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return s2.LatLng{}, fmt.Errorf("malformed offset longitude %q", val)
	}
	return s2.LatLngFromDegrees(latDeg, lngDeg), nil
}

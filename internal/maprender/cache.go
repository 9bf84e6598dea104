package maprender

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/geo/s2"

	id "patrimonio/pkg/domain"
)

// OffsetCache memoizes the displaced coordinate of a site for one browsing
// session. The cache, not the generator, is the privacy control: within a
// session the same site must always resolve to the same fuzzy position.
// Stability across sessions or devices is explicitly not guaranteed.
type OffsetCache interface {
	// GetOrCreate returns the cached offset for (session, report), invoking
	// create exactly once per pair to produce it on a miss.
	GetOrCreate(ctx context.Context, session id.SessionID, report id.ReportID, create func() s2.LatLng) (s2.LatLng, error)
}

// InMemoryOffsetCache keeps offsets in process memory. Suitable for a single
// instance; multi-instance deployments use the Redis cache so a session that
// hops instances keeps its offsets.
type InMemoryOffsetCache struct {
	mu      sync.RWMutex
	offsets map[string]s2.LatLng
}

func NewInMemoryOffsetCache() *InMemoryOffsetCache {
	return &InMemoryOffsetCache{offsets: make(map[string]s2.LatLng)}
}

func (c *InMemoryOffsetCache) GetOrCreate(_ context.Context, session id.SessionID, report id.ReportID, create func() s2.LatLng) (s2.LatLng, error) {
	key := offsetKey(session, report)

	c.mu.RLock()
	if p, ok := c.offsets[key]; ok {
		c.mu.RUnlock()
		return p, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.offsets[key]; ok {
		return p, nil
	}
	p := create()
	c.offsets[key] = p
	return p, nil
}

func offsetKey(session id.SessionID, report id.ReportID) string {
	return fmt.Sprintf("%s:%s", session, report)
}

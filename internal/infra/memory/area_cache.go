package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"heritage-quiz-service/internal/domain"
)

// AreaCache keeps the area map in process memory with a TTL.
type AreaCache struct {
	clock func() time.Time
	rnd   *rand.Rand

	mu        sync.RWMutex
	areas     domain.AreaMap
	expiresAt time.Time
}

func NewAreaCache() *AreaCache {
	return NewAreaCacheWithClock(time.Now)
}

// NewAreaCacheWithClock allows deterministic expiry in tests.
func NewAreaCacheWithClock(clock func() time.Time) *AreaCache {
	return &AreaCache{
		clock: clock,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *AreaCache) Get(_ context.Context) (domain.AreaMap, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.areas.Empty() || !c.expiresAt.After(c.clock()) {
		return domain.AreaMap{}, false
	}
	return c.areas, true
}

func (c *AreaCache) Set(_ context.Context, m domain.AreaMap, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.areas = m
	c.expiresAt = c.clock().Add(c.ttlWithJitter(ttl))
	return nil
}

func (c *AreaCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.areas = domain.AreaMap{}
	c.expiresAt = time.Time{}
	return nil
}

// ttlWithJitter adds up to 10% so instances started together do not refetch together.
// Called with c.mu held.
func (c *AreaCache) ttlWithJitter(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	jitterMax := int64(ttl) / 10
	return ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

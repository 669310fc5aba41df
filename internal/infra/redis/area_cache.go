package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"heritage-quiz-service/internal/domain"
)

// AreaCache shares the area map between instances.
// Provinces are stored as JSON: SET areas:provinces {json}
// Wards are stored as a hash:    HSET areas:wards {ward} {province}
type AreaCache struct {
	client *redis.Client
	prefix string

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewAreaCache(client *redis.Client) *AreaCache {
	return &AreaCache{
		client: client,
		prefix: "areas",
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Get reports a miss on any Redis error so callers fall back to the reference service.
func (c *AreaCache) Get(ctx context.Context) (domain.AreaMap, bool) {
	raw, err := c.client.Get(ctx, c.provincesKey()).Bytes()
	if err != nil || len(raw) == 0 {
		return domain.AreaMap{}, false
	}
	wards, err := c.client.HGetAll(ctx, c.wardsKey()).Result()
	if err != nil || len(wards) == 0 {
		return domain.AreaMap{}, false
	}
	var provinces []domain.Province
	if err := json.Unmarshal(raw, &provinces); err != nil {
		return domain.AreaMap{}, false
	}
	m := domain.AreaMap{Provinces: provinces, WardToProvince: wards}
	if m.Empty() {
		return domain.AreaMap{}, false
	}
	return m, true
}

func (c *AreaCache) Set(ctx context.Context, m domain.AreaMap, ttl time.Duration) error {
	raw, err := json.Marshal(m.Provinces)
	if err != nil {
		return fmt.Errorf("encode provinces: %w", err)
	}
	fields := make(map[string]interface{}, len(m.WardToProvince))
	for ward, province := range m.WardToProvince {
		fields[ward] = province
	}

	ttl = c.ttlWithJitter(ttl)
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, c.wardsKey())
	if len(fields) > 0 {
		pipe.HSet(ctx, c.wardsKey(), fields)
	}
	pipe.Set(ctx, c.provincesKey(), raw, ttl)
	if ttl > 0 {
		pipe.Expire(ctx, c.wardsKey(), ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store area cache: %w", err)
	}
	return nil
}

func (c *AreaCache) Clear(ctx context.Context) error {
	return c.client.Del(ctx, c.provincesKey(), c.wardsKey()).Err()
}

func (c *AreaCache) provincesKey() string {
	return c.prefix + ":provinces"
}

func (c *AreaCache) wardsKey() string {
	return c.prefix + ":wards"
}

func (c *AreaCache) ttlWithJitter(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(ttl) / 10
	return ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

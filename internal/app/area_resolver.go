package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"heritage-quiz-service/internal/domain"
)

const (
	DefaultAreaTTL     = 24 * time.Hour
	DefaultAreaTimeout = 10 * time.Second
)

// AreaResolver serves the ward -> province map from a cache, refetching it
// from the reference service when the cache is empty or expired.
type AreaResolver struct {
	fetcher AreaFetcher
	cache   AreaCache
	ttl     time.Duration
	timeout time.Duration
	logger  zerolog.Logger
	sf      singleflight.Group
}

func NewAreaResolver(fetcher AreaFetcher, cache AreaCache, ttl, timeout time.Duration, logger zerolog.Logger) *AreaResolver {
	if ttl <= 0 {
		ttl = DefaultAreaTTL
	}
	if timeout <= 0 {
		timeout = DefaultAreaTimeout
	}
	return &AreaResolver{
		fetcher: fetcher,
		cache:   cache,
		ttl:     ttl,
		timeout: timeout,
		logger:  logger,
	}
}

// Provinces returns the cached map or refetches it. Failures clear the cache
// and are reported as domain.ErrAreaDataUnavailable.
func (r *AreaResolver) Provinces(ctx context.Context) (domain.AreaMap, error) {
	if m, ok := r.cache.Get(ctx); ok && !m.Empty() {
		return m, nil
	}
	return r.shared(ctx, func(work context.Context) (domain.AreaMap, error) {
		// Re-check in case a concurrent caller already refilled it.
		if m, ok := r.cache.Get(work); ok && !m.Empty() {
			return m, nil
		}
		return r.refresh(work)
	})
}

// Refresh forces a refetch regardless of the cache state. start uses it to
// warm the cache before serving.
func (r *AreaResolver) Refresh(ctx context.Context) (domain.AreaMap, error) {
	return r.shared(ctx, r.refresh)
}

// shared runs fn once for all concurrent callers. The work is detached from
// the caller that started it, so one cancelled request cannot fail the others
// or clear the cache; each caller still stops waiting when its own ctx ends.
func (r *AreaResolver) shared(ctx context.Context, fn func(context.Context) (domain.AreaMap, error)) (domain.AreaMap, error) {
	work := context.WithoutCancel(ctx)
	ch := r.sf.DoChan("areas", func() (interface{}, error) {
		return fn(work)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return domain.AreaMap{}, res.Err
		}
		return res.Val.(domain.AreaMap), nil
	case <-ctx.Done():
		return domain.AreaMap{}, fmt.Errorf("%w: %v", domain.ErrAreaDataUnavailable, ctx.Err())
	}
}

func (r *AreaResolver) refresh(ctx context.Context) (domain.AreaMap, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.logger.Info().Msg("refreshing administrative area cache")
	provinces, wards, err := r.fetcher.Fetch(fetchCtx)
	if err == nil && (len(provinces) == 0 || len(wards) == 0) {
		err = fmt.Errorf("reference service returned %d provinces and %d wards", len(provinces), len(wards))
	}
	if err != nil {
		r.invalidate(ctx)
		r.logger.Error().Err(err).Msg("failed to load administrative areas")
		return domain.AreaMap{}, fmt.Errorf("%w: %v", domain.ErrAreaDataUnavailable, err)
	}

	m := domain.BuildAreaMap(provinces, wards)
	if m.Empty() {
		r.invalidate(ctx)
		return domain.AreaMap{}, fmt.Errorf("%w: no ward could be joined to a province", domain.ErrAreaDataUnavailable)
	}
	if err := r.cache.Set(ctx, m, r.ttl); err != nil {
		r.logger.Warn().Err(err).Msg("failed to store area cache")
	}
	r.logger.Info().
		Int("provinces", len(m.Provinces)).
		Int("wards", len(m.WardToProvince)).
		Msg("administrative area cache refreshed")
	return m, nil
}

func (r *AreaResolver) invalidate(ctx context.Context) {
	if err := r.cache.Clear(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("failed to clear area cache")
	}
}

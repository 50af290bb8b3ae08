package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/FairForge/leadscore/internal/scoring"
)

// Defaults for cache timing
const (
	DefaultTTL           = 5 * time.Minute
	DefaultRetention     = 30 * time.Minute
	DefaultSweepInterval = time.Minute
)

// ComputeFunc produces a fresh result for a fingerprint on cache miss
type ComputeFunc func(ctx context.Context) (*scoring.ScoredResult, error)

// entry is one memoized result. Entries persist past their TTL for the
// retention window so the stale-serve path has something to fall back to.
type entry struct {
	result    *scoring.ScoredResult
	storedAt  time.Time
	expiresAt time.Time
}

func (e *entry) fresh(now time.Time) bool {
	return now.Before(e.expiresAt)
}

// ScoreCache memoizes scored results per fingerprint with TTL expiry and
// single-flight recomputation: at most one concurrent compute per
// fingerprint, full concurrency across fingerprints.
type ScoreCache struct {
	mu        sync.RWMutex
	entries   map[string]*entry
	flight    singleflight.Group
	retention time.Duration
	logger    *zap.Logger

	// Statistics
	hits        int64
	misses      int64
	staleServes int64
	evictions   int64
	computes    int64
}

// NewScoreCache creates a score cache. Retention controls how long
// expired entries stay around to back stale serving.
func NewScoreCache(retention time.Duration, logger *zap.Logger) *ScoreCache {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoreCache{
		entries:   make(map[string]*entry),
		retention: retention,
		logger:    logger,
	}
}

// GetOrCompute returns the cached result for a fingerprint or computes
// it. The boolean reports a fresh cache hit. Guarantees:
//   - N concurrent callers for one fingerprint trigger exactly one
//     compute and all receive its result;
//   - compute failure with an expired entry present serves the stale
//     copy marked Stale=true instead of propagating the error;
//   - a context deadline hit while computing degrades to the last-known
//     value (stale or not) rather than blocking the caller.
func (c *ScoreCache) GetOrCompute(ctx context.Context, fingerprint string, compute ComputeFunc, ttl time.Duration) (*scoring.ScoredResult, bool, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now()
	c.mu.RLock()
	e, ok := c.entries[fingerprint]
	c.mu.RUnlock()
	if ok && e.fresh(now) {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return e.result.Clone(), true, nil
	}

	c.mu.Lock()
	c.misses++
	c.mu.Unlock()

	ch := c.flight.DoChan(fingerprint, func() (interface{}, error) {
		// Another caller in the same flight may have stored a fresh
		// entry between our read and here.
		c.mu.RLock()
		e, ok := c.entries[fingerprint]
		c.mu.RUnlock()
		if ok && e.fresh(time.Now()) {
			return e.result, nil
		}

		result, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.computes++
		c.entries[fingerprint] = &entry{
			result:    result,
			storedAt:  time.Now(),
			expiresAt: time.Now().Add(ttl),
		}
		c.mu.Unlock()
		return result, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			if stale := c.staleFallback(fingerprint); stale != nil {
				c.logger.Warn("compute failed, serving stale score",
					zap.String("fingerprint", fingerprint),
					zap.Error(res.Err))
				return stale, false, nil
			}
			return nil, false, res.Err
		}
		return res.Val.(*scoring.ScoredResult).Clone(), false, nil

	case <-ctx.Done():
		if stale := c.staleFallback(fingerprint); stale != nil {
			c.logger.Warn("deadline exceeded, serving last-known score",
				zap.String("fingerprint", fingerprint))
			return stale, false, nil
		}
		return nil, false, ctx.Err()
	}
}

// staleFallback returns a stale-marked clone of whatever entry exists
// for the fingerprint, fresh or expired.
func (c *ScoreCache) staleFallback(fingerprint string) *scoring.ScoredResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[fingerprint]
	if !ok {
		return nil
	}
	c.staleServes++
	out := e.result.Clone()
	out.Stale = true
	return out
}

// Invalidate drops an entry immediately
func (c *ScoreCache) Invalidate(fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[fingerprint]; ok {
		delete(c.entries, fingerprint)
		c.evictions++
	}
}

// Sweep removes entries expired longer than the retention window and
// returns how many were evicted.
func (c *ScoreCache) Sweep() int {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for fp, e := range c.entries {
		if now.Sub(e.expiresAt) > c.retention {
			delete(c.entries, fp)
			evicted++
		}
	}
	c.evictions += int64(evicted)
	return evicted
}

// Start runs the background sweep loop until the context ends
func (c *ScoreCache) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				c.logger.Debug("swept expired score entries", zap.Int("evicted", n))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Stats holds cache statistics
type Stats struct {
	Entries     int
	Hits        int64
	Misses      int64
	StaleServes int64
	Evictions   int64
	Computes    int64
}

// HitRate calculates the cache hit rate
func (s *Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Stats returns current cache statistics
func (c *ScoreCache) Stats() *Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &Stats{
		Entries:     len(c.entries),
		Hits:        c.hits,
		Misses:      c.misses,
		StaleServes: c.staleServes,
		Evictions:   c.evictions,
		Computes:    c.computes,
	}
}

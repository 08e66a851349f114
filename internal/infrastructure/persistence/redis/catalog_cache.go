package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/mathclub/daily-practice-bot/internal/domain/problem"
	"github.com/mathclub/daily-practice-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG CACHE
// ══════════════════════════════════════════════════════════════════════════════

// cachedProblem is the cache wire form of one catalog entry. Tokens travel in
// their string wire form so the cache layout matches the database layout.
type cachedProblem struct {
	Ordinal int      `json:"ordinal"`
	Display string   `json:"display"`
	Answer  int      `json:"answer"`
	Tokens  []string `json:"tokens"`
}

// CatalogCache is a read-through cache over a problem.Catalog. A day's
// problems are immutable once generated, so the whole day is cached as one
// value and never invalidated before its TTL.
type CatalogCache struct {
	cache *Cache
	inner problem.Catalog
	ttl   time.Duration
}

// NewCatalogCache wraps a catalog with a Redis day cache.
func NewCatalogCache(cache *Cache, inner problem.Catalog, ttl time.Duration) *CatalogCache {
	return &CatalogCache{cache: cache, inner: inner, ttl: ttl}
}

var _ problem.Catalog = (*CatalogCache)(nil)

func dayKey(date time.Time) string {
	return PrefixCatalog + timeutil.FormatDate(date)
}

// SaveDay writes through to the underlying catalog and primes the cache.
// A cache write failure never fails the save.
func (c *CatalogCache) SaveDay(ctx context.Context, date time.Time, problems []*problem.Problem) error {
	if err := c.inner.SaveDay(ctx, date, problems); err != nil {
		return err
	}
	_ = c.cache.Set(ctx, dayKey(date), encodeDay(problems), c.ttl)
	return nil
}

// GetByOrdinal serves from the cached day when present.
func (c *CatalogCache) GetByOrdinal(ctx context.Context, date time.Time, ordinal int) (*problem.Problem, error) {
	day, ok := c.loadDay(ctx, date)
	if ok {
		for _, p := range day {
			if p.Ordinal == ordinal {
				return p, nil
			}
		}
		// Cached day exists but misses the ordinal; fall through so the
		// database stays authoritative.
	}
	return c.inner.GetByOrdinal(ctx, date, ordinal)
}

// CountForDate serves from the cached day when present.
func (c *CatalogCache) CountForDate(ctx context.Context, date time.Time) (int, error) {
	if day, ok := c.loadDay(ctx, date); ok {
		return len(day), nil
	}
	return c.inner.CountForDate(ctx, date)
}

// GetDay serves from cache, falling back to the catalog and priming the cache
// on a miss.
func (c *CatalogCache) GetDay(ctx context.Context, date time.Time) ([]*problem.Problem, error) {
	if day, ok := c.loadDay(ctx, date); ok {
		return day, nil
	}

	problems, err := c.inner.GetDay(ctx, date)
	if err != nil {
		return nil, err
	}
	if len(problems) > 0 {
		_ = c.cache.Set(ctx, dayKey(date), encodeDay(problems), c.ttl)
	}
	return problems, nil
}

// loadDay fetches and decodes a cached day. Any cache error is treated as a
// miss; Redis being down must never break reads.
func (c *CatalogCache) loadDay(ctx context.Context, date time.Time) ([]*problem.Problem, bool) {
	var cached []cachedProblem
	err := c.cache.Get(ctx, dayKey(date), &cached)
	if err != nil {
		return nil, false
	}

	problems := make([]*problem.Problem, 0, len(cached))
	for _, cp := range cached {
		tokens, err := problem.ParseTokens(cp.Tokens)
		if err != nil {
			return nil, false
		}
		problems = append(problems, &problem.Problem{
			Date:    date,
			Ordinal: cp.Ordinal,
			Display: cp.Display,
			Answer:  cp.Answer,
			Tokens:  tokens,
		})
	}
	return problems, true
}

func encodeDay(problems []*problem.Problem) []cachedProblem {
	out := make([]cachedProblem, len(problems))
	for i, p := range problems {
		out[i] = cachedProblem{
			Ordinal: p.Ordinal,
			Display: p.Display,
			Answer:  p.Answer,
			Tokens:  problem.FormatTokens(p.Tokens),
		}
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION GUARD
// ══════════════════════════════════════════════════════════════════════════════

// CompletionGuard deduplicates day completion notifications across restarts.
// SETNX makes the first observer win; everyone else sees the flag already set.
type CompletionGuard struct {
	cache *Cache
	ttl   time.Duration
}

// NewCompletionGuard creates a guard whose flags expire after ttl.
func NewCompletionGuard(cache *Cache, ttl time.Duration) *CompletionGuard {
	return &CompletionGuard{cache: cache, ttl: ttl}
}

// FirstCompletion reports whether this call is the first to record the
// learner's completion of the date.
func (g *CompletionGuard) FirstCompletion(ctx context.Context, learnerID int64, date time.Time) (bool, error) {
	return g.cache.SetNX(ctx, completionKey(learnerID, date), 1, g.ttl)
}

func completionKey(learnerID int64, date time.Time) string {
	return PrefixCompletion + timeutil.FormatDate(date) + ":" + strconv.FormatInt(learnerID, 10)
}

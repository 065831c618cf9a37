package recordcache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	domrec "github.com/kailas-cloud/docset/internal/domain/record"
)

// DefaultSize is the number of records kept when no size is given.
const DefaultSize = 1000

// resolver is the consumer interface for the wrapped record layer (ISP).
type resolver[R domrec.Record] interface {
	Resolve(ctx context.Context, kind domrec.Kind, id string) (R, bool, error)
}

type batchResolver[R domrec.Record] interface {
	ResolveMany(ctx context.Context, kind domrec.Kind, ids []string) (map[string]R, error)
}

type renderer[R domrec.Record] interface {
	Render(kind domrec.Kind, recs []R) string
}

// CachedResolver keeps resolved records in an in-process LRU.
// Absent records are never cached, so a record that reappears is found.
type CachedResolver[R domrec.Record] struct {
	inner      resolver[R]
	cache      *lru.Cache[string, R]
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New[R domrec.Record](
	inner resolver[R],
	size int,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) (*CachedResolver[R], error) {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New[string, R](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedResolver[R]{
		inner:      inner,
		cache:      cache,
		cacheTotal: cacheTotal,
		logger:     logger,
	}, nil
}

// Resolve returns a cached record or asks the inner layer.
func (c *CachedResolver[R]) Resolve(ctx context.Context, kind domrec.Kind, id string) (R, bool, error) {
	key := cacheKey(kind, id)
	if rec, ok := c.cache.Get(key); ok {
		c.incCache("hit")
		return rec, true, nil
	}
	c.incCache("miss")

	rec, ok, err := c.inner.Resolve(ctx, kind, id)
	if err != nil {
		var zero R
		return zero, false, fmt.Errorf("resolve %s: %w", id, err)
	}
	if ok {
		c.cache.Add(key, rec)
	}
	return rec, ok, nil
}

// ResolveMany serves what it can from the cache and loads the rest in one
// batch when the inner layer supports it.
func (c *CachedResolver[R]) ResolveMany(ctx context.Context, kind domrec.Kind, ids []string) (map[string]R, error) {
	out := make(map[string]R, len(ids))
	var missing []string
	for _, id := range ids {
		if rec, ok := c.cache.Get(cacheKey(kind, id)); ok {
			c.incCache("hit")
			out[id] = rec
			continue
		}
		c.incCache("miss")
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	if batch, ok := c.inner.(batchResolver[R]); ok {
		found, err := batch.ResolveMany(ctx, kind, missing)
		if err != nil {
			return nil, fmt.Errorf("resolve %d %s records: %w", len(missing), kind.Name, err)
		}
		for id, rec := range found {
			c.cache.Add(cacheKey(kind, id), rec)
			out[id] = rec
		}
		c.logMisses(kind, missing, found)
		return out, nil
	}

	for _, id := range missing {
		rec, ok, err := c.inner.Resolve(ctx, kind, id)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", id, err)
		}
		if ok {
			c.cache.Add(cacheKey(kind, id), rec)
			out[id] = rec
		}
	}
	return out, nil
}

// Render delegates to the inner layer's renderer when it has one.
func (c *CachedResolver[R]) Render(kind domrec.Kind, recs []R) string {
	if r, ok := c.inner.(renderer[R]); ok {
		return r.Render(kind, recs)
	}
	return domrec.RenderList(kind, recs)
}

// Purge drops every cached record.
func (c *CachedResolver[R]) Purge() {
	c.cache.Purge()
}

// Len returns the number of cached records.
func (c *CachedResolver[R]) Len() int {
	return c.cache.Len()
}

func (c *CachedResolver[R]) logMisses(kind domrec.Kind, asked []string, found map[string]R) {
	if len(found) == len(asked) {
		return
	}
	c.logger.Debug("Records missing from record layer",
		zap.String("kind", kind.Name),
		zap.Int("asked", len(asked)),
		zap.Int("found", len(found)),
	)
}

func (c *CachedResolver[R]) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func cacheKey(kind domrec.Kind, id string) string {
	return kind.Name + "\x00" + id
}

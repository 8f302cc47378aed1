// Package cache memoizes per-run analysis results. Every value is computed at
// most once per key, concurrent requests for the same key share a single
// computation, and failed computations are not stored.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"modcheck/internal/shared/observability"

	"golang.org/x/sync/singleflight"
)

// Kind names the family of a cached value.
type Kind string

const (
	KindSourceFacts      Kind = "source_facts"
	KindDeclarations     Kind = "declarations"
	KindDeclarationIndex Kind = "declaration_index"
	KindReferences       Kind = "references"
	KindClosure          Kind = "closure"
	KindAPIClosure       Kind = "api_closure"
	KindResourceIndex    Kind = "resource_index"
	KindTarget           Kind = "target"
	KindUsage            Kind = "usage"
)

// Key identifies a cached value. Sub distinguishes values of the same kind
// within one project, usually a source set or a dependency key.
type Key struct {
	Project string
	Kind    Kind
	Sub     string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Project, k.Kind, k.Sub)
}

// Cache is safe for concurrent use. The zero value is not usable; call New.
type Cache struct {
	mu      sync.RWMutex
	values  map[Key]any
	flights map[Key]*flight
	group   singleflight.Group
}

// flight is the context a shared computation runs under. It is cancelled
// once every caller waiting on it has gone.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// errAbandoned marks a computation cancelled because nobody waited for it
// any more. A caller that joined late retries instead of reporting it.
var errAbandoned = errors.New("cache: computation abandoned")

func New() *Cache {
	return &Cache{
		values:  make(map[Key]any),
		flights: make(map[Key]*flight),
	}
}

func (c *Cache) lookup(key Key) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Len returns the number of stored values.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

func (c *Cache) join(ctx context.Context, key Key) *flight {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.flights[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		c.flights[key] = f
	}
	f.waiters++
	return f
}

func (c *Cache) leave(key Key, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if c.flights[key] == f {
		delete(c.flights, key)
	}
}

func (c *Cache) waiters(key Key) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if f, ok := c.flights[key]; ok {
		return f.waiters
	}
	return 0
}

// GetOrPut returns the value stored under key, computing it when absent.
// Concurrent callers share one computation and all receive its error. The
// computation keeps the values of the context that started it but is only
// cancelled once every waiting caller's ctx is done; each caller stops
// waiting as soon as its own ctx is done.
func GetOrPut[T any](ctx context.Context, c *Cache, key Key, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	kind := string(key.Kind)

	for {
		if v, ok := c.lookup(key); ok {
			observability.CacheHits.WithLabelValues(kind).Inc()
			t, _ := v.(T)
			return t, nil
		}

		f := c.join(ctx, key)
		ch := c.group.DoChan(key.String(), func() (any, error) {
			if v, ok := c.lookup(key); ok {
				return v, nil
			}
			observability.CacheMisses.WithLabelValues(kind).Inc()

			v, err := compute(f.ctx)
			if err != nil {
				if f.ctx.Err() != nil {
					return nil, errAbandoned
				}
				observability.CacheErrors.WithLabelValues(kind).Inc()
				return nil, err
			}

			c.mu.Lock()
			c.values[key] = v
			c.mu.Unlock()
			return v, nil
		})

		select {
		case <-ctx.Done():
			c.leave(key, f)
			return zero, ctx.Err()
		case res := <-ch:
			c.leave(key, f)
			if errors.Is(res.Err, errAbandoned) {
				if err := ctx.Err(); err != nil {
					return zero, err
				}
				continue
			}
			if res.Err != nil {
				return zero, res.Err
			}
			t, _ := res.Val.(T)
			return t, nil
		}
	}
}

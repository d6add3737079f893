// Package resultcache implements the recency-biased cache of previous
// search hits described in spec §4.9: every search populates it, and the
// "fetch full context by id" operation is its only reader. A cache miss
// falls back to a narrow re-query against the originating store rather
// than failing outright. Grounded on the teacher's internal/graph/searcher.go
// file cache, which uses the same maypok86/otter weight-based LRU for a
// different "don't refetch what we already have" cache.
package resultcache

import (
	"context"
	"sync"

	"github.com/maypok86/otter"

	"github.com/localcortex/lattice/internal/errkit"
)

// prefixLen bounds how much of a cached result's content survives into the
// shadow index used for post-eviction fallback re-queries (spec §4.9: "a
// prefix of the previously cached content").
const prefixLen = 80

// Entry is one cached search hit, elevated to full detail on first cache.
type Entry struct {
	ID       string
	StoreID  string
	Path     string
	Content  string
	Score    float64
	Full     any // enrich.Result at full detail; typed as any to avoid an import cycle with internal/enrich
}

// shadow is the small, longer-lived record kept for ids evicted from the
// main LRU: just enough (store id + content prefix) to drive the fallback
// re-query in spec §4.9 and tested by scenario 6 in spec §8.
type shadow struct {
	storeID string
	prefix  string
}

// Requerier issues a narrow re-query against one store, used by Get's
// fallback path when an id has fallen out of the main cache. Implemented
// by the caller (typically a thin adapter over internal/rank.Ranker) so
// this package has no dependency on the ranker.
type Requerier interface {
	Requery(ctx context.Context, storeID, contentPrefix string) (Entry, bool, error)
}

// Cache is the process-local LRU of recent search hits, owned by whichever
// process serves search requests (Design Note "Process-wide result cache"
// — workers never see it).
type Cache struct {
	main otter.Cache[string, Entry]

	mu       sync.Mutex
	shadow   map[string]shadow
	order    []string // FIFO eviction order for the shadow index
	shadowCap int
}

// New builds a cache with the given capacity (spec §4.9 default ≈ 1000).
func New(capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = 1000
	}
	main, err := otter.MustBuilder[string, Entry](capacity).
		CollectStats().
		Build()
	if err != nil {
		return nil, errkit.Wrap(errkit.Fatal, "build result cache", err)
	}
	return &Cache{
		main:      main,
		shadow:    map[string]shadow{},
		shadowCap: capacity * 5,
	}, nil
}

// Put records a search hit, populating both the main LRU and the longer-
// lived shadow index used for post-eviction fallback.
func (c *Cache) Put(e Entry) {
	c.main.Set(e.ID, e)

	prefix := e.Content
	if len(prefix) > prefixLen {
		prefix = prefix[:prefixLen]
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.shadow[e.ID]; !exists {
		c.order = append(c.order, e.ID)
	}
	c.shadow[e.ID] = shadow{storeID: e.StoreID, prefix: prefix}
	for len(c.order) > c.shadowCap {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.shadow, oldest)
	}
}

// Get returns a cached entry without touching the backing store. The
// second return value is false on a cache miss (spec §8: "get_full_context
// returns without touching the vector store" on a hit).
func (c *Cache) Get(id string) (Entry, bool) {
	return c.main.Get(id)
}

// GetOrRequery returns a cached entry, falling back to requerier.Requery
// using the shadow index's content prefix when id has been evicted from
// the main LRU (spec §4.9, §8 scenario 6). Returns a NotFound error if
// neither the cache nor the shadow index has ever heard of id, or if the
// backing chunk no longer exists.
func (c *Cache) GetOrRequery(ctx context.Context, id string, requerier Requerier) (Entry, error) {
	if e, ok := c.main.Get(id); ok {
		return e, nil
	}

	c.mu.Lock()
	sh, ok := c.shadow[id]
	c.mu.Unlock()
	if !ok {
		return Entry{}, errkit.NotFoundf("result %q not found", id)
	}

	e, found, err := requerier.Requery(ctx, sh.storeID, sh.prefix)
	if err != nil {
		return Entry{}, err
	}
	if !found {
		return Entry{}, errkit.NotFoundf("result %q no longer exists", id)
	}
	c.Put(e)
	return e, nil
}

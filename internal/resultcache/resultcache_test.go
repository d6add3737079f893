package resultcache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRequerier struct {
	entry Entry
	found bool
	err   error
	calls int
}

func (s *stubRequerier) Requery(_ context.Context, storeID, prefix string) (Entry, bool, error) {
	s.calls++
	return s.entry, s.found, s.err
}

func TestCache_PutGet(t *testing.T) {
	c, err := New(10)
	require.NoError(t, err)

	c.Put(Entry{ID: "s1-abc", StoreID: "s1", Path: "a.go", Content: "hello world"})

	e, ok := c.Get("s1-abc")
	require.True(t, ok)
	assert.Equal(t, "a.go", e.Path)
}

func TestCache_GetMiss(t *testing.T) {
	c, err := New(10)
	require.NoError(t, err)

	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestCache_GetOrRequery_HitNeverCallsRequerier(t *testing.T) {
	c, err := New(10)
	require.NoError(t, err)
	c.Put(Entry{ID: "s1-abc", StoreID: "s1", Content: "hello"})

	req := &stubRequerier{}
	e, err := c.GetOrRequery(context.Background(), "s1-abc", req)
	require.NoError(t, err)
	assert.Equal(t, "s1", e.StoreID)
	assert.Equal(t, 0, req.calls)
}

func TestCache_GetOrRequery_FallsBackOnEviction(t *testing.T) {
	c, err := New(10)
	require.NoError(t, err)
	c.Put(Entry{ID: "s1-abc", StoreID: "s1", Content: "hello world this is the content"})

	// Simulate eviction from the main LRU without dropping the shadow entry.
	c.main.Delete("s1-abc")

	req := &stubRequerier{entry: Entry{ID: "s1-abc", StoreID: "s1", Content: "hello world this is the content"}, found: true}
	e, err := c.GetOrRequery(context.Background(), "s1-abc", req)
	require.NoError(t, err)
	assert.Equal(t, 1, req.calls)
	assert.Equal(t, "s1", e.StoreID)

	// Having requeried, the entry is back in the main cache.
	_, ok := c.Get("s1-abc")
	assert.True(t, ok)
}

func TestCache_GetOrRequery_NotFoundWhenNeverCached(t *testing.T) {
	c, err := New(10)
	require.NoError(t, err)

	req := &stubRequerier{}
	_, err = c.GetOrRequery(context.Background(), "never-seen", req)
	require.Error(t, err)
	assert.Equal(t, 0, req.calls)
}

func TestCache_GetOrRequery_NotFoundWhenChunkGone(t *testing.T) {
	c, err := New(10)
	require.NoError(t, err)
	c.Put(Entry{ID: "s1-abc", StoreID: "s1", Content: "hello"})
	c.main.Delete("s1-abc")

	req := &stubRequerier{found: false}
	_, err = c.GetOrRequery(context.Background(), "s1-abc", req)
	require.Error(t, err)
}

// Package vectorindex wraps chromem-go to give every store its own
// durable vector table: one persistent chromem-go database per store id,
// rooted at <baseDir>/<storeID> (spec §6 on-disk layout: `lance/<storeId>/`)
// so that a store's vectors survive the process that wrote them. The
// indexer's detached worker (cmd/lattice-worker) and a later `lattice
// search` invocation are different OS processes; without on-disk
// persistence, everything a worker indexes is discarded the moment it
// exits. Grounded on the teacher's chromemSearcher
// (internal/mcp/chromem_searcher.go) for the collection shape, and on
// kadirpekel-hector's pkg/vector/chromem.go for the persistent-DB-per-path
// + GetOrCreateCollection wiring (the teacher itself reloads its in-memory
// chromem collection from a separate durable store at startup; this
// rework makes chromem-go durable directly instead of introducing a
// second storage engine underneath it — see DESIGN.md).
package vectorindex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/localcortex/lattice/internal/errkit"
)

// collectionName is the single chromem-go collection held by each store's
// own database directory; no further namespacing is needed since the
// directory itself already isolates one store from another.
const collectionName = "chunks"

// Document is one chunk's vector-indexable record.
type Document struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]string
}

// Match is a single vector query result.
type Match struct {
	ID         string
	Content    string
	Metadata   map[string]string
	Similarity float32
}

// Index owns one persistent chromem-go database per store.
type Index struct {
	baseDir  string
	compress bool

	mu          sync.RWMutex
	dbs         map[string]*chromem.DB
	collections map[string]*chromem.Collection
}

// New roots a vector index at baseDir (typically <dataDir>/lance); each
// store lazily gets its own subdirectory on first use. compress enables
// chromem-go's gzip-compressed persistence format.
func New(baseDir string, compress bool) *Index {
	return &Index{
		baseDir:     baseDir,
		compress:    compress,
		dbs:         map[string]*chromem.DB{},
		collections: map[string]*chromem.Collection{},
	}
}

// collection opens (or creates) a store's on-disk database and its single
// collection. Opening an existing directory reloads whatever a prior
// process already committed there, which is what makes cross-process
// search see what a detached index worker wrote.
func (x *Index) collection(storeID string) (*chromem.Collection, error) {
	x.mu.RLock()
	c, ok := x.collections[storeID]
	x.mu.RUnlock()
	if ok {
		return c, nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if c, ok := x.collections[storeID]; ok {
		return c, nil
	}

	dir := filepath.Join(x.baseDir, storeID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errkit.Wrap(errkit.Fatal, fmt.Sprintf("create vector table directory for store %s", storeID), err)
	}
	db, err := chromem.NewPersistentDB(dir, x.compress)
	if err != nil {
		return nil, errkit.Wrap(errkit.Fatal, fmt.Sprintf("open vector table for store %s", storeID), err)
	}
	c, err = db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, errkit.Wrap(errkit.Fatal, fmt.Sprintf("open vector collection for store %s", storeID), err)
	}

	x.dbs[storeID] = db
	x.collections[storeID] = c
	return c, nil
}

// Upsert adds or replaces documents in a store's collection.
func (x *Index) Upsert(ctx context.Context, storeID string, docs []Document) error {
	c, err := x.collection(storeID)
	if err != nil {
		return err
	}
	for _, d := range docs {
		c.Delete(ctx, nil, nil, d.ID)
		doc := chromem.Document{
			ID:        d.ID,
			Content:   d.Content,
			Embedding: d.Embedding,
			Metadata:  d.Metadata,
		}
		if err := c.AddDocument(ctx, doc); err != nil {
			return errkit.Wrap(errkit.Fatal, fmt.Sprintf("add document %s", d.ID), err)
		}
	}
	return nil
}

// Query runs a k-nearest-neighbor search against a store's collection.
// Opens (or reloads) the store's on-disk database on first use, so a
// store indexed by a different process is found here rather than
// reporting as never indexed.
func (x *Index) Query(ctx context.Context, storeID string, queryEmbedding []float32, limit int) ([]Match, error) {
	c, err := x.collection(storeID)
	if err != nil {
		return nil, err
	}

	n := limit
	if count := c.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return nil, nil
	}

	docs, err := c.QueryEmbedding(ctx, queryEmbedding, n, nil, nil)
	if err != nil {
		return nil, errkit.Wrap(errkit.Transient, fmt.Sprintf("vector query on store %s", storeID), err)
	}

	out := make([]Match, 0, len(docs))
	for _, d := range docs {
		out = append(out, Match{
			ID:         d.ID,
			Content:    d.Content,
			Metadata:   d.Metadata,
			Similarity: d.Similarity,
		})
	}
	return out, nil
}

// DropTable removes a store's entire vector table from memory and disk.
// Implements store.TableDropper.
func (x *Index) DropTable(storeID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.dbs, storeID)
	delete(x.collections, storeID)

	dir := filepath.Join(x.baseDir, storeID)
	if err := os.RemoveAll(dir); err != nil {
		return errkit.Wrap(errkit.Fatal, fmt.Sprintf("remove vector table for store %s", storeID), err)
	}
	return nil
}

// Package ftsindex wraps bleve to give every store its own durable
// full-text index, grounded on the teacher's exactSearcher
// (internal/mcp/exact_searcher.go) for the field mapping and
// QueryStringQuery/highlighting search shape: one on-disk bleve index per
// store, rooted at <baseDir>/<storeID>, batch-indexed. Like vectorindex,
// this is on disk rather than bleve.NewMemOnly so a store indexed by the
// detached lattice-worker process is still there for a later `lattice
// search` process to query (spec §6 on-disk layout).
package ftsindex

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/localcortex/lattice/internal/errkit"
)

// Document is one chunk's full-text-indexable record.
type Document struct {
	ID       string
	Text     string
	FilePath string
	Title    string
	FileType string
}

// Match is a single full-text query result.
type Match struct {
	ID         string
	Text       string
	FilePath   string
	Title      string
	FileType   string
	Score      float64
	Highlights []string
}

// Index owns one on-disk bleve index per store.
type Index struct {
	baseDir string

	mu      sync.RWMutex
	indexes map[string]bleve.Index
}

// New roots a full-text index manager at baseDir (typically
// <dataDir>/fts); each store lazily gets its own subdirectory on first
// use.
func New(baseDir string) *Index {
	return &Index{baseDir: baseDir, indexes: map[string]bleve.Index{}}
}

func buildMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	text := bleve.NewTextFieldMapping()
	text.Analyzer = "standard"
	text.Store = true
	text.Index = true
	text.IncludeTermVectors = true

	path := bleve.NewTextFieldMapping()
	path.Analyzer = "standard"
	path.Store = true
	path.Index = true

	title := bleve.NewTextFieldMapping()
	title.Analyzer = "standard"
	title.Store = true
	title.Index = true

	fileType := bleve.NewTextFieldMapping()
	fileType.Analyzer = "keyword"
	fileType.Store = true
	fileType.Index = true

	id := bleve.NewTextFieldMapping()
	id.Analyzer = "keyword"
	id.Store = true
	id.Index = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("id", id)
	doc.AddFieldMappingsAt("text", text)
	doc.AddFieldMappingsAt("file_path", path)
	doc.AddFieldMappingsAt("title", title)
	doc.AddFieldMappingsAt("file_type", fileType)

	im.DefaultMapping = doc
	return im
}

// index opens (or creates) a store's on-disk bleve index. Opening an
// existing directory (via bleve.Open) reloads whatever a prior process
// already committed there; a directory that doesn't exist yet is created
// fresh with New.
func (x *Index) index(storeID string) (bleve.Index, error) {
	x.mu.RLock()
	idx, ok := x.indexes[storeID]
	x.mu.RUnlock()
	if ok {
		return idx, nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if idx, ok := x.indexes[storeID]; ok {
		return idx, nil
	}

	dir := filepath.Join(x.baseDir, storeID)
	var idx2 bleve.Index
	var err error
	if _, statErr := os.Stat(dir); statErr == nil {
		idx2, err = bleve.Open(dir)
	} else {
		if err := os.MkdirAll(x.baseDir, 0o755); err != nil {
			return nil, errkit.Wrap(errkit.Fatal, fmt.Sprintf("create fts directory for store %s", storeID), err)
		}
		idx2, err = bleve.New(dir, buildMapping())
	}
	if err != nil {
		return nil, errkit.Wrap(errkit.Fatal, fmt.Sprintf("open fts index for store %s", storeID), err)
	}

	x.indexes[storeID] = idx2
	return idx2, nil
}

const batchSize = 1000

func toDoc(d Document) map[string]any {
	return map[string]any{
		"id":        d.ID,
		"text":      d.Text,
		"file_path": d.FilePath,
		"title":     d.Title,
		"file_type": d.FileType,
	}
}

// Upsert adds or replaces documents in a store's index.
func (x *Index) Upsert(storeID string, docs []Document) error {
	idx, err := x.index(storeID)
	if err != nil {
		return err
	}

	b := idx.NewBatch()
	for _, d := range docs {
		if err := b.Index(d.ID, toDoc(d)); err != nil {
			return errkit.Wrap(errkit.Fatal, fmt.Sprintf("batch document %s", d.ID), err)
		}
		if b.Size() >= batchSize {
			if err := idx.Batch(b); err != nil {
				return errkit.Wrap(errkit.Fatal, "execute fts batch", err)
			}
			b = idx.NewBatch()
		}
	}
	if b.Size() > 0 {
		if err := idx.Batch(b); err != nil {
			return errkit.Wrap(errkit.Fatal, "execute final fts batch", err)
		}
	}
	return nil
}

// Search runs a bleve query-string search against a store's index. Opens
// (or reloads) the store's on-disk index on first use, so a store indexed
// by a different process is found here rather than reporting as
// unindexed.
func (x *Index) Search(storeID, queryStr string, limit int) ([]Match, error) {
	idx, err := x.index(storeID)
	if err != nil {
		return nil, err
	}

	q := bleve.NewQueryStringQuery(queryStr)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	style := "html"
	req.Highlight = bleve.NewHighlight()
	req.Highlight.Style = &style
	req.Highlight.Fields = []string{"text"}
	req.Fields = []string{"id", "text", "file_path", "title", "file_type"}

	result, err := idx.Search(req)
	if err != nil {
		return nil, errkit.Wrap(errkit.Transient, fmt.Sprintf("fts query on store %s", storeID), err)
	}

	out := make([]Match, 0, len(result.Hits))
	for _, hit := range result.Hits {
		id, _ := hit.Fields["id"].(string)
		text, _ := hit.Fields["text"].(string)
		path, _ := hit.Fields["file_path"].(string)
		title, _ := hit.Fields["title"].(string)
		fileType, _ := hit.Fields["file_type"].(string)

		var highlights []string
		for _, snippets := range hit.Fragments {
			highlights = append(highlights, snippets...)
		}
		if len(highlights) > 3 {
			highlights = highlights[:3]
		}

		out = append(out, Match{
			ID:         id,
			Text:       text,
			FilePath:   path,
			Title:      title,
			FileType:   fileType,
			Score:      hit.Score,
			Highlights: highlights,
		})
	}
	return out, nil
}

// DropTable closes and removes a store's full-text index from memory and
// disk. Implements store.TableDropper.
func (x *Index) DropTable(storeID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if idx, ok := x.indexes[storeID]; ok {
		idx.Close()
		delete(x.indexes, storeID)
	}

	dir := filepath.Join(x.baseDir, storeID)
	if err := os.RemoveAll(dir); err != nil {
		return errkit.Wrap(errkit.Fatal, fmt.Sprintf("remove fts index for store %s", storeID), err)
	}
	return nil
}

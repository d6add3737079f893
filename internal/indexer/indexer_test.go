package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/localcortex/lattice/internal/classify"
	"github.com/localcortex/lattice/internal/embedding"
	"github.com/localcortex/lattice/internal/ftsindex"
	"github.com/localcortex/lattice/internal/vectorindex"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestIndexStoreBasic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "README.md", "# Title\n\nSome prose about the project.\n\n## Usage\n\nMore text here describing usage.\n")
	writeFile(t, dir, "src/main.go", "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n")
	writeFile(t, dir, "node_modules/pkg/index.js", "should be ignored")

	vectors := vectorindex.New(t.TempDir(), false)
	fts := ftsindex.New(t.TempDir())
	engine := embedding.NewMockEngine()
	idx := New(vectors, fts, engine)

	var events []Event
	result, err := idx.IndexStore(context.Background(), "store-1", dir, func(e Event) { events = append(events, e) })
	if err != nil {
		t.Fatalf("IndexStore: %v", err)
	}
	if result.DocumentsIndexed != 2 {
		t.Fatalf("expected 2 documents indexed (ignoring node_modules), got %d", result.DocumentsIndexed)
	}
	if result.ChunksCreated == 0 {
		t.Fatal("expected at least one chunk created")
	}
	if len(events) == 0 || events[0].Type != EventStart {
		t.Fatal("expected a start event first")
	}
	if events[len(events)-1].Type != EventComplete {
		t.Fatal("expected a complete event last")
	}

	matches, err := fts.Search("store-1", "usage", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected README content to be searchable via FTS")
	}
}

func TestIndexStoreIdempotentIDs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "stable content that does not change between runs")

	vectors := vectorindex.New(t.TempDir(), false)
	fts := ftsindex.New(t.TempDir())
	engine := embedding.NewMockEngine()
	idx := New(vectors, fts, engine)

	ctx := context.Background()
	r1, err := idx.IndexStore(ctx, "store-1", dir, nil)
	if err != nil {
		t.Fatalf("first IndexStore: %v", err)
	}
	r2, err := idx.IndexStore(ctx, "store-1", dir, nil)
	if err != nil {
		t.Fatalf("second IndexStore: %v", err)
	}
	if r1.ChunksCreated != r2.ChunksCreated {
		t.Fatalf("expected stable chunk count across re-index, got %d then %d", r1.ChunksCreated, r2.ChunksCreated)
	}
}

func TestPathsIgnoreGlobExcludesMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/main.go", "package main\n\nfunc main() {}\n")
	writeFile(t, dir, "vendor/dep/dep.go", "package dep\n\nfunc Dep() {}\n")

	vectors := vectorindex.New(t.TempDir(), false)
	fts := ftsindex.New(t.TempDir())
	engine := embedding.NewMockEngine()
	idx, err := NewWithOptions(vectors, fts, engine, Options{IgnoreGlobs: []string{"vendor/**"}})
	if err != nil {
		t.Fatalf("NewWithOptions: %v", err)
	}

	result, err := idx.IndexStore(context.Background(), "store-1", dir, nil)
	if err != nil {
		t.Fatalf("IndexStore: %v", err)
	}
	if result.DocumentsIndexed != 1 {
		t.Fatalf("expected vendor/** to be excluded by paths.ignore, got %d documents indexed", result.DocumentsIndexed)
	}
}

func TestLatticeIgnoreFileExcludesMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/main.go", "package main\n\nfunc main() {}\n")
	writeFile(t, dir, "generated/gen.go", "package generated\n\nfunc Gen() {}\n")
	writeFile(t, dir, ".lattice-ignore", "generated/\n")

	vectors := vectorindex.New(t.TempDir(), false)
	fts := ftsindex.New(t.TempDir())
	engine := embedding.NewMockEngine()
	idx := New(vectors, fts, engine)

	result, err := idx.IndexStore(context.Background(), "store-1", dir, nil)
	if err != nil {
		t.Fatalf("IndexStore: %v", err)
	}
	if result.DocumentsIndexed != 1 {
		t.Fatalf("expected .lattice-ignore to exclude generated/, got %d documents indexed", result.DocumentsIndexed)
	}
}

func TestPathsDocGlobReclassifiesUnrecognizedExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.adoc", "= Title\n\nSome prose long enough to chunk and index for search.\n")

	vectors := vectorindex.New(t.TempDir(), false)
	fts := ftsindex.New(t.TempDir())
	engine := embedding.NewMockEngine()
	idx, err := NewWithOptions(vectors, fts, engine, Options{DocGlobs: []string{"**/*.adoc"}})
	if err != nil {
		t.Fatalf("NewWithOptions: %v", err)
	}

	tag := idx.overrideTag(classify.Classify("notes.adoc", "notes.adoc", ".adoc"), "notes.adoc")
	if tag != classify.Documentation {
		t.Fatalf("expected paths.docs override to classify .adoc as documentation, got %s", tag)
	}
}

func TestDocumentIDGrammar(t *testing.T) {
	single := documentID("store-1", "abc123", 0, 1)
	if single != "store-1-abc123" {
		t.Fatalf("expected single-chunk id to omit index, got %s", single)
	}
	multi := documentID("store-1", "abc123", 2, 5)
	if multi != "store-1-abc123-2" {
		t.Fatalf("expected multi-chunk id to include index, got %s", multi)
	}
}

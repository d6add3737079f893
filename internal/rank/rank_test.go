package rank

import (
	"context"
	"testing"

	"github.com/localcortex/lattice/internal/classify"
	"github.com/localcortex/lattice/internal/embedding"
	"github.com/localcortex/lattice/internal/ftsindex"
	"github.com/localcortex/lattice/internal/vectorindex"
)

func setup(t *testing.T) (*Ranker, *vectorindex.Index, *ftsindex.Index) {
	t.Helper()
	vectors := vectorindex.New(t.TempDir(), false)
	fts := ftsindex.New(t.TempDir())
	engine := embedding.NewMockEngine()
	return New(vectors, fts, engine), vectors, fts
}

func TestClassifyIntentOrdering(t *testing.T) {
	cases := []struct {
		query string
		want  Intent
	}{
		{"how does the cache work internally", IntentImplementation},
		{"why is this request crashing", IntentDebugging},
		{"react vs vue for this project", IntentComparison},
		{"how do I add a new endpoint", IntentHowTo},
		{"what is a reciprocal rank fusion", IntentConceptual},
		{"totally unrelated text", IntentHowTo},
	}
	for _, c := range cases {
		got := ClassifyIntent(c.query)
		if got != c.want {
			t.Errorf("ClassifyIntent(%q) = %s, want %s", c.query, got, c.want)
		}
	}
}

func TestFileTypeBoostComposition(t *testing.T) {
	howToExample := FileTypeBoost(classify.Example, IntentHowTo)
	if howToExample != 1.4*1.5 {
		t.Errorf("expected example how-to boost %v, got %v", 1.4*1.5, howToExample)
	}
	implSource := FileTypeBoost(classify.Source, IntentImplementation)
	if implSource != 1.0*1.1 {
		t.Errorf("expected source implementation boost %v, got %v", 1.0*1.1, implSource)
	}
	baseline := FileTypeBoost(classify.Test, IntentConceptual)
	if baseline != 0.7 {
		t.Errorf("expected unadjusted test baseline 0.7, got %v", baseline)
	}
}

func TestFrameworkBoostFirstMatchOnly(t *testing.T) {
	boost := FrameworkBoost("how do react hooks work", "src/components/Button.react.tsx", "")
	if boost != 1.5 {
		t.Errorf("expected matching framework boost 1.5, got %v", boost)
	}
	noMatch := FrameworkBoost("how do react hooks work", "src/server/db.py", "")
	if noMatch != 0.8 {
		t.Errorf("expected non-matching framework boost 0.8, got %v", noMatch)
	}
	irrelevant := FrameworkBoost("what is a binary search tree", "src/anything.go", "")
	if irrelevant != 1.0 {
		t.Errorf("expected inapplicable framework boost 1.0, got %v", irrelevant)
	}
}

func TestHybridSearchFusesAndNormalizes(t *testing.T) {
	r, vectors, fts := setup(t)
	ctx := context.Background()

	mock := embedding.NewMockEngine()
	vec, _ := mock.Embed(ctx, []string{"authentication flow explained", "completely unrelated shopping cart logic"}, embedding.ModeDocument)
	if err := vectors.Upsert(ctx, "s1", []vectorindex.Document{
		{ID: "doc-1", Content: "authentication flow explained", Embedding: vec[0], Metadata: map[string]string{"path": "auth.md", "file_type": "documentation"}},
		{ID: "doc-2", Content: "completely unrelated shopping cart logic", Embedding: vec[1], Metadata: map[string]string{"path": "cart.ts", "file_type": "source"}},
	}); err != nil {
		t.Fatalf("Upsert vectors: %v", err)
	}
	if err := fts.Upsert("s1", []ftsindex.Document{
		{ID: "doc-1", Text: "authentication flow explained", FilePath: "auth.md", FileType: "documentation"},
		{ID: "doc-2", Text: "completely unrelated shopping cart logic", FilePath: "cart.ts", FileType: "source"},
	}); err != nil {
		t.Fatalf("Upsert fts: %v", err)
	}

	hits, err := r.Search(ctx, Query{Text: "authentication flow", StoreIDs: []string{"s1"}, Mode: ModeHybrid, Limit: 5})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Score != 1.0 {
		t.Fatalf("expected top hit to normalize to 1.0, got %v", hits[0].Score)
	}
	if hits[len(hits)-1].Score != 0.0 {
		t.Fatalf("expected bottom hit to normalize to 0.0, got %v", hits[len(hits)-1].Score)
	}
}

func TestSingleResultPageCarriesUnnormalizedScore(t *testing.T) {
	r, vectors, fts := setup(t)
	ctx := context.Background()

	mock := embedding.NewMockEngine()
	vec, _ := mock.Embed(ctx, []string{"authentication flow explained"}, embedding.ModeDocument)
	if err := vectors.Upsert(ctx, "s1", []vectorindex.Document{
		{ID: "doc-1", Content: "authentication flow explained", Embedding: vec[0], Metadata: map[string]string{"path": "auth.md", "file_type": "documentation"}},
	}); err != nil {
		t.Fatalf("Upsert vectors: %v", err)
	}
	if err := fts.Upsert("s1", []ftsindex.Document{
		{ID: "doc-1", Text: "authentication flow explained", FilePath: "auth.md", FileType: "documentation"},
	}); err != nil {
		t.Fatalf("Upsert fts: %v", err)
	}

	hits, err := r.Search(ctx, Query{Text: "authentication flow", StoreIDs: []string{"s1"}, Mode: ModeHybrid, Limit: 5})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	// Spec §8: single-result pages carry the unnormalized score, not a
	// forced 1.0.
	wantRaw := (vectorWeight/float64(rrfK+1) + ftsWeight/float64(rrfK+1)) *
		FileTypeBoost(classify.Documentation, ClassifyIntent("authentication flow")) *
		FrameworkBoost("authentication flow", "auth.md", "authentication flow explained")
	if hits[0].Score != wantRaw {
		t.Fatalf("expected unnormalized score %v, got %v", wantRaw, hits[0].Score)
	}
}

func TestDedupBySourceKeepsBestChunk(t *testing.T) {
	hits := []Hit{
		{ID: "a", StoreID: "s1", Path: "file.md", Content: "irrelevant filler", Score: 0.9},
		{ID: "b", StoreID: "s1", Path: "file.md", Content: "authentication flow tokens", Score: 0.5},
	}
	terms := distinctTerms("authentication flow tokens")
	deduped := dedupBySource(hits, terms)
	if len(deduped) != 1 {
		t.Fatalf("expected dedup to collapse to 1 hit, got %d", len(deduped))
	}
	if deduped[0].ID != "b" {
		t.Fatalf("expected chunk with more distinct query terms to win, got %s", deduped[0].ID)
	}
}

func TestVectorModeReturnsEmptyForUnindexedStore(t *testing.T) {
	r, _, _ := setup(t)
	hits, err := r.Search(context.Background(), Query{Text: "anything", StoreIDs: []string{"ghost"}, Mode: ModeVector, Limit: 5})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits for unindexed store, got %d", len(hits))
	}
}

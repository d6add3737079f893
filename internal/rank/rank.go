// Package rank implements the hybrid ranking engine: vector, full-text, and
// Reciprocal-Rank-Fusion hybrid search modes, each composed with
// context-aware file-type/intent/framework boosts, deduplicated by source,
// and min-max normalized (spec §4.4). Grounded on the teacher's parallel
// dual-searcher pattern (internal/mcp/searcher_coordinator.go Reload: both
// indexes queried/updated concurrently under a WaitGroup) — the teacher
// exposes vector and FTS search as two separate MCP tools with no fusion;
// the RRF fusion, boost composition, and dedup logic here are authored
// directly against spec §4.4/§4.4.1, since no pack example implements
// hybrid search fusion.
package rank

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/localcortex/lattice/internal/classify"
	"github.com/localcortex/lattice/internal/embedding"
	"github.com/localcortex/lattice/internal/errkit"
	"github.com/localcortex/lattice/internal/ftsindex"
	"github.com/localcortex/lattice/internal/vectorindex"
)

// Mode selects which underlying search strategies contribute to a result.
type Mode string

const (
	ModeVector Mode = "vector"
	ModeFTS    Mode = "fts"
	ModeHybrid Mode = "hybrid"
)

// RRF fusion constants (spec §4.4).
const (
	rrfK            = 20
	vectorWeight    = 0.6
	ftsWeight       = 0.4
	vectorFetchMult = 3
	hybridFetchMult = 2
)

// Query describes one search request.
type Query struct {
	Text     string
	StoreIDs []string
	Mode     Mode
	Limit    int
	MinScore float64
}

// Hit is one ranked, boosted, deduplicated search result.
type Hit struct {
	ID          string
	StoreID     string
	Content     string
	Path        string
	FileType    classify.Tag
	Score       float64
	VectorScore float64
	FTSScore    float64
}

// Ranker executes queries against the vector and full-text tables.
type Ranker struct {
	Vectors *vectorindex.Index
	FTS     *ftsindex.Index
	Engine  embedding.Engine
}

// New builds a Ranker over the given backing tables and embedding engine.
func New(vectors *vectorindex.Index, fts *ftsindex.Index, engine embedding.Engine) *Ranker {
	return &Ranker{Vectors: vectors, FTS: fts, Engine: engine}
}

// candidate accumulates cross-mode signal for one document id before
// fusion and boosting.
type candidate struct {
	id          string
	storeID     string
	content     string
	path        string
	fileType    classify.Tag
	vectorRank  int // 1-based; 0 means absent from the vector result list
	ftsRank     int // 1-based; 0 means absent from the fts result list
	vectorScore float64
	ftsScore    float64
	firstSeen   int // stable tie-break proxy for "earlier-inserted chunk"
}

// Search runs the requested mode and returns a ranked, boosted,
// deduplicated, normalized page of hits.
func (r *Ranker) Search(ctx context.Context, q Query) ([]Hit, error) {
	if q.Limit <= 0 {
		q.Limit = 15
	}
	intent := ClassifyIntent(q.Text)

	var candidates map[string]*candidate
	var err error

	switch q.Mode {
	case ModeVector:
		candidates, err = r.vectorCandidates(ctx, q, q.Limit*vectorFetchMult)
	case ModeFTS:
		candidates, err = r.ftsCandidates(q, q.Limit*vectorFetchMult)
	default:
		candidates, err = r.hybridCandidates(ctx, q, q.Limit*hybridFetchMult)
	}
	if err != nil {
		return nil, err
	}

	ordered := make([]*candidate, 0, len(candidates))
	for _, c := range candidates {
		ordered = append(ordered, c)
	}

	hits := make([]Hit, 0, len(ordered))
	for _, c := range ordered {
		score := fuse(c, q.Mode)
		score *= FileTypeBoost(c.fileType, intent)
		score *= FrameworkBoost(q.Text, c.path, c.content)
		hits = append(hits, Hit{
			ID:          c.id,
			StoreID:     c.storeID,
			Content:     c.content,
			Path:        c.path,
			FileType:    c.fileType,
			Score:       score,
			VectorScore: c.vectorScore,
			FTSScore:    c.ftsScore,
		})
	}

	queryTerms := distinctTerms(q.Text)
	hits = dedupBySource(hits, queryTerms)
	hits = sortHits(hits, queryTerms, ordered)

	if q.MinScore > 0 {
		filtered := hits[:0]
		for _, h := range hits {
			if h.Score >= q.MinScore {
				filtered = append(filtered, h)
			}
		}
		hits = filtered
	}

	if len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}

	normalize(hits)
	return hits, nil
}

// fuse computes the combined RRF score for one candidate given the active
// mode: single-list modes use the raw engine score directly (there is
// nothing to fuse), hybrid mode applies Reciprocal Rank Fusion.
func fuse(c *candidate, mode Mode) float64 {
	if mode == ModeVector {
		return float64(c.vectorScore)
	}
	if mode == ModeFTS {
		return c.ftsScore
	}

	var score float64
	if c.vectorRank > 0 {
		score += vectorWeight / float64(rrfK+c.vectorRank)
	}
	if c.ftsRank > 0 {
		score += ftsWeight / float64(rrfK+c.ftsRank)
	}
	return score
}

func (r *Ranker) vectorCandidates(ctx context.Context, q Query, perStoreLimit int) (map[string]*candidate, error) {
	vecs, err := r.Engine.Embed(ctx, []string{q.Text}, embedding.ModeQuery)
	if err != nil {
		return nil, errkit.Wrap(errkit.Transient, "embed query", err)
	}
	if len(vecs) == 0 {
		return nil, errkit.New(errkit.Transient, "no embedding returned for query")
	}
	queryVec := vecs[0]

	type storeResult struct {
		storeID string
		matches []vectorindex.Match
		err     error
	}
	results := make([]storeResult, len(q.StoreIDs))
	var wg sync.WaitGroup
	for i, storeID := range q.StoreIDs {
		wg.Add(1)
		go func(i int, storeID string) {
			defer wg.Done()
			matches, err := r.Vectors.Query(ctx, storeID, queryVec, perStoreLimit)
			results[i] = storeResult{storeID: storeID, matches: matches, err: err}
		}(i, storeID)
	}
	wg.Wait()

	out := map[string]*candidate{}
	seen := 0
	var all []struct {
		storeID string
		match   vectorindex.Match
	}
	for _, res := range results {
		if res.err != nil {
			return nil, res.err
		}
		for _, m := range res.matches {
			all = append(all, struct {
				storeID string
				match   vectorindex.Match
			}{res.storeID, m})
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].match.Similarity > all[j].match.Similarity })

	for rank, a := range all {
		m := a.match
		seen++
		out[m.ID] = &candidate{
			id:          m.ID,
			storeID:     a.storeID,
			content:     m.Content,
			path:        m.Metadata["path"],
			fileType:    classify.Tag(m.Metadata["file_type"]),
			vectorRank:  rank + 1,
			vectorScore: float64(m.Similarity),
			firstSeen:   seen,
		}
	}
	return out, nil
}

func (r *Ranker) ftsCandidates(q Query, perStoreLimit int) (map[string]*candidate, error) {
	var all []struct {
		storeID string
		match   ftsindex.Match
	}
	for _, storeID := range q.StoreIDs {
		matches, err := r.FTS.Search(storeID, q.Text, perStoreLimit)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			all = append(all, struct {
				storeID string
				match   ftsindex.Match
			}{storeID, m})
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].match.Score > all[j].match.Score })

	out := map[string]*candidate{}
	seen := 0
	for rank, a := range all {
		m := a.match
		seen++
		out[m.ID] = &candidate{
			id:        m.ID,
			storeID:   a.storeID,
			content:   m.Text,
			path:      m.FilePath,
			fileType:  classify.Tag(m.FileType),
			ftsRank:   rank + 1,
			ftsScore:  m.Score,
			firstSeen: seen,
		}
	}
	return out, nil
}

// hybridCandidates runs vector and fts search concurrently (grounded on the
// teacher's Reload pattern: both searchers updated in parallel under a
// WaitGroup) and merges their per-document rank/score signal.
func (r *Ranker) hybridCandidates(ctx context.Context, q Query, perStoreLimit int) (map[string]*candidate, error) {
	var vecOut, ftsOut map[string]*candidate
	var vecErr, ftsErr error

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		vecOut, vecErr = r.vectorCandidates(ctx, q, perStoreLimit)
	}()
	go func() {
		defer wg.Done()
		ftsOut, ftsErr = r.ftsCandidates(q, perStoreLimit)
	}()
	wg.Wait()

	if vecErr != nil {
		return nil, vecErr
	}
	if ftsErr != nil {
		return nil, ftsErr
	}

	merged := map[string]*candidate{}
	for _, c := range vecOut {
		cp := *c
		cp.firstSeen = c.vectorRank
		merged[cp.id] = &cp
	}
	for _, c := range ftsOut {
		if existing, ok := merged[c.id]; ok {
			existing.ftsRank = c.ftsRank
			existing.ftsScore = c.ftsScore
			if existing.content == "" {
				existing.content = c.content
			}
			if existing.path == "" {
				existing.path = c.path
			}
			if existing.fileType == "" {
				existing.fileType = c.fileType
			}
			continue
		}
		cp := *c
		cp.firstSeen = len(vecOut) + c.ftsRank
		merged[cp.id] = &cp
	}
	return merged, nil
}

// distinctTerms lowercases and extracts terms of length >= 3 (spec §4.4
// dedup/tie-break: "distinct query terms, case-insensitive, terms of
// length >= 3").
func distinctTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	seen := map[string]bool{}
	var out []string
	for _, f := range fields {
		if len(f) < 3 || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// countMatchingTerms returns how many of terms appear (case-insensitively)
// in content.
func countMatchingTerms(content string, terms []string) int {
	lower := strings.ToLower(content)
	count := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			count++
		}
	}
	return count
}

// dedupBySource collapses hits sharing the same path|url to the single
// representative containing the most distinct query terms, ties broken by
// higher fused score (spec §4.4 Deduplication by source).
func dedupBySource(hits []Hit, terms []string) []Hit {
	bySource := map[string]Hit{}
	order := []string{}
	for _, h := range hits {
		key := h.StoreID + "|" + h.Path
		existing, ok := bySource[key]
		if !ok {
			bySource[key] = h
			order = append(order, key)
			continue
		}
		if better(h, existing, terms) {
			bySource[key] = h
		}
	}
	out := make([]Hit, 0, len(order))
	for _, key := range order {
		out = append(out, bySource[key])
	}
	return out
}

func better(a, b Hit, terms []string) bool {
	aTerms := countMatchingTerms(a.Content, terms)
	bTerms := countMatchingTerms(b.Content, terms)
	if aTerms != bTerms {
		return aTerms > bTerms
	}
	return a.Score > b.Score
}

// sortHits applies the cross-mode tie-breaking rules (spec §4.4): higher
// score, then more distinct query terms, then earlier-inserted chunk.
func sortHits(hits []Hit, terms []string, candidates []*candidate) []Hit {
	firstSeen := map[string]int{}
	for _, c := range candidates {
		firstSeen[c.id] = c.firstSeen
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		aTerms := countMatchingTerms(a.Content, terms)
		bTerms := countMatchingTerms(b.Content, terms)
		if aTerms != bTerms {
			return aTerms > bTerms
		}
		return firstSeen[a.ID] < firstSeen[b.ID]
	})
	return hits
}

// normalize min-max normalizes scores to [0, 1] within the returned page so
// the top result always scores 1.0 (spec §4.4). Single-result pages carry
// the unnormalized score (spec §8 Ranker normalization).
func normalize(hits []Hit) {
	if len(hits) <= 1 {
		return
	}
	min, max := hits[0].Score, hits[0].Score
	for _, h := range hits {
		if h.Score < min {
			min = h.Score
		}
		if h.Score > max {
			max = h.Score
		}
	}
	spread := max - min
	for i := range hits {
		if spread == 0 {
			hits[i].Score = 1.0
			continue
		}
		hits[i].Score = (hits[i].Score - min) / spread
	}
}

package graphkb

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dominikbraun/graph"

	"github.com/localcortex/lattice/internal/classify"
)

// Graph is a store's in-memory call graph, backed by dominikbraun/graph for
// the vertex/edge structure and a pair of reverse indexes (callers/callees)
// for the O(1) lookups internal/enrich needs. It satisfies enrich's
// GraphProvider interface by duck typing — graphkb never imports enrich.
type Graph struct {
	mu       sync.RWMutex
	dir      string
	storeID  string
	g        graph.Graph[string, string]
	callers  map[string][]string
	callees  map[string][]string
	byFile   map[string][]Node
}

// New returns an empty graph for storeID. Call Load to populate it from
// disk, or Build to extract it fresh from a store's root directory.
func New(dir, storeID string) *Graph {
	return &Graph{
		dir:     dir,
		storeID: storeID,
		g:       graph.New(graph.StringHash, graph.Directed()),
		callers: map[string][]string{},
		callees: map[string][]string{},
		byFile:  map[string][]Node{},
	}
}

// Load reads the store's persisted graph file, if any, and rebuilds the
// in-memory indexes from it. A missing file leaves the graph empty, which
// is the expected state for stores with no Go sources or that have never
// had a graph built.
func (gr *Graph) Load() error {
	data, err := load(gr.dir, gr.storeID)
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	gr.rebuild(data)
	return nil
}

// Build walks rootPath, extracts call-graph data from every .go file, and
// both persists it to disk and loads it into memory. Non-Go files and
// unparseable Go files are skipped silently: the graph is best-effort
// enrichment, not something any indexing operation depends on succeeding.
func (gr *Graph) Build(rootPath string) error {
	var nodes []Node
	var edges []Edge

	files, err := discoverGoFiles(rootPath)
	if err != nil {
		return err
	}
	for _, path := range files {
		n, e, err := ExtractFile(rootPath, path)
		if err != nil {
			continue
		}
		nodes = append(nodes, n...)
		edges = append(edges, e...)
	}

	data := &Data{Nodes: nodes, Edges: edges}
	if err := save(gr.dir, gr.storeID, data); err != nil {
		return err
	}
	gr.rebuild(data)
	return nil
}

func (gr *Graph) rebuild(data *Data) {
	gr.mu.Lock()
	defer gr.mu.Unlock()

	gr.g = graph.New(graph.StringHash, graph.Directed())
	gr.callers = map[string][]string{}
	gr.callees = map[string][]string{}
	gr.byFile = map[string][]Node{}

	for _, n := range data.Nodes {
		_ = gr.g.AddVertex(n.ID)
		gr.byFile[n.File] = append(gr.byFile[n.File], n)
	}
	for _, e := range data.Edges {
		// AddEdge fails when the target isn't a known vertex (calls into
		// another file/package we didn't resolve, or a stdlib function);
		// the reverse indexes below still record the edge regardless, since
		// Usage/RelatedCalls only need the adjacency, not graph membership.
		_ = gr.g.AddEdge(e.From, e.To)
		gr.callees[e.From] = append(gr.callees[e.From], e.To)
		gr.callers[e.To] = append(gr.callers[e.To], e.From)
	}
}

// Usage returns how many call edges point at symbol and how many it makes,
// satisfying internal/enrich.GraphProvider. A symbol never seen in the
// graph reports zero for both, which is indistinguishable from "no graph
// built yet" by design — callers don't need to tell the two apart.
func (gr *Graph) Usage(symbol string) (calledBy, calls int) {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	id := gr.resolve(symbol)
	if id == "" {
		return 0, 0
	}
	return len(gr.callers[id]), len(gr.callees[id])
}

// RelatedCalls returns up to 10 call-graph neighbors of symbol: functions
// it calls and functions that call it, each tagged with the relationship
// and the file it lives in, satisfying internal/enrich.GraphProvider. The
// shape (File/Summary/Relationship) mirrors enrich.RelatedCode exactly but
// graphkb defines its own copy to avoid importing internal/enrich.
func (gr *Graph) RelatedCalls(symbol string) []RelatedCall {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	id := gr.resolve(symbol)
	if id == "" {
		return nil
	}

	var out []RelatedCall
	for _, calleeID := range gr.callees[id] {
		out = append(out, RelatedCall{
			File:         fileOf(calleeID),
			Summary:      symbolOf(calleeID),
			Relationship: "called by this",
		})
	}
	for _, callerID := range gr.callers[id] {
		out = append(out, RelatedCall{
			File:         fileOf(callerID),
			Summary:      symbolOf(callerID),
			Relationship: "calls this",
		})
	}
	if len(out) > 10 {
		out = out[:10]
	}
	return out
}

// RelatedCall is one call-graph neighbor; field-for-field compatible with
// internal/enrich.RelatedCode so callers can convert with a plain struct
// literal.
type RelatedCall struct {
	File         string
	Summary      string
	Relationship string
}

// resolve finds the node id matching symbol, which enrich supplies as
// "path:name" (see enrich.symbolID). Falls back to a bare-name suffix match
// so callers that only know the symbol name (not its file) still resolve,
// at the cost of ambiguity when the same name appears in multiple files.
func (gr *Graph) resolve(symbol string) string {
	if _, err := gr.g.Vertex(symbol); err == nil {
		return symbol
	}
	suffix := ":" + symbolOf(symbol)
	for _, nodes := range gr.byFile {
		for _, n := range nodes {
			if strings.HasSuffix(n.ID, suffix) || n.Symbol == symbolOf(symbol) {
				return n.ID
			}
		}
	}
	return ""
}

func fileOf(id string) string {
	if i := strings.LastIndex(id, ":"); i >= 0 {
		return id[:i]
	}
	return id
}

func symbolOf(id string) string {
	if i := strings.LastIndex(id, ":"); i >= 0 {
		return id[i+1:]
	}
	return id
}

func discoverGoFiles(rootPath string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != rootPath && classify.IsIgnoredDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ".go" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

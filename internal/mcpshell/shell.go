// Package mcpshell is the thin stdio tool-request/response channel (spec
// §6, an external collaborator per §1): it wires mark3labs/mcp-go's stdio
// server to the three tools the spec exposes to the agent — search,
// get_full_context, execute — delegating every non-trivial decision to
// internal/rank, internal/enrich, internal/resultcache, internal/store,
// and internal/job. Grounded on the teacher's internal/mcp/server.go
// (NewMCPServer/Serve/Close lifecycle, server.ServeStdio) and
// internal/mcp/tool.go + args.go (per-tool AddXTool registration,
// argsMap parsing helpers, mcp.NewToolResultText/Error envelopes).
package mcpshell

import (
	"context"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/server"

	"github.com/localcortex/lattice/internal/enrich"
	"github.com/localcortex/lattice/internal/graphkb"
	"github.com/localcortex/lattice/internal/job"
	"github.com/localcortex/lattice/internal/rank"
	"github.com/localcortex/lattice/internal/resultcache"
	"github.com/localcortex/lattice/internal/store"
)

// Shell owns every dependency the three MCP tools need and exposes them
// over stdio. Unlike the teacher's MCPServer, it has no file watcher: the
// spec's Non-goal on incremental re-indexing means content only changes
// through an explicit job, never a background watch of this process's own
// accord (watching is the CLI's `index --watch`, a separate process).
type Shell struct {
	Catalog *store.Catalog
	Ranker  *rank.Ranker
	Graphs  *graphkb.Manager // optional; nil degrades gracefully per spec §3
	Cache   *resultcache.Cache
	Jobs    *job.Manager
	Spawner WorkerSpawner
	DataDir string
	Log     *log.Logger

	mcp *server.MCPServer
}

// WorkerSpawner launches the detached index-job worker (cmd/lattice-worker)
// for one job id, per spec §4.7. Implemented by cmd/lattice so this package
// never shells out itself.
type WorkerSpawner interface {
	Spawn(jobID string) error
}

// graphAdapter satisfies enrich.GraphProvider by converting graphkb's
// RelatedCall records to enrich.RelatedCode ones; graphkb.Graph can't
// implement enrich.GraphProvider directly without importing internal/enrich
// (which would create an import cycle back through this package), so the
// two packages keep field-for-field-compatible but distinctly named
// structs and this adapter bridges them at the one call site that needs
// both.
type graphAdapter struct {
	g *graphkb.Graph
}

func (a graphAdapter) Usage(symbol string) (calledBy, calls int) {
	return a.g.Usage(symbol)
}

func (a graphAdapter) RelatedCalls(symbol string) []enrich.RelatedCode {
	calls := a.g.RelatedCalls(symbol)
	out := make([]enrich.RelatedCode, len(calls))
	for i, c := range calls {
		out[i] = enrich.RelatedCode{File: c.File, Summary: c.Summary, Relationship: c.Relationship}
	}
	return out
}

// graphProviderFor resolves storeID's graph provider, or nil if no code
// graph manager was configured or the store has none built yet.
func (sh *Shell) graphProviderFor(storeID string) enrich.GraphProvider {
	if sh.Graphs == nil {
		return nil
	}
	g, err := sh.Graphs.Get(storeID)
	if err != nil || g == nil {
		return nil
	}
	return graphAdapter{g: g}
}

// New builds a Shell and registers its tools with a fresh mcp-go server.
func New(catalog *store.Catalog, ranker *rank.Ranker, graphs *graphkb.Manager, cache *resultcache.Cache, jobs *job.Manager, spawner WorkerSpawner, dataDir string, logger *log.Logger) *Shell {
	if logger == nil {
		logger = log.Default()
	}
	sh := &Shell{
		Catalog: catalog,
		Ranker:  ranker,
		Graphs:  graphs,
		Cache:   cache,
		Jobs:    jobs,
		Spawner: spawner,
		DataDir: dataDir,
		Log:     logger,
	}

	sh.mcp = server.NewMCPServer("lattice", "1.0.0", server.WithToolCapabilities(true))
	sh.registerSearch()
	sh.registerGetFullContext()
	sh.registerExecute()
	return sh
}

// Serve starts the stdio MCP server and blocks until it exits.
func (sh *Shell) Serve(ctx context.Context) error {
	sh.Log.Printf("lattice MCP server starting on stdio")
	if err := server.ServeStdio(sh.mcp); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

// requerier adapts the ranker into resultcache.Requerier: a narrow FTS
// re-query scoped to one store, matching the spec §4.9 fallback ("a prefix
// of the previously cached content"). The embedding engine is unused on
// this path (FTS needs no query vector).
type requerier struct {
	ranker *rank.Ranker
}

func (r requerier) Requery(ctx context.Context, storeID, contentPrefix string) (resultcache.Entry, bool, error) {
	hits, err := r.ranker.Search(ctx, rank.Query{
		Text:     contentPrefix,
		StoreIDs: []string{storeID},
		Mode:     rank.ModeFTS,
		Limit:    1,
	})
	if err != nil {
		return resultcache.Entry{}, false, err
	}
	if len(hits) == 0 {
		return resultcache.Entry{}, false, nil
	}
	h := hits[0]
	return resultcache.Entry{ID: h.ID, StoreID: h.StoreID, Path: h.Path, Content: h.Content, Score: h.Score}, true, nil
}

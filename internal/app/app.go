// Package app wires the long-lived components (config, store catalog,
// vector/FTS/graph tables, embedding engine, ranker, result cache, job
// manager) the same way for every entry point — cmd/lattice's CLI
// subcommands, the MCP shell, and cmd/lattice-worker — so each process
// only differs in which commands it runs, not how it's assembled.
// Grounded on the teacher's internal/cli/mcp.go, which builds the
// database, embedding provider, and MCP server in one RunE before
// serving.
package app

import (
	"fmt"
	"path/filepath"

	"github.com/localcortex/lattice/internal/config"
	"github.com/localcortex/lattice/internal/embedding"
	"github.com/localcortex/lattice/internal/ftsindex"
	"github.com/localcortex/lattice/internal/graphkb"
	"github.com/localcortex/lattice/internal/indexer"
	"github.com/localcortex/lattice/internal/job"
	"github.com/localcortex/lattice/internal/rank"
	"github.com/localcortex/lattice/internal/resultcache"
	"github.com/localcortex/lattice/internal/store"
	"github.com/localcortex/lattice/internal/vectorindex"
)

// App bundles every component a command needs. Fields are exported so
// commands can reach into whichever subset they use.
type App struct {
	Config  *config.Config
	Catalog *store.Catalog
	Vectors *vectorindex.Index
	FTS     *ftsindex.Index
	Graphs  *graphkb.Manager
	Engine  embedding.Engine
	Ranker  *rank.Ranker
	Indexer *indexer.Indexer
	Cache   *resultcache.Cache
	Jobs    *job.Manager
}

// New loads configuration rooted at rootDir and constructs every shared
// component. TableDroppers are wired into the catalog so deleting a store
// cascades to its vector, FTS, and graph tables (spec §4.8).
func New(rootDir string) (*App, error) {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	vectors := vectorindex.New(filepath.Join(cfg.Storage.DataDir, "lance"), cfg.Storage.Compress)
	fts := ftsindex.New(filepath.Join(cfg.Storage.DataDir, "fts"))
	graphs := graphkb.NewManager(filepath.Join(cfg.Storage.DataDir, "code-graph"))

	catalog, err := store.Open(cfg.Storage.DataDir, store.Options{
		Droppers: []store.TableDropper{vectors, fts, graphs},
		Trees:    store.FSTreeRemover{},
	})
	if err != nil {
		return nil, fmt.Errorf("open store catalog: %w", err)
	}

	engine, err := newEngine(cfg)
	if err != nil {
		return nil, fmt.Errorf("build embedding engine: %w", err)
	}

	cache, err := resultcache.New(cfg.Cache.Capacity)
	if err != nil {
		return nil, fmt.Errorf("build result cache: %w", err)
	}

	jobs, err := job.NewManager(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open job manager: %w", err)
	}

	idx, err := indexer.NewWithOptions(vectors, fts, engine, indexer.Options{
		CodeChunkSize: cfg.Chunking.CodeChunkSize,
		DocChunkSize:  cfg.Chunking.DocChunkSize,
		Overlap:       cfg.Chunking.Overlap,
		CodeGlobs:     cfg.Paths.Code,
		DocGlobs:      cfg.Paths.Docs,
		IgnoreGlobs:   cfg.Paths.Ignore,
	})
	if err != nil {
		return nil, fmt.Errorf("build indexer: %w", err)
	}

	return &App{
		Config:  cfg,
		Catalog: catalog,
		Vectors: vectors,
		FTS:     fts,
		Graphs:  graphs,
		Engine:  engine,
		Ranker:  rank.New(vectors, fts, engine),
		Indexer: idx,
		Cache:   cache,
		Jobs:    jobs,
	}, nil
}

func newEngine(cfg *config.Config) (embedding.Engine, error) {
	switch cfg.Embedding.Provider {
	case "mock":
		return embedding.NewMockEngine(), nil
	case "http", "":
		return embedding.NewHTTPClient(cfg.Embedding.Endpoint, cfg.Embedding.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/localcortex/lattice/internal/errkit"
)

// TableDropper removes a store's backing vector/FTS table. Implemented by
// internal/vectorindex and internal/ftsindex; injected here to avoid an
// import cycle (Design Note: cascading delete, spec §3/§4.8).
type TableDropper interface {
	DropTable(storeID string) error
}

// TreeRemover removes a repo store's cloned working tree.
type TreeRemover interface {
	RemoveTree(path string) error
}

// Catalog is the in-memory mapping from store id to Store, backed by a
// single JSON document (stores.json) under dataDir.
type Catalog struct {
	dataDir string
	path    string

	mu      sync.Mutex
	stores  map[string]Store

	droppers []TableDropper
	trees    TreeRemover
}

// Options configures cascading cleanup hooks used by Delete.
type Options struct {
	Droppers []TableDropper
	Trees    TreeRemover
}

// Open loads (or creates) the catalog at <dataDir>/stores.json.
func Open(dataDir string, opts Options) (*Catalog, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, errkit.Wrap(errkit.Fatal, "create data directory", err)
	}
	c := &Catalog{
		dataDir:  dataDir,
		path:     filepath.Join(dataDir, "stores.json"),
		stores:   map[string]Store{},
		droppers: opts.Droppers,
		trees:    opts.Trees,
	}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) fileLock() *flock.Flock {
	return flock.New(c.path + ".lock")
}

func (c *Catalog) load() error {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errkit.Wrap(errkit.Fatal, "read store catalog", err)
	}
	var list []Store
	if len(data) > 0 {
		if err := json.Unmarshal(data, &list); err != nil {
			return errkit.Wrap(errkit.Fatal, "parse store catalog", err)
		}
	}
	for _, s := range list {
		c.stores[s.ID] = s
	}
	return nil
}

// save persists the catalog atomically (write to a temp file, then rename).
func (c *Catalog) save() error {
	lock := c.fileLock()
	if err := lock.Lock(); err != nil {
		return errkit.Wrap(errkit.Fatal, "lock store catalog", err)
	}
	defer lock.Unlock()

	list := make([]Store, 0, len(c.stores))
	for _, s := range c.stores {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return errkit.Wrap(errkit.Fatal, "marshal store catalog", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errkit.Wrap(errkit.Fatal, "write store catalog", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return errkit.Wrap(errkit.Fatal, "commit store catalog", err)
	}
	return nil
}

// CreateFile registers a new file store rooted at path.
func (c *Catalog) CreateFile(name, path string) (Store, error) {
	return c.create(Store{Kind: KindFile, Name: name, Path: path})
}

// CreateRepo registers a new repo store for url (optionally pinned to a
// branch). repoPath is the materialized clone directory; the callers (the
// execute tool's store:create and the CLI's store create-repo) register
// with an empty repoPath, clone, and then record it with SetRepoPath.
func (c *Catalog) CreateRepo(name, url, branch, repoPath string) (Store, error) {
	return c.create(Store{Kind: KindRepo, Name: name, URL: url, Branch: branch, RepoPath: repoPath})
}

// CreateWeb registers a new web store crawling from rootURL to depth.
func (c *Catalog) CreateWeb(name, rootURL string, depth int) (Store, error) {
	return c.create(Store{Kind: KindWeb, Name: name, URL: rootURL, Depth: depth})
}

func (c *Catalog) create(s Store) (Store, error) {
	if s.Name == "" {
		return Store{}, errkit.Validationf("store name must not be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.stores {
		if existing.Name == s.Name {
			return Store{}, errkit.Validationf("store name %q already exists", s.Name)
		}
	}

	now := time.Now()
	s.ID = uuid.NewString()
	s.CreatedAt = now
	s.UpdatedAt = now
	c.stores[s.ID] = s

	if err := c.save(); err != nil {
		delete(c.stores, s.ID)
		return Store{}, err
	}
	return s, nil
}

// SetRepoPath records where a repo store's working tree was cloned to.
// Repo stores are registered before the clone directory can be named
// (it's keyed by the store id the catalog assigns), so the store-creation
// paths call this once the clone at repos/<id>/ succeeds.
func (c *Catalog) SetRepoPath(id, repoPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.stores[id]
	if !ok {
		return errkit.NotFoundf("store %q not found", id)
	}
	s.RepoPath = repoPath
	s.UpdatedAt = time.Now()
	c.stores[id] = s
	return c.save()
}

// GetByIDOrName resolves a store by id first, falling back to name.
func (c *Catalog) GetByIDOrName(idOrName string) (Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.stores[idOrName]; ok {
		return s, nil
	}
	for _, s := range c.stores {
		if s.Name == idOrName {
			return s, nil
		}
	}
	return Store{}, errkit.NotFoundf("store %q not found", idOrName)
}

// List returns every store, optionally filtered by kind.
func (c *Catalog) List(kindFilter Kind) []Store {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Store, 0, len(c.stores))
	for _, s := range c.stores {
		if kindFilter != "" && s.Kind != kindFilter {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Delete removes a store, cascading to its vector/FTS table and (for repo
// stores with a non-empty url) its cloned working tree, in that order, per
// spec §4.8. The catalog record is removed only after cleanup of the other
// resources succeeds.
func (c *Catalog) Delete(idOrName string) error {
	s, err := c.GetByIDOrName(idOrName)
	if err != nil {
		return err
	}

	for _, d := range c.droppers {
		if err := d.DropTable(s.ID); err != nil {
			return errkit.Wrap(errkit.Fatal, fmt.Sprintf("drop table for store %s", s.ID), err)
		}
	}

	if s.Kind == KindRepo && s.URL != "" && s.RepoPath != "" && c.trees != nil {
		if err := c.trees.RemoveTree(s.RepoPath); err != nil {
			return errkit.Wrap(errkit.Fatal, fmt.Sprintf("remove working tree for store %s", s.ID), err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.stores, s.ID)
	return c.save()
}

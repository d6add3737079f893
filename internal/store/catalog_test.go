package store

import (
	"testing"

	"github.com/localcortex/lattice/internal/errkit"
)

type fakeDropper struct{ dropped []string }

func (f *fakeDropper) DropTable(storeID string) error {
	f.dropped = append(f.dropped, storeID)
	return nil
}

type fakeTrees struct{ removed []string }

func (f *fakeTrees) RemoveTree(path string) error {
	f.removed = append(f.removed, path)
	return nil
}

func TestCatalogCreateListDelete(t *testing.T) {
	dir := t.TempDir()
	dropper := &fakeDropper{}
	trees := &fakeTrees{}
	cat, err := Open(dir, Options{Droppers: []TableDropper{dropper}, Trees: trees})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	s, err := cat.CreateFile("myrepo", "/tmp/myrepo")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if s.ID == "" || s.CreatedAt.IsZero() {
		t.Fatal("expected populated id and timestamp")
	}

	got, err := cat.GetByIDOrName("myrepo")
	if err != nil || got.ID != s.ID {
		t.Fatalf("GetByIDOrName by name failed: %v", err)
	}
	got2, err := cat.GetByIDOrName(s.ID)
	if err != nil || got2.ID != s.ID {
		t.Fatalf("GetByIDOrName by id failed: %v", err)
	}

	if _, err := cat.CreateFile("myrepo", "/tmp/other"); !errkit.Is(err, errkit.Validation) {
		t.Fatalf("expected validation error for duplicate name, got %v", err)
	}

	all := cat.List("")
	if len(all) != 1 {
		t.Fatalf("expected 1 store, got %d", len(all))
	}

	if err := cat.Delete(s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(dropper.dropped) != 1 || dropper.dropped[0] != s.ID {
		t.Fatalf("expected DropTable called with %s, got %v", s.ID, dropper.dropped)
	}
	if _, err := cat.GetByIDOrName(s.ID); !errkit.Is(err, errkit.NotFound) {
		t.Fatalf("expected not-found after delete, got %v", err)
	}

	// Reopen to confirm persistence.
	cat2, err := Open(dir, Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if len(cat2.List("")) != 0 {
		t.Fatal("expected empty catalog after reopen post-delete")
	}
}

func TestCatalogDeleteCascadesRepoTree(t *testing.T) {
	dir := t.TempDir()
	dropper := &fakeDropper{}
	trees := &fakeTrees{}
	cat, err := Open(dir, Options{Droppers: []TableDropper{dropper}, Trees: trees})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	s, err := cat.CreateRepo("theirrepo", "https://example.com/r.git", "main", "/data/repos/"+"x")
	if err != nil {
		t.Fatalf("CreateRepo: %v", err)
	}

	if err := cat.Delete(s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(trees.removed) != 1 {
		t.Fatalf("expected working tree removal, got %v", trees.removed)
	}
}

func TestCatalogSetRepoPath(t *testing.T) {
	dir := t.TempDir()
	cat, err := Open(dir, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	s, err := cat.CreateRepo("cloned", "https://example.com/r.git", "", "")
	if err != nil {
		t.Fatalf("CreateRepo: %v", err)
	}
	if s.RepoPath != "" {
		t.Fatalf("expected empty RepoPath before clone, got %q", s.RepoPath)
	}

	want := dir + "/repos/" + s.ID
	if err := cat.SetRepoPath(s.ID, want); err != nil {
		t.Fatalf("SetRepoPath: %v", err)
	}

	got, err := cat.GetByIDOrName(s.ID)
	if err != nil {
		t.Fatalf("GetByIDOrName: %v", err)
	}
	if got.RepoPath != want {
		t.Fatalf("expected RepoPath %q, got %q", want, got.RepoPath)
	}
	if got.RootPath() != want {
		t.Fatalf("expected RootPath() to follow RepoPath, got %q", got.RootPath())
	}

	if err := cat.SetRepoPath("does-not-exist", want); !errkit.Is(err, errkit.NotFound) {
		t.Fatalf("expected not-found for unknown store id, got %v", err)
	}

	// Reopen to confirm the path persisted.
	cat2, err := Open(dir, Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got2, err := cat2.GetByIDOrName(s.ID)
	if err != nil {
		t.Fatalf("GetByIDOrName after reopen: %v", err)
	}
	if got2.RepoPath != want {
		t.Fatalf("expected RepoPath to survive reopen, got %q", got2.RepoPath)
	}
}

package graphkb

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleGoSource = `package sample

func login(user string) bool {
	return validate(user)
}

func validate(user string) bool {
	return user != ""
}

func authenticate(user string) bool {
	if !login(user) {
		return false
	}
	return true
}
`

func writeSampleRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "auth.go"), []byte(sampleGoSource), 0o644); err != nil {
		t.Fatalf("write sample source: %v", err)
	}
	return dir
}

func TestExtractFileFindsCallEdges(t *testing.T) {
	dir := writeSampleRepo(t)
	nodes, edges, err := ExtractFile(dir, filepath.Join(dir, "auth.go"))
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("expected 3 function nodes, got %d", len(nodes))
	}
	foundCall := false
	for _, e := range edges {
		if e.From == "auth.go:authenticate" && e.To == "auth.go:login" {
			foundCall = true
		}
	}
	if !foundCall {
		t.Fatalf("expected authenticate -> login edge, got %+v", edges)
	}
}

func TestGraphBuildAndUsage(t *testing.T) {
	dir := writeSampleRepo(t)
	graphDir := t.TempDir()

	g := New(graphDir, "s1")
	if err := g.Build(dir); err != nil {
		t.Fatalf("Build: %v", err)
	}

	calledBy, calls := g.Usage("auth.go:login")
	if calledBy != 1 {
		t.Fatalf("expected login to be called by 1 caller (authenticate), got calledBy=%d", calledBy)
	}
	if calls != 1 {
		t.Fatalf("expected login to call 1 function (validate), got calls=%d", calls)
	}

	related := g.RelatedCalls("auth.go:authenticate")
	if len(related) == 0 {
		t.Fatal("expected related calls for authenticate")
	}
}

func TestGraphPersistsAndReloads(t *testing.T) {
	dir := writeSampleRepo(t)
	graphDir := t.TempDir()

	g := New(graphDir, "s1")
	if err := g.Build(dir); err != nil {
		t.Fatalf("Build: %v", err)
	}

	reloaded := New(graphDir, "s1")
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	calledBy, _ := reloaded.Usage("auth.go:login")
	if calledBy == 0 {
		t.Fatal("expected reloaded graph to retain usage stats")
	}
}

func TestManagerDropTableRemovesFile(t *testing.T) {
	dir := writeSampleRepo(t)
	graphDir := t.TempDir()

	m := NewManager(graphDir)
	if err := m.Build("s1", dir); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := os.Stat(dataPath(graphDir, "s1")); err != nil {
		t.Fatalf("expected graph file to exist: %v", err)
	}
	if err := m.DropTable("s1"); err != nil {
		t.Fatalf("DropTable: %v", err)
	}
	if _, err := os.Stat(dataPath(graphDir, "s1")); !os.IsNotExist(err) {
		t.Fatalf("expected graph file to be removed, got err=%v", err)
	}
}

func TestManagerGetDegradesGracefullyForUnknownStore(t *testing.T) {
	m := NewManager(t.TempDir())
	g, err := m.Get("ghost")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	calledBy, calls := g.Usage("whatever.go:Foo")
	if calledBy != 0 || calls != 0 {
		t.Fatalf("expected zero usage for a store with no graph, got %d/%d", calledBy, calls)
	}
}

package mcpshell

import (
	"context"
	"encoding/json"
	"log"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/localcortex/lattice/internal/job"
	"github.com/localcortex/lattice/internal/rank"
	"github.com/localcortex/lattice/internal/resultcache"
	"github.com/localcortex/lattice/internal/store"
)

type fakeSpawner struct{ spawned []string }

func (f *fakeSpawner) Spawn(jobID string) error {
	f.spawned = append(f.spawned, jobID)
	return nil
}

func newTestShell(t *testing.T) (*Shell, *fakeSpawner) {
	t.Helper()
	dir := t.TempDir()

	cat, err := store.Open(dir, store.Options{})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	jobs, err := job.NewManager(dir)
	if err != nil {
		t.Fatalf("job.NewManager: %v", err)
	}
	cache, err := resultcache.New(10)
	if err != nil {
		t.Fatalf("resultcache.New: %v", err)
	}
	spawner := &fakeSpawner{}

	sh := New(cat, &rank.Ranker{}, nil, cache, jobs, spawner, dir, log.Default())
	return sh, spawner
}

func callExecute(t *testing.T, sh *Shell, command string, args map[string]interface{}) executeResponse {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{"command": command, "args": args}

	result, err := sh.handleExecute(context.Background(), req)
	if err != nil {
		t.Fatalf("handleExecute: %v", err)
	}
	if len(result.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(result.Content))
	}
	textContent, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}

	var resp executeResponse
	if err := json.Unmarshal([]byte(textContent.Text), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return resp
}

func TestExecute_UnknownCommand(t *testing.T) {
	sh, _ := newTestShell(t)
	resp := callExecute(t, sh, "nonsense", nil)
	if resp.Error == "" {
		t.Fatal("expected error for unknown command")
	}
}

func TestExecute_StoreLifecycle(t *testing.T) {
	sh, spawner := newTestShell(t)

	dataDir := t.TempDir()
	createResp := callExecute(t, sh, "store:create", map[string]interface{}{
		"name": "docs", "type": "file", "path": dataDir,
	})
	if createResp.Error != "" {
		t.Fatalf("store:create failed: %s", createResp.Error)
	}

	listResp := callExecute(t, sh, "stores", nil)
	if listResp.Error != "" {
		t.Fatalf("stores failed: %s", listResp.Error)
	}
	stores, ok := listResp.Result.([]interface{})
	if !ok || len(stores) != 1 {
		t.Fatalf("expected 1 store, got %#v", listResp.Result)
	}

	infoResp := callExecute(t, sh, "store:info", map[string]interface{}{"store": "docs"})
	if infoResp.Error != "" {
		t.Fatalf("store:info failed: %s", infoResp.Error)
	}

	indexResp := callExecute(t, sh, "store:index", map[string]interface{}{"store": "docs"})
	if indexResp.Error != "" {
		t.Fatalf("store:index failed: %s", indexResp.Error)
	}
	if len(spawner.spawned) != 1 {
		t.Fatalf("expected worker spawned once, got %d", len(spawner.spawned))
	}

	deleteResp := callExecute(t, sh, "store:delete", map[string]interface{}{"store": "docs"})
	if deleteResp.Error != "" {
		t.Fatalf("store:delete failed: %s", deleteResp.Error)
	}

	listResp2 := callExecute(t, sh, "stores", nil)
	if stores2, ok := listResp2.Result.([]interface{}); !ok || len(stores2) != 0 {
		t.Fatalf("expected 0 stores after delete, got %#v", listResp2.Result)
	}
}

func TestExecute_StoreCreate_RejectsUnknownType(t *testing.T) {
	sh, _ := newTestShell(t)
	resp := callExecute(t, sh, "store:create", map[string]interface{}{"name": "x", "type": "ftp"})
	if resp.Error == "" {
		t.Fatal("expected validation error for unknown store type")
	}
}

func TestExecute_JobLifecycle(t *testing.T) {
	sh, _ := newTestShell(t)

	dataDir := t.TempDir()
	callExecute(t, sh, "store:create", map[string]interface{}{"name": "docs", "type": "file", "path": dataDir})
	indexResp := callExecute(t, sh, "store:index", map[string]interface{}{"store": "docs"})

	result, ok := indexResp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("expected job object, got %#v", indexResp.Result)
	}
	jobID, _ := result["id"].(string)
	if jobID == "" {
		t.Fatal("expected a job id")
	}

	statusResp := callExecute(t, sh, "job:status", map[string]interface{}{"job": jobID})
	if statusResp.Error != "" {
		t.Fatalf("job:status failed: %s", statusResp.Error)
	}

	cancelResp := callExecute(t, sh, "job:cancel", map[string]interface{}{"job": jobID})
	if cancelResp.Error != "" {
		t.Fatalf("job:cancel failed: %s", cancelResp.Error)
	}

	jobsResp := callExecute(t, sh, "jobs", map[string]interface{}{"status": string(job.StatusCancelled)})
	jobsList, ok := jobsResp.Result.([]interface{})
	if !ok || len(jobsList) != 1 {
		t.Fatalf("expected 1 cancelled job, got %#v", jobsResp.Result)
	}
}

func TestExecute_HelpAndCommands(t *testing.T) {
	sh, _ := newTestShell(t)

	commandsResp := callExecute(t, sh, "commands", nil)
	if commandsResp.Error != "" {
		t.Fatalf("commands failed: %s", commandsResp.Error)
	}

	helpResp := callExecute(t, sh, "help", map[string]interface{}{"command": "store:create"})
	if helpResp.Error != "" {
		t.Fatalf("help failed: %s", helpResp.Error)
	}

	unknownHelp := callExecute(t, sh, "help", map[string]interface{}{"command": "nope"})
	if unknownHelp.Error == "" {
		t.Fatal("expected error for unknown help topic")
	}
}

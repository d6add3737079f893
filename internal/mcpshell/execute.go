package mcpshell

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/localcortex/lattice/internal/errkit"
	"github.com/localcortex/lattice/internal/job"
	"github.com/localcortex/lattice/internal/store"
)

// subcommand is one entry in the execute registry (Design Note: "Registry
// of execute subcommands"): a schema description shown by help/commands and
// a handler producing the JSON-able response.
type subcommand struct {
	schema  string
	handler func(ctx context.Context, sh *Shell, args map[string]interface{}) (any, error)
}

// registry is populated once at package init and never mutated afterward;
// unknown names return a typed error listing the known ones.
var registry = map[string]subcommand{
	"stores":        {schema: "{}", handler: cmdStores},
	"store:info":    {schema: "{store: string}", handler: cmdStoreInfo},
	"store:create":  {schema: "{name: string, type: file|repo|web, path?, url?, branch?, depth?}", handler: cmdStoreCreate},
	"store:index":   {schema: "{store: string}", handler: cmdStoreIndex},
	"store:delete":  {schema: "{store: string}", handler: cmdStoreDelete},
	"jobs":          {schema: "{status?: string}", handler: cmdJobs},
	"job:status":    {schema: "{job: string}", handler: cmdJobStatus},
	"job:cancel":    {schema: "{job: string}", handler: cmdJobCancel},
	"help":          {schema: "{command?: string}", handler: cmdHelp},
	"commands":      {schema: "{}", handler: cmdCommands},
}

type executeResponse struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (sh *Shell) registerExecute() {
	tool := mcp.NewTool(
		"execute",
		mcp.WithDescription("Dispatch a lattice management subcommand: stores, store:info, store:create, store:index, store:delete, jobs, job:status, job:cancel, help, commands."),
		mcp.WithString("command", mcp.Required(), mcp.Description("Subcommand name")),
		mcp.WithObject("args", mcp.Description("Subcommand arguments")),
	)
	sh.mcp.AddTool(tool, sh.handleExecute)
}

func (sh *Shell) handleExecute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	argsMap, _ := request.Params.Arguments.(map[string]interface{})
	command, _ := argsMap["command"].(string)

	sub, ok := registry[command]
	if !ok {
		return textEnvelope(executeResponse{Error: fmt.Sprintf("unknown command %q; known commands: %s", command, knownCommandNames())})
	}

	subArgs, _ := argsMap["args"].(map[string]interface{})
	if subArgs == nil {
		subArgs = map[string]interface{}{}
	}

	result, err := sub.handler(ctx, sh, subArgs)
	if err != nil {
		return textEnvelope(executeResponse{Error: err.Error()})
	}
	return textEnvelope(executeResponse{Result: result})
}

func knownCommandNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func stringArg(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", errkit.Validationf("%s parameter is required", key)
	}
	return v, nil
}

func cmdStores(_ context.Context, sh *Shell, _ map[string]interface{}) (any, error) {
	return sh.Catalog.List(""), nil
}

func cmdStoreInfo(_ context.Context, sh *Shell, args map[string]interface{}) (any, error) {
	name, err := stringArg(args, "store")
	if err != nil {
		return nil, err
	}
	return sh.Catalog.GetByIDOrName(name)
}

func cmdStoreCreate(_ context.Context, sh *Shell, args map[string]interface{}) (any, error) {
	name, err := stringArg(args, "name")
	if err != nil {
		return nil, err
	}
	kind, _ := args["type"].(string)

	switch store.Kind(kind) {
	case store.KindFile:
		path, err := stringArg(args, "path")
		if err != nil {
			return nil, err
		}
		return sh.Catalog.CreateFile(name, path)

	case store.KindRepo:
		url, err := stringArg(args, "url")
		if err != nil {
			return nil, err
		}
		branch, _ := args["branch"].(string)
		s, err := sh.Catalog.CreateRepo(name, url, branch, "")
		if err != nil {
			return nil, err
		}
		repoPath := filepath.Join(sh.DataDir, "repos", s.ID)
		if err := store.CloneRepo(url, branch, repoPath); err != nil {
			return nil, err
		}
		if err := sh.Catalog.SetRepoPath(s.ID, repoPath); err != nil {
			return nil, err
		}
		s.RepoPath = repoPath
		return s, nil

	case store.KindWeb:
		url, err := stringArg(args, "url")
		if err != nil {
			return nil, err
		}
		depth := 1
		if d, ok := args["depth"].(float64); ok {
			depth = int(d)
		}
		return sh.Catalog.CreateWeb(name, url, depth)

	default:
		return nil, errkit.Validationf("type must be one of file, repo, web (got %q)", kind)
	}
}

func cmdStoreIndex(ctx context.Context, sh *Shell, args map[string]interface{}) (any, error) {
	name, err := stringArg(args, "store")
	if err != nil {
		return nil, err
	}
	s, err := sh.Catalog.GetByIDOrName(name)
	if err != nil {
		return nil, err
	}
	if s.RootPath() == "" {
		return nil, errkit.Validationf("store %q has no indexable root path (web stores are ingested by an external crawler, out of scope here)", s.Name)
	}

	j, err := sh.Jobs.CreateJob(job.TypeReindex, s.ID, s.Name, "queued for indexing")
	if err != nil {
		return nil, err
	}
	if sh.Spawner != nil {
		if err := sh.Spawner.Spawn(j.ID); err != nil {
			return nil, errkit.Wrap(errkit.Fatal, "spawn index worker", err)
		}
	}
	return j, nil
}

func cmdStoreDelete(_ context.Context, sh *Shell, args map[string]interface{}) (any, error) {
	name, err := stringArg(args, "store")
	if err != nil {
		return nil, err
	}
	if err := sh.Catalog.Delete(name); err != nil {
		return nil, err
	}
	return map[string]string{"deleted": name}, nil
}

func cmdJobs(_ context.Context, sh *Shell, args map[string]interface{}) (any, error) {
	status, _ := args["status"].(string)
	return sh.Jobs.ListJobs(job.Status(status)), nil
}

func cmdJobStatus(_ context.Context, sh *Shell, args map[string]interface{}) (any, error) {
	id, err := stringArg(args, "job")
	if err != nil {
		return nil, err
	}
	return sh.Jobs.GetJob(id)
}

func cmdJobCancel(_ context.Context, sh *Shell, args map[string]interface{}) (any, error) {
	id, err := stringArg(args, "job")
	if err != nil {
		return nil, err
	}
	return sh.Jobs.CancelJob(id)
}

func cmdHelp(_ context.Context, _ *Shell, args map[string]interface{}) (any, error) {
	if name, ok := args["command"].(string); ok && name != "" {
		sub, ok := registry[name]
		if !ok {
			return nil, errkit.NotFoundf("unknown command %q", name)
		}
		return map[string]string{"command": name, "schema": sub.schema}, nil
	}
	return cmdCommands(nil, nil, nil)
}

func cmdCommands(_ context.Context, _ *Shell, _ map[string]interface{}) (any, error) {
	names := knownCommandNames()
	out := make(map[string]string, len(names))
	for _, name := range names {
		out[name] = registry[name].schema
	}
	return out, nil
}

package mcpshell

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/localcortex/lattice/internal/enrich"
	"github.com/localcortex/lattice/internal/rank"
	"github.com/localcortex/lattice/internal/resultcache"
)

// searchResultPayload is one hit in a search response, shaped after spec
// §4.5's progressive layers plus the identifying fields get_full_context
// needs to look the hit back up.
type searchResultPayload struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Summary  enrich.Summary    `json:"summary"`
	Context  *enrich.ContextInfo `json:"context,omitempty"`
	Full     *enrich.FullInfo    `json:"full,omitempty"`
}

// searchResponse is the envelope returned by the search tool (spec §6).
type searchResponse struct {
	Results      []searchResultPayload `json:"results"`
	TotalResults int                   `json:"totalResults"`
	Mode         string                `json:"mode"`
	TimeMs       int64                 `json:"timeMs"`
	Error        string                `json:"error,omitempty"`
}

func (sh *Shell) registerSearch() {
	tool := mcp.NewTool(
		"search",
		mcp.WithDescription("Search the indexed code knowledge base with hybrid vector+full-text ranking, layered result context, and file-type/intent/framework aware boosting."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural-language or identifier search query")),
		mcp.WithString("intent", mcp.Description("Accepted but not applied: the ranker always classifies intent (how-to, implementation, conceptual, comparison, debugging) from the query text")),
		mcp.WithString("detail", mcp.Description("Progressive detail level: minimal (default), contextual, or full")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
		mcp.WithArray("stores", mcp.Description("Store ids or names to search; defaults to every known store")),
	)
	sh.mcp.AddTool(tool, sh.handleSearch)
}

func (sh *Shell) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	argsMap, _ := request.Params.Arguments.(map[string]interface{})

	query, _ := argsMap["query"].(string)
	if strings.TrimSpace(query) == "" {
		return textEnvelope(searchResponse{TimeMs: time.Since(start).Milliseconds(), Error: "query must not be empty"})
	}

	detail := enrich.LevelMinimal
	if d, ok := argsMap["detail"].(string); ok && d != "" {
		switch enrich.Level(d) {
		case enrich.LevelMinimal, enrich.LevelContextual, enrich.LevelFull:
			detail = enrich.Level(d)
		default:
			return textEnvelope(searchResponse{TimeMs: time.Since(start).Milliseconds(), Error: "invalid detail level: " + d})
		}
	}

	limit := 10
	if l, ok := argsMap["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	storeIDs, err := sh.resolveStoreIDs(argsMap["stores"])
	if err != nil {
		return textEnvelope(searchResponse{TimeMs: time.Since(start).Milliseconds(), Error: err.Error()})
	}
	if len(storeIDs) == 0 {
		return textEnvelope(searchResponse{TimeMs: time.Since(start).Milliseconds(), Mode: string(rank.ModeHybrid), Error: "no stores available to search"})
	}

	hits, err := sh.Ranker.Search(ctx, rank.Query{Text: query, StoreIDs: storeIDs, Mode: rank.ModeHybrid, Limit: limit})
	if err != nil {
		// spec §7: searches never throw through the tool boundary.
		return textEnvelope(searchResponse{TimeMs: time.Since(start).Milliseconds(), Mode: string(rank.ModeHybrid), Error: err.Error()})
	}

	results := make([]searchResultPayload, 0, len(hits))
	for _, h := range hits {
		in := enrich.Input{Content: h.Content, Path: h.Path, FileType: h.FileType, Query: query}
		// Enrich once at full detail: the cache always holds the richest
		// layer so a later get_full_context never has to recompute it, and
		// the response below just trims to whatever the caller asked for.
		full := enrich.Enrich(in, enrich.LevelFull, sh.graphProviderFor(h.StoreID))

		sh.Cache.Put(resultcache.Entry{
			ID:      h.ID,
			StoreID: h.StoreID,
			Path:    h.Path,
			Content: h.Content,
			Score:   h.Score,
			Full:    full,
		})

		payload := searchResultPayload{ID: h.ID, Score: h.Score, Summary: full.Summary}
		if detail == enrich.LevelContextual || detail == enrich.LevelFull {
			payload.Context = full.Context
		}
		if detail == enrich.LevelFull {
			payload.Full = full.Full
		}
		results = append(results, payload)
	}

	return textEnvelope(searchResponse{
		Results:      results,
		TotalResults: len(results),
		Mode:         string(rank.ModeHybrid),
		TimeMs:       time.Since(start).Milliseconds(),
	})
}

// resolveStoreIDs turns the "stores" argument (a list of ids or names, or
// absent) into a concrete list of store ids from the catalog.
func (sh *Shell) resolveStoreIDs(arg interface{}) ([]string, error) {
	all := sh.Catalog.List("")
	raw, ok := arg.([]interface{})
	if !ok || len(raw) == 0 {
		ids := make([]string, len(all))
		for i, s := range all {
			ids[i] = s.ID
		}
		return ids, nil
	}

	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		name, _ := v.(string)
		s, err := sh.Catalog.GetByIDOrName(name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, s.ID)
	}
	return ids, nil
}

// fullContextResponse is the get_full_context tool's envelope.
type fullContextResponse struct {
	ID      string              `json:"id"`
	Summary *enrich.Summary     `json:"summary,omitempty"`
	Context *enrich.ContextInfo `json:"context,omitempty"`
	Full    *enrich.FullInfo    `json:"full,omitempty"`
	Error   string              `json:"error,omitempty"`
}

func (sh *Shell) registerGetFullContext() {
	tool := mcp.NewTool(
		"get_full_context",
		mcp.WithDescription("Fetch a previously returned search result elevated to full detail, by result id. Serves from the result cache when available, otherwise re-queries the originating store."),
		mcp.WithString("resultId", mcp.Required(), mcp.Description("The id field from a prior search result")),
	)
	sh.mcp.AddTool(tool, sh.handleGetFullContext)
}

func (sh *Shell) handleGetFullContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	argsMap, _ := request.Params.Arguments.(map[string]interface{})
	resultID, _ := argsMap["resultId"].(string)
	if resultID == "" {
		return textEnvelope(fullContextResponse{Error: "resultId parameter is required"})
	}

	entry, err := sh.Cache.GetOrRequery(ctx, resultID, requerier{ranker: sh.Ranker})
	if err != nil {
		return textEnvelope(fullContextResponse{ID: resultID, Error: err.Error()})
	}

	full, ok := entry.Full.(enrich.Result)
	if !ok {
		in := enrich.Input{Content: entry.Content, Path: entry.Path, Query: ""}
		full = enrich.Enrich(in, enrich.LevelFull, sh.graphProviderFor(entry.StoreID))
	}

	return textEnvelope(fullContextResponse{ID: entry.ID, Summary: &full.Summary, Context: full.Context, Full: full.Full})
}

func textEnvelope(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

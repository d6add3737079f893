// Package embedding treats the embedding model as an opaque function
// producing fixed-dimension float vectors (spec §1). Nothing here cares how
// the vectors are produced — only that Embed is deterministic for a given
// engine/model pairing and Dimensions is stable.
package embedding

import "context"

// Engine is the injected embedding function used by the indexer and the
// ranker's vector-mode query path (Design Note: "Callback-driven progress"
// sibling — here the dependency runs the other direction, called by us).
type Engine interface {
	// Embed converts texts into fixed-dimension vectors, one per input,
	// in the same order. mode is "document" for indexing-time embedding or
	// "query" for search-time embedding; some backends use distinct prompts
	// for each.
	Embed(ctx context.Context, texts []string, mode string) ([][]float32, error)
	Dimensions() int
	Close() error
}

const (
	ModeDocument = "document"
	ModeQuery    = "query"
)

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/localcortex/lattice/internal/enrich"
	"github.com/localcortex/lattice/internal/rank"
)

var (
	searchStores []string
	searchMode   string
	searchLimit  int
	searchDetail string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed stores with hybrid vector + full-text ranking",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringSliceVar(&searchStores, "store", nil, "restrict search to these store ids/names (default: all)")
	searchCmd.Flags().StringVar(&searchMode, "mode", string(rank.ModeHybrid), "search mode: vector, fts, or hybrid")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum number of results")
	searchCmd.Flags().StringVar(&searchDetail, "detail", string(enrich.LevelContextual), "result detail level: minimal, contextual, or full")
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}

	storeIDs := searchStores
	if len(storeIDs) == 0 {
		for _, s := range a.Catalog.List("") {
			storeIDs = append(storeIDs, s.ID)
		}
	} else {
		resolved := make([]string, 0, len(storeIDs))
		for _, name := range storeIDs {
			s, err := a.Catalog.GetByIDOrName(name)
			if err != nil {
				return err
			}
			resolved = append(resolved, s.ID)
		}
		storeIDs = resolved
	}

	hits, err := a.Ranker.Search(context.Background(), rank.Query{
		Text:     args[0],
		StoreIDs: storeIDs,
		Mode:     rank.Mode(searchMode),
		Limit:    searchLimit,
	})
	if err != nil {
		return err
	}

	level := enrich.Level(searchDetail)
	type resultView struct {
		ID      string              `json:"id"`
		Score   float64             `json:"score"`
		Path    string              `json:"path"`
		Summary enrich.Summary      `json:"summary"`
		Context *enrich.ContextInfo `json:"context,omitempty"`
		Full    *enrich.FullInfo    `json:"full,omitempty"`
	}

	views := make([]resultView, 0, len(hits))
	for _, h := range hits {
		full := enrich.Enrich(enrich.Input{Content: h.Content, Path: h.Path, FileType: h.FileType, Query: args[0]}, enrich.LevelFull, nil)
		v := resultView{ID: h.ID, Score: h.Score, Path: h.Path, Summary: full.Summary}
		if level == enrich.LevelContextual || level == enrich.LevelFull {
			v.Context = full.Context
		}
		if level == enrich.LevelFull {
			v.Full = full.Full
		}
		views = append(views, v)
	}

	if len(views) == 0 {
		fmt.Println("no results")
		return nil
	}
	return printJSON(views)
}

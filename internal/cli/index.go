package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/localcortex/lattice/internal/app"
	"github.com/localcortex/lattice/internal/indexer"
	"github.com/localcortex/lattice/internal/watch"
)

var watchFlag bool

var indexCmd = &cobra.Command{
	Use:   "index <store>",
	Short: "Index a store's content into its vector and full-text tables",
	Long: `Index walks a store's root directory, classifies and chunks every
accepted file, embeds the chunks, and writes them into the store's vector
and full-text tables. An optional code call graph is rebuilt for repo and
file stores afterward.

With --watch, lattice keeps watching the store's root directory and
re-indexes it on every debounced batch of file changes, until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "watch the store's root directory and re-index on change")
}

func runIndex(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}

	s, err := a.Catalog.GetByIDOrName(args[0])
	if err != nil {
		return err
	}
	if s.RootPath() == "" {
		return fmt.Errorf("store %q has no indexable root path (web stores are ingested by an external crawler, out of scope here)", s.Name)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\ninterrupted, cancelling...")
		cancel()
	}()

	runOnce := func() error {
		result, err := indexOneStore(ctx, a, s.ID, s.RootPath())
		if err != nil {
			return err
		}
		if a.Graphs != nil {
			if err := a.Graphs.Build(s.ID, s.RootPath()); err != nil && !quietFlag {
				fmt.Fprintf(os.Stderr, "warning: code graph build failed: %v\n", err)
			}
		}
		if !quietFlag {
			fmt.Printf("indexed %d documents, %d chunks in %dms\n", result.DocumentsIndexed, result.ChunksCreated, result.TimeMs)
		}
		return nil
	}

	if err := runOnce(); err != nil {
		return err
	}
	if !watchFlag {
		return nil
	}

	if !quietFlag {
		fmt.Printf("watching %s for changes (ctrl-c to stop)...\n", s.RootPath())
	}
	w, err := watch.New(s.RootPath(), 500*time.Millisecond, func() {
		if err := runOnce(); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "re-index failed: %v\n", err)
		}
	})
	if err != nil {
		return err
	}
	defer w.Stop()

	go w.Run()
	<-ctx.Done()
	return nil
}

func indexOneStore(ctx context.Context, a *app.App, storeID, rootPath string) (indexer.Result, error) {
	var bar *progressbar.ProgressBar
	progress := func(e indexer.Event) {
		if quietFlag {
			return
		}
		switch e.Type {
		case indexer.EventStart:
			bar = progressbar.NewOptions(e.Total,
				progressbar.OptionSetDescription("indexing"),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionThrottle(65*time.Millisecond),
				progressbar.OptionShowElapsedTimeOnFinish(),
			)
		case indexer.EventProgress:
			if bar != nil {
				bar.Set(e.Current)
			}
		case indexer.EventError:
			fmt.Fprintf(os.Stderr, "\nwarning: %s\n", e.Message)
		case indexer.EventComplete:
			if bar != nil {
				bar.Finish()
				fmt.Println()
			}
		}
	}
	return a.Indexer.IndexStore(ctx, storeID, rootPath, progress)
}

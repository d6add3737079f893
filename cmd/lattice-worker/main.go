// Command lattice-worker is the detached process the MCP shell's execute
// tool spawns to run one indexing job out-of-process (spec §4.7); the CLI
// `index` command indexes in-process instead, grounded on the teacher's daemon model (internal/daemon) of a
// singly-spawned background process that the parent doesn't wait on.
//
// Usage: lattice-worker <job-id>, with LATTICE_ROOT_DIR set in the
// environment to the project root the job's store lives under.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/localcortex/lattice/internal/app"
	"github.com/localcortex/lattice/internal/indexer"
	"github.com/localcortex/lattice/internal/job"
)

func main() {
	logger := log.New(os.Stderr, "lattice-worker ", log.LstdFlags)

	if len(os.Args) < 2 {
		logger.Fatal("usage: lattice-worker <job-id>")
	}
	jobID := os.Args[1]

	rootDir := os.Getenv("LATTICE_ROOT_DIR")
	if rootDir == "" {
		var err error
		rootDir, err = os.Getwd()
		if err != nil {
			logger.Fatalf("resolve root dir: %v", err)
		}
	}

	a, err := app.New(rootDir)
	if err != nil {
		logger.Fatalf("initialize lattice: %v", err)
	}

	if err := run(a, jobID, logger); err != nil {
		logger.Fatalf("job %s failed: %v", jobID, err)
	}
}

func run(a *app.App, jobID string, logger *log.Logger) error {
	j, err := a.Jobs.GetJob(jobID)
	if err != nil {
		return err
	}

	s, err := a.Catalog.GetByIDOrName(j.StoreID)
	if err != nil {
		return markFailed(a, jobID, err)
	}

	if s.RootPath() == "" {
		return markFailed(a, jobID, fmt.Errorf("store %q has no indexable root path", s.Name))
	}

	running := job.StatusRunning
	startMsg := "indexing started"
	if _, err := a.Jobs.Update(jobID, &running, &startMsg, nil, nil); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pollForCancellation(ctx, cancel, a.Jobs, jobID)

	// Re-index always drops and rebuilds a store's tables from scratch
	// (Open Question decision: no incremental diffing, simpler and
	// correct at the cost of re-embedding unchanged files).
	if err := a.Vectors.DropTable(s.ID); err != nil {
		return markFailed(a, jobID, err)
	}
	if err := a.FTS.DropTable(s.ID); err != nil {
		return markFailed(a, jobID, err)
	}

	progress := func(e indexer.Event) {
		if e.Type != indexer.EventProgress || e.Total == 0 {
			return
		}
		percent := e.Current * 100 / e.Total
		msg := e.Message
		a.Jobs.Update(jobID, nil, &msg, &percent, nil)
	}

	result, err := a.Indexer.IndexStore(ctx, s.ID, s.RootPath(), progress)
	if err != nil {
		if ctx.Err() != nil {
			logger.Printf("job %s cancelled", jobID)
			return nil
		}
		return markFailed(a, jobID, err)
	}

	if a.Graphs != nil {
		if err := a.Graphs.Build(s.ID, s.RootPath()); err != nil {
			logger.Printf("warning: code graph build failed for store %s: %v", s.ID, err)
		}
	}

	completed := job.StatusCompleted
	percent := 100
	msg := fmt.Sprintf("indexed %d documents, %d chunks", result.DocumentsIndexed, result.ChunksCreated)
	_, err = a.Jobs.Update(jobID, &completed, &msg, &percent, nil)
	return err
}

// pollForCancellation watches the job record for an externally requested
// cancellation (another process called CancelJob) and cancels ctx so the
// indexer's own per-file ctx.Done() check stops the run between files.
func pollForCancellation(ctx context.Context, cancel context.CancelFunc, jobs *job.Manager, jobID string) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j, err := jobs.GetJob(jobID)
			if err == nil && j.Status == job.StatusCancelled {
				cancel()
				return
			}
		}
	}
}

func markFailed(a *app.App, jobID string, cause error) error {
	failed := job.StatusFailed
	msg := cause.Error()
	a.Jobs.Update(jobID, &failed, nil, nil, &msg)
	return cause
}

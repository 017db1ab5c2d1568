package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"mailscope.app/triage/internal/mail"
	"mailscope.app/triage/internal/report"
)

// Runner fans thread processing out across workers. Threads are independent
// and share no mutable state, so one thread's failure only costs that
// thread's report entry; cancelling the run context aborts in-flight work
// without invalidating threads that already completed.
type Runner struct {
	pipeline   *Pipeline
	maxWorkers int
}

func NewRunner(p *Pipeline, maxWorkers int) *Runner {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Runner{pipeline: p, maxWorkers: maxWorkers}
}

// Run processes every email*.txt thread file under inputDir and returns the
// surviving thread entries ranked by attention-flag count (discovery order
// on ties). Unreadable or empty files are skipped; a thread whose oracle
// calls fail is logged and dropped, not fatal for the run.
func (r *Runner) Run(ctx context.Context, inputDir string) ([]report.ThreadEntry, error) {
	threads, err := discoverThreads(ctx, inputDir)
	if err != nil {
		return nil, err
	}
	if len(threads) == 0 {
		slog.WarnContext(ctx, "no parseable threads found", "input_dir", inputDir)
		return nil, nil
	}

	// Indexed slots keep discovery order for the final tie-stable sort
	// even though threads complete out of order.
	entries := make([]*report.ThreadEntry, len(threads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxWorkers)
	for i, t := range threads {
		g.Go(func() error {
			entry, err := r.pipeline.ProcessThread(gctx, t)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				slog.ErrorContext(gctx, "thread failed, dropping from report",
					"thread_id", t.ID, "error", err)
				return nil
			}
			entries[i] = &entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var result []report.ThreadEntry
	for _, e := range entries {
		if e != nil {
			result = append(result, *e)
		}
	}
	report.SortThreads(result)
	return result, nil
}

func discoverThreads(ctx context.Context, inputDir string) ([]mail.Thread, error) {
	paths, err := filepath.Glob(filepath.Join(inputDir, "email*.txt"))
	if err != nil {
		return nil, fmt.Errorf("globbing %s: %w", inputDir, err)
	}
	sort.Strings(paths)

	var threads []mail.Thread
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable thread file", "path", path, "error", err)
			continue
		}
		base := filepath.Base(path)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		thread := mail.ParseThread(string(raw), stem, base)
		if thread.Empty() {
			slog.DebugContext(ctx, "skipping empty thread file", "path", path)
			continue
		}
		threads = append(threads, thread)
	}
	return threads, nil
}

// Package pipeline wires the thread model, the oracles, and the
// adjudication and assembly stages into per-thread processing runs.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"mailscope.app/triage/common/logger"
	"mailscope.app/triage/core/config"
	"mailscope.app/triage/internal/adjudicate"
	"mailscope.app/triage/internal/mail"
	"mailscope.app/triage/internal/oracle"
	"mailscope.app/triage/internal/report"
)

// Oracle bundles the three external capabilities the pipeline calls.
type Oracle interface {
	oracle.Drafter
	oracle.Adjudicator
	oracle.Summarizer
}

type Pipeline struct {
	oracle       Oracle
	orchestrator *adjudicate.Orchestrator
	cfg          config.PipelineConfig
	redact       bool
	// oracleSlots caps concurrent in-flight oracle calls. Within one issue
	// the two adjudication passes are sequential, so capping concurrent
	// issue adjudications caps concurrent calls.
	oracleSlots *semaphore.Weighted
}

func New(o Oracle, cfg config.PipelineConfig, redact bool) *Pipeline {
	slots := cfg.MaxOracleCalls
	if slots < 1 {
		slots = 1
	}
	return &Pipeline{
		oracle: o,
		orchestrator: adjudicate.NewOrchestrator(o, adjudicate.Config{
			OracleTimeout: cfg.OracleTimeout,
			BestEffort:    cfg.BestEffort,
		}),
		cfg:         cfg,
		redact:      redact,
		oracleSlots: semaphore.NewWeighted(slots),
	}
}

// ProcessThread runs one thread through drafting, screening, adjudication,
// and assembly. Issues are adjudicated concurrently under the oracle cap,
// but finalized results are merged back in original draft order so evidence
// IDs come out identical run to run.
func (p *Pipeline) ProcessThread(ctx context.Context, thread mail.Thread) (report.ThreadEntry, error) {
	sc := logger.StartSpan(ctx, "pipeline.process_thread")
	defer sc.End()
	ctx = logger.WithLogFields(sc.Context(), logger.LogFields{
		ThreadID:  logger.Ptr(thread.ID),
		Component: "triage.pipeline",
	})

	fullText, chunks := mail.Render(thread)
	if p.redact {
		// Both views are redacted identically so grounding checks stay
		// consistent with what the oracle sees.
		fullText = mail.Redact(fullText)
		for i, c := range chunks {
			chunks[i] = mail.Redact(c)
		}
	}

	draft, err := p.draftIssues(ctx, fullText)
	if err != nil {
		sc.RecordError(err)
		return report.ThreadEntry{}, err
	}

	screened := adjudicate.ScreenDrafts(ctx, fullText, draft.Issues)
	slog.InfoContext(ctx, "drafts screened",
		"drafted", len(draft.Issues),
		"kept", len(screened))

	finalized := make([]adjudicate.Finalized, len(screened))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range screened {
		g.Go(func() error {
			if err := p.oracleSlots.Acquire(gctx, 1); err != nil {
				return err
			}
			defer p.oracleSlots.Release(1)

			f, err := p.orchestrator.Adjudicate(gctx, thread, fullText, chunks, d)
			if err != nil {
				return fmt.Errorf("adjudicating %q: %w", d.Title, err)
			}
			finalized[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		sc.RecordError(err)
		return report.ThreadEntry{}, err
	}

	entry := report.BuildThreadEntry(thread, finalized)

	summary, err := p.summarize(ctx, entry)
	if err != nil {
		sc.RecordError(err)
		return report.ThreadEntry{}, err
	}
	entry.ExecutiveSummaryMD = summary

	slog.InfoContext(ctx, "thread processed",
		"issues", len(entry.AllIssues),
		"attention_flags", entry.AttentionCount(),
		"evidence_entries", len(entry.Evidence))
	return entry, nil
}

func (p *Pipeline) draftIssues(ctx context.Context, fullText string) (oracle.ThreadIssuesDraft, error) {
	ctx, cancel := p.withOracleTimeout(ctx)
	defer cancel()

	if err := p.oracleSlots.Acquire(ctx, 1); err != nil {
		return oracle.ThreadIssuesDraft{}, err
	}
	defer p.oracleSlots.Release(1)

	draft, err := p.oracle.DraftIssues(ctx, fullText)
	if err != nil {
		return oracle.ThreadIssuesDraft{}, fmt.Errorf("draft oracle: %w", err)
	}
	return draft, nil
}

func (p *Pipeline) summarize(ctx context.Context, entry report.ThreadEntry) (string, error) {
	payload, err := report.SummaryPayload(entry)
	if err != nil {
		return "", err
	}

	ctx, cancel := p.withOracleTimeout(ctx)
	defer cancel()

	if err := p.oracleSlots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer p.oracleSlots.Release(1)

	result, err := p.oracle.Summarize(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("summary oracle: %w", err)
	}
	return result.SummaryMD, nil
}

func (p *Pipeline) withOracleTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.cfg.OracleTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.cfg.OracleTimeout)
}

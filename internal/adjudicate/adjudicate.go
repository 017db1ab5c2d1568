// Package adjudicate decides per-issue resolution status by arbitrating
// between the resolution oracle and the grounding/ordering checks.
//
// The oracle's verdict is never taken at face value: a "resolved" claim is
// accepted only with verbatim, chronologically later proof, and is otherwise
// downgraded to "unknown". An unproven resolved claim is worse than no claim.
package adjudicate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mailscope.app/triage/common/logger"
	"mailscope.app/triage/internal/ground"
	"mailscope.app/triage/internal/mail"
	"mailscope.app/triage/internal/oracle"
)

// Finalized is the immutable outcome of adjudicating one grounded draft.
type Finalized struct {
	Draft            oracle.IssueDraft
	Status           oracle.Status
	RationaleStatus  string
	ResolutionQuotes []string
	ResolvedLater    bool
	OpenedAt         time.Time
	Subject          string
}

type Config struct {
	// OracleTimeout is the per-call deadline. Zero disables the deadline.
	OracleTimeout time.Duration
	// BestEffort degrades oracle transport failures to status=unknown
	// instead of failing the issue (and with it the thread).
	BestEffort bool
}

// Orchestrator runs the per-issue adjudication protocol: at most two oracle
// calls, each verdict filtered through the acceptance gate.
type Orchestrator struct {
	adjudicator oracle.Adjudicator
	cfg         Config
}

func NewOrchestrator(adjudicator oracle.Adjudicator, cfg Config) *Orchestrator {
	return &Orchestrator{adjudicator: adjudicator, cfg: cfg}
}

// ScreenDrafts drops drafts that cannot be trusted: blank titles, empty
// evidence lists, and evidence quotes that do not occur verbatim in the
// thread text. Dropped drafts never reach the report; this is expected and
// not an error.
func ScreenDrafts(ctx context.Context, fullText string, drafts []oracle.IssueDraft) []oracle.IssueDraft {
	kept := make([]oracle.IssueDraft, 0, len(drafts))
	for _, d := range drafts {
		if strings.TrimSpace(d.Title) == "" {
			slog.DebugContext(ctx, "dropping draft with blank title")
			continue
		}
		if len(d.EvidenceQuotes) == 0 {
			slog.DebugContext(ctx, "dropping draft without evidence", "title", d.Title)
			continue
		}
		if !ground.QuotesPresent(fullText, d.EvidenceQuotes) {
			slog.DebugContext(ctx, "dropping ungrounded draft", "title", d.Title)
			continue
		}
		kept = append(kept, d)
	}
	return kept
}

// Adjudicate runs the resolution protocol for one screened draft.
//
// Pass 1 asks the oracle for a verdict, hinted with harvested candidate
// snippets. A resolved verdict passes the acceptance gate only if its quotes
// are non-empty, grounded, and strictly later than the problem evidence;
// otherwise it is downgraded to unknown with its quotes cleared. If the
// verdict after the gate is non-resolved and candidates exist, one second
// pass runs; a second resolved verdict that independently passes the gate
// supersedes the first decision entirely. No further retries.
func (o *Orchestrator) Adjudicate(ctx context.Context, thread mail.Thread, fullText string, chunks []string, draft oracle.IssueDraft) (Finalized, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		IssueTitle: logger.Ptr(draft.Title),
		Component:  "triage.adjudicate",
	})

	problemMax := ground.MaxProblemIndex(chunks, draft.EvidenceQuotes)
	candidates := ground.Harvest(chunks, problemMax+1, ground.DefaultHarvestLimit)

	issueJSON, err := json.Marshal(draft)
	if err != nil {
		return Finalized{}, fmt.Errorf("marshal issue: %w", err)
	}

	decision, degraded, err := o.callOracle(ctx, fullText, string(issueJSON), candidates)
	if err != nil {
		return Finalized{}, err
	}

	status := decision.Status
	resolutionQuotes := decision.ResolutionQuotes

	// Acceptance gate: a resolved claim needs verbatim, later-positioned proof.
	if status == oracle.StatusResolved && !o.accepted(fullText, chunks, draft, resolutionQuotes) {
		firstQuote := ""
		if len(resolutionQuotes) > 0 {
			firstQuote = logger.Truncate(resolutionQuotes[0], 120)
		}
		slog.DebugContext(ctx, "downgrading unproven resolved claim",
			"quotes", len(resolutionQuotes),
			"first_quote", firstQuote)
		status = oracle.StatusUnknown
		resolutionQuotes = nil
	}

	// Escalation: one more attempt when the first verdict is non-resolved
	// but the lexicon found promising text. A degraded first pass never
	// escalates; the transport already failed once.
	if status != oracle.StatusResolved && len(candidates) > 0 && !degraded {
		second, secondDegraded, err := o.callOracle(ctx, fullText, string(issueJSON), candidates)
		if err != nil {
			return Finalized{}, err
		}
		if !secondDegraded && second.Status == oracle.StatusResolved && o.accepted(fullText, chunks, draft, second.ResolutionQuotes) {
			slog.DebugContext(ctx, "second pass produced proven resolution")
			status = oracle.StatusResolved
			resolutionQuotes = second.ResolutionQuotes
			decision = second
		}
	}

	openedAt, subject := openedContext(thread, chunks, draft.EvidenceQuotes)

	return Finalized{
		Draft:            draft,
		Status:           status,
		RationaleStatus:  decision.RationaleStatus,
		ResolutionQuotes: resolutionQuotes,
		ResolvedLater:    status == oracle.StatusResolved,
		OpenedAt:         openedAt,
		Subject:          subject,
	}, nil
}

func (o *Orchestrator) accepted(fullText string, chunks []string, draft oracle.IssueDraft, resolutionQuotes []string) bool {
	return len(resolutionQuotes) > 0 &&
		ground.QuotesPresent(fullText, resolutionQuotes) &&
		ground.ResolutionIsLater(chunks, draft.EvidenceQuotes, resolutionQuotes)
}

// callOracle invokes the resolution oracle under the configured timeout.
// In best-effort mode transport failures degrade to an unknown verdict
// (degraded=true) rather than failing the issue; cancellation of the whole
// run still propagates.
func (o *Orchestrator) callOracle(ctx context.Context, fullText, issueJSON string, candidates []string) (oracle.ResolutionDecision, bool, error) {
	callCtx := ctx
	if o.cfg.OracleTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.cfg.OracleTimeout)
		defer cancel()
	}

	decision, err := o.adjudicator.AdjudicateResolution(callCtx, fullText, issueJSON, candidates)
	if err == nil {
		return decision, false, nil
	}
	if ctx.Err() != nil || !o.cfg.BestEffort {
		return oracle.ResolutionDecision{}, false, fmt.Errorf("resolution oracle: %w", err)
	}

	slog.WarnContext(ctx, "resolution oracle unavailable, degrading to unknown", "error", err)
	return oracle.ResolutionDecision{
		Status:          oracle.StatusUnknown,
		RationaleStatus: "Resolution could not be adjudicated: oracle call failed.",
	}, true, nil
}

// openedContext back-fills when and under which subject the issue opened:
// the message containing the first evidence quote, defaulting to the
// thread's first message.
func openedContext(thread mail.Thread, chunks []string, evidenceQuotes []string) (time.Time, string) {
	if thread.Empty() {
		return time.Time{}, ""
	}
	openedAt := thread.Messages[0].Date
	subject := thread.Messages[0].Subject
	if len(evidenceQuotes) > 0 {
		if mi := ground.Locate(chunks, evidenceQuotes[0]); mi >= 1 && mi <= len(thread.Messages) {
			openedAt = thread.Messages[mi-1].Date
			subject = thread.Messages[mi-1].Subject
		}
	}
	return openedAt, subject
}

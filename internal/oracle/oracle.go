// Package oracle defines the external text-understanding capabilities the
// pipeline calls, and their LLM-backed implementations.
//
// Everything an oracle returns is an untrusted claim: drafts and decisions
// are validated by the grounding and ordering checks before they can affect
// the report. The interfaces are stateless so the adjudication state machine
// can be driven by scripted doubles in tests.
package oracle

import "context"

// Flag classifies an issue as an action item or a risk/blocker.
type Flag string

const (
	FlagActionItem  Flag = "A_unresolved_action_item"
	FlagRiskBlocker Flag = "B_emerging_risk_blocker"
)

// Level is the severity (flag B) or priority (flag A) of an issue.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Rank orders levels for presentation: high > medium > low.
// Unknown levels rank as low.
func (l Level) Rank() int {
	switch l {
	case LevelHigh:
		return 2
	case LevelMedium:
		return 1
	default:
		return 0
	}
}

// Status is the resolution verdict for an issue by the end of its thread.
type Status string

const (
	StatusResolved   Status = "resolved"
	StatusUnresolved Status = "unresolved"
	StatusUnknown    Status = "unknown"
)

// IssueDraft is one issue claimed by the draft oracle. Untrusted until its
// evidence quotes are grounded.
type IssueDraft struct {
	Flag               Flag     `json:"flag" jsonschema:"required,enum=A_unresolved_action_item,enum=B_emerging_risk_blocker"`
	Title              string   `json:"title" jsonschema:"required"`
	SeverityOrPriority Level    `json:"severity_or_priority" jsonschema:"required,enum=low,enum=medium,enum=high"`
	RationaleFlagLevel string   `json:"rationale_flag_level" jsonschema:"required,description=1-2 sentences explaining why it is A or B and why the level"`
	EvidenceQuotes     []string `json:"evidence_quotes" jsonschema:"required,minItems=1,description=1-3 short verbatim quotes that demonstrate the problem or ask"`
}

// ThreadIssuesDraft is the draft oracle's full response for one thread.
type ThreadIssuesDraft struct {
	Issues []IssueDraft `json:"issues" jsonschema:"required"`
}

// ResolutionDecision is the resolution oracle's verdict for one issue.
// Untrusted until its quotes are grounded and temporally validated.
type ResolutionDecision struct {
	Status           Status   `json:"status" jsonschema:"required,enum=resolved,enum=unresolved,enum=unknown"`
	RationaleStatus  string   `json:"rationale_status" jsonschema:"required,description=1-2 sentences explaining the status choice"`
	ResolutionQuotes []string `json:"resolution_quotes" jsonschema:"required,description=Verbatim quotes showing the fix or completion; empty unless status is resolved"`
}

// SummaryResult is the summary oracle's response.
type SummaryResult struct {
	SummaryMD string `json:"summary_md" jsonschema:"required"`
}

// Drafter derives a deduplicated list of issues from one thread's text.
// It may return zero issues. Dedup applies only within the thread.
type Drafter interface {
	DraftIssues(ctx context.Context, threadText string) (ThreadIssuesDraft, error)
}

// Adjudicator decides whether one issue is resolved by the end of the
// thread. It is a pure function of its inputs and may be invoked twice per
// issue by the orchestrator.
type Adjudicator interface {
	AdjudicateResolution(ctx context.Context, threadText, issueJSON string, candidateSnippets []string) (ResolutionDecision, error)
}

// Summarizer writes an executive summary from the post-filter attention
// lists and the evidence bank. It must never see resolved issues.
type Summarizer interface {
	Summarize(ctx context.Context, payloadJSON string) (SummaryResult, error)
}

// Package report assembles finalized issues into the ranked, evidence-cited
// report: per-thread evidence banks, attention-flag lists, and the
// cross-thread ordering.
package report

import (
	"sort"
	"time"
)

type Report struct {
	RunID       string        `json:"run_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Models      Models        `json:"models"`
	Threads     []ThreadEntry `json:"threads"`
}

type Models struct {
	Draft   string `json:"draft"`
	Resolve string `json:"resolve"`
	Summary string `json:"summary"`
}

type ThreadEntry struct {
	ThreadID           string            `json:"thread_id"`
	SourceFiles        []string          `json:"source_files"`
	TimeRange          TimeRange         `json:"time_range"`
	AttentionFlags     AttentionFlags    `json:"attention_flags"`
	AllIssues          []Issue           `json:"all_issues"`
	Evidence           map[string]string `json:"evidence"`
	ExecutiveSummaryMD string            `json:"executive_summary_md"`
}

type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type AttentionFlags struct {
	ActionItems   []Issue `json:"A_unresolved_action_items"`
	RisksBlockers []Issue `json:"B_emerging_risks_blockers"`
}

// AttentionCount is the total number of surfaced flags for the thread.
func (t ThreadEntry) AttentionCount() int {
	return len(t.AttentionFlags.ActionItems) + len(t.AttentionFlags.RisksBlockers)
}

// SortThreads orders report threads by descending attention-flag count,
// keeping discovery order on ties.
func SortThreads(threads []ThreadEntry) {
	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].AttentionCount() > threads[j].AttentionCount()
	})
}

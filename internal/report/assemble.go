package report

import (
	"encoding/json"
	"fmt"
	"sort"

	"mailscope.app/triage/internal/adjudicate"
	"mailscope.app/triage/internal/mail"
	"mailscope.app/triage/internal/oracle"
)

// maxQuotesPerIssue caps how many quotes of each kind an issue contributes
// to the evidence bank.
const maxQuotesPerIssue = 3

// BuildThreadEntry turns a thread's finalized issues into a report entry.
// Finalized issues must arrive in original draft order: evidence IDs are
// assigned in that order (problem evidence before resolution evidence, per
// issue), which keeps them reproducible across runs.
func BuildThreadEntry(thread mail.Thread, finalized []adjudicate.Finalized) ThreadEntry {
	bank := NewEvidenceBank()
	issues := make([]Issue, 0, len(finalized))

	for _, f := range finalized {
		evidenceQuotes := capQuotes(f.Draft.EvidenceQuotes)
		resolutionQuotes := capQuotes(f.ResolutionQuotes)

		issue := Issue{
			Type:               issueType(f.Draft.Flag),
			Subject:            f.Subject,
			OpenedAt:           f.OpenedAt,
			Title:              f.Draft.Title,
			Level:              f.Draft.SeverityOrPriority,
			Flag:               f.Draft.Flag,
			Status:             f.Status,
			ResolvedLater:      f.ResolvedLater,
			RationaleFlagLevel: f.Draft.RationaleFlagLevel,
			RationaleStatus:    f.RationaleStatus,
			EvidenceIDs:        bank.Add(evidenceQuotes),
			EvidenceQuotes:     evidenceQuotes,
			ResolutionQuotes:   resolutionQuotes,
		}
		if len(resolutionQuotes) > 0 {
			issue.ResolutionEvidenceIDs = bank.Add(resolutionQuotes)
		}
		issues = append(issues, issue)
	}

	entry := ThreadEntry{
		ThreadID:    thread.ID,
		SourceFiles: thread.SourceFiles(),
		AllIssues:   issues,
		Evidence:    bank.Quotes(),
	}
	if !thread.Empty() {
		entry.TimeRange = TimeRange{
			Start: thread.Messages[0].Date,
			End:   thread.Messages[len(thread.Messages)-1].Date,
		}
	}

	for _, issue := range issues {
		if !issue.NeedsAttention() {
			continue
		}
		switch issue.Flag {
		case oracle.FlagActionItem:
			entry.AttentionFlags.ActionItems = append(entry.AttentionFlags.ActionItems, issue)
		case oracle.FlagRiskBlocker:
			entry.AttentionFlags.RisksBlockers = append(entry.AttentionFlags.RisksBlockers, issue)
		}
	}
	rankIssues(entry.AttentionFlags.ActionItems)
	rankIssues(entry.AttentionFlags.RisksBlockers)

	return entry
}

// rankIssues orders an attention list by level descending, then unresolved
// before unknown. Remaining ties keep input order.
func rankIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		ri, rj := issues[i].Level.Rank(), issues[j].Level.Rank()
		if ri != rj {
			return ri > rj
		}
		return statusOrder(issues[i].Status) < statusOrder(issues[j].Status)
	})
}

func statusOrder(s oracle.Status) int {
	if s == oracle.StatusUnresolved {
		return 0
	}
	return 1
}

func capQuotes(quotes []string) []string {
	if len(quotes) > maxQuotesPerIssue {
		return quotes[:maxQuotesPerIssue]
	}
	return quotes
}

func issueType(f oracle.Flag) string {
	if f == oracle.FlagActionItem {
		return "action_item"
	}
	return "risk"
}

// SummaryPayload is what the summary oracle sees: only the post-filter
// attention lists and the evidence bank. Resolved issues are excluded by
// construction.
func SummaryPayload(entry ThreadEntry) (string, error) {
	payload := struct {
		ThreadID       string            `json:"thread_id"`
		AttentionFlagA []Issue           `json:"attention_flag_A"`
		AttentionFlagB []Issue           `json:"attention_flag_B"`
		Evidence       map[string]string `json:"evidence"`
	}{
		ThreadID:       entry.ThreadID,
		AttentionFlagA: entry.AttentionFlags.ActionItems,
		AttentionFlagB: entry.AttentionFlags.RisksBlockers,
		Evidence:       entry.Evidence,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal summary payload: %w", err)
	}
	return string(data), nil
}

package report

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the human-readable Portfolio Health report.
func RenderMarkdown(r Report) string {
	var b strings.Builder

	b.WriteString("# Portfolio Health Report (Thread-level + Resolution)\n\n")
	fmt.Fprintf(&b, "Generated at: `%s`\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Models: draft=`%s`, resolve=`%s`, summary=`%s`\n\n",
		r.Models.Draft, r.Models.Resolve, r.Models.Summary)

	for _, t := range r.Threads {
		fmt.Fprintf(&b, "## Thread: `%s`\n", t.ThreadID)
		b.WriteString("- Source files: " + backticked(t.SourceFiles) + "\n")
		fmt.Fprintf(&b, "- Time range: %s -> %s\n\n",
			t.TimeRange.Start.Format(time.RFC3339), t.TimeRange.End.Format(time.RFC3339))

		b.WriteString("### Executive Summary\n")
		summary := strings.TrimSpace(t.ExecutiveSummaryMD)
		if summary == "" {
			summary = "_(empty)_"
		}
		b.WriteString(summary + "\n\n")

		a := t.AttentionFlags.ActionItems
		riskList := t.AttentionFlags.RisksBlockers

		if len(a) > 0 {
			b.WriteString("### Attention Flag A - Unresolved Action Items\n")
			writeIssueList(&b, a, "A")
			b.WriteString("\n")
		}
		if len(riskList) > 0 {
			b.WriteString("### Attention Flag B - Emerging Risks / Blockers\n")
			writeIssueList(&b, riskList, "B")
			b.WriteString("\n")
		}
		if len(a) == 0 && len(riskList) == 0 {
			b.WriteString("_No unresolved/unknown attention flags detected in this thread._\n\n")
		}
	}

	return strings.TrimSpace(b.String()) + "\n"
}

func writeIssueList(b *strings.Builder, issues []Issue, flagName string) {
	for _, it := range issues {
		fmt.Fprintf(b, "- **%s** | **%s** | %s%s\n", it.Level, it.Status, it.Title, formatIDs(it.EvidenceIDs))
		fmt.Fprintf(b, "  - Why %s/level: %s\n", flagName, it.RationaleFlagLevel)
		fmt.Fprintf(b, "  - Why status: %s\n", it.RationaleStatus)
	}
}

func formatIDs(ids []string) string {
	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, " [%s]", id)
	}
	return b.String()
}

func backticked(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "`" + s + "`"
	}
	return strings.Join(quoted, ", ")
}

package report_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mailscope.app/triage/internal/adjudicate"
	"mailscope.app/triage/internal/oracle"
	"mailscope.app/triage/internal/report"
)

var _ = Describe("RenderMarkdown", func() {
	buildReport := func(finalized ...adjudicate.Finalized) report.Report {
		entry := report.BuildThreadEntry(testThread(), finalized)
		entry.ExecutiveSummaryMD = "One open risk needs a decision [E1]."
		return report.Report{
			RunID:       "42",
			GeneratedAt: time.Date(2025, 5, 3, 12, 0, 0, 0, time.UTC),
			Models:      report.Models{Draft: "gpt-4o-mini", Resolve: "gpt-4o-mini", Summary: "gpt-5-mini"},
			Threads:     []report.ThreadEntry{entry},
		}
	}

	It("renders thread headers, summaries, and attention sections", func() {
		md := report.RenderMarkdown(buildReport(
			finalizedIssue("Latency regression on /search", oracle.FlagRiskBlocker,
				oracle.LevelHigh, oracle.StatusUnresolved, []string{"p95 jumped to 4s"}, nil),
		))

		Expect(md).To(HavePrefix("# Portfolio Health Report"))
		Expect(md).To(ContainSubstring("Models: draft=`gpt-4o-mini`, resolve=`gpt-4o-mini`, summary=`gpt-5-mini`"))
		Expect(md).To(ContainSubstring("## Thread: `email_3`"))
		Expect(md).To(ContainSubstring("- Source files: `email_3.txt`"))
		Expect(md).To(ContainSubstring("One open risk needs a decision [E1]."))
		Expect(md).To(ContainSubstring("### Attention Flag B - Emerging Risks / Blockers"))
		Expect(md).To(ContainSubstring("- **high** | **unresolved** | Latency regression on /search [E1]"))
		Expect(md).To(ContainSubstring("  - Why B/level: rationale for Latency regression on /search"))
		Expect(md).NotTo(ContainSubstring("Attention Flag A"))
	})

	It("notes threads with no attention flags", func() {
		rep := buildReport()
		rep.Threads[0].ExecutiveSummaryMD = ""
		md := report.RenderMarkdown(rep)

		Expect(md).To(ContainSubstring("_(empty)_"))
		Expect(md).To(ContainSubstring("_No unresolved/unknown attention flags detected in this thread._"))
	})
})

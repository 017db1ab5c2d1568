package adjudicate_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mailscope.app/triage/internal/adjudicate"
	"mailscope.app/triage/internal/mail"
	"mailscope.app/triage/internal/oracle"
)

// scriptedAdjudicator returns one pre-canned decision (or error) per call,
// in order, and records what it was asked.
type scriptedAdjudicator struct {
	decisions []oracle.ResolutionDecision
	errs      []error
	calls     int
	snippets  [][]string
}

func (s *scriptedAdjudicator) AdjudicateResolution(ctx context.Context, threadText, issueJSON string, candidateSnippets []string) (oracle.ResolutionDecision, error) {
	i := s.calls
	s.calls++
	s.snippets = append(s.snippets, candidateSnippets)
	if i < len(s.errs) && s.errs[i] != nil {
		return oracle.ResolutionDecision{}, s.errs[i]
	}
	if i >= len(s.decisions) {
		return oracle.ResolutionDecision{}, errors.New("unexpected extra oracle call")
	}
	return s.decisions[i], nil
}

const rawThread = `Subject: Checkout page down
Date: 2025-04-01 09:00
From: pm@shop.test
To: eng@shop.test

Checkout returns a 500 for all users since this morning.
This is blocking the release.

Subject: Re: Checkout page down
Date: 2025-04-01 11:30
From: eng@shop.test
To: pm@shop.test

Root cause was a bad cache key. Fix pushed, checkout is working again.
I verified three test orders went through.
`

var _ = Describe("Orchestrator", func() {
	var (
		thread   mail.Thread
		fullText string
		chunks   []string
		draft    oracle.IssueDraft
	)

	BeforeEach(func() {
		thread = mail.ParseThread(rawThread, "email_7", "email_7.txt")
		fullText, chunks = mail.Render(thread)
		draft = oracle.IssueDraft{
			Flag:               oracle.FlagRiskBlocker,
			Title:              "Checkout outage blocking release",
			SeverityOrPriority: oracle.LevelHigh,
			RationaleFlagLevel: "Production checkout is down and blocks the release.",
			EvidenceQuotes:     []string{"Checkout returns a 500 for all users since this morning."},
		}
	})

	Describe("Adjudicate", func() {
		It("accepts a resolved verdict whose proof is grounded and later", func() {
			adj := &scriptedAdjudicator{decisions: []oracle.ResolutionDecision{{
				Status:           oracle.StatusResolved,
				RationaleStatus:  "The fix was pushed and verified.",
				ResolutionQuotes: []string{"Fix pushed, checkout is working again."},
			}}}
			o := adjudicate.NewOrchestrator(adj, adjudicate.Config{})

			f, err := o.Adjudicate(context.Background(), thread, fullText, chunks, draft)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Status).To(Equal(oracle.StatusResolved))
			Expect(f.ResolvedLater).To(BeTrue())
			Expect(f.ResolutionQuotes).To(Equal([]string{"Fix pushed, checkout is working again."}))
			Expect(adj.calls).To(Equal(1))
		})

		It("hands harvested candidate snippets to the oracle", func() {
			adj := &scriptedAdjudicator{decisions: []oracle.ResolutionDecision{{
				Status:          oracle.StatusUnresolved,
				RationaleStatus: "No confirmation seen.",
			}, {
				Status:          oracle.StatusUnresolved,
				RationaleStatus: "Still no confirmation.",
			}}}
			o := adjudicate.NewOrchestrator(adj, adjudicate.Config{})

			_, err := o.Adjudicate(context.Background(), thread, fullText, chunks, draft)
			Expect(err).NotTo(HaveOccurred())
			Expect(adj.snippets[0]).To(ContainElement("Root cause was a bad cache key. Fix pushed, checkout is working again."))
		})

		It("downgrades a resolved verdict with hallucinated proof, then retries", func() {
			adj := &scriptedAdjudicator{decisions: []oracle.ResolutionDecision{{
				Status:           oracle.StatusResolved,
				RationaleStatus:  "Someone must have fixed it.",
				ResolutionQuotes: []string{"we restarted the whole cluster"},
			}, {
				Status:          oracle.StatusUnresolved,
				RationaleStatus: "No grounded confirmation.",
			}}}
			o := adjudicate.NewOrchestrator(adj, adjudicate.Config{})

			f, err := o.Adjudicate(context.Background(), thread, fullText, chunks, draft)
			Expect(err).NotTo(HaveOccurred())
			Expect(adj.calls).To(Equal(2))
			Expect(f.Status).To(Equal(oracle.StatusUnknown))
			Expect(f.ResolvedLater).To(BeFalse())
			Expect(f.ResolutionQuotes).To(BeEmpty())
		})

		It("downgrades a resolved verdict whose proof predates the problem", func() {
			// Evidence anchored in MSG 2; "proof" from MSG 1 is too early.
			lateDraft := draft
			lateDraft.EvidenceQuotes = []string{"I verified three test orders went through."}
			adj := &scriptedAdjudicator{decisions: []oracle.ResolutionDecision{{
				Status:           oracle.StatusResolved,
				RationaleStatus:  "It says checkout is down, then fixed.",
				ResolutionQuotes: []string{"Checkout returns a 500 for all users since this morning."},
			}, {
				Status:          oracle.StatusUnknown,
				RationaleStatus: "Cannot order the events.",
			}}}
			o := adjudicate.NewOrchestrator(adj, adjudicate.Config{})

			f, err := o.Adjudicate(context.Background(), thread, fullText, chunks, lateDraft)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Status).To(Equal(oracle.StatusUnknown))
			Expect(f.ResolutionQuotes).To(BeEmpty())
		})

		It("lets a proven second-pass resolution supersede the first verdict", func() {
			adj := &scriptedAdjudicator{decisions: []oracle.ResolutionDecision{{
				Status:          oracle.StatusUnresolved,
				RationaleStatus: "First look found nothing conclusive.",
			}, {
				Status:           oracle.StatusResolved,
				RationaleStatus:  "The engineer pushed a fix and verified it.",
				ResolutionQuotes: []string{"I verified three test orders went through."},
			}}}
			o := adjudicate.NewOrchestrator(adj, adjudicate.Config{})

			f, err := o.Adjudicate(context.Background(), thread, fullText, chunks, draft)
			Expect(err).NotTo(HaveOccurred())
			Expect(adj.calls).To(Equal(2))
			Expect(f.Status).To(Equal(oracle.StatusResolved))
			Expect(f.RationaleStatus).To(Equal("The engineer pushed a fix and verified it."))
			Expect(f.ResolutionQuotes).To(Equal([]string{"I verified three test orders went through."}))
		})

		It("keeps the first verdict when the second pass is also unproven", func() {
			adj := &scriptedAdjudicator{decisions: []oracle.ResolutionDecision{{
				Status:          oracle.StatusUnresolved,
				RationaleStatus: "No confirmation found.",
			}, {
				Status:           oracle.StatusResolved,
				RationaleStatus:  "Probably fixed.",
				ResolutionQuotes: []string{"invented proof that appears nowhere"},
			}}}
			o := adjudicate.NewOrchestrator(adj, adjudicate.Config{})

			f, err := o.Adjudicate(context.Background(), thread, fullText, chunks, draft)
			Expect(err).NotTo(HaveOccurred())
			Expect(adj.calls).To(Equal(2))
			Expect(f.Status).To(Equal(oracle.StatusUnresolved))
			Expect(f.RationaleStatus).To(Equal("No confirmation found."))
		})

		It("skips the second pass when no candidate snippets exist", func() {
			quiet := mail.ParseThread(`Subject: Question about the invoice
Date: 2025-04-02 10:00
From: pm@shop.test

Could you double check the Q2 invoice totals?
`, "email_8", "email_8.txt")
			quietFull, quietChunks := mail.Render(quiet)
			quietDraft := draft
			quietDraft.EvidenceQuotes = []string{"Could you double check the Q2 invoice totals?"}

			adj := &scriptedAdjudicator{decisions: []oracle.ResolutionDecision{{
				Status:          oracle.StatusUnresolved,
				RationaleStatus: "Open question, no reply.",
			}}}
			o := adjudicate.NewOrchestrator(adj, adjudicate.Config{})

			f, err := o.Adjudicate(context.Background(), quiet, quietFull, quietChunks, quietDraft)
			Expect(err).NotTo(HaveOccurred())
			Expect(adj.calls).To(Equal(1))
			Expect(f.Status).To(Equal(oracle.StatusUnresolved))
		})

		It("back-fills opened-at and subject from the first evidence quote's message", func() {
			adj := &scriptedAdjudicator{decisions: []oracle.ResolutionDecision{{
				Status:           oracle.StatusResolved,
				RationaleStatus:  "Fixed and verified.",
				ResolutionQuotes: []string{"Fix pushed, checkout is working again."},
			}}}
			o := adjudicate.NewOrchestrator(adj, adjudicate.Config{})

			f, err := o.Adjudicate(context.Background(), thread, fullText, chunks, draft)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Subject).To(Equal("Checkout page down"))
			Expect(f.OpenedAt).To(BeTemporally("==", time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)))
		})

		Context("when the oracle fails", func() {
			It("fails the issue by default", func() {
				adj := &scriptedAdjudicator{errs: []error{errors.New("upstream 503")}}
				o := adjudicate.NewOrchestrator(adj, adjudicate.Config{})

				_, err := o.Adjudicate(context.Background(), thread, fullText, chunks, draft)
				Expect(err).To(MatchError(ContainSubstring("upstream 503")))
			})

			It("degrades to unknown in best-effort mode without escalating", func() {
				adj := &scriptedAdjudicator{errs: []error{errors.New("upstream 503")}}
				o := adjudicate.NewOrchestrator(adj, adjudicate.Config{BestEffort: true})

				f, err := o.Adjudicate(context.Background(), thread, fullText, chunks, draft)
				Expect(err).NotTo(HaveOccurred())
				Expect(adj.calls).To(Equal(1))
				Expect(f.Status).To(Equal(oracle.StatusUnknown))
				Expect(f.RationaleStatus).To(ContainSubstring("could not be adjudicated"))
			})

			It("propagates cancellation even in best-effort mode", func() {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				adj := &scriptedAdjudicator{errs: []error{ctx.Err()}}
				o := adjudicate.NewOrchestrator(adj, adjudicate.Config{BestEffort: true})

				_, err := o.Adjudicate(ctx, thread, fullText, chunks, draft)
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("ScreenDrafts", func() {
		It("keeps grounded drafts and drops the rest", func() {
			drafts := []oracle.IssueDraft{
				draft,
				{Title: "", EvidenceQuotes: []string{"whatever"}},
				{Title: "  \t ", EvidenceQuotes: []string{"Checkout returns a 500"}},
				{Title: "No evidence at all", EvidenceQuotes: nil},
				{Title: "Hallucinated", EvidenceQuotes: []string{"this sentence is not in the thread"}},
			}
			kept := adjudicate.ScreenDrafts(context.Background(), fullText, drafts)
			Expect(kept).To(HaveLen(1))
			Expect(kept[0].Title).To(Equal("Checkout outage blocking release"))
		})

		It("returns an empty slice for no drafts", func() {
			Expect(adjudicate.ScreenDrafts(context.Background(), fullText, nil)).To(BeEmpty())
		})
	})
})

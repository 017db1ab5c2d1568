package report

import (
	"encoding/json"
	"time"

	"mailscope.app/triage/internal/oracle"
)

// Issue is a finalized, presentation-ready issue with its evidence IDs.
type Issue struct {
	Type                  string
	Subject               string
	OpenedAt              time.Time
	Title                 string
	Level                 oracle.Level
	Flag                  oracle.Flag
	Status                oracle.Status
	ResolvedLater         bool
	RationaleFlagLevel    string
	RationaleStatus       string
	EvidenceIDs           []string
	EvidenceQuotes        []string
	ResolutionEvidenceIDs []string
	ResolutionQuotes      []string
}

type issueJSON struct {
	Type                  string        `json:"type"`
	Subject               string        `json:"subject"`
	OpenedAt              time.Time     `json:"opened_at"`
	Title                 string        `json:"title"`
	Priority              *oracle.Level `json:"priority,omitempty"`
	Severity              *oracle.Level `json:"severity,omitempty"`
	Flag                  oracle.Flag   `json:"flag"`
	Status                oracle.Status `json:"status"`
	ResolvedLater         bool          `json:"resolved_later"`
	RationaleFlagLevel    string        `json:"rationale_flag_level"`
	RationaleStatus       string        `json:"rationale_status"`
	EvidenceIDs           []string      `json:"evidence_ids"`
	EvidenceQuotes        []string      `json:"evidence_quotes"`
	ResolutionEvidenceIDs []string      `json:"resolution_evidence_ids"`
	ResolutionQuotes      []string      `json:"resolution_quotes"`
}

// MarshalJSON emits the level under "priority" for action items and
// "severity" for risks/blockers.
func (i Issue) MarshalJSON() ([]byte, error) {
	out := issueJSON{
		Type:                  i.Type,
		Subject:               i.Subject,
		OpenedAt:              i.OpenedAt,
		Title:                 i.Title,
		Flag:                  i.Flag,
		Status:                i.Status,
		ResolvedLater:         i.ResolvedLater,
		RationaleFlagLevel:    i.RationaleFlagLevel,
		RationaleStatus:       i.RationaleStatus,
		EvidenceIDs:           i.EvidenceIDs,
		EvidenceQuotes:        i.EvidenceQuotes,
		ResolutionEvidenceIDs: i.ResolutionEvidenceIDs,
		ResolutionQuotes:      i.ResolutionQuotes,
	}
	level := i.Level
	if i.Flag == oracle.FlagActionItem {
		out.Priority = &level
	} else {
		out.Severity = &level
	}
	return json.Marshal(out)
}

// NeedsAttention reports whether the issue belongs on an attention flag
// list. Resolved issues stay in the full issue list but are never surfaced
// as flags.
func (i Issue) NeedsAttention() bool {
	return i.Status == oracle.StatusUnresolved || i.Status == oracle.StatusUnknown
}

// Package ground verifies oracle claims against the rendered thread text.
//
// The oracle can hallucinate quotes or misorder events, so nothing it says
// is trusted until it survives these checks. Matching is byte-exact on
// purpose: exact substring matching is what makes grounding falsifiable.
// All functions here are pure; re-running a check on the same inputs always
// yields the same verdict.
package ground

import "strings"

// Locate returns the 1-based index of the first chunk containing the quote
// as an exact substring, or 0 if the quote is empty or not found.
func Locate(chunks []string, quote string) int {
	quote = strings.TrimSpace(quote)
	if quote == "" {
		return 0
	}
	for i, chunk := range chunks {
		if strings.Contains(chunk, quote) {
			return i + 1
		}
	}
	return 0
}

// QuotesPresent reports whether every quote is a non-empty exact substring
// of the full thread text. An empty quote list is vacuously present; the
// caller decides whether that is acceptable (it is not for issue evidence,
// it is for resolution evidence).
func QuotesPresent(fullText string, quotes []string) bool {
	for _, q := range quotes {
		q = strings.TrimSpace(q)
		if q == "" || !strings.Contains(fullText, q) {
			return false
		}
	}
	return true
}

// MaxProblemIndex returns the maximum message index among all locatable
// evidence quotes, or 0 if none locate. Zero means "no known anchor" and is
// treated permissively by the ordering check.
func MaxProblemIndex(chunks []string, evidenceQuotes []string) int {
	max := 0
	for _, q := range evidenceQuotes {
		if idx := Locate(chunks, q); idx > max {
			max = idx
		}
	}
	return max
}

// ResolutionIsLater reports whether every resolution quote locates to a
// message strictly after the latest message containing problem evidence.
// Resolution proof must postdate the problem it resolves; this is the core
// anti-hallucination invariant for resolution claims. A quote that fails to
// locate fails the whole check. With no problem anchor the check is
// vacuously true.
func ResolutionIsLater(chunks []string, evidenceQuotes, resolutionQuotes []string) bool {
	problemMax := MaxProblemIndex(chunks, evidenceQuotes)
	if problemMax == 0 {
		return true
	}
	for _, rq := range resolutionQuotes {
		idx := Locate(chunks, rq)
		if idx == 0 || idx <= problemMax {
			return false
		}
	}
	return true
}

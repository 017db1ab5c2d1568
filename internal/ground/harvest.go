package ground

import (
	"regexp"
	"strings"
)

// resolutionLexicon lists textual signals that often accompany a fix or
// follow-up. This is a recall-oriented heuristic: matches are candidate
// snippets for the resolution oracle, never a resolution decision.
var resolutionLexicon = []string{
	`\bfix\b`, `\bfixed\b`, `\bpushed\b`, `\bdeployed\b`, `\brolled back\b`,
	`\bworking again\b`, `\bworks again\b`, `\bworking now\b`, `\bworks now\b`,
	`\btested\b`, `\bverified\b`, `\blive shortly\b`, `\bshould be live\b`,
	`\brestored\b`, `\bback up\b`, `\bback online\b`, `\bapologize\b`,
	`\binform the client\b`,
}

var resolutionPattern = regexp.MustCompile(`(?i)` + strings.Join(resolutionLexicon, "|"))

const bodyMarker = "Body:\n"

// DefaultHarvestLimit caps the snippets passed to the resolution oracle.
const DefaultHarvestLimit = 6

// Harvest scans message bodies from afterIndex (1-based, clamped to 1) to
// the end of the thread, collecting up to limit distinct lines that match
// the resolution lexicon, in order of first occurrence.
func Harvest(chunks []string, afterIndex, limit int) []string {
	var snippets []string
	seen := make(map[string]bool)

	start := afterIndex
	if start < 1 {
		start = 1
	}
	for i := start; i <= len(chunks); i++ {
		body := chunks[i-1]
		if _, rest, ok := strings.Cut(body, bodyMarker); ok {
			body = rest
		}
		for _, line := range strings.Split(body, "\n") {
			if !resolutionPattern.MatchString(line) {
				continue
			}
			line = strings.TrimSpace(line)
			if line == "" || seen[line] {
				continue
			}
			seen[line] = true
			snippets = append(snippets, line)
			if len(snippets) >= limit {
				return snippets
			}
		}
	}
	return snippets
}

package mail

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	emailPattern    = regexp.MustCompile(`[\w.\-]+@[\w.\-]+\.\w+`)
	headerPattern   = regexp.MustCompile(`^(From|To|Cc|Date|Subject):`)
	subjectBoundary = regexp.MustCompile(`(?m)^Subject:\s`)
	fromBoundary    = regexp.MustCompile(`(?m)^From:\s`)
)

// dateLayouts is ordered: RFC-2822-like first, then explicit local formats.
// Layouts without a zone parse as UTC.
var dateLayouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006.01.02 15:04",
	"2006.01.02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// ParseThread splits raw text into message blocks, parses each block's
// headers and body, and returns the messages sorted ascending by date.
// threadID is the input file's stem, sourceFile its base name.
// Empty input yields an empty thread; callers must skip it.
func ParseThread(raw, threadID, sourceFile string) Thread {
	thread := Thread{ID: threadID}
	for _, block := range splitBlocks(raw) {
		thread.Messages = append(thread.Messages, parseMessage(block, threadID, sourceFile))
	}
	sort.SliceStable(thread.Messages, func(i, j int) bool {
		return thread.Messages[i].Date.Before(thread.Messages[j].Date)
	})
	return thread
}

// splitBlocks splits before each Subject: header line, or before each From:
// line when no Subject: headers exist. Text preceding the first boundary is
// its own block.
func splitBlocks(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	boundary := fromBoundary
	if subjectBoundary.MatchString(raw) {
		boundary = subjectBoundary
	}

	locs := boundary.FindAllStringIndex(raw, -1)
	var parts []string
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			parts = append(parts, raw[prev:loc[0]])
		}
		prev = loc[0]
	}
	parts = append(parts, raw[prev:])

	var blocks []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			blocks = append(blocks, p)
		}
	}
	return blocks
}

func parseMessage(block, threadID, sourceFile string) Message {
	lines := strings.Split(block, "\n")
	headers := make(map[string]string)
	i := 0
	for ; i < len(lines); i++ {
		if !headerPattern.MatchString(lines[i]) {
			break
		}
		key, value, _ := strings.Cut(lines[i], ":")
		headers[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	body := strings.TrimSpace(strings.Join(lines[i:], "\n"))

	from := "unknown"
	if senders := extractEmails(headers["from"]); len(senders) > 0 {
		from = senders[0]
	}

	return Message{
		ThreadID:   threadID,
		SourceFile: sourceFile,
		From:       from,
		To:         extractEmails(headers["to"]),
		Cc:         extractEmails(headers["cc"]),
		Date:       parseDate(headers["date"]),
		Subject:    headers["subject"],
		Body:       body,
	}
}

// parseDate tries each known layout in order. Total parse failure is not an
// error: the current time is substituted so the message keeps a position in
// the chronological sort.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}

func extractEmails(s string) []string {
	matches := emailPattern.FindAllString(s, -1)
	emails := make([]string, 0, len(matches))
	for _, m := range matches {
		emails = append(emails, strings.ToLower(m))
	}
	return emails
}

package mail

import (
	"fmt"
	"strings"
	"time"
)

const chunkSeparator = "\n---\n"

// Render formats the thread into the text shown to the oracles.
// It returns the full thread text and the per-message chunks. Grounding
// checks run against the full text; quote location runs against the chunks.
// The full text is exactly the chunks joined by the separator (trimmed), so
// any substring of a chunk is a substring of the full text.
func Render(t Thread) (fullText string, chunks []string) {
	chunks = make([]string, 0, len(t.Messages))
	for i, m := range t.Messages {
		chunks = append(chunks, renderMessage(i+1, m))
	}
	return strings.TrimSpace(strings.Join(chunks, chunkSeparator)), chunks
}

// renderMessage formats one message under its 1-based [MSG i] tag.
func renderMessage(index int, m Message) string {
	return fmt.Sprintf("[MSG %d]\nSubject: %s\nDate: %s\nFrom: %s\nTo: %s\nCc: %s\nBody:\n%s\n",
		index,
		m.Subject,
		m.Date.Format(time.RFC3339),
		m.From,
		strings.Join(m.To, ", "),
		strings.Join(m.Cc, ", "),
		m.Body,
	)
}

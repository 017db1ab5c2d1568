// Package mail models a parsed email thread and its rendered form.
//
// A thread is one input file's worth of messages, sorted chronologically.
// Messages are immutable once parsed; downstream components only read them.
package mail

import (
	"sort"
	"time"
)

type Message struct {
	ThreadID   string
	SourceFile string
	From       string
	To         []string
	Cc         []string
	Date       time.Time
	Subject    string
	Body       string
}

// Thread is an ordered sequence of messages sharing a thread ID, sorted
// ascending by date. The sort is stable: messages with equal dates keep
// their original appearance order.
type Thread struct {
	ID       string
	Messages []Message
}

// Empty reports whether the thread has no parseable messages.
// Empty threads are skipped by the pipeline and never reach the report.
func (t Thread) Empty() bool {
	return len(t.Messages) == 0
}

// SourceFiles returns the sorted, deduplicated source file names.
func (t Thread) SourceFiles() []string {
	seen := make(map[string]bool, 1)
	var files []string
	for _, m := range t.Messages {
		if !seen[m.SourceFile] {
			seen[m.SourceFile] = true
			files = append(files, m.SourceFile)
		}
	}
	sort.Strings(files)
	return files
}

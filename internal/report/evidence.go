package report

import (
	"fmt"
	"strings"
)

// EvidenceBank is a per-thread registry of accepted verbatim quotes. IDs are
// assigned sequentially ("E1", "E2", ...) in acceptance order and are never
// reused or renumbered, so summary bullets can cite them stably.
//
// A bank is owned by a single thread's assembly pass and is not safe for
// concurrent use; deterministic IDs require callers to add evidence in a
// fixed, reproducible order.
type EvidenceBank struct {
	counter int
	order   []string
	quotes  map[string]string
}

func NewEvidenceBank() *EvidenceBank {
	return &EvidenceBank{quotes: make(map[string]string)}
}

// Add registers each non-empty trimmed quote and returns the assigned IDs,
// one per registered quote.
func (b *EvidenceBank) Add(quotes []string) []string {
	var ids []string
	for _, q := range quotes {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		b.counter++
		id := fmt.Sprintf("E%d", b.counter)
		b.quotes[id] = q
		b.order = append(b.order, id)
		ids = append(ids, id)
	}
	return ids
}

// Quotes returns the ID-to-quote mapping.
func (b *EvidenceBank) Quotes() map[string]string {
	return b.quotes
}

// Len returns the number of registered quotes.
func (b *EvidenceBank) Len() int {
	return len(b.order)
}

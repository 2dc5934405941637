package justify

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cognicore/beliefnet/pkg/beliefnet/inference"
)

// Describe renders one query result as a human-readable justification.
// The text is a pure function of the evidence, the posterior and the
// elimination order, so the same query always produces the same line.
func Describe(res inference.Result) string {
	var b strings.Builder

	b.WriteString("conclusion based on evidence {")
	b.WriteString(res.Evidence.String())
	b.WriteString("}: ")

	scope := res.Posterior.Scope()
	values := res.Posterior.Values()

	// Walk the posterior cells in layout order, labelling each joint
	// assignment. The last scope variable varies fastest.
	strides := make([]int, len(scope))
	acc := 1
	for i := len(scope) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= scope[i].Card
	}
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("P(")
		for d, sv := range scope {
			if d > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%d", sv.Name, (i/strides[d])%sv.Card)
		}
		fmt.Fprintf(&b, ")=%.4f", v)
	}

	b.WriteString("; eliminated ")
	if len(res.Elimination) == 0 {
		b.WriteString("nothing")
	} else {
		b.WriteString(strings.Join(res.Elimination, ", "))
	}
	return b.String()
}

// Entry is one recorded justification, tied to the result it explains.
type Entry struct {
	ID   string
	At   time.Time
	Text string
}

// Journal is an append-only in-memory log of justifications. Entries
// are never rewritten or removed; readers get copies.
type Journal struct {
	mu      sync.Mutex
	entries []Entry
}

// NewJournal creates an empty journal.
func NewJournal() *Journal {
	return &Journal{}
}

// Append records a justification for the given result ID and returns
// the stored entry.
func (j *Journal) Append(id, text string) Entry {
	entry := Entry{ID: id, At: time.Now().UTC(), Text: text}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
	return entry
}

// Entries returns a copy of everything recorded, in append order.
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Len is the number of recorded entries.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

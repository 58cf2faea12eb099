// Package corpus holds the in-memory searchable view over ingested
// conversation records: records sorted newest-first with precomputed
// normalized text for term matching.
package corpus

import (
	"regexp"
	"sort"
	"strings"

	"github.com/1acre-in/message-analytics/pkg/convo"
)

// punctuation strips everything except letters, digits, underscore and
// whitespace. Unicode-aware so non-Latin names survive normalization.
var punctuation = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// NormalizeText lowercases s and strips punctuation. Both the corpus
// text and incoming search terms go through this, so matching stays
// symmetric.
func NormalizeText(s string) string {
	return punctuation.ReplaceAllString(strings.ToLower(s), "")
}

// Corpus is an immutable snapshot of conversation records ordered by
// first contact, newest first.
type Corpus struct {
	records    []convo.ConversationRecord
	normalized []string
}

// New builds a corpus from records. The input slice is not retained.
func New(records []convo.ConversationRecord) *Corpus {
	sorted := make([]convo.ConversationRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FirstContact.After(sorted[j].FirstContact)
	})

	normalized := make([]string, len(sorted))
	for i, r := range sorted {
		normalized[i] = NormalizeText(r.ConversationText)
	}

	return &Corpus{records: sorted, normalized: normalized}
}

// Len returns the number of records.
func (c *Corpus) Len() int {
	return len(c.records)
}

// Record returns the record at index i.
func (c *Corpus) Record(i int) convo.ConversationRecord {
	return c.records[i]
}

// NormalizedText returns the precomputed normalized conversation text
// for the record at index i.
func (c *Corpus) NormalizedText(i int) string {
	return c.normalized[i]
}

// Records returns a copy of all records in corpus order.
func (c *Corpus) Records() []convo.ConversationRecord {
	out := make([]convo.ConversationRecord, len(c.records))
	copy(out, c.records)
	return out
}

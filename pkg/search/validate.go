package search

import (
	"fmt"
	"strings"
)

const (
	maxQueryLength = 2000
	maxTerms       = 32
)

// ValidateQuery rejects structurally unusable queries before any
// matching work happens.
func ValidateQuery(q Query) error {
	if len(q.Terms) > maxTerms {
		return fmt.Errorf("too many search terms: %d (max %d)", len(q.Terms), maxTerms)
	}

	total := 0
	for _, term := range q.Terms {
		total += len(term)
	}
	if total > maxQueryLength {
		return fmt.Errorf("query too long: %d characters (max %d)", total, maxQueryLength)
	}

	if q.SortBy != "" && !q.SortBy.valid() {
		return fmt.Errorf("unknown sort order %q", q.SortBy)
	}

	if q.DateRange != nil && !q.DateRange.Start.IsZero() && !q.DateRange.End.IsZero() &&
		q.DateRange.End.Before(q.DateRange.Start) {
		return fmt.Errorf("date range end precedes start")
	}

	return nil
}

// SanitizeQuery strips control characters from raw user input, keeping
// tabs and newlines so multi-line pastes still tokenize.
func SanitizeQuery(raw string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, raw)
}

// ParseTerms splits raw query text into whitespace-separated terms.
func ParseTerms(raw string) []string {
	return strings.Fields(raw)
}

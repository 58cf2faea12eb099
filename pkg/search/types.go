// Package search implements multi-term conversation search: every term
// must match a record for it to be returned, with date, volume and
// ordering controls on top.
package search

import (
	"time"

	"github.com/1acre-in/message-analytics/pkg/convo"
)

// SortBy selects the result ordering.
type SortBy string

const (
	SortRecent          SortBy = "recent"
	SortOldest          SortBy = "oldest"
	SortMostMessages    SortBy = "most_messages"
	SortLongestDuration SortBy = "longest_duration"
)

// valid reports whether s is a recognized ordering.
func (s SortBy) valid() bool {
	switch s {
	case SortRecent, SortOldest, SortMostMessages, SortLongestDuration:
		return true
	}
	return false
}

// DateRange restricts results by first-contact date, inclusive on both
// ends. Only the date component is compared.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Query is one search request.
type Query struct {
	Terms       []string
	DateRange   *DateRange
	MinMessages int
	SortBy      SortBy
	MaxResults  int
}

// Response is the result of one search.
type Response struct {
	Terms      []string                   `json:"terms"`
	SortBy     SortBy                     `json:"sort_by"`
	MaxResults int                        `json:"max_results"`
	TookMs     int64                      `json:"took_ms"`
	Total      int                        `json:"total"`
	Results    []convo.ConversationRecord `json:"results"`
}

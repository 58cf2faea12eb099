// Package convo defines the canonical conversation record shared by all
// export parsers and consumed uniformly by the search engine.
package convo

import (
	"crypto/md5"
	"fmt"
	"strings"
	"time"
)

// Source identifies which export format produced a record.
type Source string

const (
	SourceJSON Source = "json"
	SourceHTML Source = "html"
)

// BrandSender is the canonical display name for company-side senders.
// Any sender name containing "acre" (case-insensitive) is folded into it
// for display grouping; the participant-derived ID stays untouched.
const BrandSender = "1acre"

// systemNoticePhrases are Messenger system notices dropped before a
// record is built. Matching is case-insensitive containment.
var systemNoticePhrases = []string{
	"quiet mode",
	"notification",
	"missed voice call",
	"missed video call",
	"started a video call",
	"started a voice call",
}

// Message is the ingestion-time intermediate built by the JSON parser.
// It is only constructed when a millisecond timestamp is present and the
// content is non-empty after trimming.
type Message struct {
	SenderName string
	SenderID   string // empty when the participant map has no entry
	Content    string
	Timestamp  time.Time
	ShareLink  string
}

// ConversationRecord is the canonical conversation produced by any
// parser. Records are immutable after ingestion and never mutated by
// the search engine.
type ConversationRecord struct {
	ProfileName      string    `json:"profile_name"`
	ProfileID        string    `json:"profile_id"`
	ThreadPath       string    `json:"thread_path,omitempty"`
	FirstContact     time.Time `json:"first_contact"`
	LastContact      time.Time `json:"last_contact"`
	ConversationText string    `json:"conversation"`
	MessageCount     int       `json:"message_count"`
	DurationDays     int       `json:"duration_days"`
	ParticipantCount int       `json:"participant_count"`
	Source           Source    `json:"source"`
}

// Fingerprint returns the first 8 hex characters of the MD5 digest of
// text. It is a display/grouping fingerprint, not a collision-safe
// identity guarantee.
func Fingerprint(text string) string {
	sum := md5.Sum([]byte(text))
	return fmt.Sprintf("%x", sum)[:8]
}

// IsSystemNotice reports whether content is a Messenger system notice
// rather than something a person typed.
func IsSystemNotice(content string) bool {
	lower := strings.ToLower(content)
	for _, phrase := range systemNoticePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// CanonicalSenderName folds company-side sender name variants into
// BrandSender and leaves everything else verbatim.
func CanonicalSenderName(name string) string {
	if strings.Contains(strings.ToLower(name), "acre") {
		return BrandSender
	}
	return name
}

// DurationDays returns floor(last-first in days)+1, never below 1.
func DurationDays(first, last time.Time) int {
	if last.Before(first) {
		return 1
	}
	return int(last.Sub(first).Hours()/24) + 1
}

package convo

import (
	"testing"
	"time"
)

func TestFingerprint(t *testing.T) {
	id := Fingerprint("John Doe")
	if len(id) != 8 {
		t.Fatalf("expected 8 hex chars, got %q", id)
	}
	if id != Fingerprint("John Doe") {
		t.Fatalf("fingerprint is not stable")
	}
	if id == Fingerprint("Jane Doe") {
		t.Fatalf("different names produced the same fingerprint")
	}
}

func TestIsSystemNotice(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{name: "Missed_voice_call", content: "missed voice call", want: true},
		{name: "Mixed_case", content: "Missed Video Call", want: true},
		{name: "Embedded", content: "John started a video call", want: true},
		{name: "Quiet_mode", content: "Quiet mode is on", want: true},
		{name: "Regular_text", content: "call me when you land", want: false},
		{name: "Empty", content: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSystemNotice(tt.content); got != tt.want {
				t.Fatalf("IsSystemNotice(%q)=%v, want %v", tt.content, got, tt.want)
			}
		})
	}
}

func TestCanonicalSenderName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "1acre", want: "1acre"},
		{in: "1Acre Support", want: "1acre"},
		{in: "Team ACRE", want: "1acre"},
		{in: "John Doe", want: "John Doe"},
	}

	for _, tt := range tests {
		if got := CanonicalSenderName(tt.in); got != tt.want {
			t.Fatalf("CanonicalSenderName(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDurationDays(t *testing.T) {
	base := time.Date(2024, 1, 5, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		first time.Time
		last  time.Time
		want  int
	}{
		{name: "Same_instant", first: base, last: base, want: 1},
		{name: "Same_day", first: base, last: base.Add(3 * time.Hour), want: 1},
		{name: "Just_over_a_day", first: base, last: base.Add(25 * time.Hour), want: 2},
		{name: "Ten_days", first: base, last: base.Add(10 * 24 * time.Hour), want: 11},
		{name: "Inverted_clamps_to_one", first: base, last: base.Add(-time.Hour), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DurationDays(tt.first, tt.last); got != tt.want {
				t.Fatalf("DurationDays=%d, want %d", got, tt.want)
			}
		})
	}
}

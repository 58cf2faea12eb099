package storage

import (
	"context"
	"testing"
	"time"

	"github.com/1acre-in/message-analytics/pkg/convo"
)

func sampleRecords() []convo.ConversationRecord {
	first := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	return []convo.ConversationRecord{
		{
			ProfileName:      "John Doe",
			ProfileID:        "aaaa1111",
			ThreadPath:       "inbox/johndoe_123",
			FirstContact:     first,
			LastContact:      first.Add(48 * time.Hour),
			ConversationText: "[John Doe (ID: aaaa1111)]: is the land still available?",
			MessageCount:     5,
			DurationDays:     3,
			ParticipantCount: 2,
			Source:           convo.SourceJSON,
		},
		{
			ProfileName:      "Jane Smith",
			ProfileID:        "bbbb2222",
			FirstContact:     first.Add(24 * time.Hour),
			LastContact:      first.Add(24 * time.Hour),
			ConversationText: "[Jane Smith]: hello",
			MessageCount:     1,
			DurationDays:     1,
			ParticipantCount: 1,
			Source:           convo.SourceHTML,
		},
	}
}

func TestReplaceAllAndLoadAll(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	records := sampleRecords()
	if err := s.ReplaceAll(ctx, records); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	loaded, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != len(records) {
		t.Fatalf("loaded %d records, want %d", len(loaded), len(records))
	}

	got, want := loaded[0], records[0]
	if got.ProfileName != want.ProfileName || got.ProfileID != want.ProfileID {
		t.Fatalf("profile mismatch: %+v", got)
	}
	if got.ThreadPath != want.ThreadPath {
		t.Fatalf("thread path = %q, want %q", got.ThreadPath, want.ThreadPath)
	}
	if !got.FirstContact.Equal(want.FirstContact) || !got.LastContact.Equal(want.LastContact) {
		t.Fatalf("contact range mismatch: %v .. %v", got.FirstContact, got.LastContact)
	}
	if got.ConversationText != want.ConversationText {
		t.Fatalf("conversation text mismatch: %q", got.ConversationText)
	}
	if got.MessageCount != want.MessageCount || got.DurationDays != want.DurationDays ||
		got.ParticipantCount != want.ParticipantCount {
		t.Fatalf("counters mismatch: %+v", got)
	}
	if got.Source != convo.SourceJSON {
		t.Fatalf("source = %q", got.Source)
	}

	// The HTML record has no thread path; it must round-trip as empty.
	if loaded[1].ThreadPath != "" {
		t.Fatalf("expected empty thread path, got %q", loaded[1].ThreadPath)
	}
}

func TestReplaceAll_DropsPreviousContents(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.ReplaceAll(ctx, sampleRecords()); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if err := s.ReplaceAll(ctx, sampleRecords()[:1]); err != nil {
		t.Fatalf("ReplaceAll (second): %v", err)
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

func TestLoadAll_Empty(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	loaded, err := s.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected no records, got %d", len(loaded))
	}
}

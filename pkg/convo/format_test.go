package convo

import (
	"strings"
	"testing"
	"time"
)

func msgAt(sender, id, content string, minute int) Message {
	return Message{
		SenderName: sender,
		SenderID:   id,
		Content:    content,
		Timestamp:  time.Date(2024, 3, 1, 10, minute, 0, 0, time.UTC),
	}
}

func TestFormatConversation_ContinuationLines(t *testing.T) {
	messages := []Message{
		msgAt("John", "aaaa1111", "hi there", 0),
		msgAt("John", "aaaa1111", "anyone around?", 1),
		msgAt("1acre", "bbbb2222", "hello!", 2),
		msgAt("John", "aaaa1111", "great", 3),
	}

	got := FormatConversation(messages)
	want := strings.Join([]string{
		"[John (ID: aaaa1111)]: hi there",
		"    : anyone around?",
		"[1acre (ID: bbbb2222)]: hello!",
		"[John (ID: aaaa1111)]: great",
	}, "\n")

	if got != want {
		t.Fatalf("unexpected conversation text:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatConversation_SortsByTimestamp(t *testing.T) {
	messages := []Message{
		msgAt("John", "aaaa1111", "second", 5),
		msgAt("John", "aaaa1111", "first", 0),
	}

	got := FormatConversation(messages)
	if !strings.HasPrefix(got, "[John (ID: aaaa1111)]: first") {
		t.Fatalf("messages not sorted by timestamp:\n%s", got)
	}
}

func TestFormatConversation_ShareLinkSuffix(t *testing.T) {
	msg := msgAt("John", "aaaa1111", "Shared link: https://example.com/x", 0)
	msg.ShareLink = "https://example.com/x"

	got := FormatConversation([]Message{msg})
	want := "[John (ID: aaaa1111)]: Shared link: https://example.com/x (Link: https://example.com/x)"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatConversation_Empty(t *testing.T) {
	if got := FormatConversation(nil); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}

package export

import (
	"strings"
	"testing"

	"github.com/1acre-in/message-analytics/pkg/convo"
)

func htmlMessageBlock(sender, content string) string {
	return `<div class="pam _3-95 _2ph- _a6-g">
  <div class="_3-95 _2pim _a6-h _a6-i">` + sender + `</div>
  <div class="_3-95 _a6-p"><div>` + content + `</div></div>
</div>`
}

func htmlExport(profile string, blocks ...string) string {
	var sb strings.Builder
	sb.WriteString(`<html><body><div class="_a70e">` + profile + `</div>`)
	for _, b := range blocks {
		sb.WriteString(b)
	}
	sb.WriteString(`<div class="_3-94 _a6-o">05 Jan 2024, 14:30</div></body></html>`)
	return sb.String()
}

func TestParseHTMLFile(t *testing.T) {
	doc := htmlExport("Jane Smith",
		htmlMessageBlock("Jane Smith", "hello, is this plot near the lake?"),
		htmlMessageBlock("1Acre Support", "yes, about 200m away"),
		htmlMessageBlock("Jane Smith", "hello, is this plot near the lake?"),
	)
	path := writeFixture(t, "thread.html", doc)

	record, err := ParseHTMLFile(path)
	if err != nil {
		t.Fatalf("ParseHTMLFile: %v", err)
	}
	if record == nil {
		t.Fatal("expected a record")
	}

	if record.ProfileName != "Jane Smith" {
		t.Fatalf("profile name = %q", record.ProfileName)
	}
	if record.ProfileID != convo.Fingerprint("Jane Smith") {
		t.Fatalf("profile id = %q", record.ProfileID)
	}
	if record.Source != convo.SourceHTML {
		t.Fatalf("source = %q", record.Source)
	}

	// The repeated line is removed, so two lines and two senders remain.
	if record.MessageCount != 2 {
		t.Fatalf("message count = %d, want 2:\n%s", record.MessageCount, record.ConversationText)
	}
	if record.ParticipantCount != 2 {
		t.Fatalf("participant count = %d, want 2", record.ParticipantCount)
	}
	if !strings.Contains(record.ConversationText, "[1acre]: yes, about 200m away") {
		t.Fatalf("brand sender not canonicalized:\n%s", record.ConversationText)
	}

	if got := record.FirstContact.Format("02 Jan 2006, 15:04"); got != "05 Jan 2024, 14:30" {
		t.Fatalf("first contact = %q", got)
	}
	if !record.LastContact.Equal(record.FirstContact) {
		t.Fatal("last contact should mirror first contact")
	}
	if record.DurationDays != 1 {
		t.Fatalf("duration days = %d, want 1", record.DurationDays)
	}
}

func TestParseHTMLFile_DefaultProfileName(t *testing.T) {
	doc := `<html><body>` +
		htmlMessageBlock("Someone", "hi") +
		`<div class="_3-94 _a6-o">05 Jan 2024, 14:30</div></body></html>`
	path := writeFixture(t, "thread.html", doc)

	record, err := ParseHTMLFile(path)
	if err != nil {
		t.Fatalf("ParseHTMLFile: %v", err)
	}
	if record.ProfileName != "Unknown" {
		t.Fatalf("profile name = %q, want Unknown", record.ProfileName)
	}
}

func TestParseHTMLFile_MissingTimestamp(t *testing.T) {
	doc := `<html><body><div class="_a70e">Jane</div>` + htmlMessageBlock("Jane", "hi") + `</body></html>`
	path := writeFixture(t, "thread.html", doc)

	if _, err := ParseHTMLFile(path); err == nil {
		t.Fatal("expected an error for a missing timestamp")
	}
}

func TestParseHTMLFile_BadTimestamp(t *testing.T) {
	doc := `<html><body><div class="_a70e">Jane</div>` +
		htmlMessageBlock("Jane", "hi") +
		`<div class="_3-94 _a6-o">sometime in January</div></body></html>`
	path := writeFixture(t, "thread.html", doc)

	if _, err := ParseHTMLFile(path); err == nil {
		t.Fatal("expected an error for an unparseable timestamp")
	}
}

func TestParseHTMLFile_NoMessages(t *testing.T) {
	doc := htmlExport("Jane Smith")
	path := writeFixture(t, "thread.html", doc)

	record, err := ParseHTMLFile(path)
	if err != nil {
		t.Fatalf("ParseHTMLFile: %v", err)
	}
	if record != nil {
		t.Fatalf("expected no record for an empty thread, got %+v", record)
	}
}

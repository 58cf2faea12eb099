package export

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/1acre-in/message-analytics/pkg/convo"
)

// jsonExport mirrors the message_N.json export structure.
type jsonExport struct {
	Participants []jsonParticipant `json:"participants"`
	Messages     []jsonMessage     `json:"messages"`
	Title        string            `json:"title"`
	ThreadPath   string            `json:"thread_path"`
}

type jsonParticipant struct {
	Name string `json:"name"`
}

type jsonShare struct {
	Link string `json:"link"`
}

type jsonMessage struct {
	SenderName  string     `json:"sender_name"`
	Content     string     `json:"content"`
	TimestampMs int64      `json:"timestamp_ms"`
	Share       *jsonShare `json:"share"`
}

// ParseJSONFile parses one message_N.json export unit into a canonical
// record. It returns (nil, nil) when the file is structurally valid but
// yields no usable messages: an empty unit, not an error.
func ParseJSONFile(path string) (*convo.ConversationRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}

	// Structural pre-check before committing to the typed decode: the
	// unit must be a JSON object, and messages (if present) an array.
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("top-level value is not an object")
	}
	// An explicit null is an empty unit, not a malformed one.
	if msgs := root.Get("messages"); msgs.Exists() && msgs.Type != gjson.Null && !msgs.IsArray() {
		return nil, fmt.Errorf("messages field is not an array")
	}

	var exp jsonExport
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("decoding export: %w", err)
	}
	if len(exp.Messages) == 0 {
		return nil, nil
	}

	// Map participant names to short IDs. Sender IDs are resolved from
	// the original names, before any brand canonicalization.
	participants := make(map[string]string, len(exp.Participants))
	for _, p := range exp.Participants {
		name := p.Name
		if name == "" {
			name = "Unknown"
		}
		participants[name] = convo.Fingerprint(name)
	}

	var valid []convo.Message
	for _, raw := range exp.Messages {
		if msg, ok := messageFromExport(raw, participants); ok {
			valid = append(valid, msg)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}

	first, last := valid[0].Timestamp, valid[0].Timestamp
	for _, m := range valid[1:] {
		if m.Timestamp.Before(first) {
			first = m.Timestamp
		}
		if m.Timestamp.After(last) {
			last = m.Timestamp
		}
	}

	profileName := exp.Title
	if profileName == "" {
		profileName = "Unknown User"
	}

	return &convo.ConversationRecord{
		ProfileName:      profileName,
		ProfileID:        convo.Fingerprint(profileName),
		ThreadPath:       exp.ThreadPath,
		FirstContact:     first,
		LastContact:      last,
		ConversationText: convo.FormatConversation(valid),
		MessageCount:     len(valid),
		DurationDays:     convo.DurationDays(first, last),
		ParticipantCount: len(participants),
		Source:           convo.SourceJSON,
	}, nil
}

// messageFromExport applies the per-message validation rules: a
// millisecond timestamp must be present, content must be non-empty after
// trimming (share-only messages synthesize a "Shared link:" line), and
// system notices are dropped.
func messageFromExport(raw jsonMessage, participants map[string]string) (convo.Message, bool) {
	if raw.TimestampMs == 0 {
		return convo.Message{}, false
	}

	content := strings.TrimSpace(raw.Content)
	shareLink := ""
	if raw.Share != nil {
		shareLink = strings.TrimSpace(raw.Share.Link)
	}
	if content == "" {
		if shareLink == "" {
			return convo.Message{}, false
		}
		content = "Shared link: " + shareLink
	}
	if convo.IsSystemNotice(content) {
		return convo.Message{}, false
	}

	senderName := raw.SenderName
	if senderName == "" {
		senderName = "Unknown"
	}
	senderID := participants[senderName]

	return convo.Message{
		SenderName: convo.CanonicalSenderName(senderName),
		SenderID:   senderID,
		Content:    content,
		Timestamp:  time.UnixMilli(raw.TimestampMs).UTC(),
		ShareLink:  shareLink,
	}, true
}

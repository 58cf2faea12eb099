package convo

import (
	"fmt"
	"sort"
	"strings"
)

// FormatConversation renders messages as conversation text in ascending
// timestamp order. A message from a new sender is prefixed with
// "[<sender> (ID: <id>)]: "; consecutive messages from the same sender
// render as indented continuations. Share links are appended to the line.
func FormatConversation(messages []Message) string {
	sorted := make([]Message, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	lines := make([]string, 0, len(sorted))
	prevSender := ""
	for i, msg := range sorted {
		senderText := "    "
		if i == 0 || msg.SenderName != prevSender {
			senderText = fmt.Sprintf("[%s (ID: %s)]", msg.SenderName, msg.SenderID)
			prevSender = msg.SenderName
		}

		line := fmt.Sprintf("%s: %s", senderText, msg.Content)
		if msg.ShareLink != "" {
			line += fmt.Sprintf(" (Link: %s)", msg.ShareLink)
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

package export

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/1acre-in/message-analytics/pkg/convo"
)

// htmlTimestampLayout is the textual date-time format used by the HTML
// thread export, e.g. "05 Jan 2024, 14:30".
const htmlTimestampLayout = "02 Jan 2006, 15:04"

// The export identifies elements by fixed obfuscated class sets.
var (
	profileHeaderClasses  = []string{"_a70e"}
	messageBlockClasses   = []string{"pam", "_3-95", "_2ph-", "_a6-g"}
	messageSenderClasses  = []string{"_3-95", "_2pim", "_a6-h", "_a6-i"}
	messageContentClasses = []string{"_3-95", "_a6-p"}
	timestampClasses      = []string{"_3-94", "_a6-o"}
)

// ParseHTMLFile parses one HTML thread export into a canonical record.
// Missing structure or an unparseable timestamp fails the whole file; a
// file that parses but yields no message content returns (nil, nil).
func ParseHTMLFile(path string) (*convo.ConversationRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening export: %w", err)
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	profileName := "Unknown"
	if node := findFirst(doc, profileHeaderClasses); node != nil {
		if text := strings.TrimSpace(nodeText(node)); text != "" {
			profileName = text
		}
	}

	var lines []string
	senders := make(map[string]struct{})
	for _, block := range findAll(doc, messageBlockClasses) {
		senderNode := findFirst(block, messageSenderClasses)
		contentNode := findFirst(block, messageContentClasses)
		if senderNode == nil || contentNode == nil {
			return nil, fmt.Errorf("message block missing sender or content element")
		}

		sender := strings.TrimSpace(nodeText(senderNode))
		if strings.HasPrefix(strings.ToLower(sender), convo.BrandSender) {
			sender = convo.BrandSender
		}

		// Content is the concatenation of the block's direct child divs'
		// non-empty text fragments.
		var parts []string
		for child := contentNode.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.ElementNode && child.Data == "div" {
				if text := strings.TrimSpace(nodeText(child)); text != "" {
					parts = append(parts, text)
				}
			}
		}
		content := strings.Join(parts, " ")
		if content == "" {
			continue
		}

		senders[sender] = struct{}{}
		lines = append(lines, fmt.Sprintf("[%s]: %s", sender, content))
	}

	timestamps := findAll(doc, timestampClasses)
	if len(timestamps) == 0 {
		return nil, fmt.Errorf("no timestamp element found")
	}
	rawTimestamp := strings.TrimSpace(nodeText(timestamps[len(timestamps)-1]))
	firstContact, err := time.Parse(htmlTimestampLayout, rawTimestamp)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp %q: %w", rawTimestamp, err)
	}

	lines = dedupLines(lines)
	if len(lines) == 0 {
		return nil, nil
	}

	// The HTML export carries a single usable timestamp, so the record
	// collapses to a one-day conversation anchored at first contact.
	return &convo.ConversationRecord{
		ProfileName:      profileName,
		ProfileID:        convo.Fingerprint(profileName),
		FirstContact:     firstContact,
		LastContact:      firstContact,
		ConversationText: strings.Join(lines, "\n"),
		MessageCount:     len(lines),
		DurationDays:     convo.DurationDays(firstContact, firstContact),
		ParticipantCount: len(senders),
		Source:           convo.SourceHTML,
	}, nil
}

// dedupLines removes exact-duplicate lines, preserving first occurrence
// order. This is deliberate HTML-path behavior; the JSON path keeps
// duplicates and renders same-sender runs as continuations.
func dedupLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := lines[:0]
	for _, line := range lines {
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}

// hasClasses reports whether n is an element carrying every class in
// classes (it may carry more).
func hasClasses(n *html.Node, classes []string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	var attr string
	for _, a := range n.Attr {
		if a.Key == "class" {
			attr = a.Val
			break
		}
	}
	if attr == "" {
		return false
	}
	have := make(map[string]struct{})
	for _, c := range strings.Fields(attr) {
		have[c] = struct{}{}
	}
	for _, c := range classes {
		if _, ok := have[c]; !ok {
			return false
		}
	}
	return true
}

// findFirst returns the first node in document order under root matching
// the class set, or nil.
func findFirst(root *html.Node, classes []string) *html.Node {
	if hasClasses(root, classes) {
		return root
	}
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		if found := findFirst(child, classes); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns every node under root matching the class set, in
// document order.
func findAll(root *html.Node, classes []string) []*html.Node {
	var out []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if hasClasses(n, classes) {
			out = append(out, n)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return out
}

// nodeText concatenates all text fragments nested under n.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}

package formatter

import (
	"fmt"
	"strings"

	"github.com/mediajel/apidocs/internal/domain"
)

// FormatThreads renders chat threads, most recently active first.
func FormatThreads(threads []*domain.ChatThread) string {
	if len(threads) == 0 {
		return Dim("No conversations yet.") + "\n"
	}
	rows := make([][]string, 0, len(threads))
	for _, t := range threads {
		title := t.Title
		if title == "" {
			title = Dim("(untitled)")
		}
		rows = append(rows, []string{t.ID, Truncate(title, 60), Dim(HumanTimestamp(t.UpdatedAt))})
	}
	return RenderTable([]string{"ID", "TITLE", "UPDATED"}, rows)
}

// FormatTranscript renders a thread's messages as markdown, one heading per
// turn.
func FormatTranscript(messages []*domain.ChatMessage) string {
	var b strings.Builder
	for _, m := range messages {
		who := "You"
		if m.Role == domain.RoleAssistant {
			who = "Assistant"
		}
		fmt.Fprintf(&b, "### %s\n\n%s\n\n", who, strings.TrimSpace(m.Content))
	}
	return b.String()
}

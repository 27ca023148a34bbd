package glossary

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mediajel/apidocs/internal/domain"
)

// FormatMarkdown renders entries as the "Relevant Business Terms" context
// section. Only the first example of each entry is shown. An example whose
// variables cannot be encoded is rendered without its variables block.
func FormatMarkdown(entries []domain.GlossaryEntry) string {
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Relevant Business Terms\n\n")

	for _, e := range entries {
		fmt.Fprintf(&b, "### %s\n", e.Term)
		fmt.Fprintf(&b, "%s\n\n", e.Description)
		fmt.Fprintf(&b, "**Related Operations:** %s\n", strings.Join(e.RelatedOperations, ", "))
		fmt.Fprintf(&b, "**Related Types:** %s\n", strings.Join(e.RelatedTypes, ", "))

		if len(e.Examples) > 0 {
			ex := e.Examples[0]
			b.WriteString("\n**Example:**\n")
			fmt.Fprintf(&b, "- Business Question: \"%s\"\n", ex.BusinessQuestion)
			fmt.Fprintf(&b, "- Technical Query:\n```graphql\n%s\n```\n", ex.TechnicalQuery)
			if ex.Variables != nil {
				if vars, err := json.MarshalIndent(ex.Variables, "", "  "); err == nil {
					fmt.Fprintf(&b, "- Variables:\n```json\n%s\n```\n", vars)
				}
			}
		}

		b.WriteString("\n")
	}

	return b.String()
}

// FormatMatches renders the entries behind matches, in match order.
func FormatMatches(matches []domain.GlossaryMatch) string {
	entries := make([]domain.GlossaryEntry, 0, len(matches))
	for _, m := range matches {
		entries = append(entries, *m.Entry)
	}
	return FormatMarkdown(entries)
}

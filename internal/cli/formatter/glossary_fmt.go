package formatter

import (
	"fmt"
	"strings"

	"github.com/mediajel/apidocs/internal/domain"
)

// FormatGlossaryList renders glossary entries as a table.
func FormatGlossaryList(entries []domain.GlossaryEntry) string {
	if len(entries) == 0 {
		return Dim("No glossary terms.") + "\n"
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			StyleBold.Render(e.Term),
			StylePurple.Render(e.Category),
			Truncate(strings.Join(e.Aliases, ", "), 40),
			Truncate(strings.Join(e.RelatedOperations, ", "), 40),
		})
	}
	return RenderTable([]string{"TERM", "CATEGORY", "ALIASES", "OPERATIONS"}, rows)
}

// FormatGlossaryEntry renders one entry in full.
func FormatGlossaryEntry(e domain.GlossaryEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", StyleBold.Render(e.Term), StylePurple.Render(e.Category))
	if e.Description != "" {
		fmt.Fprintf(&b, "%s\n", e.Description)
	}
	if len(e.Aliases) > 0 {
		fmt.Fprintf(&b, "%s %s\n", Dim("Aliases:"), strings.Join(e.Aliases, ", "))
	}
	fmt.Fprintf(&b, "%s %s\n", Dim("Operations:"), orDash(strings.Join(e.RelatedOperations, ", ")))
	fmt.Fprintf(&b, "%s %s\n", Dim("Types:"), orDash(strings.Join(e.RelatedTypes, ", ")))
	return b.String()
}

// FormatGlossaryMatches renders search hits, best first.
func FormatGlossaryMatches(matches []domain.GlossaryMatch) string {
	if len(matches) == 0 {
		return Dim("No matching terms.") + "\n"
	}
	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		on := string(m.MatchedOn)
		if m.MatchedOn == domain.MatchAlias {
			on += " " + Dim(fmt.Sprintf("(%s)", m.MatchedText))
		}
		rows = append(rows, []string{
			StyleBold.Render(m.Entry.Term),
			ConfidenceText(m.Confidence),
			on,
			Truncate(strings.Join(m.Entry.RelatedOperations, ", "), 40),
		})
	}
	return RenderTable([]string{"TERM", "CONFIDENCE", "MATCHED ON", "OPERATIONS"}, rows)
}

// FormatCategories renders category names with their entry counts.
func FormatCategories(g *domain.DomainGlossary, categories []string) string {
	if len(categories) == 0 {
		return Dim("No categories.") + "\n"
	}
	counts := make(map[string]int)
	for _, e := range g.Terms {
		counts[e.Category]++
	}
	rows := make([][]string, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, []string{StylePurple.Render(c), fmt.Sprint(counts[c])})
	}
	return RenderTable([]string{"CATEGORY", "TERMS"}, rows)
}

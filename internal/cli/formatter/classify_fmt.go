package formatter

import (
	"fmt"
	"strings"

	"github.com/mediajel/apidocs/internal/domain"
	"github.com/mediajel/apidocs/internal/intelligence"
)

// FormatClassification renders a classifier decision with the evidence
// behind it.
func FormatClassification(c intelligence.ClassifiedIntent) string {
	var b strings.Builder
	b.WriteString(Header("Classification"))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "  %s  %s\n", IntentBadge(c.Intent), ConfidenceText(c.Confidence))
	fmt.Fprintf(&b, "  %s\n\n", Dim(c.Intent.Describe()))

	rows := [][]string{
		{"Rule", c.Rule},
		{"Reasoning", c.Reasoning},
		{"Keywords", orDash(strings.Join(c.MatchedKeywords, ", "))},
		{"Operations", orDash(strings.Join(c.SuggestedOperations, ", "))},
		{"Types", orDash(strings.Join(c.SuggestedTypes, ", "))},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "  %s %s\n", label(r[0]), r[1])
	}

	if len(c.GlossaryMatches) > 0 {
		b.WriteString("\n")
		b.WriteString(FormatGlossaryMatches(c.GlossaryMatches))
	}
	return b.String()
}

// FormatContextSummary renders what went into a schema context, without the
// context text itself.
func FormatContextSummary(sc intelligence.SchemaContext) string {
	var b strings.Builder
	b.WriteString(Header("Context"))
	b.WriteString("\n\n")

	size := fmt.Sprintf("%d chars", sc.CharacterCount)
	if sc.WasTruncated {
		size += " " + StyleYellow.Render("(truncated)")
	}
	fmt.Fprintf(&b, "  %s %s\n", label("Size"), size)
	fmt.Fprintf(&b, "  %s %s\n", label("Operations"), orDash(strings.Join(sc.IncludedOperations, ", ")))
	fmt.Fprintf(&b, "  %s %s\n", label("Types"), orDash(strings.Join(sc.IncludedTypes, ", ")))
	fmt.Fprintf(&b, "  %s %s\n", label("Terms"), orDash(strings.Join(sc.IncludedTerms, ", ")))
	return b.String()
}

// IntentLine is the one-line classification shown above assistant answers.
func IntentLine(c intelligence.ClassifiedIntent) string {
	line := IntentBadge(c.Intent) + " " + ConfidenceText(c.Confidence)
	if c.Intent == domain.IntentHybrid || c.Intent == domain.IntentSchemaQuery {
		if len(c.SuggestedOperations) > 0 {
			line += Dim("  → " + strings.Join(c.SuggestedOperations, ", "))
		}
	}
	if c.Intent == domain.IntentDomainKnowledge || c.Intent == domain.IntentHybrid {
		if m, ok := c.TopMatch(); ok && m.Entry != nil {
			line += Dim("  ≈ " + m.Entry.Term)
		}
	}
	return line
}

func label(s string) string {
	return Dim(fmt.Sprintf("%-12s", s))
}

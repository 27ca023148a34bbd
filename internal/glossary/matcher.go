package glossary

import (
	"cmp"
	"math"
	"regexp"
	"slices"
	"strings"

	"github.com/mediajel/apidocs/internal/domain"
)

// DefaultThreshold is the minimum fuzzy similarity for a match when the
// caller does not choose one.
const DefaultThreshold = 0.3

const (
	termConfidence  = 1.0
	aliasConfidence = 0.95
	// fuzzy alias hits are discounted against fuzzy term hits
	fuzzyAliasScale = 0.95
)

var (
	nonWordPattern    = regexp.MustCompile(`[^\w\s]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// normalize lowercases, trims, strips punctuation and collapses whitespace.
// Trimming happens before punctuation is stripped, so "report ?" keeps a
// trailing space; callers that normalize twice lose it.
func normalize(text string) string {
	s := strings.TrimSpace(strings.ToLower(text))
	s = nonWordPattern.ReplaceAllString(s, "")
	return whitespacePattern.ReplaceAllString(s, " ")
}

// Normalize exposes the matcher's text normalization.
func Normalize(text string) string {
	return normalize(text)
}

// Similarity scores the word overlap of a against b. The intersection is
// counted from a's word list (duplicates included) while the union is taken
// over distinct words, so the score is asymmetric. It is capped at 1.
func Similarity(a, b string) float64 {
	words1 := strings.Split(normalize(a), " ")
	words2 := strings.Split(normalize(b), " ")

	set1 := make(map[string]bool, len(words1))
	for _, w := range words1 {
		set1[w] = true
	}
	set2 := make(map[string]bool, len(words2))
	for _, w := range words2 {
		set2[w] = true
	}
	if len(set1) == 0 || len(set2) == 0 {
		return 0
	}

	intersection := 0
	for _, w := range words1 {
		if set2[w] {
			intersection++
		}
	}
	union := len(set1)
	for w := range set2 {
		if !set1[w] {
			union++
		}
	}

	return math.Min(float64(intersection)/float64(union), 1)
}

func containsTerm(normalizedText, term string) bool {
	return strings.Contains(normalizedText, normalize(term))
}

// Search returns the glossary entries matching question, best first. Each
// entry contributes at most one match: exact term, then exact alias, then
// fuzzy term, then fuzzy alias. Matches are deduplicated by term after a
// stable sort, so the first kept occurrence wins.
func Search(question string, g *domain.DomainGlossary, threshold float64) []domain.GlossaryMatch {
	if g == nil {
		return []domain.GlossaryMatch{}
	}

	normalizedQuestion := normalize(question)
	var matches []domain.GlossaryMatch

	for i := range g.Terms {
		if m, ok := matchEntry(&g.Terms[i], normalizedQuestion, threshold); ok {
			matches = append(matches, m)
		}
	}

	slices.SortStableFunc(matches, func(a, b domain.GlossaryMatch) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})

	seen := make(map[string]bool, len(matches))
	out := make([]domain.GlossaryMatch, 0, len(matches))
	for _, m := range matches {
		if seen[m.Entry.Term] {
			continue
		}
		seen[m.Entry.Term] = true
		out = append(out, m)
	}
	return out
}

func matchEntry(entry *domain.GlossaryEntry, normalizedQuestion string, threshold float64) (domain.GlossaryMatch, bool) {
	if containsTerm(normalizedQuestion, entry.Term) {
		return domain.GlossaryMatch{
			Entry:       entry,
			MatchedOn:   domain.MatchTerm,
			MatchedText: entry.Term,
			Confidence:  termConfidence,
		}, true
	}

	for _, alias := range entry.Aliases {
		if containsTerm(normalizedQuestion, alias) {
			return domain.GlossaryMatch{
				Entry:       entry,
				MatchedOn:   domain.MatchAlias,
				MatchedText: alias,
				Confidence:  aliasConfidence,
			}, true
		}
	}

	if sim := Similarity(normalizedQuestion, entry.Term); sim >= threshold {
		return domain.GlossaryMatch{
			Entry:       entry,
			MatchedOn:   domain.MatchTerm,
			MatchedText: entry.Term,
			Confidence:  sim,
		}, true
	}

	for _, alias := range entry.Aliases {
		if sim := Similarity(normalizedQuestion, alias); sim >= threshold {
			return domain.GlossaryMatch{
				Entry:       entry,
				MatchedOn:   domain.MatchAlias,
				MatchedText: alias,
				Confidence:  sim * fuzzyAliasScale,
			}, true
		}
	}

	return domain.GlossaryMatch{}, false
}

// OperationsFromMatches returns the related operations of all matches,
// deduplicated in first-seen order.
func OperationsFromMatches(matches []domain.GlossaryMatch) []string {
	return collect(matches, func(e *domain.GlossaryEntry) []string { return e.RelatedOperations })
}

// TypesFromMatches returns the related types of all matches, deduplicated in
// first-seen order.
func TypesFromMatches(matches []domain.GlossaryMatch) []string {
	return collect(matches, func(e *domain.GlossaryEntry) []string { return e.RelatedTypes })
}

func collect(matches []domain.GlossaryMatch, field func(*domain.GlossaryEntry) []string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, m := range matches {
		for _, v := range field(m.Entry) {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

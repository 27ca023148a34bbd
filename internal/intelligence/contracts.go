package intelligence

import "github.com/mediajel/apidocs/internal/domain"

// ClassifiedIntent is the classifier's decision for one question.
type ClassifiedIntent struct {
	Intent     domain.QueryIntent `json:"intent"`
	Confidence float64            `json:"confidence"`
	// GlossaryMatches is sorted by descending confidence, one per term.
	GlossaryMatches     []domain.GlossaryMatch `json:"glossaryMatches"`
	SuggestedOperations []string               `json:"suggestedOperations"`
	SuggestedTypes      []string               `json:"suggestedTypes"`
	// MatchedKeywords holds schema keyword hits followed by domain keyword hits.
	MatchedKeywords []string `json:"matchedKeywords"`
	Reasoning       string   `json:"reasoning"`
	// Rule names the decision rule that fired.
	Rule string `json:"rule"`
}

// TopMatch returns the highest-confidence glossary match, if any.
func (c ClassifiedIntent) TopMatch() (domain.GlossaryMatch, bool) {
	if len(c.GlossaryMatches) == 0 {
		return domain.GlossaryMatch{}, false
	}
	return c.GlossaryMatches[0], true
}

// SchemaContext is the assembled context for one classified question.
// CharacterCount is the length of Context in characters (runes).
type SchemaContext struct {
	Context            string   `json:"context"`
	IncludedOperations []string `json:"includedOperations"`
	IncludedTypes      []string `json:"includedTypes"`
	IncludedTerms      []string `json:"includedTerms"`
	CharacterCount     int      `json:"characterCount"`
	WasTruncated       bool     `json:"wasTruncated"`
}

// DefaultMaxChars is the context budget used when ContextOptions.MaxChars is unset.
const DefaultMaxChars = 32000

// ContextOptions tunes context building. Nil include flags mean true.
type ContextOptions struct {
	MaxChars        int   `json:"maxChars,omitempty"`
	IncludeExamples *bool `json:"includeExamples,omitempty"`
	IncludeTypes    *bool `json:"includeTypes,omitempty"`
	IncludeGlossary *bool `json:"includeGlossary,omitempty"`
}

// Bool returns a pointer to v, for populating ContextOptions.
func Bool(v bool) *bool { return &v }

func (o ContextOptions) maxChars() int {
	if o.MaxChars <= 0 {
		return DefaultMaxChars
	}
	return o.MaxChars
}

func (o ContextOptions) includeExamples() bool {
	return domain.BoolFromPtrWithDefault(true, o.IncludeExamples)
}

func (o ContextOptions) includeTypes() bool {
	return domain.BoolFromPtrWithDefault(true, o.IncludeTypes)
}

func (o ContextOptions) includeGlossary() bool {
	return domain.BoolFromPtrWithDefault(true, o.IncludeGlossary)
}

// Catalog is the read-only operation catalog the context builder consults.
type Catalog interface {
	ListOperations() []domain.OperationInfo
	GetOperation(name string) (domain.OperationInfo, bool)
	ListTypes() []domain.TypeDetails
	Config() domain.APIConfig
}

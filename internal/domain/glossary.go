package domain

// GlossaryExample shows how a business question maps to a GraphQL query.
type GlossaryExample struct {
	BusinessQuestion string         `json:"businessQuestion" yaml:"businessQuestion"`
	TechnicalQuery   string         `json:"technicalQuery" yaml:"technicalQuery"`
	Variables        map[string]any `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// GlossaryEntry maps a business term to the operations and types that answer it.
// Entries are immutable once loaded.
type GlossaryEntry struct {
	Term              string            `json:"term" yaml:"term"`
	Aliases           []string          `json:"aliases" yaml:"aliases"`
	Description       string            `json:"description" yaml:"description"`
	RelatedOperations []string          `json:"relatedOperations" yaml:"relatedOperations"`
	RelatedTypes      []string          `json:"relatedTypes" yaml:"relatedTypes"`
	Category          string            `json:"category" yaml:"category"`
	Examples          []GlossaryExample `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// DomainGlossary is one loaded, versioned glossary. Term order only affects
// iteration and display, never matching.
type DomainGlossary struct {
	Version     string          `json:"version" yaml:"version"`
	LastUpdated string          `json:"lastUpdated" yaml:"lastUpdated"`
	Terms       []GlossaryEntry `json:"terms" yaml:"terms"`
}

// EmptyGlossary returns the fallback used when the glossary resource cannot be loaded.
func EmptyGlossary(version string) *DomainGlossary {
	return &DomainGlossary{Version: version, LastUpdated: "", Terms: []GlossaryEntry{}}
}

// GlossaryMatch is a transient hit produced by a glossary search. Entry points
// into the glossary that produced it.
type GlossaryMatch struct {
	Entry       *GlossaryEntry `json:"entry"`
	MatchedOn   MatchKind      `json:"matchedOn"`
	MatchedText string         `json:"matchedText"`
	Confidence  float64        `json:"confidence"`
}

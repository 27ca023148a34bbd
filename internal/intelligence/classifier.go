package intelligence

import (
	"fmt"
	"log/slog"

	"github.com/mediajel/apidocs/internal/domain"
	"github.com/mediajel/apidocs/internal/glossary"
)

// GlossaryThreshold is the fuzzy-match floor the classifier searches with.
const GlossaryThreshold = 0.35

// signals are the lexical observations a rule decides on.
type signals struct {
	schemaKeywords  []string
	domainKeywords  []string
	apiPattern      bool
	businessPattern bool
	matches         []domain.GlossaryMatch
}

func (s signals) hasMatches() bool { return len(s.matches) > 0 }

func (s signals) top() domain.GlossaryMatch {
	if len(s.matches) == 0 {
		return domain.GlossaryMatch{Entry: &domain.GlossaryEntry{}}
	}
	return s.matches[0]
}

type outcome struct {
	intent     domain.QueryIntent
	confidence float64
	reasoning  string
}

// rule is one row of the decision table. Rules are evaluated in order and
// the first whose applies returns true decides the intent.
type rule struct {
	name    string
	applies func(signals) bool
	decide  func(signals) outcome
}

var rules = []rule{
	{
		name:    "schema_with_glossary",
		applies: func(s signals) bool { return (len(s.schemaKeywords) > 0 || s.apiPattern) && s.hasMatches() },
		decide: func(signals) outcome {
			return outcome{domain.IntentHybrid, 0.85, "Question contains API/schema keywords and matches business terms in glossary"}
		},
	},
	{
		name:    "business_with_glossary",
		applies: func(s signals) bool { return s.businessPattern && s.hasMatches() },
		decide: func(signals) outcome {
			return outcome{domain.IntentHybrid, 0.9, "Question asks about business metrics that map to specific API operations"}
		},
	},
	{
		name:    "strong_glossary",
		applies: func(s signals) bool { return s.hasMatches() && s.top().Confidence >= 0.8 },
		decide: func(s signals) outcome {
			return outcome{domain.IntentHybrid, s.top().Confidence,
				fmt.Sprintf("Strong match on glossary term %q", s.top().Entry.Term)}
		},
	},
	{
		name:    "moderate_glossary",
		applies: func(s signals) bool { return s.hasMatches() && s.top().Confidence >= 0.5 },
		decide: func(s signals) outcome {
			return outcome{domain.IntentHybrid, s.top().Confidence * 0.9,
				fmt.Sprintf("Moderate match on glossary term %q", s.top().Entry.Term)}
		},
	},
	{
		name:    "schema",
		applies: func(s signals) bool { return len(s.schemaKeywords) >= 2 || s.apiPattern },
		decide: func(signals) outcome {
			return outcome{domain.IntentSchemaQuery, 0.8, "Question is about API/schema structure or syntax"}
		},
	},
	{
		name: "domain",
		applies: func(s signals) bool {
			return len(s.domainKeywords) >= 2 || len(s.domainKeywords) > len(s.schemaKeywords)
		},
		decide: func(signals) outcome {
			return outcome{domain.IntentDomainKnowledge, 0.75, "Question is about company/product information best answered from knowledge base"}
		},
	},
	{
		name:    "single_schema_keyword",
		applies: func(s signals) bool { return len(s.schemaKeywords) == 1 },
		decide: func(s signals) outcome {
			return outcome{domain.IntentSchemaQuery, 0.6,
				fmt.Sprintf("Contains schema keyword %q", s.schemaKeywords[0])}
		},
	},
	{
		name:    "single_domain_keyword",
		applies: func(s signals) bool { return len(s.domainKeywords) == 1 },
		decide: func(s signals) outcome {
			return outcome{domain.IntentDomainKnowledge, 0.6,
				fmt.Sprintf("Contains domain keyword %q", s.domainKeywords[0])}
		},
	},
	{
		name:    "weak_glossary",
		applies: signals.hasMatches,
		decide: func(s signals) outcome {
			return outcome{domain.IntentHybrid, s.top().Confidence * 0.7,
				fmt.Sprintf("Weak match on glossary term %q", s.top().Entry.Term)}
		},
	},
}

const defaultRule = "default"

// Classify assigns one of the four intents to question. A nil glossary means
// the embedded default glossary. Classify is a pure function of its inputs.
func Classify(question string, g *domain.DomainGlossary) ClassifiedIntent {
	if g == nil {
		g = glossary.LoadOrEmpty("", slog.Default())
	}

	s := signals{
		schemaKeywords:  containsKeywords(question, schemaKeywords),
		apiPattern:      matchesAny(question, apiQuestionPatterns),
		domainKeywords:  containsKeywords(question, domainKeywords),
		businessPattern: matchesAny(question, businessQuestionPatterns),
		matches:         glossary.Search(question, g, GlossaryThreshold),
	}

	result := ClassifiedIntent{
		GlossaryMatches:     s.matches,
		SuggestedOperations: glossary.OperationsFromMatches(s.matches),
		SuggestedTypes:      glossary.TypesFromMatches(s.matches),
		MatchedKeywords:     append(append([]string{}, s.schemaKeywords...), s.domainKeywords...),
	}

	for _, r := range rules {
		if !r.applies(s) {
			continue
		}
		o := r.decide(s)
		result.Intent = o.intent
		result.Confidence = clamp(o.confidence)
		result.Reasoning = o.reasoning
		result.Rule = r.name
		return result
	}

	result.Intent = domain.IntentGeneral
	result.Confidence = 0.5
	result.Reasoning = "Question does not match specific patterns"
	result.Rule = defaultRule
	return result
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

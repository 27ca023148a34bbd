package intelligence

import (
	"regexp"
	"strings"
)

// schemaKeywords name GraphQL and API concepts. Matching is a lowercase
// substring test, so stems like "authenticat" catch every inflection.
var schemaKeywords = []string{
	"graphql",
	"query",
	"mutation",
	"subscription",
	"schema",
	"api",
	"endpoint",
	"field",
	"type",
	"input",
	"argument",
	"args",
	"variables",
	"return type",
	"nullable",
	"connection",
	"edge",
	"node",
	"pageinfo",
	"pagination",
	"cursor",
	"introspection",
	"authenticat",
}

// domainKeywords name company, product and compliance concepts best
// answered from the knowledge base.
var domainKeywords = []string{
	"mediajel",
	"company",
	"team",
	"product",
	"feature",
	"pricing",
	"plan",
	"tier",
	"service",
	"platform",
	"demograph",
	"datajel",
	"buyer",
	"search lights",
	"compliance",
	"cannabis",
	"regulated",
	"about",
	"what is",
	"who is",
	"contact",
	"support",
	"help",
	"how does",
	"why",
	"policy",
	"integration",
	"partner",
	"case study",
	"client",
	"success",
	"attribution",
	"methodology",
}

var apiQuestionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)how\s+(do\s+i|can\s+i|to)\s+(query|fetch|get|list|create|update|delete|mutate)`),
	regexp.MustCompile(`(?i)what\s+(is|are)\s+the\s+(fields?|types?|arguments?|parameters?)`),
	regexp.MustCompile(`(?i)show\s+(me\s+)?(the\s+)?(query|mutation|schema|api)`),
	regexp.MustCompile(`(?i)example\s+(query|mutation|graphql|api)`),
	regexp.MustCompile(`(?i)\b(filter|sort|order\s*by|paginate|pagination)\b`),
	regexp.MustCompile(`(?i)\bwhere\s+(clause|input|filter)\b`),
}

var businessQuestionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)show\s+(me\s+)?(the\s+)?(weekly|monthly|daily|performance|report|data)`),
	regexp.MustCompile(`(?i)what('s|s|\s+is)\s+(my|our|the)\s+(roas|roi|spend|revenue|budget)`),
	regexp.MustCompile(`(?i)how\s+(is|are|was|were)\s+(my|our|the)\s+(campaign|ad|order)`),
	regexp.MustCompile(`(?i)list\s+(all\s+)?(my|our|active|the)\s+(campaigns?|orders?|organizations?)`),
	regexp.MustCompile(`(?i)get\s+(me\s+)?(the\s+)?(performance|analytics|metrics|data)`),
}

// containsKeywords returns the keywords found in text, in table order.
func containsKeywords(text string, keywords []string) []string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	found := []string{}
	for _, kw := range keywords {
		if strings.Contains(normalized, kw) {
			found = append(found, kw)
		}
	}
	return found
}

func matchesAny(text string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// IsLikelyAPIQuestion is a cheap pre-filter: any schema keyword, API
// phrasing or business-metric phrasing.
func IsLikelyAPIQuestion(question string) bool {
	return len(containsKeywords(question, schemaKeywords)) > 0 ||
		matchesAny(question, apiQuestionPatterns) ||
		matchesAny(question, businessQuestionPatterns)
}

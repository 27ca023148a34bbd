package intelligence

import (
	"fmt"
	"strings"

	"github.com/mediajel/apidocs/internal/domain"
)

var guidance = map[domain.QueryIntent]string{
	domain.IntentSchemaQuery: "This is a direct API/schema question. Provide accurate GraphQL information.\n" +
		"- Use the schema context below to answer\n" +
		"- Include working query examples with proper syntax\n" +
		"- Explain arguments and return types when relevant\n\n",
	domain.IntentHybrid: "This is a business question that maps to specific API operations.\n" +
		"- Translate the business terms to technical GraphQL queries\n" +
		"- Use the glossary mappings provided below\n" +
		"- Provide complete, working queries that answer the business question\n" +
		"- Explain what the query does in business terms\n\n",
	domain.IntentDomainKnowledge: "This is a company/product question. Use the knowledge base primarily.\n" +
		"- Search the knowledge base for relevant information\n" +
		"- Cite sources when available\n" +
		"- Only include API details if directly relevant\n\n",
	domain.IntentGeneral: "Answer this question using your general knowledge.\n" +
		"- If unsure about product-specific information, search the knowledge base\n" +
		"- Be helpful and concise\n\n",
}

// BuildAdditionalInstructions composes the instructions attached to the model
// request: classification summary, per-intent guidance, the assembled
// context, then summaries of what the context includes.
func BuildAdditionalInstructions(c ClassifiedIntent, sc SchemaContext) string {
	var b strings.Builder

	b.WriteString("## Question Classification\n")
	fmt.Fprintf(&b, "**Intent:** %s\n", c.Intent)
	fmt.Fprintf(&b, "**Confidence:** %.0f%%\n", c.Confidence*100)
	fmt.Fprintf(&b, "**Reasoning:** %s\n\n", c.Reasoning)

	if g, ok := guidance[c.Intent]; ok {
		b.WriteString("## Guidance\n")
		b.WriteString(g)
	}

	b.WriteString(sc.Context)

	if c.Intent == domain.IntentHybrid && len(sc.IncludedTerms) > 0 {
		b.WriteString("\n## Matched Business Terms\n")
		b.WriteString(strings.Join(sc.IncludedTerms, ", ") + "\n\n")
	}

	if len(sc.IncludedOperations) > 0 {
		b.WriteString("\n## Included Operations\n")
		b.WriteString(strings.Join(sc.IncludedOperations, ", ") + "\n\n")
	}

	return b.String()
}

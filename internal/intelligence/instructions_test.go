package intelligence

import (
	"strings"
	"testing"

	"github.com/mediajel/apidocs/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestBuildAdditionalInstructions_General(t *testing.T) {
	c := ClassifiedIntent{
		Intent:     domain.IntentGeneral,
		Confidence: 0.5,
		Reasoning:  "Question does not match specific patterns",
	}

	want := "## Question Classification\n" +
		"**Intent:** GENERAL\n" +
		"**Confidence:** 50%\n" +
		"**Reasoning:** Question does not match specific patterns\n\n" +
		"## Guidance\n" +
		"Answer this question using your general knowledge.\n" +
		"- If unsure about product-specific information, search the knowledge base\n" +
		"- Be helpful and concise\n\n"

	assert.Equal(t, want, BuildAdditionalInstructions(c, emptyContext()))
}

func TestBuildAdditionalInstructions_Hybrid(t *testing.T) {
	c := ClassifiedIntent{Intent: domain.IntentHybrid, Confidence: 0.9, Reasoning: "because"}
	sc := SchemaContext{
		Context:            "## Context for Your Question\n\nBODY\n",
		IncludedTerms:      []string{"weekly performance report", "roas"},
		IncludedOperations: []string{"pacingDataObjectsConnection"},
	}

	out := BuildAdditionalInstructions(c, sc)

	assert.Contains(t, out, "**Confidence:** 90%\n")
	assert.Contains(t, out, "## Guidance\nThis is a business question that maps to specific API operations.\n")
	assert.True(t, strings.HasSuffix(out,
		"BODY\n"+
			"\n## Matched Business Terms\nweekly performance report, roas\n\n"+
			"\n## Included Operations\npacingDataObjectsConnection\n\n"))
}

func TestBuildAdditionalInstructions_TermsOnlyForHybrid(t *testing.T) {
	c := ClassifiedIntent{Intent: domain.IntentSchemaQuery, Confidence: 0.8}
	sc := SchemaContext{IncludedTerms: []string{"roas"}, IncludedOperations: []string{"orgs"}}

	out := BuildAdditionalInstructions(c, sc)

	assert.NotContains(t, out, "Matched Business Terms")
	assert.Contains(t, out, "\n## Included Operations\norgs\n\n")
	assert.Contains(t, out, "This is a direct API/schema question.")
}

func TestBuildAdditionalInstructions_RoundsConfidence(t *testing.T) {
	c := ClassifiedIntent{Intent: domain.IntentDomainKnowledge, Confidence: 0.756}
	out := BuildAdditionalInstructions(c, emptyContext())

	assert.Contains(t, out, "**Confidence:** 76%\n")
	assert.Contains(t, out, "Use the knowledge base primarily.")
}

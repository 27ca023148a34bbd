package intelligence

import (
	"testing"

	"github.com/mediajel/apidocs/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestContextForQuestion(t *testing.T) {
	qc := ContextForQuestion("Show me weekly performance report", defaultGlossary(t), sampleCatalog(t), ContextOptions{})

	assert.Equal(t, domain.IntentHybrid, qc.Classification.Intent)
	assert.Equal(t, []string{"pacingDataObjectsConnection"}, qc.Context.IncludedOperations)
	assert.Contains(t, qc.Instructions, "**Intent:** HYBRID\n")
	assert.Contains(t, qc.Instructions, qc.Context.Context)
}

func TestPipeline_Run(t *testing.T) {
	p := NewPipeline(defaultGlossary(t), NewContextBuilder(sampleCatalog(t), nil))

	general := p.Run("hello there", ContextOptions{})
	assert.Equal(t, domain.IntentGeneral, general.Classification.Intent)
	assert.Equal(t, "", general.Context.Context)

	schema := p.Run("How do I authenticate?", ContextOptions{})
	assert.Equal(t, domain.IntentSchemaQuery, schema.Classification.Intent)
	assert.Contains(t, schema.Context.Context, "### authSignIn\n")
	assert.Same(t, defaultGlossary(t), p.Glossary())
}

func TestPipeline_SetGlossary(t *testing.T) {
	p := NewPipeline(domain.EmptyGlossary("0"), NewContextBuilder(sampleCatalog(t), nil))
	q := "Show me weekly performance report"

	assert.Equal(t, domain.IntentGeneral, p.Classify(q).Intent)

	p.SetGlossary(defaultGlossary(t))
	assert.Equal(t, domain.IntentHybrid, p.Classify(q).Intent)
	assert.NotNil(t, p.Catalog())
}

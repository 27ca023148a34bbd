package service

import (
	"testing"

	"github.com/mediajel/apidocs/internal/catalog"
	"github.com/mediajel/apidocs/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSystemPrompt_SampleCatalog(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	p := BuildSystemPrompt(cat.Config(), cat.ListOperations())

	assert.Contains(t, p, "You are an AI assistant for the MediaJel GraphQL API.")
	assert.Contains(t, p, "## API Overview\nProgrammatic access to MediaJel organizations")
	assert.Contains(t, p, "`authSignIn` mutation")
	assert.Contains(t, p, "use `refreshToken`")
	assert.Contains(t, p, "- 60 requests per minute per organization\n")
	assert.Contains(t, p, "pacingDataObjectsConnection")
	assert.Contains(t, p, "## Guidelines\n")
	assert.NotContains(t, p, "type Query", "the SDL is never inlined")
}

func TestBuildSystemPrompt_Minimal(t *testing.T) {
	p := BuildSystemPrompt(domain.APIConfig{}, []domain.OperationInfo{
		{Name: "things", Type: domain.OperationQuery},
	})

	assert.Contains(t, p, "assistant for the GraphQL API.")
	assert.Contains(t, p, "Queries: things\n")
	assert.Contains(t, p, "Mutations: (none)\n")
	assert.Contains(t, p, "`Authorization: Bearer <token>`")
	assert.NotContains(t, p, "## API Overview")
	assert.NotContains(t, p, "## Rate Limits")
	assert.NotContains(t, p, "refreshToken")
}

package glossary

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mediajel/apidocs/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_LoadsEmbeddedGlossary(t *testing.T) {
	g, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "1.2.0", g.Version)
	require.NotEmpty(t, g.Terms)

	var found bool
	for _, e := range g.Terms {
		if e.Term == "weekly performance report" {
			found = true
			assert.Equal(t, []string{"pacingDataObjectsConnection"}, e.RelatedOperations)
			require.Len(t, e.Examples, 1)
			assert.Equal(t, "org_123", e.Examples[0].Variables["orgId"])
		}
	}
	assert.True(t, found, "embedded glossary should define the weekly performance report term")
}

func TestDefault_IsMemoized(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	b, err := Default()
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestParse_AcceptsJSON(t *testing.T) {
	doc := `{"version":"2","lastUpdated":"","terms":[{"term":"spend","aliases":[],"description":"d",
		"relatedOperations":["campaignOrders"],"relatedTypes":[],"category":"analytics"}]}`

	g, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, g.Terms, 1)
	assert.Equal(t, "spend", g.Terms[0].Term)
}

func TestParse_MissingTermsYieldsEmptySlice(t *testing.T) {
	g, err := Parse([]byte("version: \"3\"\n"))
	require.NoError(t, err)
	assert.NotNil(t, g.Terms)
	assert.Empty(t, g.Terms)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty document", "   \n"},
		{"malformed yaml", "version: [unterminated"},
		{"unknown field", "version: \"1\"\nterms:\n  - term: roas\n    category: analytics\n    synonyms: [x]\n"},
		{"missing version", "terms: []\n"},
		{"blank term", "version: \"1\"\nterms:\n  - term: \"?!\"\n    category: analytics\n"},
		{"duplicate term", "version: \"1\"\nterms:\n  - term: roas\n    category: a\n  - term: roas\n    category: b\n"},
		{"missing category", "version: \"1\"\nterms:\n  - term: roas\n"},
		{"blank alias", "version: \"1\"\nterms:\n  - term: roas\n    category: a\n    aliases: [\"  \"]\n"},
		{"incomplete example", "version: \"1\"\nterms:\n  - term: roas\n    category: a\n    examples:\n      - businessQuestion: q\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrLoad)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	g := &domain.DomainGlossary{
		Terms: []domain.GlossaryEntry{
			{Term: "roas", Category: "analytics"},
			{Term: "roas"},
		},
	}

	errs := Validate(g)
	// missing version, duplicate term, missing category
	assert.Len(t, errs, 3)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, ErrLoad)
}

func TestLoadOrEmpty_FallsBackAndWarns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glossary.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: [broken"), 0o644))

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	g := LoadOrEmpty(path, logger)
	assert.Equal(t, FallbackVersion, g.Version)
	assert.Equal(t, "", g.LastUpdated)
	assert.Empty(t, g.Terms)
	assert.Contains(t, buf.String(), "failed to load domain glossary")
}

func TestLoadOrEmpty_EmptyPathUsesEmbedded(t *testing.T) {
	g := LoadOrEmpty("", nil)
	want, err := Default()
	require.NoError(t, err)
	assert.Same(t, want, g)
}

func TestLoadOrEmpty_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glossary.yaml")
	doc := "version: \"9\"\nterms:\n  - term: churn\n    category: retention\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	g := LoadOrEmpty(path, nil)
	assert.Equal(t, "9", g.Version)
	require.Len(t, g.Terms, 1)
	assert.Equal(t, "churn", g.Terms[0].Term)
}

func TestCategories_SortedAndDistinct(t *testing.T) {
	g, err := Parse([]byte(`version: "1"
terms:
  - {term: b, category: zeta}
  - {term: c, category: alpha}
  - {term: d, category: zeta}
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "zeta"}, Categories(g))
}

func TestEntriesByCategory(t *testing.T) {
	g, err := Default()
	require.NoError(t, err)

	campaigns := EntriesByCategory(g, "campaigns")
	require.NotEmpty(t, campaigns)
	for _, e := range campaigns {
		assert.Equal(t, "campaigns", e.Category)
	}
	assert.Empty(t, EntriesByCategory(g, "does-not-exist"))
}

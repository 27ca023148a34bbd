package intelligence

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/mediajel/apidocs/internal/catalog"
	"github.com/mediajel/apidocs/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func sampleCatalog(t testing.TB) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return c
}

// fakeCatalog is an in-memory Catalog for budget tests.
type fakeCatalog struct {
	cfg   domain.APIConfig
	ops   []domain.OperationInfo
	types []domain.TypeDetails
}

func (f *fakeCatalog) ListOperations() []domain.OperationInfo { return f.ops }
func (f *fakeCatalog) ListTypes() []domain.TypeDetails        { return f.types }
func (f *fakeCatalog) Config() domain.APIConfig               { return f.cfg }
func (f *fakeCatalog) GetOperation(name string) (domain.OperationInfo, bool) {
	for _, op := range f.ops {
		if op.Name == name {
			return op, true
		}
	}
	return domain.OperationInfo{}, false
}

func bigCatalog(nOps, nTypes, descLen int) *fakeCatalog {
	f := &fakeCatalog{cfg: domain.APIConfig{Title: "Test API", BaseURL: "https://test/graphql"}}
	for i := 0; i < nOps; i++ {
		f.ops = append(f.ops, domain.OperationInfo{
			Name:         fmt.Sprintf("op%02d", i),
			Type:         domain.OperationQuery,
			Category:     "cat",
			Description:  strings.Repeat("d", descLen),
			Args:         []domain.ArgInfo{{Name: "id", Type: "ID!", Required: true}},
			ReturnType:   "Thing",
			ExampleQuery: "query { thing }",
		})
	}
	for i := 0; i < nTypes; i++ {
		f.types = append(f.types, domain.TypeDetails{
			Name:   fmt.Sprintf("Type%02d", i),
			Kind:   domain.KindObject,
			Fields: []domain.FieldInfo{{Name: "id", Type: "ID!", Description: strings.Repeat("f", descLen)}},
		})
	}
	return f
}

func allNames(f *fakeCatalog) (ops, types []string) {
	for _, op := range f.ops {
		ops = append(ops, op.Name)
	}
	for _, t := range f.types {
		types = append(types, t.Name)
	}
	return ops, types
}

func TestBuild_General(t *testing.T) {
	b := NewContextBuilder(sampleCatalog(t), nil)
	sc := b.Build(ClassifiedIntent{Intent: domain.IntentGeneral}, ContextOptions{})

	assert.Equal(t, "", sc.Context)
	assert.Equal(t, 0, sc.CharacterCount)
	assert.False(t, sc.WasTruncated)
	assert.Empty(t, sc.IncludedOperations)
}

func TestBuild_DomainKnowledge(t *testing.T) {
	b := NewContextBuilder(sampleCatalog(t), nil)
	sc := b.Build(ClassifiedIntent{Intent: domain.IntentDomainKnowledge}, ContextOptions{MaxChars: 10})

	want := "## API Reference (if needed)\n\n" +
		"The MediaJel GraphQL API is available at https://api.mediajel.com/graphql.\n" +
		"If the user asks follow-up questions about the API, you can provide GraphQL query examples.\n\n"
	assert.Equal(t, want, sc.Context)
	assert.Equal(t, utf8.RuneCountInString(want), sc.CharacterCount)
	assert.False(t, sc.WasTruncated)
}

func TestBuild_SchemaQuery(t *testing.T) {
	cat := sampleCatalog(t)
	b := NewContextBuilder(cat, nil)
	sc := b.Build(ClassifiedIntent{Intent: domain.IntentSchemaQuery}, ContextOptions{})

	assert.True(t, strings.HasPrefix(sc.Context, "## MediaJel GraphQL API Reference\n\n"))
	assert.Contains(t, sc.Context, "**Base URL:** https://api.mediajel.com/graphql\n")
	assert.Contains(t, sc.Context, "**Rate Limit:** 60 requests per minute\n\n")
	assert.Contains(t, sc.Context, "### Authentication\n1. Authenticate via `authSignIn` mutation")
	assert.Contains(t, sc.Context, "**campaigns:** campaigns, campaignsConnection, campaignOrders, updateCampaignOrderStatus\n")
	for _, name := range DefaultCommonOperations {
		assert.Contains(t, sc.Context, "### "+name+"\n")
	}
	assert.Contains(t, sc.Context, "```graphql\n")

	var all []string
	for _, op := range cat.ListOperations() {
		all = append(all, op.Name)
	}
	assert.ElementsMatch(t, all, sc.IncludedOperations)
	assert.Equal(t, []string{"orgs", "campaigns"}, sc.IncludedOperations[:2])
	assert.Empty(t, sc.IncludedTypes)
	assert.False(t, sc.WasTruncated)
	assert.Equal(t, utf8.RuneCountInString(sc.Context), sc.CharacterCount)
}

func TestBuild_SchemaQueryBudgetSkipsCommonOperations(t *testing.T) {
	b := NewContextBuilder(sampleCatalog(t), nil)
	sc := b.Build(ClassifiedIntent{Intent: domain.IntentSchemaQuery}, ContextOptions{MaxChars: 2500})

	assert.Contains(t, sc.Context, "### Common Operations\n\n")
	assert.NotContains(t, sc.Context, "### authSignIn\n")
	assert.True(t, sc.WasTruncated)
}

func TestBuild_SchemaQueryWithoutExamples(t *testing.T) {
	b := NewContextBuilder(sampleCatalog(t), nil)
	sc := b.Build(ClassifiedIntent{Intent: domain.IntentSchemaQuery}, ContextOptions{IncludeExamples: Bool(false)})
	assert.NotContains(t, sc.Context, "**Example:**")
}

func TestBuild_HybridCampaigns(t *testing.T) {
	b := NewContextBuilder(sampleCatalog(t), nil)
	c := ClassifiedIntent{Intent: domain.IntentHybrid, SuggestedOperations: []string{"campaigns"}}

	sc := b.Build(c, ContextOptions{IncludeExamples: Bool(true)})

	assert.Contains(t, sc.Context, "### campaigns")
	assert.Equal(t, []string{"campaigns"}, sc.IncludedOperations)
	assert.True(t, strings.HasPrefix(sc.Context, "## Context for Your Question\n\n## Relevant GraphQL Operations\n\n"))
	assert.Contains(t, sc.Context, "\n**Variables:**\n```json\n")
}

func TestBuild_HybridFull(t *testing.T) {
	g := defaultGlossary(t)
	c := Classify("Show me weekly performance report", g)
	b := NewContextBuilder(sampleCatalog(t), nil)

	sc := b.Build(c, ContextOptions{})

	assert.Equal(t, []string{"weekly performance report"}, sc.IncludedTerms)
	assert.Equal(t, []string{"pacingDataObjectsConnection"}, sc.IncludedOperations)
	assert.Equal(t, []string{"PacingDataObject", "PacingDataObjectConnection"}, sc.IncludedTypes)

	terms := strings.Index(sc.Context, "## Relevant Business Terms")
	ops := strings.Index(sc.Context, "## Relevant GraphQL Operations")
	types := strings.Index(sc.Context, "## Related Types")
	assert.True(t, terms > 0 && terms < ops && ops < types, "sections out of order")
	assert.Contains(t, sc.Context, "### PacingDataObject\n**Kind:** OBJECT\n\n**Fields:**\n")
	assert.False(t, sc.WasTruncated)
}

func TestBuild_Deterministic(t *testing.T) {
	g := defaultGlossary(t)
	b := NewContextBuilder(sampleCatalog(t), nil)

	for _, q := range []string{"Show me weekly performance report", "How do I authenticate?", "What is your pricing?"} {
		c := Classify(q, g)
		first := b.Build(c, ContextOptions{})
		second := b.Build(Classify(q, g), ContextOptions{})
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("Build(%q) differs between runs (-first +second):\n%s", q, diff)
		}
	}
}

func TestBuild_HybridCaseInsensitiveAndMisses(t *testing.T) {
	b := NewContextBuilder(sampleCatalog(t), nil)
	c := ClassifiedIntent{
		Intent:              domain.IntentHybrid,
		SuggestedOperations: []string{"ORGS", "renamedOperation", "campaigns"},
		SuggestedTypes:      []string{"campaignstatus", "GoneType"},
	}

	sc := b.Build(c, ContextOptions{})

	// catalog order, not suggestion order
	assert.Equal(t, []string{"orgs", "campaigns"}, sc.IncludedOperations)
	assert.Equal(t, []string{"CampaignStatus"}, sc.IncludedTypes)
	assert.Contains(t, sc.Context, "**Values:**\n- `DRAFT`\n")
}

func TestBuild_HybridOptionsExclude(t *testing.T) {
	g := defaultGlossary(t)
	c := Classify("Show me weekly performance report", g)
	b := NewContextBuilder(sampleCatalog(t), nil)

	sc := b.Build(c, ContextOptions{
		IncludeGlossary: Bool(false),
		IncludeTypes:    Bool(false),
		IncludeExamples: Bool(false),
	})

	assert.NotContains(t, sc.Context, "## Relevant Business Terms")
	assert.NotContains(t, sc.Context, "## Related Types")
	assert.NotContains(t, sc.Context, "**Example:**")
	assert.Empty(t, sc.IncludedTerms)
	assert.Empty(t, sc.IncludedTypes)
	assert.Equal(t, []string{"pacingDataObjectsConnection"}, sc.IncludedOperations)
}

func TestBuild_HybridNoTypesFoundSkipsHeading(t *testing.T) {
	b := NewContextBuilder(sampleCatalog(t), nil)
	c := ClassifiedIntent{Intent: domain.IntentHybrid, SuggestedTypes: []string{"Nope"}}

	sc := b.Build(c, ContextOptions{})
	assert.Equal(t, "## Context for Your Question\n\n", sc.Context)
	assert.False(t, sc.WasTruncated)
}

func TestBuild_HybridBudgetStopsOperations(t *testing.T) {
	f := bigCatalog(20, 0, 400)
	ops, _ := allNames(f)
	b := NewContextBuilder(f, nil)

	sc := b.Build(ClassifiedIntent{Intent: domain.IntentHybrid, SuggestedOperations: ops}, ContextOptions{MaxChars: 4000})

	assert.NotEmpty(t, sc.IncludedOperations)
	assert.Less(t, len(sc.IncludedOperations), len(ops))
	assert.True(t, sc.WasTruncated)
	assert.Equal(t, ops[:len(sc.IncludedOperations)], sc.IncludedOperations)
}

func TestBuild_CustomMargins(t *testing.T) {
	f := bigCatalog(3, 0, 10)
	ops, _ := allNames(f)
	b := NewContextBuilder(f, nil)
	b.OperationMargin = 0

	sc := b.Build(ClassifiedIntent{Intent: domain.IntentHybrid, SuggestedOperations: ops}, ContextOptions{MaxChars: 1000})
	assert.Equal(t, ops, sc.IncludedOperations)
}

func TestFormatType_LimitsFields(t *testing.T) {
	td := domain.TypeDetails{Name: "Wide", Kind: domain.KindObject}
	for i := 0; i < 25; i++ {
		td.Fields = append(td.Fields, domain.FieldInfo{Name: fmt.Sprintf("f%d", i), Type: "Int"})
	}

	out := FormatType(td)

	for i := 0; i < 20; i++ {
		assert.Contains(t, out, fmt.Sprintf("- `f%d`: Int\n", i))
	}
	assert.NotContains(t, out, "- `f20`")
	assert.Contains(t, out, "- ... and 5 more fields\n")
	assert.Equal(t, 1, strings.Count(out, "more fields"))
}

func TestFormatType_Enum(t *testing.T) {
	out := FormatType(domain.TypeDetails{Name: "Color", Kind: domain.KindEnum, EnumValues: []string{"RED", "GREEN"}})
	assert.Equal(t, "### Color\n**Kind:** ENUM\n\n**Values:**\n- `RED`\n- `GREEN`\n\n", out)
}

func TestFormatOperation(t *testing.T) {
	op := domain.OperationInfo{
		Name:        "campaign",
		Type:        domain.OperationQuery,
		Category:    "campaigns",
		Description: "Fetch one campaign.",
		Args: []domain.ArgInfo{
			{Name: "id", Type: "ID!", Required: true, Description: "Campaign id"},
			{Name: "first", Type: "Int"},
		},
		ReturnType:       "Campaign",
		ExampleQuery:     "query { campaign(id: 1) { id } }",
		ExampleVariables: map[string]any{"id": "1"},
	}

	want := "### campaign\n" +
		"**Type:** query\n" +
		"**Category:** campaigns\n" +
		"Fetch one campaign.\n\n" +
		"**Arguments:**\n" +
		"- `id`: ID! (required) - Campaign id\n" +
		"- `first`: Int\n" +
		"\n" +
		"**Returns:** `Campaign`\n" +
		"\n**Example:**\n" +
		"```graphql\nquery { campaign(id: 1) { id } }\n```\n" +
		"\n**Variables:**\n" +
		"```json\n{\n  \"id\": \"1\"\n}\n```\n" +
		"\n"
	assert.Equal(t, want, FormatOperation(op, true))

	noExample := FormatOperation(op, false)
	assert.NotContains(t, noExample, "Example")
	assert.True(t, strings.HasSuffix(noExample, "**Returns:** `Campaign`\n\n"))
}

func TestFormatOperation_UnencodableVariables(t *testing.T) {
	op := domain.OperationInfo{
		Name:             "x",
		ReturnType:       "X",
		ExampleQuery:     "query { x }",
		ExampleVariables: map[string]any{"ch": make(chan int)},
	}
	out := FormatOperation(op, true)
	assert.Contains(t, out, "**Example:**")
	assert.NotContains(t, out, "**Variables:**")
}

func TestProperty_BudgetBoundsContext(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := bigCatalog(
			rapid.IntRange(0, 40).Draw(rt, "ops"),
			rapid.IntRange(0, 40).Draw(rt, "types"),
			rapid.IntRange(0, 600).Draw(rt, "descLen"),
		)
		ops, types := allNames(f)
		maxChars := rapid.IntRange(1000, 20000).Draw(rt, "maxChars")

		longest := 0
		for _, op := range f.ops {
			longest = max(longest, utf8.RuneCountInString(FormatOperation(op, true)))
		}
		for _, td := range f.types {
			longest = max(longest, utf8.RuneCountInString(FormatType(td)))
		}

		c := ClassifiedIntent{Intent: domain.IntentHybrid, SuggestedOperations: ops, SuggestedTypes: types}
		sc := NewContextBuilder(f, nil).Build(c, ContextOptions{MaxChars: maxChars})

		if sc.CharacterCount != utf8.RuneCountInString(sc.Context) {
			rt.Fatalf("CharacterCount %d != len %d", sc.CharacterCount, utf8.RuneCountInString(sc.Context))
		}
		// one unit plus the types heading may start just under the budget
		limit := maxChars + longest + len("## Related Types\n\n")
		if sc.CharacterCount > limit {
			rt.Fatalf("context %d chars exceeds limit %d", sc.CharacterCount, limit)
		}
		complete := len(sc.IncludedOperations) == len(ops) && len(sc.IncludedTypes) == len(types)
		if !sc.WasTruncated && !complete {
			rt.Fatalf("content dropped without truncation flag")
		}
	})
}

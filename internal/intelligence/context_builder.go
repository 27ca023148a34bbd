package intelligence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mediajel/apidocs/internal/domain"
	"github.com/mediajel/apidocs/internal/glossary"
)

// Default budget margins. A whole section is only started while the running
// length is below maxChars minus the margin guarding it.
const (
	DefaultOperationMargin    = 2000
	DefaultTypesSectionMargin = 1500
	DefaultTypeMargin         = 500

	maxTypeFields = 20
)

// DefaultCommonOperations are detailed in every schema-question context.
var DefaultCommonOperations = []string{"authSignIn", "campaigns", "campaignsConnection", "orgs"}

// ContextBuilder assembles bounded-size context from a classification.
// It holds no per-call state and is safe for concurrent use.
type ContextBuilder struct {
	catalog Catalog
	logger  *slog.Logger

	OperationMargin    int
	TypesSectionMargin int
	TypeMargin         int
	CommonOperations   []string
}

// NewContextBuilder returns a builder over catalog with the default margins.
func NewContextBuilder(catalog Catalog, logger *slog.Logger) *ContextBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContextBuilder{
		catalog:            catalog,
		logger:             logger,
		OperationMargin:    DefaultOperationMargin,
		TypesSectionMargin: DefaultTypesSectionMargin,
		TypeMargin:         DefaultTypeMargin,
		CommonOperations:   DefaultCommonOperations,
	}
}

// contextWriter tracks the running length in characters as sections are appended.
type contextWriter struct {
	b       strings.Builder
	n       int
	max     int
	skipped bool
}

func (w *contextWriter) write(s string) {
	w.b.WriteString(s)
	w.n += utf8.RuneCountInString(s)
}

// fits reports whether a section guarded by margin may start. A refusal is
// remembered so the result can report truncation.
func (w *contextWriter) fits(margin int) bool {
	if w.n < w.max-margin {
		return true
	}
	w.skipped = true
	return false
}

func (w *contextWriter) result(ops, types, terms []string) SchemaContext {
	return SchemaContext{
		Context:            w.b.String(),
		IncludedOperations: ops,
		IncludedTypes:      types,
		IncludedTerms:      terms,
		CharacterCount:     w.n,
		WasTruncated:       w.skipped || w.n >= w.max,
	}
}

// Build dispatches on the classified intent. It never fails: catalog misses
// for suggested names are skipped.
func (b *ContextBuilder) Build(c ClassifiedIntent, opts ContextOptions) SchemaContext {
	switch c.Intent {
	case domain.IntentSchemaQuery:
		return b.buildSchemaQuery(opts)
	case domain.IntentHybrid:
		return b.buildHybrid(c, opts)
	case domain.IntentDomainKnowledge:
		return b.buildDomainKnowledge()
	default:
		return emptyContext()
	}
}

func emptyContext() SchemaContext {
	return SchemaContext{
		IncludedOperations: []string{},
		IncludedTypes:      []string{},
		IncludedTerms:      []string{},
	}
}

func (b *ContextBuilder) buildSchemaQuery(opts ContextOptions) SchemaContext {
	cfg := b.catalog.Config()
	w := &contextWriter{max: opts.maxChars()}

	w.write(fmt.Sprintf("## %s Reference\n\n", cfg.DisplayTitle()))
	w.write(cfg.Description + "\n\n")
	w.write(fmt.Sprintf("**Base URL:** %s\n", cfg.BaseURL))
	w.write(fmt.Sprintf("**Rate Limit:** %d requests per minute\n\n", cfg.RateLimits.RequestsPerMinute))

	w.write("### Authentication\n")
	w.write("1. Authenticate via `authSignIn` mutation with username and password\n")
	w.write("2. Use returned `accessToken` in `Authorization: Bearer <token>` header\n")
	w.write("3. Include organization ID in `Key` header\n\n")

	w.write("### Available Operations\n\n")

	var categories []string
	byCategory := make(map[string][]string)
	for _, op := range b.catalog.ListOperations() {
		cat := op.Category
		if cat == "" {
			cat = "other"
		}
		if _, ok := byCategory[cat]; !ok {
			categories = append(categories, cat)
		}
		byCategory[cat] = append(byCategory[cat], op.Name)
	}

	included := []string{}
	for _, cat := range categories {
		names := byCategory[cat]
		w.write(fmt.Sprintf("**%s:** %s\n", cat, strings.Join(names, ", ")))
		included = append(included, names...)
	}
	w.write("\n")

	w.write("### Common Operations\n\n")
	for _, name := range b.CommonOperations {
		op, ok := b.catalog.GetOperation(name)
		if !ok {
			b.logger.Debug("common operation missing from catalog", "operation", name)
			continue
		}
		if w.fits(b.OperationMargin) {
			w.write(FormatOperation(op, opts.includeExamples()))
		}
	}

	return w.result(included, []string{}, []string{})
}

func (b *ContextBuilder) buildHybrid(c ClassifiedIntent, opts ContextOptions) SchemaContext {
	w := &contextWriter{max: opts.maxChars()}
	ops, types, terms := []string{}, []string{}, []string{}

	w.write("## Context for Your Question\n\n")

	if opts.includeGlossary() && len(c.GlossaryMatches) > 0 {
		w.write(glossary.FormatMatches(c.GlossaryMatches))
		for _, m := range c.GlossaryMatches {
			terms = append(terms, m.Entry.Term)
		}
	}

	if len(c.SuggestedOperations) > 0 {
		w.write("## Relevant GraphQL Operations\n\n")
		for _, op := range b.operationsByName(c.SuggestedOperations) {
			if w.fits(b.OperationMargin) {
				w.write(FormatOperation(op, opts.includeExamples()))
				ops = append(ops, op.Name)
			}
		}
	}

	if opts.includeTypes() && len(c.SuggestedTypes) > 0 {
		found := b.typesByName(c.SuggestedTypes)
		if len(found) > 0 && w.fits(b.TypesSectionMargin) {
			w.write("## Related Types\n\n")
			for _, t := range found {
				if w.fits(b.TypeMargin) {
					w.write(FormatType(t))
					types = append(types, t.Name)
				}
			}
		}
	}

	return w.result(ops, types, terms)
}

func (b *ContextBuilder) buildDomainKnowledge() SchemaContext {
	cfg := b.catalog.Config()
	w := &contextWriter{max: DefaultMaxChars}

	w.write("## API Reference (if needed)\n\n")
	w.write(fmt.Sprintf("The %s is available at %s.\n", cfg.DisplayTitle(), cfg.BaseURL))
	w.write("If the user asks follow-up questions about the API, ")
	w.write("you can provide GraphQL query examples.\n\n")

	return w.result([]string{}, []string{}, []string{})
}

// operationsByName returns catalog operations whose names match any of
// names ignoring case, in catalog order.
func (b *ContextBuilder) operationsByName(names []string) []domain.OperationInfo {
	want := foldSet(names)
	var out []domain.OperationInfo
	for _, op := range b.catalog.ListOperations() {
		key := strings.ToLower(op.Name)
		if want[key] {
			out = append(out, op)
			delete(want, key)
		}
	}
	for name := range want {
		b.logger.Debug("suggested operation not in catalog", "operation", name)
	}
	return out
}

func (b *ContextBuilder) typesByName(names []string) []domain.TypeDetails {
	want := foldSet(names)
	var out []domain.TypeDetails
	for _, t := range b.catalog.ListTypes() {
		key := strings.ToLower(t.Name)
		if want[key] {
			out = append(out, t)
			delete(want, key)
		}
	}
	for name := range want {
		b.logger.Debug("suggested type not in catalog", "type", name)
	}
	return out
}

func foldSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = true
	}
	return set
}

// FormatOperation renders one operation as markdown. Example variables that
// cannot be encoded are left out.
func FormatOperation(op domain.OperationInfo, includeExample bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### %s\n", op.Name)
	fmt.Fprintf(&sb, "**Type:** %s\n", op.Type)
	fmt.Fprintf(&sb, "**Category:** %s\n", op.Category)
	fmt.Fprintf(&sb, "%s\n\n", op.Description)

	if len(op.Args) > 0 {
		sb.WriteString("**Arguments:**\n")
		for _, a := range op.Args {
			required := ""
			if a.Required {
				required = " (required)"
			}
			fmt.Fprintf(&sb, "- `%s`: %s%s", a.Name, a.Type, required)
			if a.Description != "" {
				fmt.Fprintf(&sb, " - %s", a.Description)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "**Returns:** `%s`\n", op.ReturnType)

	if includeExample && op.ExampleQuery != "" {
		sb.WriteString("\n**Example:**\n")
		sb.WriteString("```graphql\n" + op.ExampleQuery + "\n```\n")
		if op.ExampleVariables != nil {
			if vars, err := json.MarshalIndent(op.ExampleVariables, "", "  "); err == nil {
				sb.WriteString("\n**Variables:**\n")
				sb.WriteString("```json\n" + string(vars) + "\n```\n")
			}
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

// FormatType renders a type as markdown: enum values, or at most the first
// twenty fields followed by a count of the rest.
func FormatType(t domain.TypeDetails) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### %s\n", t.Name)
	fmt.Fprintf(&sb, "**Kind:** %s\n\n", t.Kind)

	if t.Kind == domain.KindEnum && t.EnumValues != nil {
		sb.WriteString("**Values:**\n")
		for _, v := range t.EnumValues {
			fmt.Fprintf(&sb, "- `%s`\n", v)
		}
	} else if len(t.Fields) > 0 {
		sb.WriteString("**Fields:**\n")
		for i, f := range t.Fields {
			if i == maxTypeFields {
				break
			}
			fmt.Fprintf(&sb, "- `%s`: %s", f.Name, f.Type)
			if f.Description != "" {
				fmt.Fprintf(&sb, " - %s", f.Description)
			}
			sb.WriteString("\n")
		}
		if len(t.Fields) > maxTypeFields {
			fmt.Fprintf(&sb, "- ... and %d more fields\n", len(t.Fields)-maxTypeFields)
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

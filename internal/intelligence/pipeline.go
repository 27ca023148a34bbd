package intelligence

import (
	"log/slog"
	"sync/atomic"

	"github.com/mediajel/apidocs/internal/domain"
)

// QuestionContext bundles everything derived from one question.
type QuestionContext struct {
	Classification ClassifiedIntent `json:"classification"`
	Context        SchemaContext    `json:"context"`
	Instructions   string           `json:"instructions"`
}

// Pipeline classifies questions against a glossary and builds their context
// from a fixed catalog. The glossary can be replaced while the pipeline is in
// use; each question sees exactly one glossary.
type Pipeline struct {
	glossary atomic.Pointer[domain.DomainGlossary]
	builder  *ContextBuilder
}

// NewPipeline wires a glossary and a context builder together.
func NewPipeline(g *domain.DomainGlossary, builder *ContextBuilder) *Pipeline {
	p := &Pipeline{builder: builder}
	p.glossary.Store(g)
	return p
}

// Glossary returns the glossary the pipeline currently classifies against.
func (p *Pipeline) Glossary() *domain.DomainGlossary { return p.glossary.Load() }

// SetGlossary swaps in a reloaded glossary.
func (p *Pipeline) SetGlossary(g *domain.DomainGlossary) { p.glossary.Store(g) }

// Catalog returns the catalog contexts are built from.
func (p *Pipeline) Catalog() Catalog { return p.builder.catalog }

// Classify classifies question against the pipeline's glossary.
func (p *Pipeline) Classify(question string) ClassifiedIntent {
	return Classify(question, p.glossary.Load())
}

// Run classifies question, builds its context and the additional instructions.
func (p *Pipeline) Run(question string, opts ContextOptions) QuestionContext {
	c := p.Classify(question)
	sc := p.builder.Build(c, opts)
	return QuestionContext{
		Classification: c,
		Context:        sc,
		Instructions:   BuildAdditionalInstructions(c, sc),
	}
}

// ContextForQuestion is the one-shot form of Pipeline.Run.
func ContextForQuestion(question string, g *domain.DomainGlossary, catalog Catalog, opts ContextOptions) QuestionContext {
	return NewPipeline(g, NewContextBuilder(catalog, slog.Default())).Run(question, opts)
}

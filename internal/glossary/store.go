// Package glossary holds the business-term glossary and the lexical matcher
// that maps free-text questions onto its entries.
package glossary

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/mediajel/apidocs/internal/domain"
	"gopkg.in/yaml.v3"
)

// FallbackVersion is the version label of the empty glossary used when
// loading fails.
const FallbackVersion = "1.0.0"

//go:embed data/domain-glossary.yaml
var defaultGlossaryData []byte

// Default returns the embedded glossary, parsed once per process.
var Default = sync.OnceValues(func() (*domain.DomainGlossary, error) {
	return Parse(defaultGlossaryData)
})

// Parse decodes a glossary document (YAML or JSON) and validates its shape.
// Unknown fields are rejected so that typos in the data file fail the load
// instead of silently dropping mappings.
func Parse(data []byte) (*domain.DomainGlossary, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrLoad)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var g domain.DomainGlossary
	if err := dec.Decode(&g); err != nil {
		return nil, fmt.Errorf("%w: decoding: %v", ErrLoad, err)
	}
	if g.Terms == nil {
		g.Terms = []domain.GlossaryEntry{}
	}

	if errs := Validate(&g); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrLoad, errors.Join(errs...))
	}
	return &g, nil
}

// LoadFile reads and parses the glossary at path.
func LoadFile(path string) (*domain.DomainGlossary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	return Parse(data)
}

// LoadOrEmpty loads the glossary at path, or the embedded glossary when path
// is empty. Any failure is logged and replaced by an empty glossary.
func LoadOrEmpty(path string, logger *slog.Logger) *domain.DomainGlossary {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		g   *domain.DomainGlossary
		err error
	)
	if path == "" {
		g, err = Default()
	} else {
		g, err = LoadFile(path)
	}
	if err != nil {
		logger.Warn("failed to load domain glossary, using empty glossary",
			"path", path, "error", err)
		return domain.EmptyGlossary(FallbackVersion)
	}
	return g
}

// Validate checks the glossary for structural errors. Returns every error found.
func Validate(g *domain.DomainGlossary) []error {
	var errs []error

	if g.Version == "" {
		errs = append(errs, fmt.Errorf("version is required"))
	}

	seen := make(map[string]bool, len(g.Terms))
	for i := range g.Terms {
		e := &g.Terms[i]
		prefix := fmt.Sprintf("terms[%d]", i)

		if normalize(e.Term) == "" {
			errs = append(errs, fmt.Errorf("%s.term is required", prefix))
		} else if seen[e.Term] {
			errs = append(errs, fmt.Errorf("%s.term %q is duplicated", prefix, e.Term))
		}
		seen[e.Term] = true

		if e.Category == "" {
			errs = append(errs, fmt.Errorf("%s.category is required", prefix))
		}
		for j, alias := range e.Aliases {
			if normalize(alias) == "" {
				errs = append(errs, fmt.Errorf("%s.aliases[%d] must not be blank", prefix, j))
			}
		}
		for j, ex := range e.Examples {
			if ex.BusinessQuestion == "" || ex.TechnicalQuery == "" {
				errs = append(errs, fmt.Errorf("%s.examples[%d] needs businessQuestion and technicalQuery", prefix, j))
			}
		}
	}

	return errs
}

// EntriesByCategory returns the entries whose category equals category, in
// glossary order.
func EntriesByCategory(g *domain.DomainGlossary, category string) []domain.GlossaryEntry {
	var out []domain.GlossaryEntry
	for _, e := range g.Terms {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// Categories returns the distinct categories, sorted ascending.
func Categories(g *domain.DomainGlossary) []string {
	set := make(map[string]bool)
	for _, e := range g.Terms {
		set[e.Category] = true
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

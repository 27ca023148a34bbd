package catalog

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mediajel/apidocs/internal/domain"
	"gopkg.in/yaml.v3"
)

// operationConfig is the per-operation metadata the SDL cannot carry.
type operationConfig struct {
	Category         string `yaml:"category"`
	Description      string `yaml:"description"`
	ExampleQuery     string `yaml:"exampleQuery"`
	ExampleVariables any    `yaml:"exampleVariables"`
	ExampleResponse  any    `yaml:"exampleResponse"`
}

type apiConfigDocument struct {
	domain.APIConfig `yaml:",inline"`
	Operations       struct {
		Queries   map[string]operationConfig `yaml:"queries"`
		Mutations map[string]operationConfig `yaml:"mutations"`
	} `yaml:"operations"`
}

func parseConfig(data []byte) (*apiConfigDocument, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc apiConfigDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding api config: %w", err)
	}
	if errs := validateConfig(&doc); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &doc, nil
}

func validateConfig(doc *apiConfigDocument) []error {
	var errs []error

	if doc.BaseURL == "" {
		errs = append(errs, fmt.Errorf("baseUrl is required"))
	}
	if doc.RateLimits.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("rateLimits.requestsPerMinute must not be negative"))
	}

	ids := make(map[string]bool, len(doc.Categories))
	for i, c := range doc.Categories {
		if c.ID == "" {
			errs = append(errs, fmt.Errorf("categories[%d].id is required", i))
		} else if ids[c.ID] {
			errs = append(errs, fmt.Errorf("categories[%d].id %q is duplicated", i, c.ID))
		}
		ids[c.ID] = true
	}

	check := func(kind string, ops map[string]operationConfig) {
		for name, op := range ops {
			if op.Category == "" {
				errs = append(errs, fmt.Errorf("operations.%s.%s.category is required", kind, name))
			}
		}
	}
	check("queries", doc.Operations.Queries)
	check("mutations", doc.Operations.Mutations)

	return errs
}

// Package catalog exposes the documented API's operations and types. It is
// built once from a GraphQL SDL document and an API config document that
// carries the metadata the SDL cannot express (categories, descriptions,
// examples). A Catalog is immutable after Load and safe for concurrent use.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/mediajel/apidocs/internal/domain"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

var (
	//go:embed data/public-schema.graphql
	defaultSchema string
	//go:embed data/public-api-config.yaml
	defaultConfig []byte
)

// skipTypes are root types and built-in scalars, never listed by ListTypes.
var skipTypes = map[string]bool{
	"Query": true, "Mutation": true, "Subscription": true,
	"String": true, "Boolean": true, "Int": true, "Float": true, "ID": true,
}

// Catalog is the loaded operation and type catalog.
type Catalog struct {
	sdl        string
	config     domain.APIConfig
	operations []domain.OperationInfo
	types      []domain.TypeDetails
	byName     map[string]int
	typeByName map[string]int
	unmatched  []string
}

// Default returns the catalog built from the embedded sample schema and config.
var Default = sync.OnceValues(func() (*Catalog, error) {
	return Load(defaultSchema, defaultConfig)
})

// Load builds a catalog from SDL text and an API config document (YAML or
// JSON). Only operations present in both documents are exposed: queries
// first, then mutations, each in schema order.
func Load(sdl string, configDoc []byte) (*Catalog, error) {
	schema, gqlErr := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: sdl})
	if gqlErr != nil {
		return nil, fmt.Errorf("%w: parsing schema: %w", ErrLoad, gqlErr)
	}

	doc, err := parseConfig(configDoc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	c := &Catalog{
		sdl:        sdl,
		config:     doc.APIConfig,
		byName:     make(map[string]int),
		typeByName: make(map[string]int),
	}
	if c.config.Categories == nil {
		c.config.Categories = []domain.Category{}
	}

	c.addOperations(schema, schema.Query, domain.OperationQuery, doc.Operations.Queries)
	c.addOperations(schema, schema.Mutation, domain.OperationMutation, doc.Operations.Mutations)
	c.types = publicTypes(schema)
	for i, t := range c.types {
		c.typeByName[t.Name] = i
	}

	return c, nil
}

// LoadFiles reads the SDL and config documents from disk.
func LoadFiles(schemaPath, configPath string) (*Catalog, error) {
	sdl, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	cfg, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	return Load(string(sdl), cfg)
}

// Open returns the embedded catalog when both paths are empty, otherwise the
// catalog read from disk.
func Open(schemaPath, configPath string) (*Catalog, error) {
	if schemaPath == "" && configPath == "" {
		return Default()
	}
	if schemaPath == "" || configPath == "" {
		return nil, fmt.Errorf("%w: schema path and config path must be set together", ErrLoad)
	}
	return LoadFiles(schemaPath, configPath)
}

func (c *Catalog) addOperations(schema *ast.Schema, root *ast.Definition, opType domain.OperationType, configs map[string]operationConfig) {
	seen := make(map[string]bool)
	if root != nil {
		for _, field := range root.Fields {
			if strings.HasPrefix(field.Name, "__") {
				continue
			}
			opCfg, ok := configs[field.Name]
			if !ok {
				continue
			}
			seen[field.Name] = true

			args := make([]domain.ArgInfo, 0, len(field.Arguments))
			for _, a := range field.Arguments {
				args = append(args, domain.ArgInfo{
					Name:        a.Name,
					Type:        a.Type.String(),
					Required:    a.Type.NonNull,
					Description: a.Description,
				})
			}

			c.byName[field.Name] = len(c.operations)
			c.operations = append(c.operations, domain.OperationInfo{
				Name:              field.Name,
				Type:              opType,
				Category:          opCfg.Category,
				Description:       opCfg.Description,
				Args:              args,
				ReturnType:        field.Type.String(),
				ReturnTypeDetails: typeDetails(schema.Types[field.Type.Name()], field.Type.Name()),
				ExampleQuery:      opCfg.ExampleQuery,
				ExampleVariables:  opCfg.ExampleVariables,
				ExampleResponse:   opCfg.ExampleResponse,
			})
		}
	}

	var missing []string
	for name := range configs {
		if !seen[name] {
			missing = append(missing, string(opType)+" "+name)
		}
	}
	sort.Strings(missing)
	c.unmatched = append(c.unmatched, missing...)
}

// typeDetails renders def. Anything that is not an object, enum or input
// object (interfaces, unions, scalars) is reported as a scalar.
func typeDetails(def *ast.Definition, name string) domain.TypeDetails {
	if def == nil {
		return domain.TypeDetails{Name: name, Kind: domain.KindScalar}
	}
	switch def.Kind {
	case ast.Object:
		return domain.TypeDetails{Name: def.Name, Kind: domain.KindObject, Fields: fieldInfos(def.Fields)}
	case ast.InputObject:
		return domain.TypeDetails{Name: def.Name, Kind: domain.KindInputObject, Fields: fieldInfos(def.Fields)}
	case ast.Enum:
		values := make([]string, 0, len(def.EnumValues))
		for _, v := range def.EnumValues {
			values = append(values, v.Name)
		}
		return domain.TypeDetails{Name: def.Name, Kind: domain.KindEnum, EnumValues: values}
	default:
		return domain.TypeDetails{Name: def.Name, Kind: domain.KindScalar}
	}
}

func fieldInfos(fields ast.FieldList) []domain.FieldInfo {
	out := make([]domain.FieldInfo, 0, len(fields))
	for _, f := range fields {
		if strings.HasPrefix(f.Name, "__") {
			continue
		}
		out = append(out, domain.FieldInfo{Name: f.Name, Type: f.Type.String(), Description: f.Description})
	}
	return out
}

// publicTypes lists the user-defined objects, enums and input objects,
// sorted by name.
func publicTypes(schema *ast.Schema) []domain.TypeDetails {
	names := make([]string, 0, len(schema.Types))
	for name, def := range schema.Types {
		if def.BuiltIn || strings.HasPrefix(name, "__") || skipTypes[name] {
			continue
		}
		switch def.Kind {
		case ast.Object, ast.Enum, ast.InputObject:
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]domain.TypeDetails, 0, len(names))
	for _, name := range names {
		out = append(out, typeDetails(schema.Types[name], name))
	}
	return out
}

// SDL returns the schema source the catalog was built from.
func (c *Catalog) SDL() string { return c.sdl }

// Config returns the API-level metadata.
func (c *Catalog) Config() domain.APIConfig { return c.config }

// Categories returns the configured categories in document order.
func (c *Catalog) Categories() []domain.Category { return slices.Clone(c.config.Categories) }

// Unmatched lists configured operations that the schema does not define, as
// "query name" / "mutation name".
func (c *Catalog) Unmatched() []string { return slices.Clone(c.unmatched) }

// ListOperations returns every exposed operation in catalog order.
func (c *Catalog) ListOperations() []domain.OperationInfo { return slices.Clone(c.operations) }

// OperationsByCategory returns the operations whose category id equals category.
func (c *Catalog) OperationsByCategory(category string) []domain.OperationInfo {
	var out []domain.OperationInfo
	for _, op := range c.operations {
		if op.Category == category {
			out = append(out, op)
		}
	}
	return out
}

// GetOperation looks an operation up by exact name.
func (c *Catalog) GetOperation(name string) (domain.OperationInfo, bool) {
	i, ok := c.byName[name]
	if !ok {
		return domain.OperationInfo{}, false
	}
	return c.operations[i], true
}

// Lookup is GetOperation with an error for callers that surface misses.
func (c *Catalog) Lookup(name string) (domain.OperationInfo, error) {
	op, ok := c.GetOperation(name)
	if !ok {
		return domain.OperationInfo{}, fmt.Errorf("%w: %s", ErrOperationNotFound, name)
	}
	return op, nil
}

// FindOperationFold looks an operation up ignoring case.
func (c *Catalog) FindOperationFold(name string) (domain.OperationInfo, bool) {
	if op, ok := c.GetOperation(name); ok {
		return op, true
	}
	for _, op := range c.operations {
		if strings.EqualFold(op.Name, name) {
			return op, true
		}
	}
	return domain.OperationInfo{}, false
}

// ListTypes returns the public types sorted by name.
func (c *Catalog) ListTypes() []domain.TypeDetails { return slices.Clone(c.types) }

// GetType looks a type up by exact name.
func (c *Catalog) GetType(name string) (domain.TypeDetails, bool) {
	i, ok := c.typeByName[name]
	if !ok {
		return domain.TypeDetails{}, false
	}
	return c.types[i], true
}

// LookupType is GetType with an error for callers that surface misses.
func (c *Catalog) LookupType(name string) (domain.TypeDetails, error) {
	t, ok := c.GetType(name)
	if !ok {
		return domain.TypeDetails{}, fmt.Errorf("%w: %s", ErrTypeNotFound, name)
	}
	return t, nil
}

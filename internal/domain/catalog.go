package domain

// ArgInfo describes one argument of an operation.
type ArgInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

// FieldInfo describes one field of an object or input type.
type FieldInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// TypeDetails is the rendered shape of a named GraphQL type. Fields is set for
// objects and input objects, EnumValues for enums.
type TypeDetails struct {
	Name       string      `json:"name"`
	Kind       TypeKind    `json:"kind"`
	Fields     []FieldInfo `json:"fields,omitempty"`
	EnumValues []string    `json:"enumValues,omitempty"`
}

// OperationInfo is a single documented query or mutation.
type OperationInfo struct {
	Name              string        `json:"name"`
	Type              OperationType `json:"type"`
	Category          string        `json:"category"`
	Description       string        `json:"description"`
	Args              []ArgInfo     `json:"args"`
	ReturnType        string        `json:"returnType"`
	ReturnTypeDetails TypeDetails   `json:"returnTypeDetails"`
	ExampleQuery      string        `json:"exampleQuery"`
	ExampleVariables  any           `json:"exampleVariables,omitempty"`
	ExampleResponse   any           `json:"exampleResponse,omitempty"`
}

type RateLimits struct {
	RequestsPerMinute int `json:"requestsPerMinute" yaml:"requestsPerMinute"`
}

type Category struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// APIConfig is the top-level metadata of the documented API.
type APIConfig struct {
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	BaseURL     string     `json:"baseUrl" yaml:"baseUrl"`
	RateLimits  RateLimits `json:"rateLimits" yaml:"rateLimits"`
	Categories  []Category `json:"categories" yaml:"categories"`
}

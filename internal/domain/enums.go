package domain

// QueryIntent is the classifier's decision about which knowledge source
// should answer a question.
type QueryIntent string

const (
	IntentSchemaQuery     QueryIntent = "SCHEMA_QUERY"
	IntentDomainKnowledge QueryIntent = "DOMAIN_KNOWLEDGE"
	IntentHybrid          QueryIntent = "HYBRID"
	IntentGeneral         QueryIntent = "GENERAL"
)

// ValidIntents is the canonical set of accepted intent strings.
var ValidIntents = map[QueryIntent]bool{
	IntentSchemaQuery:     true,
	IntentDomainKnowledge: true,
	IntentHybrid:          true,
	IntentGeneral:         true,
}

// Describe returns a short human-readable description of the intent.
func (i QueryIntent) Describe() string {
	switch i {
	case IntentSchemaQuery:
		return "Direct API/GraphQL question - will provide schema context"
	case IntentDomainKnowledge:
		return "Company/product question - will search knowledge base"
	case IntentHybrid:
		return "Business question - will map to API operations with context"
	default:
		return "General question - will use standard response"
	}
}

type MatchKind string

const (
	MatchTerm  MatchKind = "term"
	MatchAlias MatchKind = "alias"
)

type OperationType string

const (
	OperationQuery    OperationType = "query"
	OperationMutation OperationType = "mutation"
)

type TypeKind string

const (
	KindObject      TypeKind = "OBJECT"
	KindEnum        TypeKind = "ENUM"
	KindScalar      TypeKind = "SCALAR"
	KindInputObject TypeKind = "INPUT_OBJECT"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// ValidRoles is the set of roles accepted from chat clients.
var ValidRoles = map[string]bool{
	"user": true, "assistant": true, "system": true,
}

package service

import (
	"fmt"
	"strings"

	"github.com/mediajel/apidocs/internal/domain"
)

// BuildSystemPrompt describes the documented API to the model: overview,
// authentication, rate limits, the operation list and answering guidelines.
// Per-question schema detail arrives separately as additional instructions.
func BuildSystemPrompt(cfg domain.APIConfig, ops []domain.OperationInfo) string {
	title := cfg.DisplayTitle()

	var queries, mutations []string
	has := make(map[string]bool, len(ops))
	for _, op := range ops {
		has[op.Name] = true
		if op.Type == domain.OperationMutation {
			mutations = append(mutations, op.Name)
		} else {
			queries = append(queries, op.Name)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an AI assistant for the %s. You help developers build valid GraphQL queries and understand the API.\n\n", title)

	if cfg.Description != "" {
		b.WriteString("## API Overview\n")
		b.WriteString(strings.TrimSpace(cfg.Description))
		b.WriteString("\n\n")
	}

	b.WriteString("## Authentication\n")
	if has["authSignIn"] {
		b.WriteString("- Authenticate via the `authSignIn` mutation with username and password\n")
		b.WriteString("- Use the returned `accessToken` in the `Authorization: Bearer <token>` header\n")
	} else {
		b.WriteString("- Send an access token in the `Authorization: Bearer <token>` header\n")
	}
	b.WriteString("- Send the organization ID in the `Key` header\n")
	if has["refreshToken"] {
		b.WriteString("- Tokens expire after ~1 hour; use `refreshToken` to obtain new tokens\n")
	}
	b.WriteString("\n")

	if rpm := cfg.RateLimits.RequestsPerMinute; rpm > 0 {
		b.WriteString("## Rate Limits\n")
		fmt.Fprintf(&b, "- %d requests per minute per organization\n", rpm)
		b.WriteString("- Rate limit info returned in X-RateLimit-* headers\n\n")
	}

	b.WriteString("## Available Operations\n")
	fmt.Fprintf(&b, "Queries: %s\n", joinOrNone(queries))
	fmt.Fprintf(&b, "Mutations: %s\n\n", joinOrNone(mutations))

	b.WriteString(`## Guidelines
- Only generate queries/mutations that exist in the documented operations
- Always include proper variable definitions
- Format queries with proper indentation
- Wrap code in markdown code blocks with ` + "`graphql` or `json`" + ` language tags
- If asked about operations that are not documented, explain that only the curated public subset is available
- When showing queries, also show example variables when relevant
- Be concise and practical
`)
	return b.String()
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}

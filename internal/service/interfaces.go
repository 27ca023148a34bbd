package service

import (
	"context"

	"github.com/mediajel/apidocs/internal/domain"
	"github.com/mediajel/apidocs/internal/intelligence"
	"github.com/mediajel/apidocs/internal/llm"
)

// AskRequest is one user turn. Messages is the conversation as the client
// sees it; the last entry must be the user's question. Earlier entries are
// used as history only when the thread has no stored turns.
type AskRequest struct {
	ThreadID string
	Messages []llm.Message
}

// AskResult is the outcome of one answered turn.
type AskResult struct {
	ThreadID       string                        `json:"threadId"`
	Answer         string                        `json:"answer"`
	Model          string                        `json:"model"`
	Classification intelligence.ClassifiedIntent `json:"classification"`
	Context        intelligence.SchemaContext    `json:"context"`
}

type AssistantService interface {
	// ResolveThread returns id when that thread exists and otherwise creates
	// a new thread and returns its ID.
	ResolveThread(ctx context.Context, id string) (string, error)
	Ask(ctx context.Context, req AskRequest) (*AskResult, error)
	AskStream(ctx context.Context, req AskRequest, fn llm.StreamHandler) (*AskResult, error)
	Threads(ctx context.Context, limit int) ([]*domain.ChatThread, error)
	Messages(ctx context.Context, threadID string) ([]*domain.ChatMessage, error)
	DeleteThread(ctx context.Context, threadID string) error
	// Configured reports whether a model client is set, without contacting it.
	Configured() bool
	Available(ctx context.Context) bool
}

// HTTPRequest is a request composed in the playground.
type HTTPRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

// HTTPResult is what the playground shows for a completed request.
type HTTPResult struct {
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
	TimeMs     int64             `json:"time"`
}

type PlaygroundService interface {
	Execute(ctx context.Context, req HTTPRequest) (*HTTPResult, error)
	History(ctx context.Context, limit int) ([]*domain.RequestRecord, error)
	ClearHistory(ctx context.Context) error
}

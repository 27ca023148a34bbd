package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/mediajel/apidocs/internal/domain"
)

type ThreadOption func(*domain.ChatThread)

func WithTitle(title string) ThreadOption {
	return func(t *domain.ChatThread) { t.Title = title }
}

func WithUpdatedAt(at time.Time) ThreadOption {
	return func(t *domain.ChatThread) { t.UpdatedAt = at }
}

func NewTestThread(opts ...ThreadOption) *domain.ChatThread {
	now := time.Now().UTC()
	t := &domain.ChatThread{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type MessageOption func(*domain.ChatMessage)

func WithIntent(intent domain.QueryIntent, confidence float64) MessageOption {
	return func(m *domain.ChatMessage) {
		m.Intent = intent
		m.Confidence = confidence
	}
}

func NewTestMessage(threadID string, role domain.MessageRole, content string, opts ...MessageOption) *domain.ChatMessage {
	m := &domain.ChatMessage{
		ThreadID:  threadID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type RequestOption func(*domain.RequestRecord)

func WithStatus(code int) RequestOption {
	return func(r *domain.RequestRecord) { r.StatusCode = code }
}

func WithCreatedAt(at time.Time) RequestOption {
	return func(r *domain.RequestRecord) { r.CreatedAt = at }
}

func WithRequestError(msg string) RequestOption {
	return func(r *domain.RequestRecord) {
		r.StatusCode = 0
		r.Error = msg
	}
}

// NewTestRequestRecord builds a successful GraphQL POST against url.
func NewTestRequestRecord(url string, opts ...RequestOption) *domain.RequestRecord {
	r := &domain.RequestRecord{
		Method:         "POST",
		URL:            url,
		RequestHeaders: map[string]string{"Content-Type": "application/json"},
		RequestBody:    `{"query":"{ orgs { id } }"}`,
		StatusCode:     200,
		ResponseBody:   `{"data":{"orgs":[]}}`,
		DurationMs:     42,
		CreatedAt:      time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/mediajel/apidocs/internal/catalog"
	"github.com/mediajel/apidocs/internal/db"
	"github.com/mediajel/apidocs/internal/glossary"
	"github.com/mediajel/apidocs/internal/intelligence"
	"github.com/mediajel/apidocs/internal/llm"
	"github.com/mediajel/apidocs/internal/repository"
	"github.com/mediajel/apidocs/internal/testutil"
	"github.com/stretchr/testify/require"
)

var errModelDown = errors.New("model down")

// fakeChat is a scripted ChatClient that records every request.
type fakeChat struct {
	mu        sync.Mutex
	answer    string
	deltas    []string
	title     string
	err       error
	available bool
	requests  []llm.ChatRequest
}

func (f *fakeChat) record(req llm.ChatRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
}

func (f *fakeChat) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	f.record(req)
	if req.Task == llm.TaskTitle {
		if f.title == "" {
			return &llm.ChatResponse{Text: "no idea"}, nil
		}
		return &llm.ChatResponse{Text: `{"title": "` + f.title + `"}`, Model: "fake"}, nil
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{Text: f.answer, Model: "fake"}, nil
}

func (f *fakeChat) Stream(_ context.Context, req llm.ChatRequest, fn llm.StreamHandler) (*llm.ChatResponse, error) {
	f.record(req)
	if f.err != nil {
		_ = fn(llm.StreamEvent{Err: f.err})
		return nil, f.err
	}
	for _, d := range f.deltas {
		if err := fn(llm.StreamEvent{Delta: d}); err != nil {
			return nil, err
		}
	}
	if err := fn(llm.StreamEvent{Done: true}); err != nil {
		return nil, err
	}
	return &llm.ChatResponse{Text: strings.Join(f.deltas, ""), Model: "fake"}, nil
}

func (f *fakeChat) Available(context.Context) bool { return f.available }

// chatRequests returns the recorded answer requests, skipping title calls.
func (f *fakeChat) chatRequests() []llm.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []llm.ChatRequest
	for _, r := range f.requests {
		if r.Task == llm.TaskChat {
			out = append(out, r)
		}
	}
	return out
}

type captureUseCases struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (c *captureUseCases) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

type assistantFixture struct {
	db       *sql.DB
	threads  *repository.SQLiteThreadRepo
	messages *repository.SQLiteMessageRepo
	pipeline *intelligence.Pipeline
}

func newAssistantFixture(t *testing.T) *assistantFixture {
	t.Helper()
	database := testutil.NewTestDB(t)

	g, err := glossary.Default()
	require.NoError(t, err)
	cat, err := catalog.Default()
	require.NoError(t, err)

	return &assistantFixture{
		db:       database,
		threads:  repository.NewSQLiteThreadRepo(database),
		messages: repository.NewSQLiteMessageRepo(database),
		pipeline: intelligence.NewPipeline(g, intelligence.NewContextBuilder(cat, nil)),
	}
}

func (f *assistantFixture) service(client llm.ChatClient, observers ...UseCaseObserver) AssistantService {
	return f.serviceWithUoW(client, testutil.NewTestUoW(f.db), observers...)
}

func (f *assistantFixture) serviceWithUoW(client llm.ChatClient, uow db.UnitOfWork, observers ...UseCaseObserver) AssistantService {
	return NewAssistantService(f.pipeline, client, f.threads, f.messages, uow, 0, observers...)
}

func userAsk(threadID, question string) AskRequest {
	return AskRequest{ThreadID: threadID, Messages: []llm.Message{{Role: "user", Content: question}}}
}

package cli

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mediajel/apidocs/internal/app"
	"github.com/mediajel/apidocs/internal/catalog"
	"github.com/mediajel/apidocs/internal/config"
	"github.com/mediajel/apidocs/internal/glossary"
	"github.com/mediajel/apidocs/internal/intelligence"
	"github.com/mediajel/apidocs/internal/llm"
	"github.com/mediajel/apidocs/internal/repository"
	"github.com/mediajel/apidocs/internal/server"
	"github.com/mediajel/apidocs/internal/service"
	"github.com/mediajel/apidocs/internal/testutil"
)

// fakeChat streams fixed deltas, or fails with err.
type fakeChat struct {
	mu       sync.Mutex
	deltas   []string
	err      error
	requests []llm.ChatRequest
}

func (c *fakeChat) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	if req.Task == llm.TaskTitle {
		return &llm.ChatResponse{Text: `{"title": "Signing in"}`}, nil
	}
	return &llm.ChatResponse{Text: strings.Join(c.deltas, ""), Model: "fake"}, nil
}

func (c *fakeChat) Stream(ctx context.Context, req llm.ChatRequest, fn llm.StreamHandler) (*llm.ChatResponse, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()
	if c.err != nil {
		_ = fn(llm.StreamEvent{Err: c.err})
		return nil, c.err
	}
	for _, d := range c.deltas {
		if err := fn(llm.StreamEvent{Delta: d}); err != nil {
			return nil, err
		}
	}
	_ = fn(llm.StreamEvent{Done: true})
	return &llm.ChatResponse{Text: strings.Join(c.deltas, ""), Model: "fake"}, nil
}

func (c *fakeChat) Available(context.Context) bool { return c.err == nil }

// testApp wires an App on an in-memory database with the embedded glossary
// and catalog. A nil client leaves the assistant disabled.
func testApp(t *testing.T, client llm.ChatClient) *app.App {
	t.Helper()
	database := testutil.NewTestDB(t)
	logger := slog.New(slog.DiscardHandler)

	g, err := glossary.Default()
	require.NoError(t, err)
	cat, err := catalog.Default()
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{Addr: "127.0.0.1:0", PlaygroundPath: "/playground"},
	}
	pipeline := intelligence.NewPipeline(g, intelligence.NewContextBuilder(cat, logger))
	metrics := server.NewMetrics()

	return &app.App{
		Config:   cfg,
		Logger:   logger,
		Pipeline: pipeline,
		Catalog:  cat,
		Assistant: service.NewAssistantService(pipeline, client,
			repository.NewSQLiteThreadRepo(database),
			repository.NewSQLiteMessageRepo(database),
			testutil.NewTestUoW(database), 0),
		Playground: service.NewPlaygroundService(repository.NewSQLiteRequestHistoryRepo(database), nil,
			service.PlaygroundOptions{HistoryLimit: 10, AllowedHosts: []string{"127.0.0.1"}}),
		Metrics: metrics,
	}
}

// executeCmd runs the command tree against a, capturing stdout and stderr
// separately.
func executeCmd(t *testing.T, a *app.App, args ...string) (string, string, error) {
	t.Helper()
	rt := &runtime{
		load:        func(string) (*app.App, error) { return a, nil },
		interactive: func() bool { return false },
	}
	root := newRootCmd(rt)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediajel/apidocs/internal/domain"
)

func testConfig(endpoint string) LLMConfig {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Endpoint = endpoint
	cfg.RetryBackoffMs = 1
	return cfg
}

func chatRequest(question string) ChatRequest {
	return ChatRequest{
		Task:     TaskChat,
		System:   "You are an API assistant.",
		Messages: []Message{{Role: domain.RoleUser, Content: question}},
	}
}

func writeOllamaReply(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ollamaChatResponse{
		Model:   "llama3.2",
		Message: ollamaMessage{Role: "assistant", Content: text},
		Done:    true,
	})
}

type captureObserver struct {
	fn func(LLMCallEvent)
}

func (o *captureObserver) OnCallComplete(e LLMCallEvent) { o.fn(e) }

func TestChatRequest_SystemPrompt(t *testing.T) {
	assert.Equal(t, "base\n\nextra", ChatRequest{System: "base", Instructions: "extra"}.SystemPrompt())
	assert.Equal(t, "base", ChatRequest{System: "base", Instructions: "  "}.SystemPrompt())
	assert.Equal(t, "extra", ChatRequest{Instructions: "extra"}.SystemPrompt())
	assert.Empty(t, ChatRequest{}.SystemPrompt())
}

func TestNewClient_SelectsProvider(t *testing.T) {
	cfg := testConfig("http://localhost:1")

	c, err := NewClient(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &ollamaClient{}, c)

	cfg.Provider = ProviderOpenAI
	c, err = NewClient(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &openaiClient{}, c)

	cfg.Provider = "bedrock"
	_, err = NewClient(cfg, nil)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestOllamaClient_Chat_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "You are an API assistant.\n\nPrefer queries.", req.Messages[0].Content)
		assert.Equal(t, "user", req.Messages[1].Role)
		assert.Equal(t, "How do I list campaigns?", req.Messages[1].Content)
		assert.Equal(t, 0.2, req.Options.Temperature)
		assert.Equal(t, 2048, req.Options.NumPredict)

		writeOllamaReply(w, "Use the campaigns query.")
	}))
	defer srv.Close()

	req := chatRequest("How do I list campaigns?")
	req.Instructions = "Prefer queries."

	client := NewOllamaClient(testConfig(srv.URL), NoopObserver{})
	resp, err := client.Chat(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "Use the campaigns query.", resp.Text)
	assert.Equal(t, "llama3.2", resp.Model)
	assert.GreaterOrEqual(t, resp.LatencyMs, int64(0))
}

func TestOllamaClient_Chat_RequestOverrides(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 0.7, req.Options.Temperature)
		assert.Equal(t, 16, req.Options.NumPredict)
		writeOllamaReply(w, "ok")
	}))
	defer srv.Close()

	temp, maxTok := 0.7, 16
	req := chatRequest("hi")
	req.Temperature = &temp
	req.MaxTokens = &maxTok

	_, err := NewOllamaClient(testConfig(srv.URL), nil).Chat(context.Background(), req)
	require.NoError(t, err)
}

func TestOllamaClient_Chat_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 0
	cfg.SetTaskTimeout(TaskChat, 50)

	_, err := NewOllamaClient(cfg, NoopObserver{}).Chat(context.Background(), chatRequest("test"))
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestOllamaClient_Chat_Unavailable(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.MaxRetries = 0
	cfg.SetTaskTimeout(TaskChat, 1000)

	_, err := NewOllamaClient(cfg, NoopObserver{}).Chat(context.Background(), chatRequest("test"))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOllamaClient_Chat_RetryOnTransientError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("model loading"))
			return
		}
		writeOllamaReply(w, "ok")
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 1

	resp, err := NewOllamaClient(cfg, NoopObserver{}).Chat(context.Background(), chatRequest("test"))
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestOllamaClient_Chat_RetryAfterTimeout(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			time.Sleep(120 * time.Millisecond)
		}
		writeOllamaReply(w, "ok")
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 1
	cfg.SetTaskTimeout(TaskChat, 50)

	resp, err := NewOllamaClient(cfg, NoopObserver{}).Chat(context.Background(), chatRequest("test"))
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestOllamaClient_Chat_ClientErrorNotRetried(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 3

	_, err := NewOllamaClient(cfg, NoopObserver{}).Chat(context.Background(), chatRequest("test"))
	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestOllamaClient_Chat_Canceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeOllamaReply(w, "late")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewOllamaClient(testConfig(srv.URL), nil).Chat(ctx, chatRequest("test"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOllamaClient_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, part := range []string{"Use ", "the ", "campaigns query."} {
			fmt.Fprintf(w, `{"model":"llama3.2","message":{"role":"assistant","content":%q},"done":false}`+"\n", part)
		}
		fmt.Fprintln(w, `{"model":"llama3.2","message":{"role":"assistant","content":""},"done":true}`)
	}))
	defer srv.Close()

	var events []StreamEvent
	resp, err := NewOllamaClient(testConfig(srv.URL), nil).Stream(context.Background(), chatRequest("hi"), func(e StreamEvent) error {
		events = append(events, e)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "Use the campaigns query.", resp.Text)
	require.Len(t, events, 4)
	assert.Equal(t, "Use ", events[0].Delta)
	assert.True(t, events[3].Done)
	assert.NoError(t, events[3].Err)
}

func TestOllamaClient_Stream_TruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"model":"llama3.2","message":{"role":"assistant","content":"partial"},"done":false}`)
	}))
	defer srv.Close()

	var last StreamEvent
	_, err := NewOllamaClient(testConfig(srv.URL), nil).Stream(context.Background(), chatRequest("hi"), func(e StreamEvent) error {
		last = e
		return nil
	})

	require.Error(t, err)
	assert.Error(t, last.Err)
	assert.False(t, last.Done)
}

func TestOllamaClient_Stream_HandlerAbort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"model":"llama3.2","message":{"role":"assistant","content":"one"},"done":false}`)
		fmt.Fprintln(w, `{"model":"llama3.2","message":{"role":"assistant","content":"two"},"done":true}`)
	}))
	defer srv.Close()

	stop := errors.New("client went away")
	calls := 0
	_, err := NewOllamaClient(testConfig(srv.URL), nil).Stream(context.Background(), chatRequest("hi"), func(e StreamEvent) error {
		calls++
		return stop
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestOllamaClient_Stream_Unavailable(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.MaxRetries = 0

	var last StreamEvent
	_, err := NewOllamaClient(cfg, nil).Stream(context.Background(), chatRequest("hi"), func(e StreamEvent) error {
		last = e
		return nil
	})

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, last.Err, ErrUnavailable)
}

func TestOllamaClient_Available(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	assert.True(t, NewOllamaClient(testConfig(srv.URL), nil).Available(context.Background()))
	assert.False(t, NewOllamaClient(testConfig("http://127.0.0.1:1"), nil).Available(context.Background()))
}

func TestOllamaClient_ObserverCalled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeOllamaReply(w, "ok")
	}))
	defer srv.Close()

	var captured LLMCallEvent
	obs := &captureObserver{fn: func(e LLMCallEvent) { captured = e }}

	_, err := NewOllamaClient(testConfig(srv.URL), obs).Chat(context.Background(), chatRequest("test"))

	require.NoError(t, err)
	assert.Equal(t, TaskChat, captured.Task)
	assert.Equal(t, ProviderOllama, captured.Provider)
	assert.Equal(t, "llama3.2", captured.Model)
	assert.False(t, captured.Streamed)
	assert.True(t, captured.Success)
	assert.Empty(t, captured.ErrorCode)
}

func TestOllamaClient_ObserverTimeoutErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 0
	cfg.SetTaskTimeout(TaskChat, 50)

	var captured LLMCallEvent
	obs := &captureObserver{fn: func(e LLMCallEvent) { captured = e }}

	_, err := NewOllamaClient(cfg, obs).Chat(context.Background(), chatRequest("test"))

	assert.ErrorIs(t, err, ErrTimeout)
	assert.False(t, captured.Success)
	assert.Equal(t, "TIMEOUT", captured.ErrorCode)
}

func TestOllamaClient_Chat_RateLimitedIsRetried(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeOllamaReply(w, "ok")
	}))
	defer srv.Close()

	resp, err := NewOllamaClient(testConfig(srv.URL), nil).Chat(context.Background(), chatRequest("test"))
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestOllamaClient_Stream_WaitsBetweenConnectAttempts(t *testing.T) {
	var (
		attempts atomic.Int32
		mu       sync.Mutex
		seen     []time.Time
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, time.Now())
		mu.Unlock()
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintln(w, `{"model":"llama3.2","message":{"role":"assistant","content":"ok"},"done":true}`)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 1
	cfg.RetryBackoffMs = 40

	resp, err := NewOllamaClient(cfg, nil).Stream(context.Background(), chatRequest("hi"), func(StreamEvent) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.GreaterOrEqual(t, seen[1].Sub(seen[0]), 40*time.Millisecond)
}

func TestOllamaClient_Stream_ClientErrorNotRetried(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 3

	_, err := NewOllamaClient(cfg, nil).Stream(context.Background(), chatRequest("hi"), func(StreamEvent) error { return nil })
	assert.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestRetryBackoff_DoublesUpToCap(t *testing.T) {
	cfg := LLMConfig{RetryBackoffMs: 250}
	assert.Equal(t, 250*time.Millisecond, cfg.retryBackoff(0))
	assert.Equal(t, 500*time.Millisecond, cfg.retryBackoff(1))
	assert.Equal(t, time.Second, cfg.retryBackoff(2))
	assert.Equal(t, maxRetryBackoff, cfg.retryBackoff(10))
	assert.Zero(t, LLMConfig{}.retryBackoff(3))
}

func TestRejectedStatus(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{http.StatusBadRequest, true},
		{http.StatusUnauthorized, true},
		{http.StatusNotFound, true},
		{http.StatusTooManyRequests, false},
		{http.StatusInternalServerError, false},
		{http.StatusServiceUnavailable, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rejectedStatus(tt.code), "status %d", tt.code)
	}
}

package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mediajel/apidocs/internal/domain"
)

// ollamaClient implements ChatClient using the Ollama HTTP API.
type ollamaClient struct {
	cfg      LLMConfig
	http     *http.Client
	observer Observer
}

// NewOllamaClient creates a ChatClient that talks to an Ollama instance.
func NewOllamaClient(cfg LLMConfig, observer Observer) ChatClient {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &ollamaClient{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: observer,
	}
}

// ollamaChatRequest is the JSON body sent to POST /api/chat.
type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// ollamaChatResponse is one response object. Streaming responses are a
// sequence of these, one per line, the last with Done set.
type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

func (c *ollamaClient) body(req ChatRequest, stream bool) ollamaChatRequest {
	temp, maxTok := c.cfg.params(req)

	msgs := make([]ollamaMessage, 0, len(req.Messages)+1)
	if sys := req.SystemPrompt(); sys != "" {
		msgs = append(msgs, ollamaMessage{Role: string(domain.RoleSystem), Content: sys})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, ollamaMessage{Role: string(m.Role), Content: m.Content})
	}

	return ollamaChatRequest{
		Model:    c.cfg.Model,
		Messages: msgs,
		Stream:   stream,
		Options:  ollamaOptions{Temperature: temp, NumPredict: maxTok},
	}
}

func (c *ollamaClient) timeout(task TaskType) time.Duration {
	return time.Duration(c.cfg.TaskTimeout(task)) * time.Millisecond
}

func (c *ollamaClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	tracker := newCallTracker(c.cfg, c.observer, req.Task, false)
	body := c.body(req, false)

	resp, err := withRetries(ctx, c.cfg, c.timeout(req.Task), func(actx context.Context) (*ollamaChatResponse, error) {
		httpResp, err := c.post(actx, body)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		var out ollamaChatResponse
		if err := json.NewDecoder(httpResp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
		if out.Error != "" {
			return nil, fmt.Errorf("ollama error: %s", out.Error)
		}
		return &out, nil
	})
	tracker.done(err)
	if err != nil {
		return nil, err
	}

	return &ChatResponse{
		Text:      resp.Message.Content,
		Model:     resp.Model,
		LatencyMs: tracker.latency(),
	}, nil
}

// Stream connects with retries, then relays NDJSON chunks to fn. Once the
// first chunk has been read the call is no longer retried.
func (c *ollamaClient) Stream(ctx context.Context, req ChatRequest, fn StreamHandler) (*ChatResponse, error) {
	tracker := newCallTracker(c.cfg, c.observer, req.Task, true)
	body := c.body(req, true)

	ctx, cancel := context.WithTimeout(ctx, c.timeout(req.Task))
	defer cancel()

	httpResp, err := connectWithRetries(ctx, c.cfg, func(ctx context.Context) (*http.Response, error) {
		return c.post(ctx, body)
	})
	if err != nil {
		err = classify(ctx, err)
		tracker.done(err)
		_ = fn(StreamEvent{Err: err})
		return nil, err
	}
	defer httpResp.Body.Close()

	var (
		text  strings.Builder
		model = c.cfg.Model
	)
	readErr := func() error {
		scanner := bufio.NewScanner(httpResp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var chunk ollamaChatResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				return fmt.Errorf("%w: decoding stream chunk: %v", ErrInvalidOutput, err)
			}
			if chunk.Error != "" {
				return fmt.Errorf("%w: ollama error: %s", ErrRetryExhausted, chunk.Error)
			}
			if chunk.Model != "" {
				model = chunk.Model
			}
			if chunk.Message.Content != "" {
				text.WriteString(chunk.Message.Content)
				if err := fn(StreamEvent{Delta: chunk.Message.Content}); err != nil {
					return &abortError{err}
				}
			}
			if chunk.Done {
				return nil
			}
		}
		if err := scanner.Err(); err != nil {
			return err
		}
		return io.ErrUnexpectedEOF
	}()

	var abort *abortError
	if errors.As(readErr, &abort) {
		tracker.done(abort.err)
		return nil, abort.err
	}
	if readErr != nil {
		if ctx.Err() != nil {
			readErr = classify(ctx, readErr)
		}
		tracker.done(readErr)
		_ = fn(StreamEvent{Err: readErr})
		return nil, readErr
	}

	tracker.done(nil)
	if err := fn(StreamEvent{Done: true}); err != nil {
		return nil, err
	}
	return &ChatResponse{Text: text.String(), Model: model, LatencyMs: tracker.latency()}, nil
}

// post sends body to /api/chat and returns the response when the status is 200.
func (c *ollamaClient) post(ctx context.Context, body ollamaChatRequest) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", errRejected, err)
	}

	url := c.cfg.Endpoint + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", errRejected, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if httpResp.StatusCode != http.StatusOK {
		defer httpResp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		err := fmt.Errorf("ollama returned status %d: %s", httpResp.StatusCode, string(msg))
		if rejectedStatus(httpResp.StatusCode) {
			err = fmt.Errorf("%w: %v", errRejected, err)
		}
		return nil, err
	}
	return httpResp, nil
}

func (c *ollamaClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, timeoutAvailable)
	defer cancel()

	url := c.cfg.Endpoint + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

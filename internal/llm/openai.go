package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// openaiClient implements ChatClient against any OpenAI-compatible chat
// completions API.
type openaiClient struct {
	cfg      LLMConfig
	client   *openai.Client
	observer Observer
}

// NewOpenAIClient creates a ChatClient for the OpenAI API. A non-empty
// cfg.Endpoint replaces the base URL, which lets it talk to compatible
// servers such as vLLM or Ollama's /v1 endpoint.
func NewOpenAIClient(cfg LLMConfig, observer Observer) ChatClient {
	if observer == nil {
		observer = NoopObserver{}
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = "unused" // local servers ignore the key
	}
	config := openai.DefaultConfig(apiKey)
	if cfg.Endpoint != "" {
		config.BaseURL = strings.TrimRight(cfg.Endpoint, "/")
	}
	config.HTTPClient = &http.Client{}

	return &openaiClient{
		cfg:      cfg,
		client:   openai.NewClientWithConfig(config),
		observer: observer,
	}
}

func (c *openaiClient) request(req ChatRequest, stream bool) openai.ChatCompletionRequest {
	temp, maxTok := c.cfg.params(req)

	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if sys := req.SystemPrompt(); sys != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: sys})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}

	return openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    msgs,
		Temperature: float32(temp),
		MaxTokens:   maxTok,
		Stream:      stream,
	}
}

func (c *openaiClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	tracker := newCallTracker(c.cfg, c.observer, req.Task, false)
	body := c.request(req, false)
	timeout := c.timeout(req.Task)

	resp, err := withRetries(ctx, c.cfg, timeout, func(actx context.Context) (openai.ChatCompletionResponse, error) {
		resp, err := c.client.CreateChatCompletion(actx, body)
		if err != nil {
			return resp, markRejected(err)
		}
		if len(resp.Choices) == 0 {
			return resp, fmt.Errorf("%w: response has no choices", ErrInvalidOutput)
		}
		return resp, nil
	})
	tracker.done(err)
	if err != nil {
		return nil, err
	}

	return &ChatResponse{
		Text:      resp.Choices[0].Message.Content,
		Model:     resp.Model,
		LatencyMs: tracker.latency(),
	}, nil
}

func (c *openaiClient) Stream(ctx context.Context, req ChatRequest, fn StreamHandler) (*ChatResponse, error) {
	tracker := newCallTracker(c.cfg, c.observer, req.Task, true)
	body := c.request(req, true)

	ctx, cancel := context.WithTimeout(ctx, c.timeout(req.Task))
	defer cancel()

	stream, err := connectWithRetries(ctx, c.cfg, func(ctx context.Context) (*openai.ChatCompletionStream, error) {
		stream, err := c.client.CreateChatCompletionStream(ctx, body)
		return stream, markRejected(err)
	})
	if err != nil {
		err = classify(ctx, err)
		tracker.done(err)
		_ = fn(StreamEvent{Err: err})
		return nil, err
	}
	defer stream.Close()

	var (
		text  strings.Builder
		model = c.cfg.Model
	)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			err := recvErr
			if ctx.Err() != nil {
				err = classify(ctx, recvErr)
			} else {
				err = fmt.Errorf("%w: %v", ErrRetryExhausted, recvErr)
			}
			tracker.done(err)
			_ = fn(StreamEvent{Err: err})
			return nil, err
		}
		if chunk.Model != "" {
			model = chunk.Model
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		text.WriteString(delta)
		if err := fn(StreamEvent{Delta: delta}); err != nil {
			tracker.done(err)
			return nil, err
		}
	}

	tracker.done(nil)
	if err := fn(StreamEvent{Done: true}); err != nil {
		return nil, err
	}
	return &ChatResponse{Text: text.String(), Model: model, LatencyMs: tracker.latency()}, nil
}

func (c *openaiClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, timeoutAvailable)
	defer cancel()
	_, err := c.client.ListModels(ctx)
	return err == nil
}

func (c *openaiClient) timeout(task TaskType) time.Duration {
	return time.Duration(c.cfg.TaskTimeout(task)) * time.Millisecond
}

// markRejected tags client errors (4xx other than 429) as not retryable.
func markRejected(err error) error {
	if err == nil {
		return nil
	}
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	if rejectedStatus(status) {
		return fmt.Errorf("%w: %v", errRejected, err)
	}
	return err
}

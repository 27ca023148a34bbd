package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mediajel/apidocs/internal/domain"
)

// timeoutAvailable bounds reachability checks.
const timeoutAvailable = 2 * time.Second

// Message is one turn of the rolling conversation history.
type Message struct {
	Role    domain.MessageRole `json:"role"`
	Content string             `json:"content"`
}

// ChatRequest holds the parameters for one model call. Instructions are
// appended to the system prompt for this call only.
type ChatRequest struct {
	Task         TaskType
	System       string
	Instructions string
	Messages     []Message
	Temperature  *float64 // nil uses task default
	MaxTokens    *int     // nil uses task default
}

// SystemPrompt joins the system prompt and the additional instructions.
func (r ChatRequest) SystemPrompt() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{r.System, r.Instructions} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}

// ChatResponse holds the result of a model call. For streamed calls Text is
// the concatenation of all deltas.
type ChatResponse struct {
	Text      string
	Model     string
	LatencyMs int64
}

// StreamEvent is one increment of a streamed response. Exactly one event
// has Done or Err set, and it is the last one delivered.
type StreamEvent struct {
	Delta string
	Done  bool
	Err   error
}

// StreamHandler receives stream events. Returning an error aborts the stream.
type StreamHandler func(StreamEvent) error

// ChatClient provides access to a conversational model.
type ChatClient interface {
	// Chat sends the conversation and returns the complete reply.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// Stream sends the conversation and delivers the reply incrementally.
	Stream(ctx context.Context, req ChatRequest, fn StreamHandler) (*ChatResponse, error)

	// Available checks whether the model server is reachable.
	Available(ctx context.Context) bool
}

// NewClient returns the ChatClient for cfg.Provider.
func NewClient(cfg LLMConfig, observer Observer) (ChatClient, error) {
	switch cfg.Provider {
	case ProviderOllama, "":
		return NewOllamaClient(cfg, observer), nil
	case ProviderOpenAI:
		return NewOpenAIClient(cfg, observer), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// callTracker reports one logical call (all attempts) to the observer.
type callTracker struct {
	observer Observer
	provider Provider
	model    string
	task     TaskType
	streamed bool
	start    time.Time
}

func newCallTracker(cfg LLMConfig, observer Observer, task TaskType, streamed bool) *callTracker {
	if observer == nil {
		observer = NoopObserver{}
	}
	provider := cfg.Provider
	if provider == "" {
		provider = ProviderOllama
	}
	return &callTracker{
		observer: observer,
		provider: provider,
		model:    cfg.Model,
		task:     task,
		streamed: streamed,
		start:    time.Now(),
	}
}

func (t *callTracker) latency() int64 { return time.Since(t.start).Milliseconds() }

func (t *callTracker) done(err error) {
	t.observer.OnCallComplete(LLMCallEvent{
		Task:      t.task,
		Provider:  t.provider,
		Model:     t.model,
		Streamed:  t.streamed,
		LatencyMs: t.latency(),
		Success:   err == nil,
		ErrorCode: errorCode(err),
	})
}

// withRetries runs attempt up to 1+cfg.MaxRetries times, each under its own
// timeout, waiting cfg.retryBackoff between attempts. It stops early when the
// parent context is done or when attempt wraps errRejected.
func withRetries[T any](ctx context.Context, cfg LLMConfig, timeout time.Duration, attempt func(context.Context) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	for i := 0; i < 1+cfg.MaxRetries; i++ {
		if i > 0 && !sleepCtx(ctx, cfg.retryBackoff(i-1)) {
			break
		}
		actx, cancel := context.WithTimeout(ctx, timeout)
		v, err := attempt(actx)
		timedOut := actx.Err() != nil
		cancel()
		if err == nil {
			return v, nil
		}
		lastErr = err
		if timedOut && ctx.Err() == nil {
			lastErr = ErrTimeout
		}
		if ctx.Err() != nil || errors.Is(err, errRejected) {
			break
		}
	}
	return zero, classify(ctx, lastErr)
}

// connectWithRetries opens a stream with the same retry policy as
// withRetries. All attempts share ctx, which bounds the whole call.
func connectWithRetries[T any](ctx context.Context, cfg LLMConfig, connect func(context.Context) (T, error)) (T, error) {
	var (
		v   T
		err error
	)
	for i := 0; i < 1+cfg.MaxRetries; i++ {
		if i > 0 && !sleepCtx(ctx, cfg.retryBackoff(i-1)) {
			break
		}
		v, err = connect(ctx)
		if err == nil || ctx.Err() != nil || errors.Is(err, errRejected) {
			break
		}
	}
	return v, err
}

// sleepCtx waits for d and reports whether ctx is still live afterwards.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// rejectedStatus reports whether an HTTP status means retrying cannot help:
// any 4xx except 429, which asks the caller to come back later.
func rejectedStatus(code int) bool {
	return code >= 400 && code < 500 && code != http.StatusTooManyRequests
}

// abortError carries an error returned by a StreamHandler, which ends the
// stream without a further Err event.
type abortError struct{ err error }

func (e *abortError) Error() string { return e.err.Error() }
func (e *abortError) Unwrap() error { return e.err }

// errRejected marks failures that retrying cannot fix.
var errRejected = errors.New("request rejected")

func classify(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(ctx.Err(), context.Canceled):
		return ctx.Err()
	case ctx.Err() != nil, errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case isConnectionError(err):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	case errors.Is(err, ErrInvalidOutput):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrRetryExhausted, err)
	}
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrInvalidOutput):
		return "INVALID_OUTPUT"
	case errors.Is(err, context.Canceled):
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}

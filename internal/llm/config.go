package llm

import "time"

// TaskType identifies the kind of model call being made.
type TaskType string

const (
	// TaskChat answers a user question in an assistant conversation.
	TaskChat TaskType = "chat"
	// TaskTitle summarizes the first question of a thread into a short title.
	TaskTitle TaskType = "title"
)

// Provider selects the model runtime implementation.
type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai"
)

// TaskConfig holds per-task model parameters.
type TaskConfig struct {
	Temperature float64
	MaxTokens   int
	TimeoutMs   int // overrides global if > 0
}

// LLMConfig holds all configuration for the model client.
type LLMConfig struct {
	Enabled    bool
	LogCalls   bool
	Provider   Provider
	Endpoint   string
	Model      string
	APIKey     string
	TimeoutMs  int
	MaxRetries int
	// RetryBackoffMs is the wait before the first retry. It doubles for each
	// further retry up to maxRetryBackoff. Zero retries immediately.
	RetryBackoffMs int
	Tasks          map[TaskType]TaskConfig
}

const maxRetryBackoff = 5 * time.Second

// DefaultConfig returns an LLMConfig pointing at a local Ollama.
// The assistant is disabled by default.
func DefaultConfig() LLMConfig {
	return LLMConfig{
		Enabled:        false,
		LogCalls:       false,
		Provider:       ProviderOllama,
		Endpoint:       "http://localhost:11434",
		Model:          "llama3.2",
		TimeoutMs:      60000,
		MaxRetries:     1,
		RetryBackoffMs: 250,
		Tasks: map[TaskType]TaskConfig{
			TaskChat:  {Temperature: 0.2, MaxTokens: 2048, TimeoutMs: 60000},
			TaskTitle: {Temperature: 0.1, MaxTokens: 64, TimeoutMs: 8000},
		},
	}
}

// TaskTimeout returns the effective timeout for a given task type.
// Uses the task-specific timeout if set, otherwise the global timeout.
func (c LLMConfig) TaskTimeout(task TaskType) int {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return tc.TimeoutMs
	}
	return c.TimeoutMs
}

// retryBackoff returns the wait before retry number retry, counting from 0.
func (c LLMConfig) retryBackoff(retry int) time.Duration {
	if c.RetryBackoffMs <= 0 {
		return 0
	}
	d := time.Duration(c.RetryBackoffMs) * time.Millisecond
	for i := 0; i < retry && d < maxRetryBackoff; i++ {
		d *= 2
	}
	return min(d, maxRetryBackoff)
}

// SetTaskTimeout overrides one task's timeout. Non-positive values are ignored.
func (c *LLMConfig) SetTaskTimeout(task TaskType, ms int) {
	if ms <= 0 {
		return
	}
	if c.Tasks == nil {
		c.Tasks = make(map[TaskType]TaskConfig)
	}
	tc := c.Tasks[task]
	tc.TimeoutMs = ms
	c.Tasks[task] = tc
}

func (c LLMConfig) params(req ChatRequest) (float64, int) {
	tc := c.Tasks[req.Task]
	temp, maxTok := tc.Temperature, tc.MaxTokens
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	if req.MaxTokens != nil {
		maxTok = *req.MaxTokens
	}
	return temp, maxTok
}

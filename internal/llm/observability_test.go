package llm

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogObserver(slog.New(slog.NewTextHandler(&buf, nil)))

	obs.OnCallComplete(LLMCallEvent{Task: TaskChat, Provider: ProviderOllama, Model: "llama3.2", LatencyMs: 12, Success: true})
	obs.OnCallComplete(LLMCallEvent{Task: TaskTitle, Provider: ProviderOllama, Model: "llama3.2", ErrorCode: "TIMEOUT"})

	out := buf.String()
	assert.Contains(t, out, "level=INFO msg=\"llm call\" task=chat provider=ollama model=llama3.2")
	assert.Contains(t, out, "latency_ms=12")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "error_code=TIMEOUT")
}

func TestMultiObserver(t *testing.T) {
	var a, b int
	m := MultiObserver{
		&captureObserver{fn: func(LLMCallEvent) { a++ }},
		nil,
		&captureObserver{fn: func(LLMCallEvent) { b++ }},
	}
	m.OnCallComplete(LLMCallEvent{})
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}

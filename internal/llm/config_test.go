package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, ProviderOllama, cfg.Provider)
	assert.Equal(t, 60000, cfg.TaskTimeout(TaskChat))
	assert.Equal(t, 8000, cfg.TaskTimeout(TaskTitle))
}

func TestTaskTimeout_FallsBackToGlobal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimeoutMs = 9000
	cfg.Tasks = map[TaskType]TaskConfig{TaskChat: {Temperature: 0.2}}

	assert.Equal(t, 9000, cfg.TaskTimeout(TaskChat))
	assert.Equal(t, 9000, cfg.TaskTimeout(TaskTitle))
}

func TestSetTaskTimeout(t *testing.T) {
	cfg := LLMConfig{TimeoutMs: 1000}

	cfg.SetTaskTimeout(TaskTitle, 2500)
	cfg.SetTaskTimeout(TaskChat, 0)

	assert.Equal(t, 2500, cfg.TaskTimeout(TaskTitle))
	assert.Equal(t, 1000, cfg.TaskTimeout(TaskChat))
}

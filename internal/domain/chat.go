package domain

import "time"

// ChatThread is a persisted conversation with the assistant.
type ChatThread struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ChatMessage is one turn of a thread. Intent and Confidence are recorded for
// user turns only.
type ChatMessage struct {
	ID         string      `json:"id"`
	ThreadID   string      `json:"threadId"`
	Seq        int         `json:"seq"`
	Role       MessageRole `json:"role"`
	Content    string      `json:"content"`
	Intent     QueryIntent `json:"intent,omitempty"`
	Confidence float64     `json:"confidence,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

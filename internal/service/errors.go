package service

import "errors"

var (
	// ErrAssistantUnavailable means the conversational model could not answer.
	// The model's own error is wrapped alongside it.
	ErrAssistantUnavailable = errors.New("assistant temporarily unavailable")

	// ErrEmptyConversation means a chat request carried no user question.
	ErrEmptyConversation = errors.New("conversation has no user question")

	// ErrInvalidRequest wraps playground requests that cannot be sent.
	ErrInvalidRequest = errors.New("invalid request")
)

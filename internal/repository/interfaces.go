package repository

import (
	"context"
	"time"

	"github.com/mediajel/apidocs/internal/domain"
)

type ThreadRepo interface {
	Create(ctx context.Context, t *domain.ChatThread) error
	GetByID(ctx context.Context, id string) (*domain.ChatThread, error)
	// List returns threads most recently updated first. limit <= 0 lists all.
	List(ctx context.Context, limit int) ([]*domain.ChatThread, error)
	Touch(ctx context.Context, id string, at time.Time) error
	UpdateTitle(ctx context.Context, id, title string) error
	Delete(ctx context.Context, id string) error
}

type MessageRepo interface {
	// Append stores m as the next turn of its thread and sets m.Seq.
	Append(ctx context.Context, m *domain.ChatMessage) error
	ListByThread(ctx context.Context, threadID string) ([]*domain.ChatMessage, error)
	// ListRecent returns the last n turns of a thread in conversation order.
	ListRecent(ctx context.Context, threadID string, n int) ([]*domain.ChatMessage, error)
}

type RequestHistoryRepo interface {
	Create(ctx context.Context, r *domain.RequestRecord) error
	// ListRecent returns records newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.RequestRecord, error)
	// Prune keeps the newest keep records and reports how many were removed.
	Prune(ctx context.Context, keep int) (int64, error)
	Clear(ctx context.Context) error
}

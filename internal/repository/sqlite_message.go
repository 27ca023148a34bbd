package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mediajel/apidocs/internal/db"
	"github.com/mediajel/apidocs/internal/domain"
)

// SQLiteMessageRepo implements MessageRepo using a SQLite database.
type SQLiteMessageRepo struct {
	db db.DBTX
}

func NewSQLiteMessageRepo(conn db.DBTX) *SQLiteMessageRepo {
	return &SQLiteMessageRepo{db: conn}
}

const messageColumns = `id, thread_id, seq, role, content, intent, confidence, created_at`

// Append allocates the next seq in the same statement as the insert, so
// appends to one thread never collide.
func (r *SQLiteMessageRepo) Append(ctx context.Context, m *domain.ChatMessage) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO chat_messages (`+messageColumns+`)
		SELECT ?, ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?, ?
		FROM chat_messages WHERE thread_id = ?
		RETURNING seq`,
		m.ID, m.ThreadID, string(m.Role), m.Content, string(m.Intent), m.Confidence,
		formatTime(m.CreatedAt), m.ThreadID,
	)
	if err := row.Scan(&m.Seq); err != nil {
		return fmt.Errorf("appending chat message: %w", err)
	}
	return nil
}

func (r *SQLiteMessageRepo) ListByThread(ctx context.Context, threadID string) ([]*domain.ChatMessage, error) {
	return r.query(ctx,
		`SELECT `+messageColumns+` FROM chat_messages WHERE thread_id = ? ORDER BY seq`, threadID)
}

func (r *SQLiteMessageRepo) ListRecent(ctx context.Context, threadID string, n int) ([]*domain.ChatMessage, error) {
	if n <= 0 {
		return r.ListByThread(ctx, threadID)
	}
	return r.query(ctx,
		`SELECT * FROM (
			SELECT `+messageColumns+` FROM chat_messages WHERE thread_id = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq`, threadID, n)
}

func (r *SQLiteMessageRepo) query(ctx context.Context, query string, args ...any) ([]*domain.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing chat messages: %w", err)
	}
	defer rows.Close()

	msgs := []*domain.ChatMessage{}
	for rows.Next() {
		var (
			m       domain.ChatMessage
			role    string
			intent  string
			created string
		)
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.Seq, &role, &m.Content, &intent, &m.Confidence, &created); err != nil {
			return nil, fmt.Errorf("scanning chat message: %w", err)
		}
		m.Role = domain.MessageRole(role)
		m.Intent = domain.QueryIntent(intent)
		if m.CreatedAt, err = parseTime("created_at", created); err != nil {
			return nil, err
		}
		msgs = append(msgs, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat messages: %w", err)
	}
	return msgs, nil
}

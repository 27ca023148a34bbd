package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mediajel/apidocs/internal/db"
	"github.com/mediajel/apidocs/internal/domain"
)

// SQLiteThreadRepo implements ThreadRepo using a SQLite database.
type SQLiteThreadRepo struct {
	db db.DBTX
}

func NewSQLiteThreadRepo(conn db.DBTX) *SQLiteThreadRepo {
	return &SQLiteThreadRepo{db: conn}
}

const threadColumns = `id, title, created_at, updated_at`

func (r *SQLiteThreadRepo) Create(ctx context.Context, t *domain.ChatThread) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_threads (`+threadColumns+`) VALUES (?, ?, ?, ?)`,
		t.ID, t.Title, formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting chat thread: %w", err)
	}
	return nil
}

func (r *SQLiteThreadRepo) GetByID(ctx context.Context, id string) (*domain.ChatThread, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+threadColumns+` FROM chat_threads WHERE id = ?`, id)
	t, err := scanThread(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chat thread %s: %w", id, ErrNotFound)
	}
	return t, err
}

func (r *SQLiteThreadRepo) List(ctx context.Context, limit int) ([]*domain.ChatThread, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+threadColumns+` FROM chat_threads ORDER BY updated_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing chat threads: %w", err)
	}
	defer rows.Close()

	var threads []*domain.ChatThread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat threads: %w", err)
	}
	return threads, nil
}

func (r *SQLiteThreadRepo) Touch(ctx context.Context, id string, at time.Time) error {
	return r.update(ctx, "touching", `UPDATE chat_threads SET updated_at = ? WHERE id = ?`, formatTime(at), id)
}

func (r *SQLiteThreadRepo) UpdateTitle(ctx context.Context, id, title string) error {
	return r.update(ctx, "renaming", `UPDATE chat_threads SET title = ? WHERE id = ?`, title, id)
}

// Delete removes the thread and, through the foreign key, its messages.
func (r *SQLiteThreadRepo) Delete(ctx context.Context, id string) error {
	return r.update(ctx, "deleting", `DELETE FROM chat_threads WHERE id = ?`, id)
}

func (r *SQLiteThreadRepo) update(ctx context.Context, verb, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s chat thread: %w", verb, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s chat thread: %w", verb, err)
	}
	if n == 0 {
		return fmt.Errorf("chat thread %s: %w", args[len(args)-1], ErrNotFound)
	}
	return nil
}

func scanThread(s scanner) (*domain.ChatThread, error) {
	var (
		t                domain.ChatThread
		created, updated string
		err              error
	)
	if err = s.Scan(&t.ID, &t.Title, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning chat thread: %w", err)
	}
	if t.CreatedAt, err = parseTime("created_at", created); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime("updated_at", updated); err != nil {
		return nil, err
	}
	return &t, nil
}

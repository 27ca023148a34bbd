package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/mediajel/apidocs/internal/db"
	"github.com/mediajel/apidocs/internal/domain"
)

// SQLiteRequestHistoryRepo implements RequestHistoryRepo using a SQLite database.
type SQLiteRequestHistoryRepo struct {
	db db.DBTX
}

func NewSQLiteRequestHistoryRepo(conn db.DBTX) *SQLiteRequestHistoryRepo {
	return &SQLiteRequestHistoryRepo{db: conn}
}

const requestColumns = `id, method, url, request_headers, request_body, status_code,
	response_body, duration_ms, error, created_at`

func (r *SQLiteRequestHistoryRepo) Create(ctx context.Context, rec *domain.RequestRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	headers := rec.RequestHeaders
	if headers == nil {
		headers = map[string]string{}
	}
	hdrJSON, err := json.Marshal(headers)
	if err != nil {
		return fmt.Errorf("encoding request headers: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO request_history (`+requestColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Method, rec.URL, string(hdrJSON), rec.RequestBody, rec.StatusCode,
		rec.ResponseBody, rec.DurationMs, rec.Error, formatTime(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting request record: %w", err)
	}
	return nil
}

func (r *SQLiteRequestHistoryRepo) ListRecent(ctx context.Context, limit int) ([]*domain.RequestRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM request_history ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing request history: %w", err)
	}
	defer rows.Close()

	records := []*domain.RequestRecord{}
	for rows.Next() {
		var (
			rec     domain.RequestRecord
			hdrJSON string
			created string
		)
		if err := rows.Scan(&rec.ID, &rec.Method, &rec.URL, &hdrJSON, &rec.RequestBody, &rec.StatusCode,
			&rec.ResponseBody, &rec.DurationMs, &rec.Error, &created); err != nil {
			return nil, fmt.Errorf("scanning request record: %w", err)
		}
		if err := json.Unmarshal([]byte(hdrJSON), &rec.RequestHeaders); err != nil {
			return nil, fmt.Errorf("decoding request headers: %w", err)
		}
		if rec.CreatedAt, err = parseTime("created_at", created); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating request history: %w", err)
	}
	return records, nil
}

func (r *SQLiteRequestHistoryRepo) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM request_history WHERE id NOT IN (
			SELECT id FROM request_history ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning request history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning request history: %w", err)
	}
	return n, nil
}

func (r *SQLiteRequestHistoryRepo) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM request_history`); err != nil {
		return fmt.Errorf("clearing request history: %w", err)
	}
	return nil
}

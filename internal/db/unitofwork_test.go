package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediajel/apidocs/internal/db"
)

func newUoW(t *testing.T) (*sql.DB, *db.SQLiteUnitOfWork) {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database, db.NewSQLiteUnitOfWork(database)
}

func insertThread(ctx context.Context, tx db.DBTX, id string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO chat_threads (id, created_at, updated_at)
		VALUES (?, '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`, id)
	return err
}

func threadExists(t *testing.T, database *sql.DB, id string) bool {
	t.Helper()
	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM chat_threads WHERE id = ?`, id).Scan(&n))
	return n == 1
}

func TestWithinTx_CommitOnSuccess(t *testing.T) {
	database, uow := newUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		return insertThread(ctx, tx, "t1")
	})
	require.NoError(t, err)

	assert.True(t, threadExists(t, database, "t1"))
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	database, uow := newUoW(t)
	boom := errors.New("deliberate failure")

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := insertThread(ctx, tx, "t2"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.False(t, threadExists(t, database, "t2"))
}

func TestWithinTx_RollbackOnPanic(t *testing.T) {
	database, uow := newUoW(t)

	assert.Panics(t, func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_ = insertThread(ctx, tx, "t3")
			panic("boom")
		})
	})

	assert.False(t, threadExists(t, database, "t3"))
}

package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediajel/apidocs/internal/db"
	"github.com/mediajel/apidocs/internal/domain"
	"github.com/mediajel/apidocs/internal/testutil"
)

func messageTestSetup(t *testing.T) (*SQLiteMessageRepo, string) {
	t.Helper()
	database := testutil.NewTestDB(t)
	th := testutil.NewTestThread()
	require.NoError(t, NewSQLiteThreadRepo(database).Create(context.Background(), th))
	return NewSQLiteMessageRepo(database), th.ID
}

func TestMessageRepo_AppendAssignsSeq(t *testing.T) {
	repo, threadID := messageTestSetup(t)
	ctx := context.Background()

	q := testutil.NewTestMessage(threadID, domain.RoleUser, "What is ROAS?",
		testutil.WithIntent(domain.IntentHybrid, 0.9))
	a := testutil.NewTestMessage(threadID, domain.RoleAssistant, "Return on ad spend.")
	require.NoError(t, repo.Append(ctx, q))
	require.NoError(t, repo.Append(ctx, a))

	assert.NotEmpty(t, q.ID)
	assert.Equal(t, 1, q.Seq)
	assert.Equal(t, 2, a.Seq)

	msgs, err := repo.ListByThread(ctx, threadID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
	assert.Equal(t, domain.IntentHybrid, msgs[0].Intent)
	assert.Equal(t, 0.9, msgs[0].Confidence)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
	assert.Equal(t, domain.QueryIntent(""), msgs[1].Intent)
}

func TestMessageRepo_AppendUnknownThread(t *testing.T) {
	repo, _ := messageTestSetup(t)

	err := repo.Append(context.Background(), testutil.NewTestMessage("missing", domain.RoleUser, "hi"))
	assert.Error(t, err)
}

func TestMessageRepo_ListRecent(t *testing.T) {
	repo, threadID := messageTestSetup(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, repo.Append(ctx, testutil.NewTestMessage(threadID, domain.RoleUser, fmt.Sprintf("m%d", i))))
	}

	recent, err := repo.ListRecent(ctx, threadID, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, []string{"m3", "m4", "m5"}, []string{recent[0].Content, recent[1].Content, recent[2].Content})

	all, err := repo.ListRecent(ctx, threadID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestMessageRepo_ListByThread_Empty(t *testing.T) {
	repo, threadID := messageTestSetup(t)

	msgs, err := repo.ListByThread(context.Background(), threadID)
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

// A file-backed database shares state across pooled connections, which the
// concurrent appenders below need.
func TestMessageRepo_ConcurrentAppendsKeepSeqUnique(t *testing.T) {
	database, err := db.OpenDB(filepath.Join(t.TempDir(), "concurrent.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	ctx := context.Background()

	th := testutil.NewTestThread()
	require.NoError(t, NewSQLiteThreadRepo(database).Create(ctx, th))
	repo := NewSQLiteMessageRepo(database)

	const writers, perWriter = 4, 10
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				m := testutil.NewTestMessage(th.ID, domain.RoleUser, fmt.Sprintf("w%d-%d", w, i))
				if err := repo.Append(ctx, m); err != nil {
					t.Errorf("writer %d: %v", w, err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	msgs, err := repo.ListByThread(ctx, th.ID)
	require.NoError(t, err)
	require.Len(t, msgs, writers*perWriter)
	for i, m := range msgs {
		assert.Equal(t, i+1, m.Seq)
	}
}

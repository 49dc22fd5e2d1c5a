package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentCurator/internal/domain"
)

func TestCreateBatchIsCreateIfAbsent(t *testing.T) {
	store := New()
	ctx := context.Background()

	created, err := store.CreateBatch(ctx, []domain.ContentItem{{ID: "a", Title: "first"}, {ID: "b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, created)

	created, err = store.CreateBatch(ctx, []domain.ContentItem{{ID: "a", Title: "second"}})
	require.NoError(t, err)
	assert.Empty(t, created)

	got, ok := store.Item("a")
	require.True(t, ok)
	assert.Equal(t, "first", got.Title)
}

func TestAdvanceKeepsLatest(t *testing.T) {
	store := New()
	ctx := context.Background()
	t1 := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	t0 := t1.Add(-time.Hour)

	_, err := store.Get(ctx, "k", "rss:feed")
	require.NoError(t, err)
	require.NoError(t, store.Advance(ctx, "k", &t1, 1))
	require.NoError(t, store.Advance(ctx, "k", &t0, 1))

	cursor, err := store.Get(ctx, "k", "rss:feed")
	require.NoError(t, err)
	assert.True(t, cursor.LastProcessed.Equal(t1))
	assert.Equal(t, int64(2), cursor.TotalItemsProcessed)
}

func TestFailWrites(t *testing.T) {
	store := New()
	store.FailWrites = errors.New("read only")

	_, err := store.CreateBatch(context.Background(), []domain.ContentItem{{ID: "a"}})
	assert.Error(t, err)
	assert.Error(t, store.Reels().CreateBatch(context.Background(), []domain.ReelIdea{{ID: "r"}}))
}

func TestMarkMissing(t *testing.T) {
	err := New().MarkReelGenerated(context.Background(), "nope", time.Now())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/infrastructure/storage/memory"
)

// racingItems stores winner before delegating, as a concurrent run would.
type racingItems struct {
	*memory.Store
	winner domain.ContentItem
}

func (r racingItems) CreateBatch(ctx context.Context, items []domain.ContentItem) ([]string, error) {
	if _, err := r.Store.CreateBatch(ctx, []domain.ContentItem{r.winner}); err != nil {
		return nil, err
	}
	return r.Store.CreateBatch(ctx, items)
}

func TestCommitAdvancesToLatestCreated(t *testing.T) {
	t.Parallel()

	store := memory.New()
	items := []domain.ContentItem{
		{ID: "a", Published: at(10)},
		{ID: "b", Published: at(40)},
		{ID: "c", Published: nil},
	}

	committed, err := NewBatchWriter(store, store, nil).Commit(context.Background(), feed, "cursor", items)
	require.NoError(t, err)
	assert.Equal(t, 3, committed.Stored)
	require.NotNil(t, committed.Latest)
	assert.True(t, committed.Latest.Equal(*at(40)))

	got, err := store.Get(context.Background(), "cursor", feed.ID())
	require.NoError(t, err)
	require.NotNil(t, got.LastProcessed)
	assert.True(t, got.LastProcessed.Equal(*at(40)))
	assert.Equal(t, int64(3), got.TotalItemsProcessed)
}

func TestCommitIgnoresItemsStoredByAnotherRun(t *testing.T) {
	t.Parallel()

	store := memory.New()
	newest := domain.ContentItem{ID: "b", Published: at(40)}
	items := []domain.ContentItem{{ID: "a", Published: at(10)}, newest}

	writer := NewBatchWriter(racingItems{Store: store, winner: newest}, store, nil)
	committed, err := writer.Commit(context.Background(), feed, "cursor", items)
	require.NoError(t, err)
	assert.Equal(t, 1, committed.Stored)
	require.NotNil(t, committed.Latest)
	assert.True(t, committed.Latest.Equal(*at(10)))

	got, err := store.Get(context.Background(), "cursor", feed.ID())
	require.NoError(t, err)
	require.NotNil(t, got.LastProcessed)
	assert.True(t, got.LastProcessed.Equal(*at(10)))
	assert.Equal(t, int64(1), got.TotalItemsProcessed)
}

func TestCommitNothingCreatedKeepsCursor(t *testing.T) {
	t.Parallel()

	store := memory.New()
	items := []domain.ContentItem{{ID: "a", Published: at(10)}}
	_, err := store.CreateBatch(context.Background(), items)
	require.NoError(t, err)

	committed, err := NewBatchWriter(store, store, nil).Commit(context.Background(), feed, "cursor", items)
	require.NoError(t, err)
	assert.Equal(t, Committed{}, committed)

	got, err := store.Get(context.Background(), "cursor", feed.ID())
	require.NoError(t, err)
	assert.Nil(t, got.LastProcessed)
	assert.Zero(t, got.TotalItemsProcessed)
}

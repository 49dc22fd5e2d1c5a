package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentCurator/internal/domain"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := New(client)
	store.now = func() time.Time { return time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func item(id string, created time.Time) domain.ContentItem {
	published := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	return domain.ContentItem{
		ID:          id,
		Title:       "Title " + id,
		Link:        "https://example.com/" + id,
		Published:   &published,
		SourceType:  domain.SourceTypeSocialPost,
		SourceName:  "r/MachineLearning",
		Tags:        []string{"LLM"},
		CreatedAt:   created,
		ProcessedAt: created,
	}
}

func TestCreateBatchNeverOverwrites(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)

	created, err := store.CreateBatch(ctx, []domain.ContentItem{item("a", now), item("b", now)})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, created)

	changed := item("a", now)
	changed.Title = "changed"
	created, err = store.CreateBatch(ctx, []domain.ContentItem{changed, item("c", now)})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, created)

	stored, err := store.Item(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Title a", stored.Title)

	ok, err := store.Exists(ctx, "b")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCursorAdvanceIsMonotonic(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	cursor, err := store.Get(ctx, "k", "reddit:MachineLearning")
	require.NoError(t, err)
	assert.Nil(t, cursor.LastProcessed)
	assert.Zero(t, cursor.TotalItemsProcessed)
	assert.Equal(t, "reddit:MachineLearning", cursor.SourceID)

	t1 := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	t0 := t1.Add(-2 * time.Hour)
	require.NoError(t, store.Advance(ctx, "k", &t1, 2))
	require.NoError(t, store.Advance(ctx, "k", &t0, 1))
	require.NoError(t, store.Advance(ctx, "k", nil, 4))

	cursor, err = store.Get(ctx, "k", "other")
	require.NoError(t, err)
	require.NotNil(t, cursor.LastProcessed)
	assert.True(t, cursor.LastProcessed.Equal(t1))
	assert.Equal(t, int64(7), cursor.TotalItemsProcessed)
	assert.Equal(t, "reddit:MachineLearning", cursor.SourceID)
}

func TestAdvanceCreatesMissingCursor(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2025, 1, 5, 8, 30, 0, 0, time.UTC)

	require.NoError(t, store.Advance(ctx, "fresh", &ts, 1))

	cursor, err := store.Get(ctx, "fresh", "ignored")
	require.NoError(t, err)
	assert.Equal(t, "fresh", cursor.SourceID)
	require.NotNil(t, cursor.LastProcessed)
	assert.True(t, cursor.LastProcessed.Equal(ts))
}

func TestReelWorkflow(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)

	_, err := store.CreateBatch(ctx, []domain.ContentItem{
		item("late", base.Add(time.Minute)),
		item("early", base),
		item("skipped", base),
	})
	require.NoError(t, err)
	require.NoError(t, store.Approve(ctx, "late"))
	require.NoError(t, store.Approve(ctx, "early"))

	awaiting, err := store.ListAwaitingReels(ctx, 10)
	require.NoError(t, err)
	require.Len(t, awaiting, 2)
	assert.Equal(t, "early", awaiting[0].ID)
	assert.Equal(t, "late", awaiting[1].ID)

	limited, err := store.ListAwaitingReels(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, store.Reels().CreateBatch(ctx, []domain.ReelIdea{
		{ID: "r1", RawIdeaDocID: "early", ReelTitle: "One", ProductionStatus: domain.ProductionPending},
		{ID: "r2", RawIdeaDocID: "early", ReelTitle: "Two", ProductionStatus: domain.ProductionPending},
	}))
	require.NoError(t, store.MarkReelGenerated(ctx, "early", base))

	awaiting, err = store.ListAwaitingReels(ctx, 10)
	require.NoError(t, err)
	require.Len(t, awaiting, 1)
	assert.Equal(t, "late", awaiting[0].ID)

	stored, err := store.Item(ctx, "early")
	require.NoError(t, err)
	assert.True(t, stored.ReelGenerated)
	require.NotNil(t, stored.ReelGeneratedAt)

	reels, err := store.ReelsFor(ctx, "early")
	require.NoError(t, err)
	require.Len(t, reels, 2)
	assert.Equal(t, "r1", reels[0].ID)
}

func TestMarkReelGeneratedMissing(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	err := store.MarkReelGenerated(context.Background(), "ghost", time.Now())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStats(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	_, err := store.CreateBatch(ctx, []domain.ContentItem{item("a", now), item("b", now), item("c", now)})
	require.NoError(t, err)
	require.NoError(t, store.Advance(ctx, "s1", nil, 2))
	require.NoError(t, store.Advance(ctx, "s2", nil, 1))
	require.NoError(t, store.Reels().CreateBatch(ctx, []domain.ReelIdea{{ID: "r", RawIdeaDocID: "a"}}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StoreStats{ContentItems: 3, Sources: 2, ItemsProcessed: 3}, stats)
}

func TestStoreErrorsWhenServerDown(t *testing.T) {
	t.Parallel()

	store, mr := newTestStore(t)
	mr.Close()

	_, err := store.Exists(context.Background(), "a")
	assert.Error(t, err)
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/infrastructure/storage/memory"
)

func reelJSON(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf(`{"reel_title":"Reel %d","hook":"h","concept":"c","visuals":"v","cta":"follow","target_audience":"devs","production_status":"approved"}`, i+1)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func approvedStore(t *testing.T) *memory.Store {
	t.Helper()

	store := memory.New()
	eval := domain.ScoredEvaluation(77, 50, "stub", domain.EvaluationCriteria{}, base)
	_, err := store.CreateBatch(context.Background(), []domain.ContentItem{
		{ID: "idea", Title: "Agents everywhere", Content: "Long body", Link: "https://example.com/idea", Evaluation: &eval, CreatedAt: base},
		{ID: "unapproved", Title: "Not yet", CreatedAt: base},
	})
	require.NoError(t, err)
	require.NoError(t, store.Approve(context.Background(), "idea"))
	return store
}

func newStage(store *memory.Store, completer *scriptedCompleter, perIdea int) *ReelStage {
	stage := NewReelStage(store, completer, instantCaller(), ReelConfig{PerIdea: perIdea}, nil)
	n := 0
	stage.newID = func() string { n++; return fmt.Sprintf("reel-%d", n) }
	stage.now = func() time.Time { return base }
	return stage
}

func TestReelStageStoresExactCount(t *testing.T) {
	t.Parallel()

	store := approvedStore(t)
	completer := &scriptedCompleter{replies: []reply{{text: reelJSON(2)}}}

	summary := newStage(store, completer, 2).Run(context.Background())
	assert.Equal(t, 1, summary.ProcessedIdeas)
	assert.Equal(t, 2, summary.GeneratedReels)
	assert.Zero(t, summary.FailedIdeas)
	assert.True(t, summary.Success())

	reels, err := store.ReelsFor(context.Background(), "idea")
	require.NoError(t, err)
	require.Len(t, reels, 2)
	assert.Equal(t, "reel-1", reels[0].ID)
	assert.Equal(t, "Reel 1", reels[0].ReelTitle)
	assert.Equal(t, domain.ProductionPending, reels[0].ProductionStatus)
	assert.False(t, reels[0].ProductionApproved)
	assert.Equal(t, 77, reels[0].RelevanceScore)
	assert.Equal(t, "https://example.com/idea", reels[0].SourceURL)

	item, ok := store.Item("idea")
	require.True(t, ok)
	assert.True(t, item.ReelGenerated)
	require.NotNil(t, item.ReelGeneratedAt)
}

func TestReelStageToleratesShortResponse(t *testing.T) {
	t.Parallel()

	store := approvedStore(t)
	completer := &scriptedCompleter{replies: []reply{{text: "```json\n" + reelJSON(1) + "\n```"}}}

	summary := newStage(store, completer, 2).Run(context.Background())
	assert.Equal(t, 1, summary.ProcessedIdeas)
	assert.Equal(t, 1, summary.GeneratedReels)

	item, _ := store.Item("idea")
	assert.True(t, item.ReelGenerated)
}

func TestReelStageRetriesMalformedJSON(t *testing.T) {
	t.Parallel()

	store := approvedStore(t)
	completer := &scriptedCompleter{replies: []reply{
		{text: "Sure! Here are your reels."},
		{text: reelJSON(2)},
	}}

	summary := newStage(store, completer, 2).Run(context.Background())
	assert.Equal(t, 2, summary.GeneratedReels)
	assert.Len(t, completer.prompts, 2)
}

func TestReelStageKeepsFlagOnWriteFailure(t *testing.T) {
	t.Parallel()

	store := approvedStore(t)
	store.FailWrites = errors.New("unavailable")
	completer := &scriptedCompleter{replies: []reply{{text: reelJSON(2)}}}

	summary := newStage(store, completer, 2).Run(context.Background())
	assert.Equal(t, 1, summary.FailedIdeas)
	assert.Zero(t, summary.ProcessedIdeas)
	assert.False(t, summary.Success())

	item, _ := store.Item("idea")
	assert.False(t, item.ReelGenerated)
}

func TestReelStageFatalEndpointError(t *testing.T) {
	t.Parallel()

	store := approvedStore(t)
	completer := &scriptedCompleter{replies: []reply{{err: errors.New("permission denied")}}}

	summary := newStage(store, completer, 2).Run(context.Background())
	assert.Equal(t, 1, summary.FailedIdeas)
	assert.Len(t, completer.prompts, 1)
}

func TestReelStageNothingApproved(t *testing.T) {
	t.Parallel()

	completer := &scriptedCompleter{}
	summary := newStage(memory.New(), completer, 2).Run(context.Background())
	assert.Zero(t, summary.ProcessedIdeas)
	assert.Empty(t, completer.prompts)
	assert.NotEmpty(t, summary.Message)
}

func TestBuildPromptFillsPlaceholders(t *testing.T) {
	t.Parallel()

	stage := newStage(memory.New(), &scriptedCompleter{}, 3)
	eval := domain.ScoredEvaluation(91, 50, "stub", domain.EvaluationCriteria{}, base)
	prompt := stage.BuildPrompt(domain.ContentItem{
		ID: "doc-1", Title: "T", Description: "D", Link: "https://x.test/p", Evaluation: &eval,
	})

	assert.Contains(t, prompt, "Create 3 engaging reel concepts")
	assert.Contains(t, prompt, `"raw_idea_doc_id": "doc-1"`)
	assert.Contains(t, prompt, `"relevance_score": 91`)
	assert.Contains(t, prompt, `"source_url": "https://x.test/p"`)
	assert.Contains(t, prompt, base.Format(time.RFC3339))
	assert.Contains(t, prompt, "- Content: D")
	assert.NotContains(t, prompt, "{reels_per_idea}")
}

func TestParseReels(t *testing.T) {
	t.Parallel()

	drafts, err := ParseReels("```json\n" + reelJSON(2) + "\n```")
	require.NoError(t, err)
	assert.Len(t, drafts, 2)

	drafts, err = ParseReels("```\n[]\n```")
	require.NoError(t, err)
	assert.Empty(t, drafts)

	_, err = ParseReels(`{"reel_title":"single"}`)
	assert.ErrorIs(t, err, errNotArray)

	_, err = ParseReels(`[{"reel_title":`)
	assert.Error(t, err)
}

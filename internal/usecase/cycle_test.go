package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/infrastructure/storage/memory"
)

func TestCycleRunsAllStages(t *testing.T) {
	t.Parallel()

	store := approvedStore(t)
	src := &stubSource{
		sources: []domain.Source{feed},
		entries: map[string][]domain.Entry{"blog": {feedEntry("a", at(1))}},
	}
	completer := &scriptedCompleter{replies: []reply{{text: reelJSON(2)}}}
	notifier := &recordingNotifier{}

	cycle := NewCycle(newPipeline(src, store, nil, 5), newStage(store, completer, 2), notifier, nil)
	summary := cycle.Run(context.Background())

	assert.Equal(t, 1, summary.TotalNew)
	require.NotNil(t, summary.Reels)
	assert.Equal(t, 2, summary.Reels.GeneratedReels)
	require.Len(t, notifier.digests, 1)
	assert.Contains(t, notifier.digests[0], "New: 1")
	assert.Contains(t, notifier.digests[0], "generated 2 reels")
}

func TestCycleSurvivesNotifierFailure(t *testing.T) {
	t.Parallel()

	src := &stubSource{sources: []domain.Source{feed}}
	notifier := &recordingNotifier{err: errors.New("telegram down")}

	summary := NewCycle(newPipeline(src, memory.New(), nil, 5), nil, notifier, nil).Run(context.Background())
	assert.Nil(t, summary.Reels)
	assert.Len(t, notifier.digests, 1)
}

func TestBuildDigest(t *testing.T) {
	t.Parallel()

	var summary domain.CycleSummary
	summary.StartedAt = base
	summary.FinishedAt = base.Add(90 * time.Second)
	summary.Add(domain.SourceResult{Source: "blog", Status: domain.SourceSuccess, New: 4, Duplicates: 1})
	summary.Add(domain.SourceResult{Source: "r/golang", Status: domain.SourceError, Message: "status 503"})
	summary.Add(domain.SourceResult{Source: "quiet", Status: domain.SourceNoEntries})
	summary.Stats = &domain.StoreStats{ContentItems: 12, Sources: 3}

	digest := BuildDigest(summary)
	assert.Contains(t, digest, "in 1m30s")
	assert.Contains(t, digest, "New: 4, duplicates: 1")
	assert.Contains(t, digest, "2 ok, 1 errored (67%)")
	assert.Contains(t, digest, "- blog: 4 new")
	assert.Contains(t, digest, "- r/golang: error: status 503")
	assert.Contains(t, digest, "- quiet: no entries")
	assert.Contains(t, digest, "Stored items: 12 across 3 sources")
}

func TestBuildDigestEscapesMarkdown(t *testing.T) {
	t.Parallel()

	var summary domain.CycleSummary
	summary.Add(domain.SourceResult{
		Source:  "r/Machine_Learning",
		Status:  domain.SourceError,
		Message: "fetch https://example.com/ai_feed.xml: status *503* [gateway] `x`",
	})
	summary.Add(domain.SourceResult{Source: "hacker_news", Status: domain.SourceSuccess, New: 2})

	digest := BuildDigest(summary)
	assert.Contains(t, digest, `- r/Machine\_Learning: error: fetch https://example.com/ai\_feed.xml: status \*503\* \[gateway] `+"\\`x\\`")
	assert.Contains(t, digest, `- hacker\_news: 2 new`)
	assert.True(t, strings.HasPrefix(digest, "*Content cycle finished*"))
	assert.Zero(t, strings.Count(strings.ReplaceAll(digest, `\_`, ""), "_"), "every underscore is escaped")
}

package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/infrastructure/storage/memory"
	"ContentCurator/internal/retry"
)

var base = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

func at(minutes int) *time.Time {
	t := base.Add(time.Duration(minutes) * time.Minute)
	return &t
}

func feedEntry(title string, published *time.Time) domain.Entry {
	return domain.Entry{
		Title:        title,
		Link:         "https://example.com/" + title,
		Description:  "about " + title,
		Published:    published,
		SourceType:   domain.SourceTypeFeedItem,
		SourceURL:    "https://example.com/feed",
		SourceDomain: "example.com",
		SourceName:   "RSS Feed - example.com",
	}
}

type stubSource struct {
	mu       sync.Mutex
	sources  []domain.Source
	entries  map[string][]domain.Entry
	failures map[string]error
	limits   []int
}

func (s *stubSource) Sources() []domain.Source { return s.sources }

func (s *stubSource) Fetch(_ context.Context, source domain.Source, limit int) ([]domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits = append(s.limits, limit)
	if err := s.failures[source.Name]; err != nil {
		return nil, err
	}
	entries := s.entries[source.Name]
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

type countingScorer struct {
	calls int
	eval  func(item domain.ContentItem) domain.Evaluation
}

func (s *countingScorer) Score(_ context.Context, item domain.ContentItem) domain.Evaluation {
	s.calls++
	if s.eval != nil {
		return s.eval(item)
	}
	return domain.ScoredEvaluation(80, 50, "stub", domain.EvaluationCriteria{}, base)
}

type scriptedCompleter struct {
	replies []reply
	prompts []string
}

type reply struct {
	text string
	err  error
}

func (c *scriptedCompleter) Complete(_ context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	if len(c.prompts) > len(c.replies) {
		return "", errors.New("unexpected call")
	}
	r := c.replies[len(c.prompts)-1]
	return r.text, r.err
}

func (c *scriptedCompleter) Model() string { return "stub-model" }

func instantCaller() *retry.Caller {
	policy := retry.DefaultPolicy()
	policy.Sleep = func(context.Context, time.Duration) error { return nil }
	return retry.NewCaller(retry.NewGate(0), policy, nil)
}

// brokenCursors fails every cursor read.
type brokenCursors struct {
	*memory.Store
}

func (brokenCursors) Get(context.Context, string, string) (domain.SourceCursor, error) {
	return domain.SourceCursor{}, errors.New("cursor backend down")
}

type recordingNotifier struct {
	digests []string
	err     error
}

func (n *recordingNotifier) PublishDigest(_ context.Context, digest string) error {
	n.digests = append(n.digests, digest)
	return n.err
}

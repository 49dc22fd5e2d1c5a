package domain

import "time"

// SourceStatus is the outcome of one source within a cycle.
type SourceStatus string

const (
	SourceSuccess   SourceStatus = "success"
	SourceNoEntries SourceStatus = "no_entries"
	SourceError     SourceStatus = "error"
)

// SourceResult is the per-source record aggregated into a CycleSummary.
type SourceResult struct {
	Source        string
	Scanner       string
	Status        SourceStatus
	Message       string
	Fetched       int
	Processed     int
	New           int
	Duplicates    int
	Stale         int
	Failed        int
	LastProcessed *time.Time
}

// StoreStats is a snapshot of what the store holds after a cycle.
type StoreStats struct {
	ContentItems   int64
	Sources        int64
	ItemsProcessed int64
}

// ReelSummary reports one pass of the reel derivation stage.
type ReelSummary struct {
	ProcessedIdeas int
	FailedIdeas    int
	GeneratedReels int
	Message        string
}

// Success mirrors the "something was produced" notion of the stage.
func (r ReelSummary) Success() bool {
	return r.ProcessedIdeas > 0
}

// CycleSummary aggregates one complete pass over all configured sources.
type CycleSummary struct {
	StartedAt       time.Time
	FinishedAt      time.Time
	Sources         []SourceResult
	TotalNew        int
	TotalDuplicates int
	TotalStale      int
	TotalFailed     int
	Succeeded       int
	Errored         int
	Stats           *StoreStats
	Reels           *ReelSummary
}

// Add folds a source result into the totals.
func (s *CycleSummary) Add(r SourceResult) {
	s.Sources = append(s.Sources, r)
	s.TotalNew += r.New
	s.TotalDuplicates += r.Duplicates
	s.TotalStale += r.Stale
	s.TotalFailed += r.Failed
	if r.Status == SourceError {
		s.Errored++
		return
	}
	s.Succeeded++
}

// SuccessRate is the share of sources that did not error, in percent.
func (s CycleSummary) SuccessRate() float64 {
	if len(s.Sources) == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(len(s.Sources)) * 100
}

// Duration of the cycle.
func (s CycleSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

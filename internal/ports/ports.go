package ports

import (
	"context"
	"time"

	"ContentCurator/internal/domain"
)

// ContentRepository persists curated items keyed by fingerprint.
type ContentRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
	// CreateBatch writes items that are not stored yet and never overwrites
	// an existing id. It returns the ids this call created.
	CreateBatch(ctx context.Context, items []domain.ContentItem) ([]string, error)
	// ListAwaitingReels returns human-approved items without generated reels.
	ListAwaitingReels(ctx context.Context, limit int) ([]domain.ContentItem, error)
	MarkReelGenerated(ctx context.Context, id string, at time.Time) error
}

// CursorStore keeps per-source processing watermarks.
type CursorStore interface {
	// Get returns the cursor for key, creating a zero-valued one if absent.
	Get(ctx context.Context, key, sourceID string) (domain.SourceCursor, error)
	// Advance sets last_processed to max(current, lastProcessed) and adds
	// delta to the processed counter in one step.
	Advance(ctx context.Context, key string, lastProcessed *time.Time, delta int) error
}

// ReelRepository stores generated reel concepts.
type ReelRepository interface {
	CreateBatch(ctx context.Context, reels []domain.ReelIdea) error
}

// StatsReader is implemented by stores able to report totals.
type StatsReader interface {
	Stats(ctx context.Context) (domain.StoreStats, error)
}

// Store bundles every repository a backend provides.
type Store interface {
	ContentRepository
	CursorStore
	Reels() ReelRepository
	StatsReader
	Close() error
}

// EntrySource resolves configured sources to their fetch adapters.
type EntrySource interface {
	Sources() []domain.Source
	Fetch(ctx context.Context, source domain.Source, limit int) ([]domain.Entry, error)
}

// Completer sends a prompt to a generative model and returns its text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Scorer evaluates an item's relevance. It never fails: errors degrade to
// the sentinel evaluation.
type Scorer interface {
	Score(ctx context.Context, item domain.ContentItem) domain.Evaluation
}

// Notifier streams cycle digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

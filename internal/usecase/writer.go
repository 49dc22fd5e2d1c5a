package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/ports"
)

// BatchWriter persists one source's staged items and then moves its cursor.
type BatchWriter struct {
	items   ports.ContentRepository
	cursors ports.CursorStore
	logger  *slog.Logger
}

// NewBatchWriter wires the two repositories a commit touches.
func NewBatchWriter(items ports.ContentRepository, cursors ports.CursorStore, logger *slog.Logger) *BatchWriter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &BatchWriter{items: items, cursors: cursors, logger: logger.With("component", "batch_writer")}
}

// Committed reports what one Commit stored.
type Committed struct {
	Stored int
	// Latest is the newest published date among the stored items.
	Latest *time.Time
}

// Commit writes items create-if-absent and advances the cursor with the
// latest published date among the items this call created. A failed write
// leaves the cursor alone so the next cycle sees the same entries again.
func (w *BatchWriter) Commit(ctx context.Context, source domain.Source, cursorKey string, items []domain.ContentItem) (Committed, error) {
	if len(items) == 0 {
		return Committed{}, nil
	}

	created, err := w.items.CreateBatch(ctx, items)
	if err != nil {
		return Committed{}, fmt.Errorf("write batch for %s: %w", source.ID(), err)
	}

	stored := len(created)
	if stored == 0 {
		w.logger.Info("batch already stored", "source", source.ID(), "staged", len(items))
		return Committed{}, nil
	}

	latest := LatestPublished(onlyCreated(items, created))
	result := Committed{Stored: stored, Latest: latest}
	if err := w.cursors.Advance(ctx, cursorKey, latest, stored); err != nil {
		// Items are keyed by fingerprint, so a stale cursor only costs
		// duplicate skips next cycle.
		w.logger.Warn("advance cursor failed", "source", source.ID(), "error", err)
		return result, nil
	}

	w.logger.Debug("batch committed", "source", source.ID(), "stored", stored, "latest", formatTime(latest))
	return result, nil
}

// LatestPublished returns the maximum non-nil published date.
func LatestPublished(items []domain.ContentItem) *time.Time {
	var latest *time.Time
	for _, item := range items {
		latest = domain.LaterOf(latest, item.Published)
	}
	return latest
}

func onlyCreated(items []domain.ContentItem, ids []string) []domain.ContentItem {
	if len(ids) == len(items) {
		return items
	}
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	out := make([]domain.ContentItem, 0, len(ids))
	for _, item := range items {
		if _, ok := keep[item.ID]; ok {
			out = append(out, item)
		}
	}
	return out
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "none"
	}
	return t.UTC().Format(time.RFC3339)
}

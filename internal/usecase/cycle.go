package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/ports"
)

// Cycle runs ingestion, then reel derivation, then the optional digest.
type Cycle struct {
	pipeline *Pipeline
	reels    *ReelStage
	notifier ports.Notifier
	logger   *slog.Logger
}

// NewCycle accepts a nil reel stage or notifier to skip those steps.
func NewCycle(pipeline *Pipeline, reels *ReelStage, notifier ports.Notifier, logger *slog.Logger) *Cycle {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Cycle{
		pipeline: pipeline,
		reels:    reels,
		notifier: notifier,
		logger:   logger.With("component", "cycle"),
	}
}

// Run executes one full pass and returns its summary.
func (c *Cycle) Run(ctx context.Context) domain.CycleSummary {
	var summary domain.CycleSummary
	if c.pipeline != nil {
		summary = c.pipeline.RunCycle(ctx)
	}

	if c.reels != nil && ctx.Err() == nil {
		reels := c.reels.Run(ctx)
		summary.Reels = &reels
	}

	if c.notifier != nil && ctx.Err() == nil {
		if err := c.notifier.PublishDigest(ctx, BuildDigest(summary)); err != nil {
			c.logger.Warn("publish digest failed", "error", err)
		}
	}
	return summary
}

// markdownEscaper covers the entity markers of Telegram's legacy Markdown.
var markdownEscaper = strings.NewReplacer(`_`, `\_`, `*`, `\*`, "`", "\\`", `[`, `\[`)

// BuildDigest renders a cycle summary as a short Markdown message. Source
// names and messages are escaped so they render literally.
func BuildDigest(summary domain.CycleSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*Content cycle finished* in %s\n", summary.Duration().Round(time.Second))
	fmt.Fprintf(&b, "New: %d, duplicates: %d, stale: %d, failed: %d\n",
		summary.TotalNew, summary.TotalDuplicates, summary.TotalStale, summary.TotalFailed)
	fmt.Fprintf(&b, "Sources: %d ok, %d errored (%.0f%%)\n",
		summary.Succeeded, summary.Errored, summary.SuccessRate())

	for _, r := range summary.Sources {
		name := markdownEscaper.Replace(r.Source)
		switch r.Status {
		case domain.SourceError:
			fmt.Fprintf(&b, "- %s: error: %s\n", name, markdownEscaper.Replace(r.Message))
		case domain.SourceNoEntries:
			fmt.Fprintf(&b, "- %s: no entries\n", name)
		default:
			fmt.Fprintf(&b, "- %s: %d new\n", name, r.New)
		}
	}

	if summary.Reels != nil {
		fmt.Fprintf(&b, "Reels: %s\n", markdownEscaper.Replace(summary.Reels.Message))
	}
	if summary.Stats != nil {
		fmt.Fprintf(&b, "Stored items: %d across %d sources\n", summary.Stats.ContentItems, summary.Stats.Sources)
	}
	return strings.TrimRight(b.String(), "\n")
}

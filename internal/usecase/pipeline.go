package usecase

import (
	"context"
	"io"
	"log/slog"
	"time"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/fingerprint"
	"ContentCurator/internal/ports"
)

const (
	defaultPerSourceLimit = 10
	// fetchMargin over-requests entries so already-seen ones do not starve
	// the per-source quota.
	fetchMargin = 2
)

// PipelineDeps wires all driven adapters into the ingestion pipeline.
type PipelineDeps struct {
	Source ports.EntrySource
	Store  ports.Store
	Scorer ports.Scorer
	Logger *slog.Logger
	Now    func() time.Time

	PerSourceLimit int
	ScoringEnabled bool
}

// Pipeline implements the incremental ingestion workflow.
type Pipeline struct {
	source  ports.EntrySource
	store   ports.Store
	scorer  ports.Scorer
	writer  *BatchWriter
	logger  *slog.Logger
	now     func() time.Time
	limit   int
	scoring bool
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	limit := deps.PerSourceLimit
	if limit <= 0 {
		limit = defaultPerSourceLimit
	}

	return &Pipeline{
		source:  deps.Source,
		store:   deps.Store,
		scorer:  deps.Scorer,
		writer:  NewBatchWriter(deps.Store, deps.Store, logger),
		logger:  logger.With("component", "pipeline"),
		now:     now,
		limit:   limit,
		scoring: deps.ScoringEnabled && deps.Scorer != nil,
	}
}

// RunCycle processes every configured source in order. It always returns a
// summary; per-source failures are recorded, never propagated.
func (p *Pipeline) RunCycle(ctx context.Context) domain.CycleSummary {
	summary := domain.CycleSummary{StartedAt: p.now()}

	if p.source != nil {
		for _, source := range p.source.Sources() {
			if err := ctx.Err(); err != nil {
				p.logger.Warn("cycle interrupted", "error", err, "remaining_from", source.Name)
				break
			}
			summary.Add(p.ProcessSource(ctx, source))
		}
	}

	summary.FinishedAt = p.now()

	if p.store != nil {
		stats, err := p.store.Stats(ctx)
		if err != nil {
			p.logger.Warn("collect store stats failed", "error", err)
		} else {
			summary.Stats = &stats
		}
	}

	p.logger.Info("ingestion cycle finished",
		"sources", len(summary.Sources),
		"succeeded", summary.Succeeded,
		"errored", summary.Errored,
		"new", summary.TotalNew,
		"duplicates", summary.TotalDuplicates,
		"stale", summary.TotalStale,
		"failed", summary.TotalFailed,
		"success_rate", summary.SuccessRate(),
		"duration", summary.Duration(),
	)
	return summary
}

// ProcessSource runs one source through cursor filtering, dedup, scoring and
// the batch commit.
func (p *Pipeline) ProcessSource(ctx context.Context, source domain.Source) domain.SourceResult {
	result := domain.SourceResult{Source: sourceLabel(source), Scanner: source.Scanner}
	log := p.logger.With("source", result.Source, "scanner", source.Scanner)

	sourceID := source.ID()
	key := fingerprint.SourceKey(sourceID)

	cursor, err := p.store.Get(ctx, key, sourceID)
	if err != nil {
		log.Warn("read cursor failed, treating every entry as new", "error", err)
		cursor = domain.SourceCursor{Key: key, SourceID: sourceID}
	}

	entries, err := p.source.Fetch(ctx, source, p.limit*fetchMargin)
	if err != nil {
		log.Error("fetch failed", "error", err)
		result.Status = domain.SourceError
		result.Message = err.Error()
		return result
	}
	result.Fetched = len(entries)
	if len(entries) == 0 {
		log.Info("no entries returned")
		result.Status = domain.SourceNoEntries
		result.Message = "no entries returned"
		return result
	}

	staged := make([]domain.ContentItem, 0, p.limit)
	seen := make(map[string]struct{}, len(entries))

	for _, entry := range entries {
		if result.Processed >= p.limit {
			break
		}
		result.Processed++

		if !cursor.IsNew(entry.Published) {
			result.Stale++
			continue
		}

		id := fingerprint.ForEntry(entry)
		if _, dup := seen[id]; dup {
			result.Duplicates++
			continue
		}

		exists, err := p.store.Exists(ctx, id)
		if err != nil {
			log.Warn("existence check failed", "id", id, "error", err)
			result.Failed++
			continue
		}
		if exists {
			result.Duplicates++
			continue
		}
		seen[id] = struct{}{}

		item := domain.NewContentItem(id, entry, p.now().UTC())
		if p.scoring {
			evaluation := p.scorer.Score(ctx, item)
			item.Evaluation = &evaluation
		}
		staged = append(staged, item)
	}

	committed, err := p.writer.Commit(ctx, source, key, staged)
	if err != nil {
		log.Error("commit failed", "staged", len(staged), "error", err)
		result.Status = domain.SourceError
		result.Message = err.Error()
		result.Failed += len(staged)
		return result
	}

	result.New = committed.Stored
	// Lost a create race with a concurrent run.
	result.Duplicates += len(staged) - committed.Stored
	result.LastProcessed = committed.Latest
	result.Status = domain.SourceSuccess

	log.Info("source processed",
		"fetched", result.Fetched,
		"processed", result.Processed,
		"new", result.New,
		"duplicates", result.Duplicates,
		"stale", result.Stale,
		"failed", result.Failed,
	)
	return result
}

func sourceLabel(source domain.Source) string {
	if source.Name != "" {
		return source.Name
	}
	return source.ID()
}

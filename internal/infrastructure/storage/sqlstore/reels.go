package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/ports"
)

var reelColumns = []string{
	"id", "raw_idea_doc_id", "reel_title", "hook", "concept", "visuals", "cta",
	"target_audience", "production_status", "production_approved",
	"relevance_score", "source_url", "created_at",
}

type reelRepository struct {
	store *Store
}

var _ ports.ReelRepository = reelRepository{}

// CreateBatch writes all reels in one transaction.
func (r reelRepository) CreateBatch(ctx context.Context, reels []domain.ReelIdea) error {
	if len(reels) == 0 {
		return nil
	}

	return r.store.withTx(ctx, func(tx *sqlx.Tx) error {
		insert := r.store.builder().Insert(tableReels).Columns(reelColumns...)
		for _, reel := range reels {
			insert = insert.Values(
				reel.ID, reel.RawIdeaDocID, reel.ReelTitle, reel.Hook, reel.Concept, reel.Visuals, reel.CTA,
				reel.TargetAudience, string(reel.ProductionStatus), reel.ProductionApproved,
				reel.RelevanceScore, reel.SourceURL, reel.CreatedAt.UTC(),
			)
		}

		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build reel insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert reels: %w", err)
		}
		return nil
	})
}

type reelRow struct {
	ID                 string `db:"id"`
	RawIdeaDocID       string `db:"raw_idea_doc_id"`
	ReelTitle          string `db:"reel_title"`
	ProductionStatus   string `db:"production_status"`
	ProductionApproved bool   `db:"production_approved"`
	RelevanceScore     int    `db:"relevance_score"`
}

// ReelsFor lists reels derived from one item, for inspection and tests.
func (s *Store) ReelsFor(ctx context.Context, parentID string) ([]domain.ReelIdea, error) {
	query, args, err := s.builder().
		Select("id", "raw_idea_doc_id", "reel_title", "production_status", "production_approved", "relevance_score").
		From(tableReels).
		Where("raw_idea_doc_id = ?", parentID).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build reels query: %w", err)
	}

	var rows []reelRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list reels of %s: %w", parentID, err)
	}

	reels := make([]domain.ReelIdea, 0, len(rows))
	for _, row := range rows {
		reels = append(reels, domain.ReelIdea{
			ID:                 row.ID,
			RawIdeaDocID:       row.RawIdeaDocID,
			ReelTitle:          row.ReelTitle,
			ProductionStatus:   domain.ProductionStatus(row.ProductionStatus),
			ProductionApproved: row.ProductionApproved,
			RelevanceScore:     row.RelevanceScore,
		})
	}
	return reels, nil
}

package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"ContentCurator/internal/domain"
)

var itemColumns = []string{
	"id", "title", "description", "content", "link", "author", "published",
	"source_type", "source_url", "source_domain", "source_name", "tags",
	"human_approved", "reel_generated", "reel_generated_at",
	"relevance_score", "is_relevant", "evaluation", "created_at", "processed_at",
}

type itemRow struct {
	ID              string         `db:"id"`
	Title           string         `db:"title"`
	Description     string         `db:"description"`
	Content         string         `db:"content"`
	Link            string         `db:"link"`
	Author          string         `db:"author"`
	Published       sql.NullTime   `db:"published"`
	SourceType      string         `db:"source_type"`
	SourceURL       string         `db:"source_url"`
	SourceDomain    string         `db:"source_domain"`
	SourceName      string         `db:"source_name"`
	Tags            string         `db:"tags"`
	HumanApproved   bool           `db:"human_approved"`
	ReelGenerated   bool           `db:"reel_generated"`
	ReelGeneratedAt sql.NullTime   `db:"reel_generated_at"`
	RelevanceScore  sql.NullInt64  `db:"relevance_score"`
	IsRelevant      bool           `db:"is_relevant"`
	Evaluation      sql.NullString `db:"evaluation"`
	CreatedAt       time.Time      `db:"created_at"`
	ProcessedAt     time.Time      `db:"processed_at"`
}

// Exists reports whether an item with the fingerprint id is stored.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	query, args, err := s.builder().
		Select("1").
		From(tableItems).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	if err := s.db.GetContext(ctx, &one, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check item %s: %w", id, err)
	}
	return true, nil
}

// CreateBatch inserts items in one transaction, skipping ids already stored.
func (s *Store) CreateBatch(ctx context.Context, items []domain.ContentItem) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}

	var created []string
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		for start := 0; start < len(items); start += insertChunk {
			end := min(start+insertChunk, len(items))

			insert := s.builder().Insert(tableItems).Columns(itemColumns...)
			for _, item := range items[start:end] {
				values, err := itemValues(item)
				if err != nil {
					return err
				}
				insert = insert.Values(values...)
			}

			query, args, err := insert.Suffix("ON CONFLICT (id) DO NOTHING RETURNING id").ToSql()
			if err != nil {
				return fmt.Errorf("build insert: %w", err)
			}
			var ids []string
			if err := tx.SelectContext(ctx, &ids, query, args...); err != nil {
				return fmt.Errorf("insert items: %w", err)
			}
			created = append(created, ids...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListAwaitingReels returns approved items whose reels were not generated yet,
// oldest first.
func (s *Store) ListAwaitingReels(ctx context.Context, limit int) ([]domain.ContentItem, error) {
	builder := s.builder().
		Select(itemColumns...).
		From(tableItems).
		Where(sq.Eq{"human_approved": true, "reel_generated": false}).
		OrderBy("created_at", "id")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build awaiting query: %w", err)
	}

	var rows []itemRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list awaiting reels: %w", err)
	}

	items := make([]domain.ContentItem, 0, len(rows))
	for _, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// MarkReelGenerated flips reel_generated for id.
func (s *Store) MarkReelGenerated(ctx context.Context, id string, at time.Time) error {
	query, args, err := s.builder().
		Update(tableItems).
		Set("reel_generated", true).
		Set("reel_generated_at", at.UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark reel generated %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("mark reel generated %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Approve sets human_approved for id; used by review tooling and tests.
func (s *Store) Approve(ctx context.Context, id string) error {
	query, args, err := s.builder().
		Update(tableItems).
		Set("human_approved", true).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build approve query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("approve %s: %w", id, err)
	}
	return nil
}

func itemValues(item domain.ContentItem) ([]any, error) {
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	var (
		score      any
		relevant   bool
		evaluation any
	)
	if item.Evaluation != nil {
		raw, err := json.Marshal(item.Evaluation)
		if err != nil {
			return nil, fmt.Errorf("encode evaluation: %w", err)
		}
		score = int64(item.Evaluation.Score)
		relevant = item.Evaluation.IsRelevant
		evaluation = string(raw)
	}

	return []any{
		item.ID, item.Title, item.Description, item.Content, item.Link, item.Author, utcPtr(item.Published),
		string(item.SourceType), item.SourceURL, item.SourceDomain, item.SourceName, string(tagsJSON),
		item.HumanApproved, item.ReelGenerated, utcPtr(item.ReelGeneratedAt),
		score, relevant, evaluation, item.CreatedAt.UTC(), item.ProcessedAt.UTC(),
	}, nil
}

func (r itemRow) toDomain() (domain.ContentItem, error) {
	item := domain.ContentItem{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		Content:       r.Content,
		Link:          r.Link,
		Author:        r.Author,
		Published:     nullTime(r.Published),
		SourceType:    domain.SourceType(r.SourceType),
		SourceURL:     r.SourceURL,
		SourceDomain:  r.SourceDomain,
		SourceName:    r.SourceName,
		HumanApproved: r.HumanApproved,
		ReelGenerated: r.ReelGenerated,
		CreatedAt:     r.CreatedAt.UTC(),
		ProcessedAt:   r.ProcessedAt.UTC(),
	}
	item.ReelGeneratedAt = nullTime(r.ReelGeneratedAt)

	if r.Tags != "" {
		if err := json.Unmarshal([]byte(r.Tags), &item.Tags); err != nil {
			return item, fmt.Errorf("decode tags of %s: %w", r.ID, err)
		}
	}
	if r.Evaluation.Valid && r.Evaluation.String != "" {
		var eval domain.Evaluation
		if err := json.Unmarshal([]byte(r.Evaluation.String), &eval); err != nil {
			return item, fmt.Errorf("decode evaluation of %s: %w", r.ID, err)
		}
		item.Evaluation = &eval
	}
	return item, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"ContentCurator/internal/domain"
)

const advanceConflict = `ON CONFLICT (cursor_key) DO UPDATE SET
	last_processed = CASE
		WHEN excluded.last_processed IS NULL THEN source_cursors.last_processed
		WHEN source_cursors.last_processed IS NULL OR excluded.last_processed > source_cursors.last_processed THEN excluded.last_processed
		ELSE source_cursors.last_processed
	END,
	total_items_processed = source_cursors.total_items_processed + excluded.total_items_processed,
	updated_at = excluded.updated_at`

type cursorRow struct {
	Key                 string       `db:"cursor_key"`
	SourceID            string       `db:"source_id"`
	LastProcessed       sql.NullTime `db:"last_processed"`
	TotalItemsProcessed int64        `db:"total_items_processed"`
	CreatedAt           time.Time    `db:"created_at"`
	UpdatedAt           time.Time    `db:"updated_at"`
}

// Get returns the cursor for key, inserting an empty one first if needed.
func (s *Store) Get(ctx context.Context, key, sourceID string) (domain.SourceCursor, error) {
	now := s.now().UTC()

	insert, args, err := s.builder().
		Insert(tableCursors).
		Columns("cursor_key", "source_id", "last_processed", "total_items_processed", "created_at", "updated_at").
		Values(key, sourceID, nil, 0, now, now).
		Suffix("ON CONFLICT (cursor_key) DO NOTHING").
		ToSql()
	if err != nil {
		return domain.SourceCursor{}, fmt.Errorf("build cursor insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, insert, args...); err != nil {
		return domain.SourceCursor{}, fmt.Errorf("create cursor %s: %w", key, err)
	}

	query, args, err := s.builder().
		Select("cursor_key", "source_id", "last_processed", "total_items_processed", "created_at", "updated_at").
		From(tableCursors).
		Where(sq.Eq{"cursor_key": key}).
		ToSql()
	if err != nil {
		return domain.SourceCursor{}, fmt.Errorf("build cursor query: %w", err)
	}

	var row cursorRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return domain.SourceCursor{}, fmt.Errorf("read cursor %s: %w", key, err)
	}

	return domain.SourceCursor{
		Key:                 row.Key,
		SourceID:            row.SourceID,
		LastProcessed:       nullTime(row.LastProcessed),
		TotalItemsProcessed: row.TotalItemsProcessed,
		CreatedAt:           row.CreatedAt.UTC(),
		UpdatedAt:           row.UpdatedAt.UTC(),
	}, nil
}

// Advance moves last_processed forward (never backward) and adds delta to
// the processed counter in a single statement.
func (s *Store) Advance(ctx context.Context, key string, lastProcessed *time.Time, delta int) error {
	now := s.now().UTC()

	query, args, err := s.builder().
		Insert(tableCursors).
		Columns("cursor_key", "source_id", "last_processed", "total_items_processed", "created_at", "updated_at").
		Values(key, key, utcPtr(lastProcessed), int64(delta), now, now).
		Suffix(advanceConflict).
		ToSql()
	if err != nil {
		return fmt.Errorf("build cursor advance: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("advance cursor %s: %w", key, err)
	}
	return nil
}

// Package sqlstore persists curated items, cursors and reels in Postgres or
// SQLite.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/ports"
)

// ErrUnknownDriver is returned for drivers other than postgres and sqlite.
var ErrUnknownDriver = errors.New("unknown sql driver")

const (
	tableItems   = "raw_ideas"
	tableCursors = "source_cursors"
	tableReels   = "reel_ideas"

	// insertChunk bounds rows per INSERT to stay below driver parameter limits.
	insertChunk = 100
)

type dialect struct {
	name        string
	placeholder sq.PlaceholderFormat
	schema      []string
}

var (
	postgresDialect = dialect{name: "postgres", placeholder: sq.Dollar, schema: postgresSchema}
	sqliteDialect   = dialect{name: "sqlite", placeholder: sq.Question, schema: sqliteSchema}
)

func dialectFor(driver string) (dialect, error) {
	switch strings.ToLower(driver) {
	case "postgres", "pgx", "postgresql":
		return postgresDialect, nil
	case "sqlite", "sqlite3":
		return sqliteDialect, nil
	default:
		return dialect{}, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}

// Store implements ports.Store on a SQL database.
type Store struct {
	db      *sqlx.DB
	dialect dialect
	now     func() time.Time
}

var _ ports.Store = (*Store)(nil)

// Open connects to dsn with the named driver.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, d.name, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", d.name, err)
	}
	if d.name == sqliteDialect.name {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}
	return &Store{db: db, dialect: d, now: time.Now}, nil
}

// New wraps an existing connection.
func New(db *sqlx.DB, driver string) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, dialect: d, now: time.Now}, nil
}

// Migrate creates the tables and indexes when they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Reels returns the reel repository backed by the same database.
func (s *Store) Reels() ports.ReelRepository {
	return reelRepository{store: s}
}

// Stats counts stored items and cursors.
func (s *Store) Stats(ctx context.Context) (domain.StoreStats, error) {
	var stats domain.StoreStats

	query, args, err := s.builder().Select("COUNT(*)").From(tableItems).ToSql()
	if err != nil {
		return stats, fmt.Errorf("build stats query: %w", err)
	}
	if err := s.db.GetContext(ctx, &stats.ContentItems, query, args...); err != nil {
		return stats, fmt.Errorf("count items: %w", err)
	}

	query, args, err = s.builder().
		Select("COUNT(*)", "COALESCE(SUM(total_items_processed), 0)").
		From(tableCursors).
		ToSql()
	if err != nil {
		return stats, fmt.Errorf("build stats query: %w", err)
	}
	if err := s.db.QueryRowxContext(ctx, query, args...).Scan(&stats.Sources, &stats.ItemsProcessed); err != nil {
		return stats, fmt.Errorf("count cursors: %w", err)
	}
	return stats, nil
}

func (s *Store) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(s.dialect.placeholder)
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

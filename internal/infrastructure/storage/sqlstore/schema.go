package sqlstore

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS raw_ideas (
		id                TEXT PRIMARY KEY,
		title             TEXT NOT NULL,
		description       TEXT NOT NULL DEFAULT '',
		content           TEXT NOT NULL DEFAULT '',
		link              TEXT NOT NULL DEFAULT '',
		author            TEXT NOT NULL DEFAULT '',
		published         TIMESTAMPTZ NULL,
		source_type       TEXT NOT NULL,
		source_url        TEXT NOT NULL DEFAULT '',
		source_domain     TEXT NOT NULL DEFAULT '',
		source_name       TEXT NOT NULL DEFAULT '',
		tags              TEXT NOT NULL DEFAULT '[]',
		human_approved    BOOLEAN NOT NULL DEFAULT FALSE,
		reel_generated    BOOLEAN NOT NULL DEFAULT FALSE,
		reel_generated_at TIMESTAMPTZ NULL,
		relevance_score   INTEGER NULL,
		is_relevant       BOOLEAN NOT NULL DEFAULT FALSE,
		evaluation        TEXT NULL,
		created_at        TIMESTAMPTZ NOT NULL,
		processed_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS raw_ideas_awaiting_reels_idx ON raw_ideas (human_approved, reel_generated)`,
	`CREATE TABLE IF NOT EXISTS source_cursors (
		cursor_key            TEXT PRIMARY KEY,
		source_id             TEXT NOT NULL,
		last_processed        TIMESTAMPTZ NULL,
		total_items_processed BIGINT NOT NULL DEFAULT 0,
		created_at            TIMESTAMPTZ NOT NULL,
		updated_at            TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reel_ideas (
		id                  TEXT PRIMARY KEY,
		raw_idea_doc_id     TEXT NOT NULL REFERENCES raw_ideas (id),
		reel_title          TEXT NOT NULL,
		hook                TEXT NOT NULL DEFAULT '',
		concept             TEXT NOT NULL DEFAULT '',
		visuals             TEXT NOT NULL DEFAULT '',
		cta                 TEXT NOT NULL DEFAULT '',
		target_audience     TEXT NOT NULL DEFAULT '',
		production_status   TEXT NOT NULL,
		production_approved BOOLEAN NOT NULL DEFAULT FALSE,
		relevance_score     INTEGER NOT NULL,
		source_url          TEXT NOT NULL DEFAULT '',
		created_at          TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS reel_ideas_parent_idx ON reel_ideas (raw_idea_doc_id)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS raw_ideas (
		id                TEXT PRIMARY KEY,
		title             TEXT NOT NULL,
		description       TEXT NOT NULL DEFAULT '',
		content           TEXT NOT NULL DEFAULT '',
		link              TEXT NOT NULL DEFAULT '',
		author            TEXT NOT NULL DEFAULT '',
		published         TIMESTAMP NULL,
		source_type       TEXT NOT NULL,
		source_url        TEXT NOT NULL DEFAULT '',
		source_domain     TEXT NOT NULL DEFAULT '',
		source_name       TEXT NOT NULL DEFAULT '',
		tags              TEXT NOT NULL DEFAULT '[]',
		human_approved    BOOLEAN NOT NULL DEFAULT 0,
		reel_generated    BOOLEAN NOT NULL DEFAULT 0,
		reel_generated_at TIMESTAMP NULL,
		relevance_score   INTEGER NULL,
		is_relevant       BOOLEAN NOT NULL DEFAULT 0,
		evaluation        TEXT NULL,
		created_at        TIMESTAMP NOT NULL,
		processed_at      TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS raw_ideas_awaiting_reels_idx ON raw_ideas (human_approved, reel_generated)`,
	`CREATE TABLE IF NOT EXISTS source_cursors (
		cursor_key            TEXT PRIMARY KEY,
		source_id             TEXT NOT NULL,
		last_processed        TIMESTAMP NULL,
		total_items_processed INTEGER NOT NULL DEFAULT 0,
		created_at            TIMESTAMP NOT NULL,
		updated_at            TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reel_ideas (
		id                  TEXT PRIMARY KEY,
		raw_idea_doc_id     TEXT NOT NULL REFERENCES raw_ideas (id),
		reel_title          TEXT NOT NULL,
		hook                TEXT NOT NULL DEFAULT '',
		concept             TEXT NOT NULL DEFAULT '',
		visuals             TEXT NOT NULL DEFAULT '',
		cta                 TEXT NOT NULL DEFAULT '',
		target_audience     TEXT NOT NULL DEFAULT '',
		production_status   TEXT NOT NULL,
		production_approved BOOLEAN NOT NULL DEFAULT 0,
		relevance_score     INTEGER NOT NULL,
		source_url          TEXT NOT NULL DEFAULT '',
		created_at          TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS reel_ideas_parent_idx ON reel_ideas (raw_idea_doc_id)`,
}

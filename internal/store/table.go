package store

import (
	"database/sql"
	"fmt"
)

func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1: tables ----

	stmts := []string{`
CREATE TABLE IF NOT EXISTS topics (
  name TEXT PRIMARY KEY,
  partitions INTEGER NOT NULL,
  replication INTEGER NOT NULL,
  retention_ms INTEGER NOT NULL,
  created_at TEXT NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS messages (
  id TEXT PRIMARY KEY,
  topic TEXT NOT NULL REFERENCES topics(name),
  partition INTEGER NOT NULL,
  key TEXT NOT NULL,
  value TEXT NOT NULL,
  published_at TEXT NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS cases (
  case_number TEXT PRIMARY KEY,
  federal_district TEXT NOT NULL DEFAULT '',
  region TEXT NOT NULL DEFAULT '',
  has_decision INTEGER NOT NULL DEFAULT 0,
  decision_type TEXT NOT NULL DEFAULT '',
  doc TEXT NOT NULL,
  updated_at TEXT NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS decision_files (
  id TEXT PRIMARY KEY,
  case_number TEXT NOT NULL,
  source_url TEXT NOT NULL,
  storage TEXT NOT NULL,
  object_key TEXT NOT NULL,
  content_type TEXT NOT NULL DEFAULT '',
  size INTEGER NOT NULL DEFAULT 0,
  fetched_at TEXT NOT NULL
);`,

		// ---- Schema v1: indexes ----

		`CREATE INDEX IF NOT EXISTS idx_messages_topic_time ON messages(topic, published_at);`,
		`CREATE INDEX IF NOT EXISTS idx_cases_region ON cases(region, updated_at);`,
		`CREATE INDEX IF NOT EXISTS idx_cases_district ON cases(federal_district, updated_at);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_decision_files_source ON decision_files(case_number, source_url);`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return fmt.Errorf("migrate v1: %w", err)
		}
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}

// tsLayout sorts lexically: fixed width, always UTC.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

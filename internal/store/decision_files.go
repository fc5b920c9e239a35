package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DecisionFile records where an archived decision document was stored.
type DecisionFile struct {
	ID          string    `json:"id"`
	CaseNumber  string    `json:"caseNumber"`
	SourceURL   string    `json:"sourceUrl"`
	Storage     string    `json:"storage"`
	ObjectKey   string    `json:"objectKey"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

func InsertDecisionFile(ctx context.Context, db *sql.DB, f DecisionFile) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO decision_files (id, case_number, source_url, storage, object_key, content_type, size, fetched_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(case_number, source_url) DO UPDATE SET
  id = excluded.id,
  storage = excluded.storage,
  object_key = excluded.object_key,
  content_type = excluded.content_type,
  size = excluded.size,
  fetched_at = excluded.fetched_at;`,
		f.ID, f.CaseNumber, f.SourceURL, f.Storage, f.ObjectKey, f.ContentType, f.Size, f.FetchedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert decision file: %w", err)
	}
	return nil
}

// HasDecisionFile reports whether the document at sourceURL was archived for the case.
func HasDecisionFile(ctx context.Context, db *sql.DB, caseNumber, sourceURL string) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM decision_files WHERE case_number = ? AND source_url = ? LIMIT 1;`,
		caseNumber, sourceURL).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func GetDecisionFile(ctx context.Context, db *sql.DB, id string) (DecisionFile, error) {
	var f DecisionFile
	var at string
	err := db.QueryRowContext(ctx, `
SELECT id, case_number, source_url, storage, object_key, content_type, size, fetched_at
FROM decision_files WHERE id = ?;`, id).
		Scan(&f.ID, &f.CaseNumber, &f.SourceURL, &f.Storage, &f.ObjectKey, &f.ContentType, &f.Size, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return f, ErrNotFound
	}
	if err != nil {
		return f, err
	}
	f.FetchedAt, _ = time.Parse(time.RFC3339, at)
	return f, nil
}

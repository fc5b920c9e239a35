package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"courtparser-engine/internal/domain"
)

var ErrNotFound = errors.New("not found")

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// upsertCase stores the latest version of a record keyed by case number.
// Records without a case number fall back to their link.
func upsertCase(ctx context.Context, q execer, rec domain.CaseRecord, doc []byte, now time.Time) error {
	key := caseKey(rec)
	if key == "" {
		return nil
	}
	_, err := q.ExecContext(ctx, `
INSERT INTO cases (case_number, federal_district, region, has_decision, decision_type, doc, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(case_number) DO UPDATE SET
  federal_district = excluded.federal_district,
  region = excluded.region,
  has_decision = excluded.has_decision,
  decision_type = excluded.decision_type,
  doc = excluded.doc,
  updated_at = excluded.updated_at;`,
		key, rec.FederalDistrict, rec.Region, boolInt(rec.HasDecision), rec.DecisionType, string(doc),
		now.UTC().Format(tsLayout))
	if err != nil {
		return fmt.Errorf("upsert case %q: %w", key, err)
	}
	return nil
}

func caseKey(rec domain.CaseRecord) string {
	if k := strings.TrimSpace(rec.CaseNumber); k != "" {
		return k
	}
	return strings.TrimSpace(rec.Link)
}

type ListCasesOpts struct {
	Region   string
	District string
	// only cases with a found decision
	WithDecision bool
	Limit        int
}

// StoredCase is a case as last published.
type StoredCase struct {
	Case      domain.CaseRecord `json:"case"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func ListCases(ctx context.Context, db *sql.DB, opts ListCasesOpts) ([]StoredCase, error) {
	if opts.Limit <= 0 || opts.Limit > 5000 {
		opts.Limit = 500
	}

	var where []string
	var args []any
	if opts.Region != "" {
		where = append(where, "region = ?")
		args = append(args, opts.Region)
	}
	if opts.District != "" {
		where = append(where, "federal_district = ?")
		args = append(args, opts.District)
	}
	if opts.WithDecision {
		where = append(where, "has_decision = 1")
	}
	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, opts.Limit)

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`
SELECT doc, updated_at
FROM cases
%s
ORDER BY updated_at DESC
LIMIT ?;`, clause), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredCase
	for rows.Next() {
		sc, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func GetCase(ctx context.Context, db *sql.DB, caseNumber string) (StoredCase, error) {
	row := db.QueryRowContext(ctx, `SELECT doc, updated_at FROM cases WHERE case_number = ?;`, strings.TrimSpace(caseNumber))
	sc, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredCase{}, ErrNotFound
	}
	return sc, err
}

func scanCase(s interface{ Scan(...any) error }) (StoredCase, error) {
	var doc, updated string
	if err := s.Scan(&doc, &updated); err != nil {
		return StoredCase{}, err
	}
	var m message
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		return StoredCase{}, fmt.Errorf("decode stored case: %w", err)
	}
	t, _ := time.Parse(tsLayout, updated)
	return StoredCase{Case: m.CaseRecord, UpdatedAt: t}, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

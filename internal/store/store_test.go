package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"courtparser-engine/internal/domain"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db.Pool))
	return db
}

func rec(num, region string) domain.CaseRecord {
	r := domain.CaseRecord{
		Title:           "Дело " + num,
		Link:            "https://court.test/case/" + num,
		CaseNumber:      num,
		FederalDistrict: "Приволжский федеральный округ",
		Region:          region,
	}
	r.ResetDecision()
	return r
}

func count(t *testing.T, db *DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Pool.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTest(t)
	require.NoError(t, Migrate(db.Pool))
	var v int
	require.NoError(t, db.Pool.QueryRow(`PRAGMA user_version;`).Scan(&v))
	require.Equal(t, 1, v)
}

func TestEnsureTopic(t *testing.T) {
	db := openTest(t)
	s := NewSink(db.Pool, DefaultSinkOptions())
	ctx := context.Background()

	require.NoError(t, s.EnsureTopic(ctx, "court_cases", DefaultTopicSpec()))
	// existing topic keeps its settings
	other := NewSink(db.Pool, DefaultSinkOptions())
	require.NoError(t, other.EnsureTopic(ctx, "court_cases", TopicSpec{Partitions: 9}))

	spec, err := other.topic(ctx, "court_cases")
	require.NoError(t, err)
	require.Equal(t, 3, spec.Partitions)
	require.Equal(t, 1, spec.Replication)
	require.Equal(t, 7*24*time.Hour, spec.Retention)
	require.Equal(t, 1, count(t, db, "topics"))
}

func TestPublishBatch(t *testing.T) {
	db := openTest(t)
	s := NewSink(db.Pool, DefaultSinkOptions())
	ctx := context.Background()
	require.NoError(t, s.EnsureTopic(ctx, "court_cases", DefaultTopicSpec()))

	n, err := s.PublishBatch(ctx, "court_cases", []domain.CaseRecord{rec("2-1/2024", "Республика Татарстан"), rec("2-2/2024", "Москва")})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	msgs, err := s.Messages(ctx, "court_cases", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.NotEqual(t, msgs[0].ID, msgs[1].ID)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Value), &doc))
	require.Equal(t, msgs[0].ID, doc["id"])
	require.Contains(t, doc, "timestamp")
	require.Equal(t, "2-1/2024", doc["caseNumber"])
	require.Equal(t, domain.DecisionNotFound, doc["decisionType"])
	require.Equal(t, []any{}, doc["caseMovements"])
	require.Equal(t, Partition("2-1/2024", 3), msgs[0].Partition)

	// republish updates the case row, appends messages
	updated := rec("2-1/2024", "Республика Татарстан")
	updated.HasDecision = true
	updated.DecisionType = "Решение"
	updated.DecisionLink = "https://court.test/decisions/1.pdf"
	_, err = s.PublishBatch(ctx, "court_cases", []domain.CaseRecord{updated})
	require.NoError(t, err)
	require.Equal(t, 3, count(t, db, "messages"))
	require.Equal(t, 2, count(t, db, "cases"))

	got, err := GetCase(ctx, db.Pool, "2-1/2024")
	require.NoError(t, err)
	require.True(t, got.Case.HasDecision)
	require.Equal(t, "Решение", got.Case.DecisionType)
}

func TestPublishBatchIsAllOrNothing(t *testing.T) {
	db := openTest(t)
	s := NewSink(db.Pool, DefaultSinkOptions())
	ctx := context.Background()
	require.NoError(t, s.EnsureTopic(ctx, "court_cases", DefaultTopicSpec()))

	_, err := db.Pool.Exec(`DROP TABLE cases;`)
	require.NoError(t, err)

	_, err = s.PublishBatch(ctx, "court_cases", []domain.CaseRecord{rec("1", "Москва"), rec("2", "Москва")})
	require.Error(t, err)
	require.Equal(t, 0, count(t, db, "messages"))
}

func TestPublishWithRetryGivesUp(t *testing.T) {
	db := openTest(t)
	s := NewSink(db.Pool, SinkOptions{MaxRetries: 3})

	_, err := s.PublishBatchWithRetry(context.Background(), "missing", []domain.CaseRecord{rec("1", "Москва")})
	require.True(t, errors.Is(err, ErrPublishFailed))

	n, err := s.PublishBatchWithRetry(context.Background(), "missing", nil)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestCleanupHonoursRetention(t *testing.T) {
	db := openTest(t)
	s := NewSink(db.Pool, DefaultSinkOptions())
	ctx := context.Background()
	require.NoError(t, s.EnsureTopic(ctx, "court_cases", TopicSpec{Partitions: 1, Retention: time.Hour}))

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base.Add(-2 * time.Hour) }
	_, err := s.PublishBatch(ctx, "court_cases", []domain.CaseRecord{rec("old", "Москва")})
	require.NoError(t, err)
	s.now = func() time.Time { return base.Add(-10 * time.Minute) }
	_, err = s.PublishBatch(ctx, "court_cases", []domain.CaseRecord{rec("new", "Москва")})
	require.NoError(t, err)

	s.now = func() time.Time { return base }
	n, err := s.Cleanup(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	msgs, err := s.Messages(ctx, "court_cases", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "new", msgs[0].Key)
}

func TestCleanupReportsUnreadableTopics(t *testing.T) {
	db := openTest(t)
	s := NewSink(db.Pool, DefaultSinkOptions())
	ctx := context.Background()
	require.NoError(t, s.EnsureTopic(ctx, "court_cases", TopicSpec{Partitions: 1, Retention: time.Hour}))

	s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	_, err := s.PublishBatch(ctx, "court_cases", []domain.CaseRecord{rec("old", "Москва")})
	require.NoError(t, err)
	s.now = time.Now

	_, err = db.Pool.Exec(`INSERT INTO topics (name, partitions, replication, retention_ms, created_at) VALUES ('broken', 1, 1, 'forever', '');`)
	require.NoError(t, err)

	_, err = s.Cleanup(ctx)
	require.Error(t, err)
	require.Equal(t, 1, count(t, db, "messages"))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Cleanup(cancelled)
	require.Error(t, err)
}

func TestListCases(t *testing.T) {
	db := openTest(t)
	s := NewSink(db.Pool, DefaultSinkOptions())
	ctx := context.Background()
	require.NoError(t, s.EnsureTopic(ctx, "t", DefaultTopicSpec()))

	withDecision := rec("3", "Москва")
	withDecision.HasDecision = true
	withDecision.DecisionType = "Решение"
	withDecision.DecisionLink = "https://court.test/d.pdf"
	_, err := s.PublishBatch(ctx, "t", []domain.CaseRecord{rec("1", "Москва"), rec("2", "Республика Татарстан"), withDecision})
	require.NoError(t, err)

	all, err := ListCases(ctx, db.Pool, ListCasesOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	moscow, err := ListCases(ctx, db.Pool, ListCasesOpts{Region: "Москва"})
	require.NoError(t, err)
	require.Len(t, moscow, 2)

	decided, err := ListCases(ctx, db.Pool, ListCasesOpts{WithDecision: true})
	require.NoError(t, err)
	require.Len(t, decided, 1)
	require.Equal(t, "3", decided[0].Case.CaseNumber)

	_, err = GetCase(ctx, db.Pool, "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPartition(t *testing.T) {
	for _, k := range []string{"", "2-1/2024", "А40-1/2023"} {
		p := Partition(k, 3)
		require.GreaterOrEqual(t, p, 0)
		require.Less(t, p, 3)
		require.Equal(t, p, Partition(k, 3))
	}
	require.Equal(t, 0, Partition("x", 1))
}

func TestDecisionFiles(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	f := DecisionFile{ID: "a", CaseNumber: "1", SourceURL: "https://court.test/d.pdf", Storage: "local",
		ObjectKey: "decisions/a.pdf", ContentType: "application/pdf", Size: 10, FetchedAt: time.Now()}
	require.NoError(t, InsertDecisionFile(ctx, db.Pool, f))

	ok, err := HasDecisionFile(ctx, db.Pool, "1", "https://court.test/d.pdf")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = HasDecisionFile(ctx, db.Pool, "1", "https://court.test/other.pdf")
	require.NoError(t, err)
	require.False(t, ok)

	got, err := GetDecisionFile(ctx, db.Pool, "a")
	require.NoError(t, err)
	require.Equal(t, "decisions/a.pdf", got.ObjectKey)

	_, err = GetDecisionFile(ctx, db.Pool, "zzz")
	require.ErrorIs(t, err, ErrNotFound)
}

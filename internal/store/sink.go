package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"courtparser-engine/internal/domain"
)

var ErrPublishFailed = errors.New("publish failed after retries")

// TopicSpec is the shape a topic is created with.
type TopicSpec struct {
	Partitions  int
	Replication int
	Retention   time.Duration
}

func DefaultTopicSpec() TopicSpec {
	return TopicSpec{Partitions: 3, Replication: 1, Retention: 7 * 24 * time.Hour}
}

type SinkOptions struct {
	MaxRetries   int
	RetryBackoff time.Duration
}

func DefaultSinkOptions() SinkOptions {
	return SinkOptions{MaxRetries: 3, RetryBackoff: 2 * time.Second}
}

// message is the published document: the record plus identity.
type message struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	domain.CaseRecord
}

// Sink is a durable topic log over the engine database.
type Sink struct {
	db   *sql.DB
	opts SinkOptions
	now  func() time.Time

	mu     sync.Mutex
	topics map[string]TopicSpec // verified this process
}

func NewSink(db *sql.DB, opts SinkOptions) *Sink {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	return &Sink{db: db, opts: opts, now: time.Now, topics: make(map[string]TopicSpec)}
}

// EnsureTopic creates the topic if it is missing. An existing topic keeps its
// original settings.
func (s *Sink) EnsureTopic(ctx context.Context, name string, spec TopicSpec) error {
	s.mu.Lock()
	_, ok := s.topics[name]
	s.mu.Unlock()
	if ok {
		return nil
	}

	if spec.Partitions < 1 {
		spec.Partitions = 1
	}
	if spec.Replication < 1 {
		spec.Replication = 1
	}
	_, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO topics (name, partitions, replication, retention_ms, created_at)
VALUES (?, ?, ?, ?, ?);`,
		name, spec.Partitions, spec.Replication, spec.Retention.Milliseconds(), s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("ensure topic %q: %w", name, err)
	}

	stored, err := s.topic(ctx, name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.topics[name] = stored
	s.mu.Unlock()
	return nil
}

func (s *Sink) topic(ctx context.Context, name string) (TopicSpec, error) {
	var spec TopicSpec
	var retention int64
	err := s.db.QueryRowContext(ctx, `SELECT partitions, replication, retention_ms FROM topics WHERE name = ?;`, name).
		Scan(&spec.Partitions, &spec.Replication, &retention)
	if err != nil {
		return spec, fmt.Errorf("load topic %q: %w", name, err)
	}
	spec.Retention = time.Duration(retention) * time.Millisecond
	return spec, nil
}

// PublishBatch writes all records in one transaction: either every record is
// published or none is.
func (s *Sink) PublishBatch(ctx context.Context, topic string, records []domain.CaseRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	spec, ok := s.topics[topic]
	s.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("publish: topic %q not ensured", topic)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now().UTC()
	for _, rec := range records {
		m := message{ID: uuid.NewString(), Timestamp: now, CaseRecord: rec}
		if m.CaseMovements == nil {
			m.CaseMovements = []domain.CaseMovement{}
		}
		doc, err := json.Marshal(m)
		if err != nil {
			return 0, fmt.Errorf("encode case %q: %w", rec.CaseNumber, err)
		}
		key := caseKey(rec)
		if _, err := tx.ExecContext(ctx, `
INSERT INTO messages (id, topic, partition, key, value, published_at)
VALUES (?, ?, ?, ?, ?, ?);`,
			m.ID, topic, Partition(key, spec.Partitions), key, string(doc), now.Format(tsLayout)); err != nil {
			return 0, fmt.Errorf("insert message: %w", err)
		}
		if err := upsertCase(ctx, tx, rec, doc, now); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	log.Printf("[sink] published topic=%q records=%d", topic, len(records))
	return len(records), nil
}

// PublishBatchWithRetry retries the whole batch with a fixed backoff.
func (s *Sink) PublishBatchWithRetry(ctx context.Context, topic string, records []domain.CaseRecord) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= s.opts.MaxRetries; attempt++ {
		n, err := s.PublishBatch(ctx, topic, records)
		if err == nil {
			return n, nil
		}
		lastErr = err
		log.Printf("[sink] publish attempt=%d/%d topic=%q err=%v", attempt, s.opts.MaxRetries, topic, err)
		if attempt == s.opts.MaxRetries {
			break
		}
		t := time.NewTimer(s.opts.RetryBackoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return 0, fmt.Errorf("%w: %w", ErrPublishFailed, ctx.Err())
		case <-t.C:
		}
	}
	return 0, fmt.Errorf("%w: %w", ErrPublishFailed, lastErr)
}

// Cleanup drops messages older than their topic's retention.
func (s *Sink) Cleanup(ctx context.Context) (int64, error) {
	topics, err := s.retentions(ctx)
	if err != nil {
		return 0, fmt.Errorf("cleanup: %w", err)
	}

	var total int64
	now := s.now().UTC()
	for _, t := range topics {
		if t.ms <= 0 {
			continue
		}
		cutoff := now.Add(-time.Duration(t.ms) * time.Millisecond).Format(tsLayout)
		res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE topic = ? AND published_at < ?;`, t.name, cutoff)
		if err != nil {
			return total, fmt.Errorf("cleanup topic %q: %w", t.name, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

type retention struct {
	name string
	ms   int64
}

func (s *Sink) retentions(ctx context.Context) ([]retention, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, retention_ms FROM topics;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []retention
	for rows.Next() {
		var r retention
		if err := rows.Scan(&r.name, &r.ms); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Partition maps a key onto one of n partitions.
func Partition(key string, n int) int {
	if n <= 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}

// Message is a published message as read back from a topic.
type Message struct {
	ID          string    `json:"id"`
	Partition   int       `json:"partition"`
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Messages reads a topic in publish order.
func (s *Sink) Messages(ctx context.Context, topic string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, partition, key, value, published_at
FROM messages
WHERE topic = ?
ORDER BY published_at, rowid
LIMIT ?;`, topic, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var at string
		if err := rows.Scan(&m.ID, &m.Partition, &m.Key, &m.Value, &at); err != nil {
			return nil, err
		}
		m.PublishedAt, _ = time.Parse(tsLayout, at)
		out = append(out, m)
	}
	return out, rows.Err()
}

package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// schema creates the journal table. Kept inline: this is the only table the
// bridge owns, so a full migration runner would be more machinery than data.
const schema = `
CREATE TABLE IF NOT EXISTS publish_failures (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL,
	topic      TEXT NOT NULL,
	entity_id  TEXT NOT NULL,
	payload    BLOB NOT NULL,
	cause      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_publish_failures_created_at
	ON publish_failures(created_at);
CREATE INDEX IF NOT EXISTS idx_publish_failures_topic
	ON publish_failures(topic);
`

// Entry is one journaled publish failure.
type Entry struct {
	ID        string
	CreatedAt time.Time
	Topic     string
	EntityID  string
	Payload   []byte
	Cause     string
}

// Repository stores publish failures in SQLite.
//
// Thread Safety:
//   - Safe for concurrent use; the database layer serialises writers.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a Repository on an open database connection.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init creates the journal schema if it does not exist.
// Call once at startup before recording failures.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: If schema creation fails
func (r *Repository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating journal schema: %w", err)
	}
	return nil
}

// RecordFailure journals one failed publish attempt.
//
// This satisfies the dispatcher's FailureRecorder interface. The write is
// best-effort from the dispatcher's point of view: an error here is logged
// by the caller and never blocks the event stream.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - topic: Kafka topic the publish was destined for
//   - entityID: Entity the event belongs to
//   - payload: The serialized event that failed to deliver
//   - cause: The publish error
//
// Returns:
//   - error: If the insert fails
func (r *Repository) RecordFailure(ctx context.Context, topic, entityID string, payload []byte, cause error) error {
	causeText := ""
	if cause != nil {
		causeText = cause.Error()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO publish_failures (id, created_at, topic, entity_id, payload, cause)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(),
		time.Now().UTC(),
		topic,
		entityID,
		payload,
		causeText,
	)
	if err != nil {
		return fmt.Errorf("recording publish failure: %w", err)
	}
	return nil
}

// Recent returns the most recent failures, newest first.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - limit: Maximum number of entries to return
//
// Returns:
//   - []Entry: Journaled failures, newest first
//   - error: If the query fails
func (r *Repository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at, topic, entity_id, payload, cause
		 FROM publish_failures
		 ORDER BY created_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying publish failures: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only cursor

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.Topic, &e.EntityID, &e.Payload, &e.Cause); err != nil {
			return nil, fmt.Errorf("scanning publish failure: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating publish failures: %w", err)
	}

	return entries, nil
}

// Count returns the total number of journaled failures.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM publish_failures`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting publish failures: %w", err)
	}
	return count, nil
}

// Prune deletes entries older than the retention period.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - retention: Age beyond which entries are deleted
//
// Returns:
//   - int64: Number of deleted entries
//   - error: If the delete fails
func (r *Repository) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM publish_failures WHERE created_at < ?`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("pruning publish failures: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning publish failures: %w", err)
	}
	return deleted, nil
}

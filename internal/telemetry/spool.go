package telemetry

import (
	"context"
	"fmt"

	"github.com/Saakihegde12345/LunchboxMonitoring/internal/infrastructure/database"
)

// spoolSchema is the store-and-forward table. A single self-contained
// table, created on open; the agent has no other schema so a migration
// registry would be overkill.
const spoolSchema = `
CREATE TABLE IF NOT EXISTS telemetry_spool (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    topic      TEXT    NOT NULL,
    payload    BLOB    NOT NULL,
    created_at TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);
CREATE INDEX IF NOT EXISTS idx_telemetry_spool_created ON telemetry_spool(created_at);
`

// Spool is a durable buffer for readings that could not be delivered.
// Entries are enqueued on publish failure and drained oldest-first once
// the session is re-established.
type Spool struct {
	db *database.DB
}

// SpooledMessage is one buffered publish.
type SpooledMessage struct {
	ID      int64
	Topic   string
	Payload []byte
}

// NewSpool prepares the spool table on the given database.
func NewSpool(ctx context.Context, db *database.DB) (*Spool, error) {
	if _, err := db.ExecContext(ctx, spoolSchema); err != nil {
		return nil, fmt.Errorf("creating spool schema: %w", err)
	}
	return &Spool{db: db}, nil
}

// Enqueue buffers a message for later delivery.
func (s *Spool) Enqueue(ctx context.Context, topic string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO telemetry_spool (topic, payload) VALUES (?, ?)",
		topic, payload,
	)
	if err != nil {
		return fmt.Errorf("enqueueing spooled message: %w", err)
	}
	return nil
}

// Oldest returns up to limit buffered messages, oldest first.
func (s *Spool) Oldest(ctx context.Context, limit int) ([]SpooledMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, topic, payload FROM telemetry_spool ORDER BY id LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("reading spool: %w", err)
	}
	defer rows.Close()

	var msgs []SpooledMessage
	for rows.Next() {
		var m SpooledMessage
		if err := rows.Scan(&m.ID, &m.Topic, &m.Payload); err != nil {
			return nil, fmt.Errorf("scanning spooled message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating spool: %w", err)
	}
	return msgs, nil
}

// Delete removes a delivered message from the spool.
func (s *Spool) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM telemetry_spool WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting spooled message %d: %w", id, err)
	}
	return nil
}

// Len returns the number of buffered messages.
func (s *Spool) Len(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM telemetry_spool").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting spool: %w", err)
	}
	return count, nil
}

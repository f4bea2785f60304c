package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	txcontext "campus/pkg/platform/tx"
)

// PostgresStore keeps events in the enrollment_outbox table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts the event, joining the caller's transaction when ctx has one.
func (s *PostgresStore) Append(ctx context.Context, e Event) error {
	query := `
		INSERT INTO enrollment_outbox (id, event_type, aggregate_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		e.ID.String(), e.Type, e.AggregateID, []byte(e.Payload), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append outbox event: %w", err)
	}
	return nil
}

// ProcessBatch locks up to limit unpublished events, hands them to fn and
// marks them published when fn succeeds. Rows are locked with SKIP LOCKED
// so several workers can drain the table concurrently.
func (s *PostgresStore) ProcessBatch(ctx context.Context, limit int, now time.Time, fn func(ctx context.Context, events []Event) error) (int, error) {
	var processed int
	err := txcontext.Run(ctx, s.db, nil, func(ctx context.Context) error {
		exec := txcontext.Exec(ctx, s.db)
		rows, err := exec.QueryContext(ctx, `
			SELECT id, event_type, aggregate_id, payload, created_at
			FROM enrollment_outbox
			WHERE published_at IS NULL
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		`, limit)
		if err != nil {
			return fmt.Errorf("select outbox batch: %w", err)
		}

		var events []Event
		for rows.Next() {
			var (
				e  Event
				id string
			)
			if err := rows.Scan(&id, &e.Type, &e.AggregateID, &e.Payload, &e.CreatedAt); err != nil {
				rows.Close()
				return fmt.Errorf("scan outbox event: %w", err)
			}
			if e.ID, err = uuid.Parse(id); err != nil {
				rows.Close()
				return fmt.Errorf("parse outbox event id: %w", err)
			}
			events = append(events, e)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate outbox batch: %w", err)
		}
		if len(events) == 0 {
			return nil
		}

		if err := fn(ctx, events); err != nil {
			return err
		}

		ids := make([]string, len(events))
		for i, e := range events {
			ids[i] = e.ID.String()
		}
		if _, err := exec.ExecContext(ctx,
			`UPDATE enrollment_outbox SET published_at = $2 WHERE id = ANY($1::uuid[])`,
			pq.Array(ids), now); err != nil {
			return fmt.Errorf("mark outbox published: %w", err)
		}
		processed = len(events)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return processed, nil
}

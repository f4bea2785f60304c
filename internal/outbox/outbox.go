// Package outbox implements the transactional outbox: services append events
// in the same transaction as the state change they describe, and a Worker
// relays committed events to a Publisher. Delivery is at-least-once; each
// event carries a stable ID for consumer-side deduplication.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event is one outbox row.
type Event struct {
	ID          uuid.UUID       `json:"id"`
	Type        string          `json:"type"`
	AggregateID int64           `json:"aggregate_id"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
	PublishedAt *time.Time      `json:"published_at,omitempty"`
}

// NewEvent marshals payload into a fresh event.
func NewEvent(eventType string, aggregateID int64, payload any, now time.Time) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:          uuid.New(),
		Type:        eventType,
		AggregateID: aggregateID,
		Payload:     raw,
		CreatedAt:   now,
	}, nil
}

// Publisher delivers a batch of events. Returning an error leaves the whole
// batch unpublished so it is retried on the next poll.
type Publisher interface {
	Publish(ctx context.Context, events []Event) error
}

// LogPublisher writes events to a structured logger. Used when no broker is
// configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, events []Event) error {
	for _, e := range events {
		p.logger.InfoContext(ctx, "outbox event",
			"event_id", e.ID.String(),
			"event_type", e.Type,
			"aggregate_id", e.AggregateID,
			"payload", string(e.Payload),
		)
	}
	return nil
}

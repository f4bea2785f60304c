package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Store is the outbox persistence used by the worker.
type Store interface {
	ProcessBatch(ctx context.Context, limit int, now time.Time, fn func(ctx context.Context, events []Event) error) (int, error)
}

const (
	defaultPollInterval = time.Second
	defaultBatchSize    = 100
)

// Worker polls the store and relays events to the publisher until its
// context is cancelled.
type Worker struct {
	store        Store
	publisher    Publisher
	logger       *slog.Logger
	pollInterval time.Duration
	batchSize    int
	now          func() time.Time
}

type WorkerOption func(*Worker)

func WithPollInterval(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

func WithBatchSize(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

func NewWorker(store Store, publisher Publisher, opts ...WorkerOption) *Worker {
	w := &Worker{
		store:        store,
		publisher:    publisher,
		logger:       slog.Default(),
		pollInterval: defaultPollInterval,
		batchSize:    defaultBatchSize,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run drains the outbox on every tick. Publish failures are logged and
// retried on the next tick; Run only returns when ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		if _, err := w.Drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "outbox relay failed", "error", err.Error())
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Drain publishes batches until the outbox is empty and returns how many
// events were relayed.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := w.store.ProcessBatch(ctx, w.batchSize, w.now(), w.publisher.Publish)
		total += n
		if err != nil {
			return total, err
		}
		if n < w.batchSize {
			return total, nil
		}
	}
}

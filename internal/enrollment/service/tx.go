package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"campus/internal/enrollment/models"
	"campus/internal/outbox"
	dErrors "campus/pkg/domain-errors"
	txcontext "campus/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// PostgresTx runs each unit of work in a database transaction. The stores
// must be the Postgres stores bound to db; they pick the transaction up
// from the context.
type PostgresTx struct {
	db      *sql.DB
	stores  Stores
	timeout time.Duration
}

func NewPostgresTx(db *sql.DB, stores Stores, timeout time.Duration) *PostgresTx {
	return &PostgresTx{db: db, stores: stores, timeout: timeout}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error {
	ctx, cancel, err := boundContext(ctx, t.timeout)
	if err != nil {
		return err
	}
	defer cancel()

	return txcontext.Run(ctx, t.db, nil, func(ctx context.Context) error {
		return fn(ctx, t.stores)
	})
}

// RollbackCourses is the course ledger plus the compensating write the
// in-memory transaction needs.
type RollbackCourses interface {
	CourseLedger
	AdjustEnrolled(ctx context.Context, id int64, delta int) error
}

// RollbackEnrollments is the enrollment store plus the compensating writes
// the in-memory transaction needs.
type RollbackEnrollments interface {
	EnrollmentStore
	Delete(ctx context.Context, id int64) error
	Restore(ctx context.Context, snapshot *models.Enrollment) error
}

// InMemoryTx serializes units of work with one lock and undoes their writes
// from a journal when fn fails. Outbox events are buffered and appended
// only on success.
type InMemoryTx struct {
	mu          sync.Mutex
	courses     RollbackCourses
	enrollments RollbackEnrollments
	outbox      OutboxAppender
	timeout     time.Duration
}

func NewInMemoryTx(courses RollbackCourses, enrollments RollbackEnrollments, events OutboxAppender) *InMemoryTx {
	return &InMemoryTx{courses: courses, enrollments: enrollments, outbox: events}
}

func (t *InMemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error {
	ctx, cancel, err := boundContext(ctx, t.timeout)
	if err != nil {
		return err
	}
	defer cancel()

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	j := &journal{}
	buffered := &bufferedOutbox{}
	stores := Stores{
		Courses:     &journaledCourses{RollbackCourses: t.courses, j: j},
		Enrollments: &journaledEnrollments{RollbackEnrollments: t.enrollments, j: j},
		Outbox:      buffered,
	}

	if err := fn(ctx, stores); err != nil {
		j.rollback(context.WithoutCancel(ctx))
		return err
	}
	if t.outbox != nil {
		for _, e := range buffered.events {
			if err := t.outbox.Append(ctx, e); err != nil {
				j.rollback(context.WithoutCancel(ctx))
				return err
			}
		}
	}
	return nil
}

func boundContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	if err := ctx.Err(); err != nil {
		return ctx, func() {}, dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, cancel, nil
}

type journal struct {
	undo []func(ctx context.Context)
}

func (j *journal) record(fn func(ctx context.Context)) {
	j.undo = append(j.undo, fn)
}

// rollback applies compensations newest first.
func (j *journal) rollback(ctx context.Context) {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i](ctx)
	}
	j.undo = nil
}

type journaledCourses struct {
	RollbackCourses
	j *journal
}

func (c *journaledCourses) IncrementEnrolledIfAvailable(ctx context.Context, id int64, now time.Time) (bool, error) {
	ok, err := c.RollbackCourses.IncrementEnrolledIfAvailable(ctx, id, now)
	if ok && err == nil {
		c.j.record(func(ctx context.Context) { _ = c.AdjustEnrolled(ctx, id, -1) })
	}
	return ok, err
}

func (c *journaledCourses) DecrementEnrolled(ctx context.Context, id int64, now time.Time) (bool, error) {
	ok, err := c.RollbackCourses.DecrementEnrolled(ctx, id, now)
	if ok && err == nil {
		c.j.record(func(ctx context.Context) { _ = c.AdjustEnrolled(ctx, id, 1) })
	}
	return ok, err
}

type journaledEnrollments struct {
	RollbackEnrollments
	j *journal
}

func (e *journaledEnrollments) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if err := e.RollbackEnrollments.Create(ctx, enrollment); err != nil {
		return err
	}
	id := enrollment.ID
	e.j.record(func(ctx context.Context) { _ = e.Delete(ctx, id) })
	return nil
}

func (e *journaledEnrollments) TransitionFromActive(ctx context.Context, enrollment *models.Enrollment) (bool, error) {
	before, err := e.FindByID(ctx, enrollment.ID)
	if err != nil {
		return false, err
	}
	ok, err := e.RollbackEnrollments.TransitionFromActive(ctx, enrollment)
	if ok && err == nil {
		e.j.record(func(ctx context.Context) { _ = e.Restore(ctx, before) })
	}
	return ok, err
}

type bufferedOutbox struct {
	events []outbox.Event
}

func (b *bufferedOutbox) Append(_ context.Context, e outbox.Event) error {
	b.events = append(b.events, e)
	return nil
}

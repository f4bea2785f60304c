package store

import (
	"context"
	"database/sql"
	"errors"

	"campus/internal/enrollment/models"
	"campus/internal/platform/postgres"
	"campus/pkg/platform/sentinel"
	txcontext "campus/pkg/platform/tx"
)

// PostgresStore persists enrollments in PostgreSQL. A partial unique index on
// (student_id, course_id) WHERE status <> 'cancelled' backs the one open
// enrollment per pair rule.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed enrollment store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const enrollmentColumns = `id, student_id, course_id, status, enrolled_at, completed_at, cancelled_at`

func (s *PostgresStore) Create(ctx context.Context, e *models.Enrollment) error {
	query := `
		INSERT INTO enrollments (student_id, course_id, status, enrolled_at, completed_at, cancelled_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query,
		e.StudentID,
		e.CourseID,
		string(e.Status),
		e.EnrolledAt,
		e.CompletedAt,
		e.CancelledAt,
	).Scan(&e.ID)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return postgres.WrapError("create enrollment", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1`
	e, err := scanEnrollment(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, postgres.WrapError("find enrollment by id", err)
	}
	return e, nil
}

func (s *PostgresStore) FindOpenByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	query := `
		SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE student_id = $1 AND course_id = $2 AND status <> 'cancelled'
		LIMIT 1
	`
	e, err := scanEnrollment(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, studentID, courseID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, postgres.WrapError("find open enrollment", err)
	}
	return e, nil
}

func (s *PostgresStore) ListByStudent(ctx context.Context, studentID int64) ([]*models.Enrollment, error) {
	query := `
		SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE student_id = $1
		ORDER BY enrolled_at DESC, id DESC
	`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, postgres.WrapError("list enrollments by student", err)
	}
	defer rows.Close()

	out := make([]*models.Enrollment, 0)
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, postgres.WrapError("scan enrollment", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.WrapError("iterate enrollments", err)
	}
	return out, nil
}

// TransitionFromActive writes e's terminal status with a conditional UPDATE.
// Of two concurrent transitions on the same row exactly one affects it.
func (s *PostgresStore) TransitionFromActive(ctx context.Context, e *models.Enrollment) (bool, error) {
	query := `
		UPDATE enrollments
		SET status = $2, completed_at = $3, cancelled_at = $4
		WHERE id = $1 AND status = 'active'
	`
	result, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		e.ID, string(e.Status), e.CompletedAt, e.CancelledAt)
	if err != nil {
		return false, postgres.WrapError("transition enrollment", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, postgres.WrapError("transition enrollment rows affected", err)
	}
	return rows > 0, nil
}

type enrollmentRow interface {
	Scan(dest ...any) error
}

func scanEnrollment(row enrollmentRow) (*models.Enrollment, error) {
	var (
		e           models.Enrollment
		status      string
		completedAt sql.NullTime
		cancelledAt sql.NullTime
	)
	if err := row.Scan(&e.ID, &e.StudentID, &e.CourseID, &status, &e.EnrolledAt, &completedAt, &cancelledAt); err != nil {
		return nil, err
	}
	e.Status = models.Status(status)
	if completedAt.Valid {
		e.CompletedAt = &completedAt.Time
	}
	if cancelledAt.Valid {
		e.CancelledAt = &cancelledAt.Time
	}
	return &e, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"campus/internal/course/models"
	"campus/internal/platform/postgres"
	"campus/pkg/platform/sentinel"
	txcontext "campus/pkg/platform/tx"
)

// PostgresStore persists courses in PostgreSQL. It is pure I/O: capacity
// rules live in the SQL predicates of the ledger methods and in the service.
// Every method joins the transaction carried by ctx when there is one.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed course store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const courseColumns = `id, course_code, title, description, category, max_students, current_enrolled, status, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, course *models.Course) error {
	query := `
		INSERT INTO courses (course_code, title, description, category, max_students, current_enrolled, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query,
		course.CourseCode,
		course.Title,
		course.Description,
		course.Category,
		course.MaxStudents,
		course.CurrentEnrolled,
		string(course.Status),
		course.CreatedAt,
	).Scan(&course.ID)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return postgres.WrapError("create course", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	course, err := scanCourse(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, postgres.WrapError("find course by id", err)
	}
	return course, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Course, error) {
	var (
		rows *sql.Rows
		err  error
	)
	exec := txcontext.Exec(ctx, s.db)
	if len(filter.Statuses) == 0 {
		rows, err = exec.QueryContext(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY id`)
	} else {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		rows, err = exec.QueryContext(ctx,
			`SELECT `+courseColumns+` FROM courses WHERE status = ANY($1) ORDER BY id`,
			pq.Array(statuses))
	}
	if err != nil {
		return nil, postgres.WrapError("list courses", err)
	}
	defer rows.Close()

	var out []*models.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, postgres.WrapError("scan course", err)
		}
		out = append(out, course)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.WrapError("iterate courses", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id int64, status models.Status, now time.Time) error {
	result, err := txcontext.Exec(ctx, s.db).ExecContext(ctx,
		`UPDATE courses SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), now)
	if err != nil {
		return postgres.WrapError("update course status", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return postgres.WrapError("update course status rows affected", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// UpdateDetails writes the editable fields of course. The capacity check runs
// against the stored counter in the same statement, so a seat taken after the
// caller loaded the course still blocks shrinking below it. Returns
// ErrInvalidState when the predicate fails.
func (s *PostgresStore) UpdateDetails(ctx context.Context, course *models.Course, now time.Time) error {
	query := `
		UPDATE courses
		SET title = $2, description = $3, category = $4, max_students = $5, updated_at = $6
		WHERE id = $1
		  AND ($5 = 0 OR current_enrolled <= $5)
		RETURNING current_enrolled
	`
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query,
		course.ID,
		course.Title,
		course.Description,
		course.Category,
		course.MaxStudents,
		now,
	).Scan(&course.CurrentEnrolled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.refusal(ctx, course.ID)
		}
		return postgres.WrapError("update course details", err)
	}
	return nil
}

// Delete removes a course that no active or completed enrollment references.
// Cancelled enrollments go with it through the foreign key cascade.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	query := `
		DELETE FROM courses
		WHERE id = $1
		  AND current_enrolled = 0
		  AND NOT EXISTS (
		      SELECT 1 FROM enrollments
		      WHERE course_id = $1 AND status <> 'cancelled'
		  )
	`
	result, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query, id)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return sentinel.ErrInvalidState
		}
		return postgres.WrapError("delete course", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return postgres.WrapError("delete course rows affected", err)
	}
	if rows == 0 {
		return s.refusal(ctx, id)
	}
	return nil
}

// refusal tells a missing course from a failed precondition after a
// conditional write matched no row.
func (s *PostgresStore) refusal(ctx context.Context, id int64) error {
	var exists bool
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return postgres.WrapError("check course exists", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

// IncrementEnrolledIfAvailable atomically takes a seat. The capacity check
// and the increment are one statement, so concurrent enrollments cannot both
// pass a stale check. Returns false when no row satisfied the predicate.
func (s *PostgresStore) IncrementEnrolledIfAvailable(ctx context.Context, id int64, now time.Time) (bool, error) {
	query := `
		UPDATE courses
		SET current_enrolled = current_enrolled + 1, updated_at = $2
		WHERE id = $1
		  AND status = 'published'
		  AND (max_students = 0 OR current_enrolled < max_students)
	`
	result, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query, id, now)
	if err != nil {
		return false, postgres.WrapError("increment enrolled", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, postgres.WrapError("increment enrolled rows affected", err)
	}
	return rows > 0, nil
}

// DecrementEnrolled atomically releases a seat, never going below zero.
func (s *PostgresStore) DecrementEnrolled(ctx context.Context, id int64, now time.Time) (bool, error) {
	query := `
		UPDATE courses
		SET current_enrolled = current_enrolled - 1, updated_at = $2
		WHERE id = $1
		  AND current_enrolled > 0
	`
	result, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query, id, now)
	if err != nil {
		return false, postgres.WrapError("decrement enrolled", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, postgres.WrapError("decrement enrolled rows affected", err)
	}
	return rows > 0, nil
}

type courseRow interface {
	Scan(dest ...any) error
}

func scanCourse(row courseRow) (*models.Course, error) {
	var (
		c         models.Course
		status    string
		updatedAt sql.NullTime
	)
	if err := row.Scan(
		&c.ID, &c.CourseCode, &c.Title, &c.Description, &c.Category,
		&c.MaxStudents, &c.CurrentEnrolled, &status, &c.CreatedAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	c.Status = models.Status(status)
	if updatedAt.Valid {
		c.UpdatedAt = &updatedAt.Time
	}
	return &c, nil
}

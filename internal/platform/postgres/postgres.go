// Package postgres opens the database handle shared by every Postgres store
// and applies the schema.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"campus/internal/platform/config"
)

// Open connects with lib/pq, applies pool limits and verifies the
// connection with a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS courses (
		id               BIGSERIAL PRIMARY KEY,
		course_code      TEXT NOT NULL,
		title            TEXT NOT NULL,
		description      TEXT NOT NULL,
		category         TEXT NOT NULL,
		max_students     INTEGER NOT NULL DEFAULT 0 CHECK (max_students >= 0),
		current_enrolled INTEGER NOT NULL DEFAULT 0 CHECK (current_enrolled >= 0),
		status           TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'published', 'archived')),
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ,
		CHECK (max_students = 0 OR current_enrolled <= max_students)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS courses_course_code_key ON courses (lower(course_code))`,
	`CREATE INDEX IF NOT EXISTS courses_status_idx ON courses (status)`,

	`CREATE TABLE IF NOT EXISTS enrollments (
		id           BIGSERIAL PRIMARY KEY,
		student_id   BIGINT NOT NULL CHECK (student_id > 0),
		course_id    BIGINT NOT NULL REFERENCES courses (id) ON DELETE CASCADE,
		status       TEXT NOT NULL CHECK (status IN ('active', 'completed', 'cancelled')),
		enrolled_at  TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ,
		cancelled_at TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS enrollments_open_pair_key
		ON enrollments (student_id, course_id) WHERE status <> 'cancelled'`,
	`CREATE INDEX IF NOT EXISTS enrollments_student_idx ON enrollments (student_id, enrolled_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS enrollments_course_idx ON enrollments (course_id)`,

	`CREATE TABLE IF NOT EXISTS enrollment_outbox (
		id           UUID PRIMARY KEY,
		event_type   TEXT NOT NULL,
		aggregate_id BIGINT NOT NULL,
		payload      JSONB NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		published_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS enrollment_outbox_unpublished_idx
		ON enrollment_outbox (created_at) WHERE published_at IS NULL`,
}

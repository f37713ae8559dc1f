package store

import (
	"context"
	"database/sql"
)

// Migrate applies the schema. Statements are idempotent so the service can
// run it on every startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT UNIQUE NOT NULL,
		nik           CHAR(16) UNIQUE NOT NULL,
		phone_number  TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		face_enrolled BOOLEAN NOT NULL DEFAULT FALSE,
		enrolled_at   TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS attendances (
		id              UUID PRIMARY KEY,
		user_id         UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		date            DATE NOT NULL,
		attendance_time TIMESTAMPTZ NOT NULL,
		status          TEXT NOT NULL DEFAULT 'present',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, date)
	);

	CREATE TABLE IF NOT EXISTS refresh_tokens (
		token      TEXT PRIMARY KEY,
		user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at TIMESTAMPTZ NOT NULL,
		revoked    BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS audit_events (
		id          UUID PRIMARY KEY,
		occurred_at TIMESTAMPTZ NOT NULL,
		endpoint    TEXT NOT NULL,
		user_id     TEXT NOT NULL DEFAULT '',
		nik         TEXT NOT NULL DEFAULT '',
		decision    TEXT NOT NULL,
		detail      TEXT NOT NULL DEFAULT '',
		upstream    JSONB,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_attendances_user ON attendances(user_id);
	CREATE INDEX IF NOT EXISTS idx_audit_events_time ON audit_events(occurred_at);
	`
	_, err := db.ExecContext(ctx, schema)
	return err
}

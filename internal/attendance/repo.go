package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Statuses an attendance record can carry.
const (
	StatusPresent = "present"
	StatusPending = "pending"
)

// Record is one attendance row: at most one per (user, calendar date).
type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name,omitempty"` // joined from users
	Date      string    `json:"date"`
	Time      time.Time `json:"attendance_time"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository persists attendance data in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// RecordOnce inserts a record for (userID, day) unless one already exists.
// The UNIQUE(user_id, date) constraint makes this safe under concurrent
// submissions: the second insert is ignored and the first row is returned.
func (r *Repository) RecordOnce(ctx context.Context, userID string, day time.Time, at time.Time) (Record, bool, error) {
	rec := Record{
		ID:     uuid.NewString(),
		UserID: userID,
		Date:   day.Format("2006-01-02"),
		Time:   at,
		Status: StatusPresent,
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO attendances (id, user_id, date, attendance_time, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, date) DO NOTHING
	`, rec.ID, rec.UserID, rec.Date, rec.Time, rec.Status)
	if err != nil {
		return Record{}, false, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		existing, err := r.ForDate(ctx, userID, day)
		if err != nil {
			return Record{}, false, err
		}
		if existing == nil {
			return Record{}, false, errors.New("attendance row vanished after conflict")
		}
		return *existing, false, nil
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT created_at FROM attendances WHERE id = $1`, rec.ID)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// scanRecord reads one attendance row. The DATE column arrives as a
// time.Time from the driver and is rendered back to the same YYYY-MM-DD
// form the insert path writes.
func scanRecord(row interface{ Scan(...any) error }) (Record, error) {
	var rec Record
	var day time.Time
	if err := row.Scan(&rec.ID, &rec.UserID, &day, &rec.Time, &rec.Status, &rec.CreatedAt); err != nil {
		return Record{}, err
	}
	rec.Date = day.Format("2006-01-02")
	return rec, nil
}

// ForDate returns the record for (userID, day), or nil when absent.
func (r *Repository) ForDate(ctx context.Context, userID string, day time.Time) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, date, attendance_time, status, created_at
		FROM attendances
		WHERE user_id = $1 AND date = $2
	`, userID, day.Format("2006-01-02"))
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// ListRecent returns the latest records with user names joined.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.user_id, u.name, a.date, a.attendance_time, a.status, a.created_at
		FROM attendances a
		JOIN users u ON u.id = a.user_id
		ORDER BY a.attendance_time DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var day time.Time
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Name, &day, &rec.Time, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Date = day.Format("2006-01-02")
		records = append(records, rec)
	}
	return records, rows.Err()
}

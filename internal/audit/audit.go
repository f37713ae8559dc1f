package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"faceattend/internal/queue"
)

// MessageType is the queue message type carrying audit events.
const MessageType = "audit"

// Event records one enrollment or recognition decision with enough context
// to reconstruct it after the fact.
type Event struct {
	ID         string         `json:"id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Endpoint   string         `json:"endpoint"`
	UserID     string         `json:"user_id,omitempty"`
	NIK        string         `json:"nik,omitempty"`
	Decision   string         `json:"decision"`
	Detail     string         `json:"detail,omitempty"`
	Upstream   map[string]any `json:"upstream,omitempty"`
}

// Recorder publishes events to the queue. Publish failures are logged and
// swallowed: auditing must never fail the request it describes.
type Recorder struct {
	q queue.Queue
}

// NewRecorder creates a recorder over a queue.
func NewRecorder(q queue.Queue) *Recorder {
	return &Recorder{q: q}
}

// Record fills in id/timestamp and publishes the event.
func (r *Recorder) Record(ctx context.Context, evt Event) {
	if r == nil || r.q == nil {
		return
	}
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(evt)
	if err != nil {
		log.Printf("audit marshal failed: %v", err)
		return
	}
	if err := r.q.Publish(ctx, queue.Message{Type: MessageType, Body: body}); err != nil {
		log.Printf("audit publish failed: %v", err)
	}
}

// Decode parses a queue message body back into an Event.
func Decode(body []byte) (Event, error) {
	var evt Event
	err := json.Unmarshal(body, &evt)
	return evt, err
}

// Repository persists audit events in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes one event.
func (r *Repository) Insert(ctx context.Context, evt Event) error {
	var upstream any
	if evt.Upstream != nil {
		b, err := json.Marshal(evt.Upstream)
		if err != nil {
			return err
		}
		upstream = b
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, occurred_at, endpoint, user_id, nik, decision, detail, upstream)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, evt.ID, evt.OccurredAt, evt.Endpoint, evt.UserID, evt.NIK, evt.Decision, evt.Detail, upstream)
	return err
}

package attendance

import (
	"context"
	"errors"
	"time"
)

// Store is the persistence surface the service needs.
type Store interface {
	RecordOnce(ctx context.Context, userID string, day time.Time, at time.Time) (Record, bool, error)
	ForDate(ctx context.Context, userID string, day time.Time) (*Record, error)
	ListRecent(ctx context.Context, limit int) ([]Record, error)
}

// Service applies the one-record-per-user-per-day rule.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock overrides the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// MarkPresent records today's attendance for the user. When a record for
// today already exists it is returned unchanged with created=false.
func (s *Service) MarkPresent(ctx context.Context, userID string) (Record, bool, error) {
	if userID == "" {
		return Record{}, false, errors.New("user id required")
	}
	now := s.now()
	return s.store.RecordOnce(ctx, userID, now, now)
}

// Today returns the user's attendance record for today, or nil.
func (s *Service) Today(ctx context.Context, userID string) (*Record, error) {
	return s.store.ForDate(ctx, userID, s.now())
}

// Recent returns the latest attendance records.
func (s *Service) Recent(ctx context.Context, limit int) ([]Record, error) {
	return s.store.ListRecent(ctx, limit)
}

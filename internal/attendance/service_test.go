package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore implements Store in memory with the same one-row-per-day rule
// the database enforces via UNIQUE(user_id, date).
type memStore struct {
	records map[string]Record // key: userID + "|" + date
}

func newMemStore() *memStore {
	return &memStore{records: map[string]Record{}}
}

func (s *memStore) key(userID string, day time.Time) string {
	return userID + "|" + day.Format("2006-01-02")
}

func (s *memStore) RecordOnce(_ context.Context, userID string, day time.Time, at time.Time) (Record, bool, error) {
	k := s.key(userID, day)
	if existing, ok := s.records[k]; ok {
		return existing, false, nil
	}
	rec := Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		Date:      day.Format("2006-01-02"),
		Time:      at,
		Status:    StatusPresent,
		CreatedAt: at,
	}
	s.records[k] = rec
	return rec, true, nil
}

func (s *memStore) ForDate(_ context.Context, userID string, day time.Time) (*Record, error) {
	if rec, ok := s.records[s.key(userID, day)]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (s *memStore) ListRecent(_ context.Context, limit int) ([]Record, error) {
	var out []Record
	for _, rec := range s.records {
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func TestMarkPresentOncePerDay(t *testing.T) {
	store := newMemStore()
	first := time.Date(2025, 6, 16, 9, 12, 0, 0, time.UTC)
	now := first
	svc := NewService(store).WithClock(func() time.Time { return now })

	rec, created, err := svc.MarkPresent(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, StatusPresent, rec.Status)
	assert.Equal(t, "2025-06-16", rec.Date)
	assert.Equal(t, first, rec.Time)

	// Second call the same day is a no-op reporting the first record.
	now = first.Add(3 * time.Hour)
	again, created, err := svc.MarkPresent(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, rec.ID, again.ID)
	assert.Equal(t, first, again.Time)
	assert.Len(t, store.records, 1)

	// A new day gets a new record.
	now = first.Add(24 * time.Hour)
	next, created, err := svc.MarkPresent(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, rec.ID, next.ID)
	assert.Len(t, store.records, 2)
}

func TestMarkPresentRequiresUser(t *testing.T) {
	svc := NewService(newMemStore())
	_, _, err := svc.MarkPresent(context.Background(), "")
	assert.Error(t, err)
}

func TestToday(t *testing.T) {
	store := newMemStore()
	now := time.Date(2025, 6, 16, 10, 0, 0, 0, time.UTC)
	svc := NewService(store).WithClock(func() time.Time { return now })

	rec, err := svc.Today(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, _, err = svc.MarkPresent(context.Background(), "u1")
	require.NoError(t, err)

	rec, err = svc.Today(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "u1", rec.UserID)
}

package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, min int) time.Time {
	return time.Date(2025, 6, 16, hour, min, 30, 0, time.Local)
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"09:00-16:00", false},
		{"00:00-23:59", false},
		{"9:00-16:00", false},
		{"16:00-09:00", true}, // start after end
		{"09:00-09:00", true}, // empty
		{"25:00-26:00", true},
		{"banana", true},
		{"", true},
	}
	for _, tt := range tests {
		_, err := ParseWindow(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
		} else {
			assert.NoError(t, err, tt.in)
		}
	}
}

func TestWindowContains(t *testing.T) {
	w, err := ParseWindow("09:00-16:00")
	require.NoError(t, err)

	tests := []struct {
		name string
		t    time.Time
		open bool
	}{
		{"before open", at(8, 59), false},
		{"at open", at(9, 0), true},
		{"midday", at(12, 30), true},
		{"last minute", at(15, 59), true},
		{"at close", at(16, 0), false},
		{"evening", at(20, 0), false},
		{"midnight", at(0, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.open, w.Contains(tt.t))
		})
	}
}

func TestWindowBounds(t *testing.T) {
	w, err := ParseWindow("09:00-16:00")
	require.NoError(t, err)

	open, close := w.Bounds(at(12, 0))
	assert.Equal(t, 9, open.Hour())
	assert.Equal(t, 0, open.Minute())
	assert.Equal(t, 16, close.Hour())
	assert.Equal(t, at(12, 0).Day(), open.Day())
}

func TestWindowString(t *testing.T) {
	w, err := ParseWindow("9:05-16:30")
	require.NoError(t, err)
	assert.Equal(t, "09:05-16:30", w.String())
}

func TestWindowWatch(t *testing.T) {
	w, err := ParseWindow("09:00-16:00")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ch := w.Watch(ctx, 10*time.Millisecond)

	// Initial state arrives immediately and matches a direct evaluation.
	select {
	case open := <-ch:
		assert.Equal(t, w.Contains(time.Now()), open)
	case <-time.After(time.Second):
		t.Fatal("no initial window state emitted")
	}

	// Cancellation closes the channel.
	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

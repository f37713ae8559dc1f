package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faceattend/internal/queue"
)

func TestRecordPublishesEvent(t *testing.T) {
	q := queue.NewInMemory(4)
	rec := NewRecorder(q)

	rec.Record(context.Background(), Event{
		Endpoint: "face-recognize",
		UserID:   "u1",
		NIK:      "1234567890123456",
		Decision: "recorded",
	})

	msgs, err := q.Consume(context.Background())
	require.NoError(t, err)

	select {
	case msg := <-msgs:
		assert.Equal(t, MessageType, msg.Type)
		evt, err := Decode(msg.Body)
		require.NoError(t, err)
		assert.NotEmpty(t, evt.ID)
		assert.False(t, evt.OccurredAt.IsZero())
		assert.Equal(t, "recorded", evt.Decision)
	case <-time.After(time.Second):
		t.Fatal("no audit message published")
	}
}

func TestRecordDoesNotBlockWhenQueueFull(t *testing.T) {
	q := queue.NewInMemory(1) // no consumer
	rec := NewRecorder(q)

	rec.Record(context.Background(), Event{Endpoint: "face-recognize", Decision: "recorded"})

	// A full buffer must drop the event, never stall the request.
	start := time.Now()
	rec.Record(context.Background(), Event{Endpoint: "face-recognize", Decision: "recorded"})
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestRecordNilRecorder(t *testing.T) {
	var rec *Recorder
	assert.NotPanics(t, func() {
		rec.Record(context.Background(), Event{Decision: "recorded"})
	})
}

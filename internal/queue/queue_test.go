package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRoundtrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	body, _ := json.Marshal(map[string]string{"decision": "recorded"})
	require.NoError(t, q.Publish(ctx, Message{Type: "audit", Body: body}))

	out, err := q.Consume(ctx)
	require.NoError(t, err)

	select {
	case msg := <-out:
		assert.Equal(t, "audit", msg.Type)
		assert.JSONEq(t, string(body), string(msg.Body))
	case <-time.After(time.Second):
		t.Fatal("no message consumed")
	}
}

func TestInMemoryPublishFullDoesNotBlock(t *testing.T) {
	q := NewInMemory(1) // no consumer
	ctx := context.Background()

	require.NoError(t, q.Publish(ctx, Message{Type: "audit"}))

	start := time.Now()
	err := q.Publish(ctx, Message{Type: "audit"})
	assert.ErrorIs(t, err, ErrFull)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestInMemoryPublishCancelled(t *testing.T) {
	q := NewInMemory(4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := q.Publish(ctx, Message{Type: "audit"})
	assert.ErrorIs(t, err, context.Canceled)
}

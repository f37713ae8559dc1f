package faceclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripDataURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"data:image/jpeg;base64,abc123", "abc123"},
		{"data:image/png;base64,xyz", "xyz"},
		{"abc123", "abc123"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripDataURL(tt.in))
	}
}

func TestRegister(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/register_face", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Alice", body["name"])
		assert.Equal(t, "1234567890123456", body["nik"])
		assert.Len(t, body["images"], 3)

		json.NewEncoder(w).Encode(map[string]any{
			"face_embedding": []float64{0.1, 0.2, 0.3},
			"message":        "registered",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, false)
	res, err := c.Register(context.Background(), []string{"a", "b", "c"}, "Alice", "1234567890123456")
	require.NoError(t, err)
	assert.Len(t, res.FaceEmbedding, 3)
	assert.Contains(t, res.Raw, "face_embedding")
}

func TestRegisterMissingEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"message": "something went sideways"})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, false)
	_, err := c.Register(context.Background(), []string{"a"}, "Alice", "1234567890123456")
	assert.ErrorIs(t, err, ErrNoEmbedding)
}

func TestRegisterUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"bad images"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, false)
	_, err := c.Register(context.Background(), []string{"a"}, "Alice", "1234567890123456")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "face service error")
}

func TestRecognize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/recognize_face", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "img-base64", body["image"])

		json.NewEncoder(w).Encode(map[string]any{
			"status":     "success",
			"nik":        "1234567890123456",
			"name":       "Alice",
			"confidence": 93.4,
			"message":    "recognized",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, false)
	res, err := c.Recognize(context.Background(), "img-base64")
	require.NoError(t, err)
	assert.True(t, res.Matched())
	assert.Equal(t, "1234567890123456", res.NIK)
	assert.InDelta(t, 93.4, res.Confidence, 0.001)
}

func TestRecognizeNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "failure",
			"message": "no matching face found",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, false)
	res, err := c.Recognize(context.Background(), "img")
	require.NoError(t, err)
	assert.False(t, res.Matched())
	assert.Equal(t, "no matching face found", res.Message)
}

func TestRecognizeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(srv.URL, 50*time.Millisecond, false)
	_, err := c.Recognize(context.Background(), "img")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "face service request failed")
}

func TestSkipMode(t *testing.T) {
	c := New("http://unreachable.invalid", time.Second, true)

	reg, err := c.Register(context.Background(), []string{"a"}, "Alice", "1234567890123456")
	require.NoError(t, err)
	assert.NotEmpty(t, reg.FaceEmbedding)

	rec, err := c.Recognize(context.Background(), "img")
	require.NoError(t, err)
	assert.True(t, rec.Matched())

	assert.NoError(t, c.Health(context.Background()))
}

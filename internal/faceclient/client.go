package faceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// StatusSuccess is the status the microservice reports on a positive match.
const StatusSuccess = "success"

// ErrNoEmbedding is returned when a register_face response lacks the
// face_embedding field. Callers treat this as a fatal upstream error.
var ErrNoEmbedding = errors.New("face service returned no face_embedding")

// RegisterResult is the response of POST /register_face.
type RegisterResult struct {
	FaceEmbedding []float64 `json:"face_embedding"`
	Message       string    `json:"message"`

	// Raw keeps the full upstream payload so handlers can echo it back.
	Raw map[string]any `json:"-"`
}

// RecognizeResult is the response of POST /recognize_face.
type RecognizeResult struct {
	Status     string  `json:"status"`
	NIK        string  `json:"nik"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Message    string  `json:"message"`
}

// Matched reports whether the microservice recognized a face.
func (r *RecognizeResult) Matched() bool { return r.Status == StatusSuccess }

// Client calls the face recognition microservice.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client with a bounded timeout. Face processing can take
// time, so timeouts below a few seconds are not useful in practice.
func New(baseURL string, timeout time.Duration, skip bool) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

var dataURLRe = regexp.MustCompile(`^data:image/(.*?);base64,`)

// StripDataURL removes a leading data-URL scheme marker from a base64 image,
// if present. The microservice expects bare base64.
func StripDataURL(image string) string {
	if strings.HasPrefix(image, "data:") {
		return dataURLRe.ReplaceAllString(image, "")
	}
	return image
}

// Register enrolls one or more base64 images for a person.
func (c *Client) Register(ctx context.Context, images []string, name, nik string) (*RegisterResult, error) {
	if c.Skip {
		return &RegisterResult{
			FaceEmbedding: []float64{0.1, 0.2, 0.3},
			Message:       "face registered (mock)",
			Raw:           map[string]any{"face_embedding": []float64{0.1, 0.2, 0.3}},
		}, nil
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("at least one image required")
	}

	raw, err := c.post(ctx, "/register_face", map[string]any{
		"images": images,
		"name":   name,
		"nik":    nik,
	})
	if err != nil {
		return nil, err
	}

	var out RegisterResult
	if err := remarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if _, ok := raw["face_embedding"]; !ok {
		return nil, ErrNoEmbedding
	}
	out.Raw = raw
	return &out, nil
}

// Recognize submits a single bare-base64 image for identification.
func (c *Client) Recognize(ctx context.Context, image string) (*RecognizeResult, error) {
	if c.Skip {
		return &RecognizeResult{
			Status:     StatusSuccess,
			NIK:        "0000000000000000",
			Name:       "Mock User",
			Confidence: 92.5,
			Message:    "recognized (mock)",
		}, nil
	}
	if image == "" {
		return nil, fmt.Errorf("image required")
	}

	raw, err := c.post(ctx, "/recognize_face", map[string]any{"image": image})
	if err != nil {
		return nil, err
	}

	var out RecognizeResult
	if err := remarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

// Health checks if the face service is available.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("face service unhealthy: %s", resp.Status)
	}

	return nil
}

func (c *Client) post(ctx context.Context, path string, payload map[string]any) (map[string]any, error) {
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("face service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("face service error %s: %s", resp.Status, string(bodyBytes))
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return raw, nil
}

// remarshal maps a decoded payload onto a typed struct.
func remarshal(raw map[string]any, dst any) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

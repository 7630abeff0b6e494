package deepface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrUnavailable      = errors.New("deepface service unavailable")
	ErrInvalidResponse  = errors.New("invalid response from deepface")
	ErrNoFaceInResponse = errors.New("no face data in deepface response")
)

// responses above this size are treated as invalid
const maxResponseBytes = 1 << 20

type Config struct {
	BaseURL string
	Timeout time.Duration
	// Detector is the detector_backend DeepFace runs before analysis. Faces
	// arrive already cropped, so the default skips detection.
	Detector string
}

func DefaultConfig() Config {
	return Config{
		BaseURL:  "http://localhost:5005",
		Timeout:  10 * time.Second,
		Detector: "skip",
	}
}

// Client talks to the /analyze endpoint of a DeepFace API server.
type Client struct {
	httpClient *http.Client
	analyzeURL string
	detector   string
}

func NewClient(config Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		analyzeURL: strings.TrimRight(config.BaseURL, "/") + "/analyze",
		detector:   config.Detector,
	}
}

// Analyze requests emotion scores for one face image given as a data URL.
// Connection failures and 5xx answers wrap ErrUnavailable.
func (c *Client) Analyze(ctx context.Context, imageDataURL string) (*AnalyzeResponse, error) {
	body, err := json.Marshal(AnalyzeRequest{
		Img:              imageDataURL,
		Actions:          []string{"emotion"},
		DetectorBackend:  c.detector,
		EnforceDetection: false,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.analyzeURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: status %d: %s", ErrInvalidResponse, resp.StatusCode, bytes.TrimSpace(payload))
	case len(payload) > maxResponseBytes:
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrInvalidResponse, maxResponseBytes)
	}

	var out AnalyzeResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &out, nil
}

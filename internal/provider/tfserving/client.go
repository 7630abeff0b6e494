// Package tfserving classifies faces through the TensorFlow Serving REST
// predict API.
package tfserving

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/saturnino-fabrica-de-software/emotune/internal/frame"
	"github.com/saturnino-fabrica-de-software/emotune/internal/provider"
)

var (
	ErrUnavailable     = errors.New("model server unavailable")
	ErrInvalidResponse = errors.New("invalid response from model server")
)

// A 7-class prediction is well under a kilobyte.
const maxResponseBytes = 1 << 20

// Config holds the configuration for the model server client
type Config struct {
	// PredictURL is the full :predict endpoint, e.g. http://host:8501/v1/models/emotion:predict
	PredictURL string
	Timeout    time.Duration
}

func DefaultConfig() Config {
	return Config{
		PredictURL: "http://localhost:8501/v1/models/emotion:predict",
		Timeout:    10 * time.Second,
	}
}

type predictRequest struct {
	Instances [][][][]float32 `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float32 `json:"predictions"`
	Error       string      `json:"error,omitempty"`
}

// Classifier implements provider.Classifier against a TF Serving model
type Classifier struct {
	httpClient *http.Client
	config     Config
}

func NewClassifier(config Config) *Classifier {
	return &Classifier{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
	}
}

// Predict sends one instance shaped [48,48,1] and returns the first prediction row
func (c *Classifier) Predict(ctx context.Context, input frame.Tensor) ([]float32, error) {
	body, err := json.Marshal(predictRequest{Instances: input.Batch()})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.PredictURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: status %d: %s", ErrInvalidResponse, resp.StatusCode, bytes.TrimSpace(respBody))
	case len(respBody) > maxResponseBytes:
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrInvalidResponse, maxResponseBytes)
	}

	var out predictResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResponse, out.Error)
	}
	if len(out.Predictions) == 0 {
		return nil, fmt.Errorf("%w: no predictions", ErrInvalidResponse)
	}

	return out.Predictions[0], nil
}

var _ provider.Classifier = (*Classifier)(nil)

package deepface

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
	"github.com/saturnino-fabrica-de-software/emotune/internal/frame"
	"github.com/saturnino-fabrica-de-software/emotune/internal/provider"
)

// Classifier implements provider.Classifier using the DeepFace emotion model
type Classifier struct {
	client *Client
}

// NewClassifier creates a new DeepFace classifier
func NewClassifier(config Config) *Classifier {
	return &Classifier{
		client: NewClient(config),
	}
}

// Predict renders the normalized face back to PNG, sends it to /analyze and
// reorders the returned percentages into taxonomy order scaled to [0,1]
func (c *Classifier) Predict(ctx context.Context, input frame.Tensor) ([]float32, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, input.Image()); err != nil {
		return nil, fmt.Errorf("encode face: %w", err)
	}
	img := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	resp, err := c.client.Analyze(ctx, img)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNoFaceInResponse
	}

	return scoresFromResult(resp.Results[0])
}

func scoresFromResult(result AnalyzeResult) ([]float32, error) {
	scores := make([]float32, domain.EmotionCount)
	for _, e := range domain.Emotions() {
		pct, ok := result.Emotion[e.String()]
		if !ok {
			return nil, fmt.Errorf("%w: missing %q score", ErrInvalidResponse, e.String())
		}
		scores[e] = float32(pct / 100)
	}
	return scores, nil
}

var _ provider.Classifier = (*Classifier)(nil)

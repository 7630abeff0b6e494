package provider

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
	"github.com/saturnino-fabrica-de-software/emotune/internal/frame"
)

// EmotionClassifier turns a model's score vector into a single emotion.
type EmotionClassifier struct {
	model Classifier
}

func NewEmotionClassifier(model Classifier) *EmotionClassifier {
	return &EmotionClassifier{model: model}
}

// Classify runs the model and picks the highest scoring index.
func (c *EmotionClassifier) Classify(ctx context.Context, input frame.Tensor) (domain.Emotion, error) {
	scores, err := c.model.Predict(ctx, input)
	if err != nil {
		return 0, domain.ErrClassificationFailure.WithError(err)
	}
	if len(scores) != domain.EmotionCount {
		return 0, domain.ErrClassificationFailure.WithError(
			fmt.Errorf("model returned %d scores, expected %d", len(scores), domain.EmotionCount))
	}
	return domain.Emotion(Argmax(scores)), nil
}

// Argmax returns the index of the largest score. Ties resolve to the lowest
// index and NaN never wins. An empty slice yields -1.
func Argmax(scores []float32) int {
	best := -1
	for i, s := range scores {
		if s != s {
			continue
		}
		if best == -1 || s > scores[best] {
			best = i
		}
	}
	if best == -1 && len(scores) > 0 {
		return 0
	}
	return best
}

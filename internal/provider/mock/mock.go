package mock

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"image"
	"math"

	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
	"github.com/saturnino-fabrica-de-software/emotune/internal/frame"
	"github.com/saturnino-fabrica-de-software/emotune/internal/provider"
)

// Detector implementa provider.Detector para testes e desenvolvimento
type Detector struct {
	// Regions fixas; quando nil, uma face central é simulada
	Regions []domain.FaceRegion
}

// NewDetector cria um detector que simula uma face no centro do frame
func NewDetector() *Detector {
	return &Detector{}
}

// Detect devolve as regiões configuradas, descartando as que saem do frame
func (d *Detector) Detect(ctx context.Context, gray *image.Gray) ([]domain.FaceRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := gray.Bounds()
	if d.Regions == nil {
		return []domain.FaceRegion{centerRegion(bounds)}, nil
	}

	regions := make([]domain.FaceRegion, 0, len(d.Regions))
	for _, r := range d.Regions {
		if r.Within(bounds) {
			regions = append(regions, r)
		}
	}
	return regions, nil
}

// centerRegion simula uma face quadrada ocupando metade do menor lado
func centerRegion(bounds image.Rectangle) domain.FaceRegion {
	side := min(bounds.Dx(), bounds.Dy()) / 2
	if side < 1 {
		side = 1
	}
	return domain.FaceRegion{
		X: bounds.Min.X + (bounds.Dx()-side)/2,
		Y: bounds.Min.Y + (bounds.Dy()-side)/2,
		W: side,
		H: side,
	}
}

// Classifier implementa provider.Classifier para testes e desenvolvimento
type Classifier struct {
	// Scores fixos; quando nil, o vetor é derivado do hash do tensor
	Scores []float32
}

// NewClassifier cria um classificador determinístico
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Predict devolve pontuações determinísticas para o mesmo tensor
func (c *Classifier) Predict(ctx context.Context, input frame.Tensor) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.Scores != nil {
		out := make([]float32, len(c.Scores))
		copy(out, c.Scores)
		return out, nil
	}
	return generateScores(input), nil
}

// generateScores gera distribuição determinística baseada no hash do tensor
func generateScores(input frame.Tensor) []float32 {
	buf := make([]byte, 4*len(input.Data))
	for i, v := range input.Data {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	hash := sha256.Sum256(buf)

	scores := make([]float32, domain.EmotionCount)
	var sum float32
	for i := range scores {
		scores[i] = float32(hash[i]) + 1
		sum += scores[i]
	}
	for i := range scores {
		scores[i] /= sum
	}
	return scores
}

var (
	_ provider.Detector   = (*Detector)(nil)
	_ provider.Classifier = (*Classifier)(nil)
)

package provider

import (
	"context"
	"image"

	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
	"github.com/saturnino-fabrica-de-software/emotune/internal/frame"
)

// Detector define a interface para detectores de faces
type Detector interface {
	// Detect localiza faces na imagem em tons de cinza
	// Retorna regiões em pixels, contidas no frame, na ordem do detector
	// Nenhuma face não é erro: retorna slice vazio
	Detect(ctx context.Context, gray *image.Gray) ([]domain.FaceRegion, error)
}

// Classifier define a interface para modelos de expressão facial
type Classifier interface {
	// Predict recebe o tensor [1,48,48,1] e devolve um vetor de pontuações
	// O vetor deve ter domain.EmotionCount posições, na ordem da taxonomia
	Predict(ctx context.Context, input frame.Tensor) ([]float32, error)
}

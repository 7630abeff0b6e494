//go:build !gocv

package opencv

import (
	"context"
	"image"

	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
	"github.com/saturnino-fabrica-de-software/emotune/internal/provider"
)

// Detector is a placeholder that always fails in builds without OpenCV.
type Detector struct{}

func New(cfg Config) (*Detector, error) {
	return nil, ErrUnavailable
}

func (d *Detector) Detect(ctx context.Context, gray *image.Gray) ([]domain.FaceRegion, error) {
	return nil, ErrUnavailable
}

func (d *Detector) Close() error {
	return nil
}

var _ provider.Detector = (*Detector)(nil)

//go:build gocv

package opencv

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
	"github.com/saturnino-fabrica-de-software/emotune/internal/provider"
)

// Detector implements provider.Detector. CascadeClassifier is not safe for
// concurrent use, so calls are serialized.
type Detector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
	config     Config
}

func New(cfg Config) (*Detector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cfg.CascadePath) {
		_ = classifier.Close()
		return nil, fmt.Errorf("load cascade classifier from %s", cfg.CascadePath)
	}
	return &Detector{classifier: classifier, config: cfg}, nil
}

func (d *Detector) Detect(ctx context.Context, gray *image.Gray) ([]domain.FaceRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return nil, fmt.Errorf("convert frame to mat: %w", err)
	}
	defer mat.Close()

	d.mu.Lock()
	rects := d.classifier.DetectMultiScaleWithParams(
		mat,
		d.config.ScaleFactor,
		d.config.MinNeighbors,
		0,
		image.Pt(d.config.MinSize, d.config.MinSize),
		image.Pt(0, 0),
	)
	d.mu.Unlock()

	bounds := image.Rect(0, 0, gray.Bounds().Dx(), gray.Bounds().Dy())
	regions := make([]domain.FaceRegion, 0, len(rects))
	for _, r := range rects {
		clipped := r.Intersect(bounds)
		if clipped.Empty() {
			continue
		}
		regions = append(regions, domain.RegionFromRect(clipped))
	}
	return regions, nil
}

func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.Close()
}

var _ provider.Detector = (*Detector)(nil)

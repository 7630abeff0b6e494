// Package pigo detects faces with the pure-Go pixel intensity comparison
// cascade from github.com/esimov/pigo.
package pigo

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
	"github.com/saturnino-fabrica-de-software/emotune/internal/provider"
)

// minCascadeSize is the header length of a packed cascade: version, tree depth, tree count.
const minCascadeSize = 12

// ErrInvalidCascade is returned when the cascade file cannot be unpacked.
var ErrInvalidCascade = errors.New("invalid pigo cascade")

// Config holds cascade scan parameters.
type Config struct {
	MinSize          int
	MaxSize          int // 0 means the larger image side
	ShiftFactor      float64
	ScaleFactor      float64
	IoUThreshold     float64
	QualityThreshold float32
	Angle            float64 // 0.0 is 0 radians, 1.0 is 2*pi radians
}

// DefaultConfig returns parameters that work for webcam frames.
func DefaultConfig() Config {
	return Config{
		MinSize:          30,
		ShiftFactor:      0.1,
		ScaleFactor:      1.1,
		IoUThreshold:     0.2,
		QualityThreshold: 5,
	}
}

// Detector implements provider.Detector.
type Detector struct {
	classifier *pigo.Pigo
	config     Config
}

// New unpacks a facefinder cascade.
func New(cascade []byte, cfg Config) (*Detector, error) {
	if len(cascade) < minCascadeSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidCascade, len(cascade))
	}

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCascade, err)
	}

	return &Detector{classifier: classifier, config: cfg}, nil
}

// NewFromFile reads the cascade from disk.
func NewFromFile(path string, cfg Config) (*Detector, error) {
	cascade, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cascade %s: %w", path, err)
	}
	return New(cascade, cfg)
}

func (d *Detector) Detect(ctx context.Context, gray *image.Gray) ([]domain.FaceRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := gray.Bounds()
	cols, rows := bounds.Dx(), bounds.Dy()

	maxSize := d.config.MaxSize
	if maxSize <= 0 {
		maxSize = max(cols, rows)
	}

	params := pigo.CascadeParams{
		MinSize:     d.config.MinSize,
		MaxSize:     maxSize,
		ShiftFactor: d.config.ShiftFactor,
		ScaleFactor: d.config.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: packPixels(gray),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, d.config.Angle)
	dets = d.classifier.ClusterDetections(dets, d.config.IoUThreshold)

	return toRegions(dets, d.config.QualityThreshold, image.Rect(0, 0, cols, rows)), nil
}

// packPixels returns the luminance plane as a contiguous rows*cols slice.
func packPixels(gray *image.Gray) []uint8 {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if gray.Stride == w && b.Min == image.Pt(0, 0) {
		return gray.Pix[:w*h]
	}

	pixels := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		off := gray.PixOffset(b.Min.X, b.Min.Y+y)
		copy(pixels[y*w:(y+1)*w], gray.Pix[off:off+w])
	}
	return pixels
}

// toRegions converts center/scale detections into clipped pixel rectangles,
// keeping the cascade's order.
func toRegions(dets []pigo.Detection, minQuality float32, bounds image.Rectangle) []domain.FaceRegion {
	regions := make([]domain.FaceRegion, 0, len(dets))
	for _, det := range dets {
		if det.Q < minQuality {
			continue
		}
		half := det.Scale / 2
		rect := image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half).Intersect(bounds)
		if rect.Empty() {
			continue
		}
		regions = append(regions, domain.RegionFromRect(rect))
	}
	return regions
}

var _ provider.Detector = (*Detector)(nil)

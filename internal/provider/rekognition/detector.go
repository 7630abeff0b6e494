package rekognition

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
	"github.com/saturnino-fabrica-de-software/emotune/internal/provider"
)

// Rekognition rejects inline image bytes above 5MB
const maxImageSize = 5 * 1024 * 1024

var pngEncoder = png.Encoder{CompressionLevel: png.BestSpeed}

// Detector implements provider.Detector using AWS Rekognition DetectFaces
type Detector struct {
	api    DetectFacesAPI
	config Config
}

// NewDetector creates a detector backed by a real Rekognition client
func NewDetector(ctx context.Context, cfg Config) (*Detector, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewDetectorWithAPI(client, cfg), nil
}

// NewDetectorWithAPI creates a detector over any DetectFaces implementation
func NewDetectorWithAPI(api DetectFacesAPI, cfg Config) *Detector {
	return &Detector{api: api, config: cfg}
}

// Detect sends the grayscale frame as PNG and converts ratio boxes to pixels
func (d *Detector) Detect(ctx context.Context, gray *image.Gray) ([]domain.FaceRegion, error) {
	var buf bytes.Buffer
	if err := pngEncoder.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	if buf.Len() > maxImageSize {
		return nil, fmt.Errorf("%w: %d bytes, maximum %d", ErrInvalidImage, buf.Len(), maxImageSize)
	}

	output, err := d.api.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image: &types.Image{
			Bytes: buf.Bytes(),
		},
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		return nil, mapAPIError(err)
	}

	b := gray.Bounds()
	return toRegions(output.FaceDetails, d.config.MinConfidence, b.Dx(), b.Dy()), nil
}

// toRegions keeps Rekognition's order and clips every box to the frame
func toRegions(details []types.FaceDetail, minConfidence float32, width, height int) []domain.FaceRegion {
	bounds := image.Rect(0, 0, width, height)
	regions := make([]domain.FaceRegion, 0, len(details))

	for _, detail := range details {
		box := detail.BoundingBox
		if box == nil || box.Left == nil || box.Top == nil || box.Width == nil || box.Height == nil {
			continue
		}
		if detail.Confidence != nil && *detail.Confidence < minConfidence {
			continue
		}

		x0 := int(math.Round(float64(*box.Left) * float64(width)))
		y0 := int(math.Round(float64(*box.Top) * float64(height)))
		x1 := int(math.Round(float64(*box.Left+*box.Width) * float64(width)))
		y1 := int(math.Round(float64(*box.Top+*box.Height) * float64(height)))

		rect := image.Rect(x0, y0, x1, y1).Intersect(bounds)
		if rect.Empty() {
			continue
		}
		regions = append(regions, domain.RegionFromRect(rect))
	}

	return regions
}

var _ provider.Detector = (*Detector)(nil)

package frame

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
)

// Classifier input geometry: one batch, 48x48 pixels, one channel.
const (
	InputHeight   = 48
	InputWidth    = 48
	InputChannels = 1
)

// Tensor is a row-major float32 buffer shaped [batch, height, width, channels].
type Tensor struct {
	Shape [4]int
	Data  []float32
}

// At returns the value at row y, column x of the single-channel first batch.
func (t Tensor) At(y, x int) float32 {
	return t.Data[y*t.Shape[2]+x]
}

// Batch returns the tensor as nested slices, the layout JSON model servers expect.
func (t Tensor) Batch() [][][][]float32 {
	batch := make([][][][]float32, t.Shape[0])
	idx := 0
	for b := range batch {
		rows := make([][][]float32, t.Shape[1])
		for y := range rows {
			cols := make([][]float32, t.Shape[2])
			for x := range cols {
				ch := make([]float32, t.Shape[3])
				for c := range ch {
					ch[c] = t.Data[idx]
					idx++
				}
				cols[x] = ch
			}
			rows[y] = cols
		}
		batch[b] = rows
	}
	return batch
}

// Image renders the tensor back to 8-bit grayscale.
func (t Tensor) Image() *image.Gray {
	h, w := t.Shape[1], t.Shape[2]
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := math.Round(float64(t.At(y, x)) * 255)
			img.SetGray(x, y, color.Gray{Y: uint8(math.Max(0, math.Min(255, v)))})
		}
	}
	return img
}

// Normalize crops region from gray, resizes it to 48x48 and scales pixels to [0,1].
// The region must be non-empty and lie entirely inside the image.
func Normalize(gray *image.Gray, region domain.FaceRegion) (Tensor, error) {
	if gray == nil {
		return Tensor{}, domain.ErrInvalidRegion.WithError(fmt.Errorf("nil image"))
	}
	if !region.Within(gray.Bounds()) {
		return Tensor{}, domain.ErrInvalidRegion.WithError(
			fmt.Errorf("region %+v outside bounds %v", region, gray.Bounds()))
	}

	crop := imaging.Crop(gray, region.Rect())
	resized := imaging.Resize(crop, InputWidth, InputHeight, imaging.Linear)

	data := make([]float32, InputHeight*InputWidth*InputChannels)
	for y := 0; y < InputHeight; y++ {
		row := resized.Pix[y*resized.Stride:]
		for x := 0; x < InputWidth; x++ {
			// R, G and B are equal for a grayscale source.
			data[y*InputWidth+x] = float32(row[x*4]) / 255
		}
	}

	return Tensor{
		Shape: [4]int{1, InputHeight, InputWidth, InputChannels},
		Data:  data,
	}, nil
}

// Package frame turns client-submitted encoded images into pixel grids and
// classifier-ready tensors.
package frame

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
)

const dataURLPrefix = "data:"

// DefaultMaxPixels bounds the canvas a frame header may declare before any
// pixel buffer is allocated.
const DefaultMaxPixels = 4096 * 4096

// Frame is a decoded image together with the raw bytes it came from.
type Frame struct {
	Image    image.Image
	Format   string
	MIMEType string
	Raw      []byte
}

// Bounds returns the pixel rectangle of the frame.
func (f *Frame) Bounds() image.Rectangle {
	return f.Image.Bounds()
}

// Gray converts the frame to a single-channel luminance image anchored at (0,0).
func (f *Frame) Gray() *image.Gray {
	return ToGray(f.Image)
}

// ToGray converts any image to an *image.Gray whose bounds start at the origin.
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok && b.Min == image.Pt(0, 0) {
		return g
	}
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// DecodePayload strips an optional data-URL header and base64-decodes the rest.
// Standard alphabet is accepted with correct padding or with none at all. An
// empty payload decodes to an empty slice.
func DecodePayload(encoded string) ([]byte, error) {
	payload := strings.TrimSpace(encoded)
	if strings.HasPrefix(payload, dataURLPrefix) {
		_, rest, found := strings.Cut(payload, ",")
		if !found {
			return nil, domain.ErrMalformedEncoding.WithError(errors.New("data URL without payload"))
		}
		payload = rest
	}

	payload = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, payload)

	enc := base64.RawStdEncoding
	if strings.HasSuffix(payload, "=") {
		enc = base64.StdEncoding
	}
	raw, err := enc.DecodeString(payload)
	if err != nil {
		return nil, domain.ErrMalformedEncoding.WithError(err)
	}
	return raw, nil
}

type decodeOptions struct {
	maxPixels int
}

// DecodeOption tunes Decode and DecodeBytes.
type DecodeOption func(*decodeOptions)

// WithMaxPixels overrides DefaultMaxPixels. Values <= 0 keep the default.
func WithMaxPixels(n int) DecodeOption {
	return func(o *decodeOptions) {
		if n > 0 {
			o.maxPixels = n
		}
	}
}

// Decode parses an encoded client frame into an image.
func Decode(encoded string, opts ...DecodeOption) (*Frame, error) {
	raw, err := DecodePayload(encoded)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(raw, opts...)
}

// DecodeBytes parses raw image bytes, rejecting anything that does not sniff
// as an image or whose header declares more pixels than allowed.
func DecodeBytes(raw []byte, opts ...DecodeOption) (*Frame, error) {
	o := decodeOptions{maxPixels: DefaultMaxPixels}
	for _, opt := range opts {
		opt(&o)
	}

	mtype := mimetype.Detect(raw)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, domain.ErrUnsupportedImageFormat.WithError(fmt.Errorf("detected %s", mtype.String()))
	}

	header, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, domain.ErrUnsupportedImageFormat.WithError(fmt.Errorf("decode %s header: %w", mtype.String(), err))
	}
	if pixels := int64(header.Width) * int64(header.Height); pixels > int64(o.maxPixels) {
		return nil, domain.ErrUnsupportedImageFormat.WithError(
			fmt.Errorf("frame %dx%d exceeds %d pixels", header.Width, header.Height, o.maxPixels))
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, domain.ErrUnsupportedImageFormat.WithError(fmt.Errorf("decode %s: %w", mtype.String(), err))
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, domain.ErrUnsupportedImageFormat.WithError(errors.New("image has no pixels"))
	}

	return &Frame{
		Image:    img,
		Format:   format,
		MIMEType: mtype.String(),
		Raw:      raw,
	}, nil
}

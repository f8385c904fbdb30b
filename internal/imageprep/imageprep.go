/*
Package imageprep shrinks meal photos before they are sent to the AI
service.
*/
package imageprep

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	MaxDimension = 1024
	JPEGQuality  = 85
)

// Image is an encoded image and its MIME type.
type Image struct {
	Data     []byte
	MimeType string
}

// Prepare fits the image inside MaxDimension x MaxDimension without
// enlarging it and re-encodes it as JPEG. When the bytes cannot be decoded
// or encoded, the original is returned unchanged.
func Prepare(data []byte, mimeType string) Image {
	out, err := Resize(data, MaxDimension)
	if err != nil {
		log.Warn().Err(err).Int("size", len(data)).Msg("Could not compress image, using original")
		return Image{Data: data, MimeType: mimeType}
	}
	log.Info().Int("original_size", len(data)).Int("new_size", len(out)).Msg("Image compressed")
	return Image{Data: out, MimeType: "image/jpeg"}
}

// Resize decodes data, scales it to fit within maxDim on both sides and
// encodes the result as JPEG.
func Resize(data []byte, maxDim int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	w, h := fitInside(b.Dx(), b.Dy(), maxDim)

	var img image.Image = src
	if w != b.Dx() || h != b.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// fitInside keeps the aspect ratio and never enlarges.
func fitInside(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	if w >= h {
		return maxDim, max(1, h*maxDim/w)
	}
	return max(1, w*maxDim/h), maxDim
}

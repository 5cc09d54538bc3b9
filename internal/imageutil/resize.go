// Package imageutil prepares receipt images for vision extraction.
package imageutil

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// DefaultMaxDimension bounds the longer image edge before OCR upload. Vision
// models do not need more resolution than this to read a receipt, and smaller
// payloads keep request latency down.
const DefaultMaxDimension = 1024

const jpegQuality = 85

// Downscale shrinks an image so neither dimension exceeds maxDim, preserving
// aspect ratio, and re-encodes it as JPEG. Images already within bounds are
// returned unchanged.
func Downscale(imageData []byte, maxDim int) ([]byte, string, error) {
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}

	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxDim && height <= maxDim {
		return imageData, "image/" + format, nil
	}

	newWidth, newHeight := maxDim, maxDim
	if width > height {
		newHeight = height * maxDim / width
	} else {
		newWidth = width * maxDim / height
	}

	scaled := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("failed to encode resized image: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

package pipeline

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/twmb/murmur3"

	// Register the webp decoder with the image package
	_ "golang.org/x/image/webp"
)

// Decode decodes raw image bytes, applying the EXIF orientation
// Images larger than maxSize in either dimension are scaled down to fit, unless maxSize is 0
func Decode(data []byte, maxSize int) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("error decoding image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("error decoding image: empty image")
	}

	if maxSize > 0 && (bounds.Dx() > maxSize || bounds.Dy() > maxSize) {
		img = imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)
	}

	return img, nil
}

// Digest returns a content hash of raw image bytes
func Digest(data []byte) string {
	h1, h2 := murmur3.Sum128(data)
	return fmt.Sprintf("%016x%016x", h1, h2)
}

package pipeline

import (
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
)

// Format is an output image format
type Format string

// Output formats
const (
	JPEG Format = "jpeg"
	PNG  Format = "png"
)

// ParseFormat parses a format name or file extension
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "jpg", "jpeg":
		return JPEG, nil
	case "png":
		return PNG, nil
	}

	return "", fmt.Errorf("unsupported format %q", s)
}

// ContentType returns the mime type of the format
func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}

	return "image/jpeg"
}

// Extension returns the file extension of the format, including the dot
func (f Format) Extension() string {
	if f == PNG {
		return ".png"
	}

	return ".jpg"
}

func (f Format) imaging() imaging.Format {
	if f == PNG {
		return imaging.PNG
	}

	return imaging.JPEG
}

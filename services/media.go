package services

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// MediaProcessor decodes uploaded images and renders thumbnails
type MediaProcessor struct {
	ThumbWidth  int
	ThumbHeight int
	Quality     int
}

// ProcessedImage is the result of MediaProcessor.Process
type ProcessedImage struct {
	Width     int
	Height    int
	Thumbnail []byte // JPEG
}

// NewMediaProcessor creates a processor producing 320x240 bounded thumbnails
func NewMediaProcessor() *MediaProcessor {
	return &MediaProcessor{
		ThumbWidth:  320,
		ThumbHeight: 240,
		Quality:     80,
	}
}

// Process decodes data and returns its dimensions plus a thumbnail that fits
// inside the configured box
func (m *MediaProcessor) Process(data []byte) (*ProcessedImage, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	thumb := imaging.Fit(img, m.ThumbWidth, m.ThumbHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(m.Quality)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return &ProcessedImage{
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		Thumbnail: buf.Bytes(),
	}, nil
}

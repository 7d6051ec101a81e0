package screen

import (
	"context"
	"image"

	"github.com/kbinani/screenshot"
)

// screenshotBackend grabs pixels directly from the display server.
type screenshotBackend struct{}

func (screenshotBackend) captureRaw(_ context.Context, rect image.Rectangle) (*image.RGBA, error) {
	img, err := screenshot.CaptureRect(rect)
	if err != nil {
		return nil, err
	}
	// Normalize to a zero origin like the tool backend.
	if img.Rect.Min != (image.Point{}) {
		img.Rect = img.Rect.Sub(img.Rect.Min)
	}
	return img, nil
}

func (screenshotBackend) cleanup() {}

func displaysAvailable() bool {
	return screenshot.NumActiveDisplays() > 0
}

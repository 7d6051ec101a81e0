// Package screen captures rectangular regions of the primary display.
package screen

import (
	"context"
	"image"
	"os"

	apperrors "github.com/GriffinCanCode/alertwatch/internal/errors"
)

// Capturer captures a screen region as RGBA pixels.
type Capturer interface {
	CaptureRegion(ctx context.Context, rect image.Rectangle) (*image.RGBA, error)
	Close()
}

// backend implements the actual grab.
type backend interface {
	captureRaw(ctx context.Context, rect image.Rectangle) (*image.RGBA, error)
	cleanup()
}

// baseCapturer enforces the caller's deadline and maps failures to error codes.
type baseCapturer struct {
	backend
	name    string
	tempDir string
}

func newBase(b backend, name, tempDir string) *baseCapturer {
	return &baseCapturer{backend: b, name: name, tempDir: tempDir}
}

type captureResult struct {
	img *image.RGBA
	err error
}

// CaptureRegion grabs rect. The backend runs in its own goroutine; if ctx ends
// first the call returns and the late result is discarded.
func (c *baseCapturer) CaptureRegion(ctx context.Context, rect image.Rectangle) (*image.RGBA, error) {
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return nil, apperrors.Newf(apperrors.InvalidArgument, "capture region %v has no area", rect)
	}
	if err := ctx.Err(); err != nil {
		return nil, ctxError(err, rect)
	}

	done := make(chan captureResult, 1)
	go func() {
		img, err := c.captureRaw(ctx, rect)
		done <- captureResult{img, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctxError(ctx.Err(), rect)
	case r := <-done:
		if r.err != nil {
			var ae *apperrors.AppError
			if apperrors.As(r.err, &ae) {
				return nil, ae
			}
			return nil, apperrors.Wrapf(r.err, apperrors.CaptureFailed, "%s capture", c.name).
				WithMetadata("region", rect.String())
		}
		return r.img, nil
	}
}

func ctxError(err error, rect image.Rectangle) error {
	if apperrors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(err, apperrors.CaptureTimeout, "capture timed out").WithMetadata("region", rect.String())
	}
	return apperrors.Wrap(err, apperrors.Cancelled, "capture cancelled")
}

func (c *baseCapturer) Close() {
	c.cleanup()
	if c.tempDir != "" {
		os.RemoveAll(c.tempDir)
	}
}

// Name returns the backend name.
func (c *baseCapturer) Name() string { return c.name }

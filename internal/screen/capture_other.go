//go:build !darwin && !linux && !windows

package screen

import (
	"image"

	apperrors "github.com/GriffinCanCode/alertwatch/internal/errors"
)

func toolCommand(image.Rectangle, string) ([]string, bool, error) {
	return nil, false, apperrors.New(apperrors.CaptureFailed, "tool capture backend is not supported on this platform")
}

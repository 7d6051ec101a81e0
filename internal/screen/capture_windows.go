//go:build windows

package screen

import (
	"image"

	apperrors "github.com/GriffinCanCode/alertwatch/internal/errors"
)

// Windows has no stock screenshot command; use the screenshot backend.
func toolCommand(image.Rectangle, string) ([]string, bool, error) {
	return nil, false, apperrors.New(apperrors.CaptureFailed, "tool capture backend is not supported on windows")
}

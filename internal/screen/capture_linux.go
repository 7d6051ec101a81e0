//go:build linux

package screen

import (
	"image"
	"os/exec"

	apperrors "github.com/GriffinCanCode/alertwatch/internal/errors"
)

// Neither tool crops reliably, so the full screen is grabbed and cropped after decoding.
func toolCommand(_ image.Rectangle, file string) ([]string, bool, error) {
	if _, err := exec.LookPath("gnome-screenshot"); err == nil {
		return []string{"gnome-screenshot", "-f", file}, true, nil
	}
	if _, err := exec.LookPath("scrot"); err == nil {
		return []string{"scrot", "-o", file}, true, nil
	}
	return nil, false, apperrors.New(apperrors.CaptureFailed, "no screenshot tool found (install gnome-screenshot or scrot)")
}

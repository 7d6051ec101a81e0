//go:build darwin

package screen

import (
	"fmt"
	"image"
)

// screencapture grabs the region itself; -x silences the shutter sound.
func toolCommand(rect image.Rectangle, file string) ([]string, bool, error) {
	region := fmt.Sprintf("%d,%d,%d,%d", rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy())
	return []string{"screencapture", "-x", "-t", "png", "-R", region, file}, false, nil
}

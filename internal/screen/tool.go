package screen

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
)

// toolBackend shells out to the platform screenshot command and decodes the file.
type toolBackend struct {
	tempDir string
}

func (t *toolBackend) captureRaw(ctx context.Context, rect image.Rectangle) (*image.RGBA, error) {
	tmpFile := filepath.Join(t.tempDir, fmt.Sprintf("region-%d-%d-%d-%d.png", rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy()))
	args, fullScreen, err := toolCommand(rect, tmpFile)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", args[0], err, stderr.String())
	}
	defer os.Remove(tmpFile)

	data, err := os.ReadFile(tmpFile)
	if err != nil {
		return nil, fmt.Errorf("read screenshot: %w", err)
	}
	if fullScreen {
		return decodeRegion(data, rect)
	}
	return decodeScaled(data, rect.Dx(), rect.Dy())
}

func (t *toolBackend) cleanup() {}

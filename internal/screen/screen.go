package screen

import (
	"fmt"
	"log/slog"
	"os"
)

// Backend names accepted by New.
const (
	BackendAuto       = "auto"
	BackendScreenshot = "screenshot"
	BackendTool       = "tool"
)

// New creates a capturer for the named backend. "auto" prefers direct
// display access and falls back to the platform screenshot command.
func New(kind string) (Capturer, error) {
	switch kind {
	case BackendScreenshot:
		return newBase(screenshotBackend{}, BackendScreenshot, ""), nil
	case BackendTool:
		return newTool(), nil
	case BackendAuto, "":
		if displaysAvailable() {
			return newBase(screenshotBackend{}, BackendScreenshot, ""), nil
		}
		slog.Warn("No active display found, using screenshot tool backend")
		return newTool(), nil
	}
	return nil, fmt.Errorf("unknown capture backend %q", kind)
}

func newTool() Capturer {
	tmpDir, err := os.MkdirTemp("", "alertwatch-screen-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		tmpDir = os.TempDir()
		return newBase(&toolBackend{tempDir: tmpDir}, BackendTool, "")
	}
	return newBase(&toolBackend{tempDir: tmpDir}, BackendTool, tmpDir)
}

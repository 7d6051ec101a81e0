package metrics

import apperrors "github.com/GriffinCanCode/alertwatch/internal/errors"

// CaptureResult maps a capture error to its metric label.
func CaptureResult(err error) string {
	switch apperrors.CodeOf(err) {
	case apperrors.Unknown:
		if err == nil {
			return "ok"
		}
		return "error"
	case apperrors.CaptureTimeout:
		return "timeout"
	case apperrors.Cancelled:
		return "cancelled"
	default:
		return "error"
	}
}

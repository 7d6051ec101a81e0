// Package errors provides the monitor's error taxonomy.
// Capture, decode and configuration failures are recovered per area and tick;
// the codes let callers log, count and translate them uniformly.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Code classifies an AppError.
type Code int

const (
	Unknown Code = iota
	Internal
	InvalidArgument
	NotFound
	Unavailable
	Timeout
	Cancelled
	CaptureFailed
	CaptureTimeout
	DecodeFailed
	ConfigInvalid
	ConfigMissing
	AudioFailed
	NotifyFailed
)

var codeNames = map[Code]string{
	Unknown:         "UNKNOWN",
	Internal:        "INTERNAL",
	InvalidArgument: "INVALID_ARGUMENT",
	NotFound:        "NOT_FOUND",
	Unavailable:     "UNAVAILABLE",
	Timeout:         "TIMEOUT",
	Cancelled:       "CANCELLED",
	CaptureFailed:   "CAPTURE_FAILED",
	CaptureTimeout:  "CAPTURE_TIMEOUT",
	DecodeFailed:    "DECODE_FAILED",
	ConfigInvalid:   "CONFIG_INVALID",
	ConfigMissing:   "CONFIG_MISSING",
	AudioFailed:     "AUDIO_FAILED",
	NotifyFailed:    "NOTIFY_FAILED",
}

func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("CODE_%d", int(c))
}

// grpcCodeMap maps Code to gRPC status codes.
var grpcCodeMap = map[Code]codes.Code{
	Unknown:         codes.Unknown,
	Internal:        codes.Internal,
	InvalidArgument: codes.InvalidArgument,
	NotFound:        codes.NotFound,
	Unavailable:     codes.Unavailable,
	Timeout:         codes.DeadlineExceeded,
	Cancelled:       codes.Canceled,
	CaptureFailed:   codes.Unavailable,
	CaptureTimeout:  codes.DeadlineExceeded,
	DecodeFailed:    codes.DataLoss,
	ConfigInvalid:   codes.InvalidArgument,
	ConfigMissing:   codes.FailedPrecondition,
	AudioFailed:     codes.Internal,
	NotifyFailed:    codes.Unavailable,
}

// AppError is the base error type with structured error code and metadata.
type AppError struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// GRPCCode returns the corresponding gRPC status code.
func (e *AppError) GRPCCode() codes.Code {
	if c, ok := grpcCodeMap[e.Code]; ok {
		return c
	}
	return codes.Unknown
}

// GRPCStatus returns a gRPC status with code and metadata attached as a
// structpb.Struct detail.
func (e *AppError) GRPCStatus() *status.Status {
	st := status.New(e.GRPCCode(), e.Error())
	fields := map[string]any{"code": e.Code.String(), "message": e.Message}
	for k, v := range e.Metadata {
		fields[k] = v
	}
	detail, err := structpb.NewStruct(fields)
	if err != nil {
		return st
	}
	if withDetail, err := st.WithDetails(detail); err == nil {
		return withDetail
	}
	return st
}

// HTTPStatus returns the HTTP status code for the error.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case InvalidArgument, ConfigInvalid:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Unavailable, CaptureFailed, NotifyFailed:
		return http.StatusServiceUnavailable
	case Timeout, CaptureTimeout:
		return http.StatusGatewayTimeout
	case ConfigMissing:
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new AppError with the given code and message.
func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code Code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code Code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// CodeOf returns the code of the first AppError in err's chain, or Unknown.
func CodeOf(err error) Code {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return Unknown
}

// IsCode checks if an error has a specific error code anywhere in its chain.
func IsCode(err error, code Code) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}

// IsRetryable returns true if the error is potentially retryable.
func IsRetryable(err error) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	switch appErr.Code {
	case Unavailable, Timeout, CaptureTimeout, NotifyFailed:
		return true
	default:
		return false
	}
}

// As is errors.As, re-exported so callers importing this package need not alias the standard one.
func As(err error, target any) bool { return stderrors.As(err, target) }

// Is is errors.Is.
func Is(err, target error) bool { return stderrors.Is(err, target) }

package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestAppErrorMessage(t *testing.T) {
	err := Wrap(context.DeadlineExceeded, CaptureTimeout, "capture timed out").WithMetadata("area", "1-2-3-4")

	want := "[CAPTURE_TIMEOUT] capture timed out map[area:1-2-3-4] caused by: context deadline exceeded"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !Is(err, context.DeadlineExceeded) {
		t.Error("Unwrap should expose the cause")
	}
}

func TestIsCodeThroughWrapping(t *testing.T) {
	inner := New(DecodeFailed, "bad png")
	wrapped := fmt.Errorf("area 1-1-1-1: %w", inner)

	if !IsCode(wrapped, DecodeFailed) {
		t.Error("IsCode should find code through fmt wrapping")
	}
	if IsCode(wrapped, CaptureFailed) {
		t.Error("IsCode should not match other codes")
	}
	if CodeOf(wrapped) != DecodeFailed {
		t.Errorf("CodeOf = %v, want DECODE_FAILED", CodeOf(wrapped))
	}
	if CodeOf(fmt.Errorf("plain")) != Unknown {
		t.Error("CodeOf plain error should be UNKNOWN")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{New(Unavailable, ""), true},
		{New(NotifyFailed, ""), true},
		{New(CaptureTimeout, ""), true},
		{New(ConfigInvalid, ""), false},
		{fmt.Errorf("plain"), false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestGRPCStatus(t *testing.T) {
	err := New(CaptureFailed, "no display").WithMetadata("backend", "screenshot")

	if err.GRPCCode() != codes.Unavailable {
		t.Errorf("GRPCCode() = %v, want Unavailable", err.GRPCCode())
	}

	st := err.GRPCStatus()
	if st.Code() != codes.Unavailable {
		t.Errorf("status code = %v, want Unavailable", st.Code())
	}
	details := st.Details()
	if len(details) != 1 {
		t.Fatalf("len(details) = %d, want 1", len(details))
	}
	s, ok := details[0].(*structpb.Struct)
	if !ok {
		t.Fatalf("detail type = %T, want *structpb.Struct", details[0])
	}
	if got := s.Fields["backend"].GetStringValue(); got != "screenshot" {
		t.Errorf("backend = %q, want %q", got, "screenshot")
	}
	if got := s.Fields["code"].GetStringValue(); got != "CAPTURE_FAILED" {
		t.Errorf("code = %q, want CAPTURE_FAILED", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{InvalidArgument, http.StatusBadRequest},
		{ConfigInvalid, http.StatusBadRequest},
		{NotFound, http.StatusNotFound},
		{CaptureTimeout, http.StatusGatewayTimeout},
		{Internal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := New(tt.code, "").HTTPStatus(); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestCodeString(t *testing.T) {
	if ConfigInvalid.String() != "CONFIG_INVALID" {
		t.Errorf("String() = %q", ConfigInvalid.String())
	}
	if Code(99).String() != "CODE_99" {
		t.Errorf("String() = %q", Code(99).String())
	}
}

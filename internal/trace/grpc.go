package trace

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	apperrors "github.com/GriffinCanCode/alertwatch/internal/errors"
)

// UnaryServerInterceptor continues the caller's trace from incoming metadata,
// logs each call at debug level and converts application errors to gRPC
// statuses carrying their code as a detail.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = WithContext(ctx, FromMap(incoming(ctx)))
		resp, err := handler(ctx, req)
		Logger(ctx).Debug("grpc call", "method", info.FullMethod, "error", err)
		var appErr *apperrors.AppError
		if apperrors.As(err, &appErr) {
			return resp, appErr.GRPCStatus().Err()
		}
		return resp, err
	}
}

func incoming(ctx context.Context) map[string]string {
	m := make(map[string]string, 2)
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return m
	}
	for _, k := range []string{TraceIDKey, SpanIDKey} {
		if v := md.Get(k); len(v) > 0 {
			m[k] = v[0]
		}
	}
	return m
}

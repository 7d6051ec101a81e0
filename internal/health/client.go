package health

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"

	apperrors "github.com/GriffinCanCode/alertwatch/internal/errors"
	"github.com/GriffinCanCode/alertwatch/internal/trace"
)

// Client probes a health server.
type Client struct {
	conn   *grpc.ClientConn
	health healthpb.HealthClient
}

// Dial creates a client for addr. Extra options are appended to the defaults.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:    DefaultKeepaliveTime,
			Timeout: DefaultKeepaliveTimeout,
		}),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.InvalidArgument, "dial %s", addr)
	}
	return &Client{conn: conn, health: healthpb.NewHealthClient(conn)}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Check reports whether service is SERVING. The trace context of ctx is
// propagated as request metadata.
func (c *Client) Check(ctx context.Context, service string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, CheckTimeout)
	defer cancel()
	if tc, ok := trace.FromContext(ctx); ok {
		ctx = metadata.NewOutgoingContext(ctx, metadata.New(tc.ToMap()))
	}

	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return false, apperrors.Wrapf(err, apperrors.Unavailable, "health check %q", service)
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING, nil
}

// Package health exposes the monitor's serving state over the gRPC health protocol.
package health

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	apperrors "github.com/GriffinCanCode/alertwatch/internal/errors"
	"github.com/GriffinCanCode/alertwatch/internal/trace"
)

// Server is a gRPC server carrying only the health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
}

// NewServer creates a server reporting NOT_SERVING until SetServing is called.
func NewServer() *Server {
	s := &Server{
		grpc:   grpc.NewServer(grpc.UnaryInterceptor(trace.UnaryServerInterceptor())),
		health: health.NewServer(),
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)
	s.SetServing(false)
	return s
}

// SetServing updates the monitor status and the overall server status.
func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, st)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
}

// Serve accepts connections on lis until ctx is done.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	if err := s.grpc.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return apperrors.Wrap(err, apperrors.Unavailable, "grpc serve")
	}
	return nil
}

// ListenAndServe listens on addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.Unavailable, "listen %s", addr)
	}
	trace.Logger(ctx).Info("health server starting", "addr", lis.Addr().String())
	return s.Serve(ctx, lis)
}

// Stop marks everything NOT_SERVING and stops the server gracefully.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

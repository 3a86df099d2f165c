package grpcx

import (
	"context"
	"log/slog"
	"net"

	"github.com/questroom/progress-service/internal/postgres"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// Server exposes the service's health over gRPC so orchestrators can probe
// readiness without going through the HTTP stack.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	db     *postgres.DB
}

func NewServer(db *postgres.DB) *Server {
	gs := grpc.NewServer(
		grpc.UnaryInterceptor(UnaryServerInterceptor()),
		grpc.StreamInterceptor(StreamServerInterceptor()),
	)

	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(gs, hs)

	return &Server{grpc: gs, health: hs, db: db}
}

// Serve blocks on the listener until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	return s.grpc.Serve(lis)
}

// CheckReadiness pings the database and flips the health status accordingly.
func (s *Server) CheckReadiness(ctx context.Context) {
	status := grpc_health_v1.HealthCheckResponse_SERVING
	if err := s.db.Pool.Ping(ctx); err != nil {
		slog.Warn("readiness ping failed", "err", err)
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
}

func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

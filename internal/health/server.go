// Package health serves the grpc.health.v1 protocol so container
// orchestrators can check that the storefront is up.
package health

import (
	"log/slog"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jcmexdev/storefront-cart/internal/pkg/interceptors"
)

type Server struct {
	grpc    *grpc.Server
	health  *health.Server
	service string
}

// NewServer builds a gRPC server reporting SERVING for the empty service
// name and for service.
func NewServer(service string) *Server {
	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(interceptors.UnaryServerInterceptor()),
	)
	h := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, h)

	srv := &Server{grpc: s, health: h, service: service}
	srv.SetServing(true)
	return srv
}

func (s *Server) SetServing(ok bool) {
	status := grpc_health_v1.HealthCheckResponse_SERVING
	if !ok {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.service, status)
}

// Serve blocks until lis fails or Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	slog.Info("health gRPC running", "addr", lis.Addr().String())
	return s.grpc.Serve(lis)
}

// Stop flips every service to NOT_SERVING and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

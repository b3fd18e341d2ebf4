package grpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"warehub-backend/internal/api/grpc/interceptor"
	"warehub-backend/internal/logger"
)

// ServiceName is the health service name reported alongside the overall "" status.
const ServiceName = "warehub.Backend"

// HealthServer exposes grpc_health_v1 and reflection. Status follows a readiness probe.
type HealthServer struct {
	server   *grpc.Server
	health   *health.Server
	probe    func(ctx context.Context) error
	interval time.Duration
}

func NewHealthServer(probe func(ctx context.Context) error, interval time.Duration) *HealthServer {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	s := grpc.NewServer(grpc.UnaryInterceptor(interceptor.Unary()))
	h := health.NewServer()
	healthpb.RegisterHealthServer(s, h)
	// Register reflection service for grpcurl
	reflection.Register(s)

	return &HealthServer{server: s, health: h, probe: probe, interval: interval}
}

// Check runs the probe once and publishes the result.
func (s *HealthServer) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING
	if s.probe != nil {
		if err := s.probe(ctx); err != nil {
			logger.Warn("Readiness probe failed", "error", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
	return st
}

// Watch re-probes on the configured interval until ctx is done.
func (s *HealthServer) Watch(ctx context.Context) {
	s.Check(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, s.interval)
			s.Check(probeCtx)
			cancel()
		}
	}
}

func (s *HealthServer) Serve(lis net.Listener) error {
	logger.Info("gRPC health server listening", "address", lis.Addr().String())
	return s.server.Serve(lis)
}

// Stop marks everything NOT_SERVING and drains in-flight calls.
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}

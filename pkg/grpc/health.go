// Package grpc exposes the standard gRPC health service for the API
// process. The serving status follows a readiness check, normally a ping of
// the relational store.
package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/example/shoppurs/pkg/config"
)

// ReadyFunc reports whether the process can serve requests.
type ReadyFunc func(ctx context.Context) error

type HealthServer struct {
	server   *grpc.Server
	health   *health.Server
	ready    ReadyFunc
	service  string
	interval time.Duration
	logger   *zap.Logger
	cfg      *config.GRPCConfig
}

func NewHealthServer(cfg *config.GRPCConfig, service string, ready ReadyFunc, logger *zap.Logger) *HealthServer {
	s := grpc.NewServer()
	h := health.NewServer()
	healthpb.RegisterHealthServer(s, h)
	reflection.Register(s)

	return &HealthServer{
		server:   s,
		health:   h,
		ready:    ready,
		service:  service,
		interval: 15 * time.Second,
		logger:   logger.Named("grpc"),
		cfg:      cfg,
	}
}

// Check runs the readiness check once and updates the serving status of both the
// named service and the overall server.
func (s *HealthServer) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.ready(ctx); err != nil {
		s.logger.Warn("Readiness check failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.service, status)
	return status
}

// Watch re-runs the readiness check until ctx is done.
func (s *HealthServer) Watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			s.Check(checkCtx)
			cancel()
		}
	}
}

func (s *HealthServer) Start() error {
	lis, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(lis)
}

func (s *HealthServer) Serve(lis net.Listener) error {
	s.logger.Info("gRPC health server starting", zap.String("address", lis.Addr().String()))
	return s.server.Serve(lis)
}

func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}

// Package server provides gRPC server lifecycle management.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/viant/gmetric"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/solatis/courier/internal/core/api"
	"github.com/solatis/courier/internal/core/auth"
	"github.com/solatis/courier/internal/core/config"
	pb "github.com/solatis/courier/internal/protobuf/courier/transfer/v1"
)

// PublicMethods skip API key authentication.
var PublicMethods = []string{
	grpc_health_v1.Health_Check_FullMethodName,
}

// GRPCServer manages gRPC server lifecycle and the optional metrics
// endpoint.
type GRPCServer struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
	metrics  *http.Server
	config   *config.TransferAPIConfig
	logger   *slog.Logger
}

// NewGRPCServer creates gRPC server with auth interceptor and service
// registration. metrics may be nil, in which case no HTTP endpoint is served
// even if configured.
func NewGRPCServer(cfg *config.TransferAPIConfig, service *api.TransferService, authenticator *auth.Authenticator, metrics *gmetric.Service, logger *slog.Logger) (*GRPCServer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if authenticator == nil {
		return nil, fmt.Errorf("authenticator cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			loggingInterceptor(logger),
			authenticator.UnaryInterceptor(PublicMethods...),
		),
		grpc.MaxConcurrentStreams(uint32(cfg.MaxConnections)),
	}

	server := grpc.NewServer(opts...)
	pb.RegisterTransferServer(server, service)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(pb.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	s := &GRPCServer{
		server: server,
		health: healthServer,
		config: cfg,
		logger: logger,
	}

	if metrics != nil && cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle(cfg.MetricsURI, gmetric.NewHandler(cfg.MetricsURI, metrics))
		s.metrics = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}
	return s, nil
}

// Serve serves gRPC requests on listener until Shutdown is called.
func (s *GRPCServer) Serve(listener net.Listener) error {
	s.listener = listener

	if s.metrics != nil {
		go func() {
			s.logger.Info("metrics endpoint listening",
				slog.String("addr", s.metrics.Addr),
				slog.String("uri", s.config.MetricsURI),
			)
			if err := s.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("metrics endpoint failed", slog.String("error", err.Error()))
			}
		}()
	}

	return s.server.Serve(listener)
}

// Start binds listener and serves gRPC requests.
// Context is provided for API consistency but Serve blocks until Shutdown is called.
func (s *GRPCServer) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	return s.Serve(listener)
}

// Shutdown gracefully stops server with 30-second timeout.
func (s *GRPCServer) Shutdown(ctx context.Context) error {
	s.health.Shutdown()
	if s.metrics != nil {
		_ = s.metrics.Shutdown(ctx)
	}

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return fmt.Errorf("shutdown cancelled by context: %w", ctx.Err())
	case <-time.After(30 * time.Second):
		s.server.Stop()
		return fmt.Errorf("graceful shutdown timeout, forced stop")
	}
}

func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		attrs := []any{
			slog.String("method", info.FullMethod),
			slog.Duration("elapsed", time.Since(start)),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
			logger.WarnContext(ctx, "request failed", attrs...)
		} else {
			logger.DebugContext(ctx, "request served", attrs...)
		}
		return resp, err
	}
}

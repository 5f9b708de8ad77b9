package grpc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health-check service name reported for the scheduling engine.
const ServiceName = "tarot.scheduling"

// Check reports whether a dependency can serve traffic.
type Check func(ctx context.Context) error

type Options struct {
	Logger         *slog.Logger
	RequestTimeout time.Duration
	// Checks feed the health status; an empty set reports SERVING.
	Checks     map[string]Check
	CheckEvery time.Duration
}

// Server is the operational gRPC surface: health, reflection and the shared interceptor chain.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	log    *slog.Logger

	checks     map[string]Check
	checkEvery time.Duration
}

func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "grpc"))

	gs := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			requestIDInterceptor(),
			loggingInterceptor(log),
			defaultRequestTimeoutInterceptor(opts.RequestTimeout),
		),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	every := opts.CheckEvery
	if every <= 0 {
		every = 10 * time.Second
	}
	return &Server{grpc: gs, health: hs, log: log, checks: opts.Checks, checkEvery: every}
}

// Serve runs the health watcher and blocks serving lis until Shutdown is called.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.refresh(ctx)
	go s.watch(ctx)
	err := s.grpc.Serve(lis)
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

func (s *Server) watch(ctx context.Context) {
	ticker := time.NewTicker(s.checkEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *Server) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.log.Warn("health check failed", slog.String("check", name), slog.Any("err", err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Shutdown marks the server NOT_SERVING and drains in-flight calls, forcing a stop after timeout.
func (s *Server) Shutdown(timeout time.Duration) {
	s.health.Shutdown()
	s.log.Info("shutting down grpc server", slog.Duration("timeout", timeout))

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		s.log.Info("grpc server stopped")
	case <-timer.C:
		s.log.Warn("grpc graceful shutdown timed out; forcing stop")
		s.grpc.Stop()
	}
}

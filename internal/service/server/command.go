package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	api "github.com/oshokin/olt-alarms/internal/api/grpc/simulator"
	"github.com/oshokin/olt-alarms/internal/config"
	"github.com/oshokin/olt-alarms/internal/logger"
	"github.com/oshokin/olt-alarms/internal/metrics"
)

// Options controls the olt-alarm-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress overrides the gRPC listen address from config.
	ListenAddress string
	// MetricsAddress overrides the metrics listen address from config.
	MetricsAddress string
	// RegistryFile overrides the device registry file from config.
	RegistryFile string
	// Suppression overrides the OLT LOS clear suppression flag when set.
	Suppression *bool
}

// metricsReadTimeout bounds reads on the metrics endpoint.
const metricsReadTimeout = 5 * time.Second

//nolint:gochecknoglobals // Interceptor histograms live in the default registry.
var enableHistogramOnce sync.Once

// Run starts the gRPC and metrics servers and blocks until ctx is canceled or serving fails.
//
//nolint:funlen // Sequential process wiring reads best in one place.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "olt-alarm-server")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	applyOverrides(settings, opts)
	configureLogging(settings.Logging)

	ctx = logger.WithKV(ctx, "device_id", settings.Device.ID)

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	svc, err := newService(ctx, settings)
	if err != nil {
		return fmt.Errorf("initialise service: %w", err)
	}

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", settings.Server.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", settings.Server.ListenAddress, err)
	}

	grpcServer := newGRPCServer(ctx, svc)

	var metricsServer *http.Server
	if settings.Server.MetricsAddress != "" {
		metricsServer = &http.Server{
			Addr:              settings.Server.MetricsAddress,
			Handler:           metricsHandler(),
			ReadHeaderTimeout: metricsReadTimeout,
		}

		go func() {
			logger.InfoKV(ctx, "Metrics server listening", "metrics_address", settings.Server.MetricsAddress)

			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.ErrorKV(ctx, "Metrics server exited", "error", err)
			}
		}()
	}

	logger.InfoKV(ctx, "Alarm manager listening",
		"listen_address", lis.Addr().String(),
		"suppress_olt_los_clear", svc.manager.SuppressionEnabled(),
	)

	// Done channel is closed after shutdown finishes to ensure we block
	// until the servers fully stop before returning.
	done := make(chan struct{})

	go func() {
		defer close(done)

		<-ctx.Done()
		logger.Info(ctx, "Shutting down alarm manager")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settings.Server.Timeout)
		defer cancel()

		// Ending the feed lets Watch streams return so GracefulStop can finish.
		svc.feed.Close()
		shutdown(shutdownCtx, grpcServer)

		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.WarnKV(ctx, "Metrics server shutdown", "error", err)
			}
		}
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "Alarm manager stopped")

	return nil
}

// newGRPCServer registers the indication and health services with Prometheus interceptors.
func newGRPCServer(ctx context.Context, svc *service) *grpc.Server {
	enableHistogramOnce.Do(func() {
		grpc_prometheus.EnableHandlingTimeHistogram()
	})

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpc_prometheus.UnaryServerInterceptor, contextLogger(ctx)),
		grpc.ChainStreamInterceptor(grpc_prometheus.StreamServerInterceptor, streamContextLogger(ctx)),
	)

	api.Register(grpcServer, api.NewServer(svc.manager, svc.feed))
	grpc_prometheus.Register(grpcServer)

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthSrv.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthSrv)

	return grpcServer
}

// contextLogger carries the process logger into unary handlers.
func contextLogger(base context.Context) grpc.UnaryServerInterceptor {
	l := logger.FromContext(base)

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = logger.ToContext(ctx, l.With("method", info.FullMethod))

		return handler(ctx, req)
	}
}

// streamContextLogger carries the process logger into stream handlers.
func streamContextLogger(base context.Context) grpc.StreamServerInterceptor {
	l := logger.FromContext(base)

	return func(srv any, stream grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := logger.ToContext(stream.Context(), l.With("method", info.FullMethod))

		return handler(srv, &loggedStream{ServerStream: stream, ctx: ctx})
	}
}

// loggedStream overrides the context of a server stream.
type loggedStream struct {
	grpc.ServerStream

	ctx context.Context //nolint:containedctx // Replaces the stream context.
}

func (s *loggedStream) Context() context.Context {
	return s.ctx
}

// shutdown stops gracefully, falling back to Stop when ctx expires.
func shutdown(ctx context.Context, grpcServer *grpc.Server) {
	stopped := make(chan struct{})

	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-ctx.Done():
		grpcServer.Stop()
		<-stopped
	case <-stopped:
	}
}

func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// applyOverrides lets command-line options win over file settings.
func applyOverrides(settings *config.Config, opts *Options) {
	if opts.ListenAddress != "" {
		settings.Server.ListenAddress = opts.ListenAddress
	}

	if opts.MetricsAddress != "" {
		settings.Server.MetricsAddress = opts.MetricsAddress
	}

	if opts.RegistryFile != "" {
		settings.Registry.File = opts.RegistryFile
	}

	if opts.Suppression != nil {
		enabled := *opts.Suppression
		settings.Suppression.OltLosClear = &enabled
	}
}

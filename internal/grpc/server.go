package grpc

import (
	"context"
	"net"
	"time"

	"github.com/Samrat740/sleep-apnea-screening/internal/domain"
	"github.com/Samrat740/sleep-apnea-screening/internal/metrics"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// InferenceServiceName имя, под которым в health-check отдаётся готовность сервиса инференса
const InferenceServiceName = "inference"

type UpstreamService interface {
	UpstreamState() domain.ServerState
}

// GRPCServer отдаёт стандартный grpc.health.v1 с метриками и логированием
type GRPCServer struct {
	healthpb.UnimplementedHealthServer
	server  *grpc.Server
	service UpstreamService
	logger  *zap.Logger
}

func NewGRPCServer(service UpstreamService, logger *zap.Logger) *GRPCServer {
	loggingInterceptor := logging.UnaryServerInterceptor(interceptorLogger(logger))
	metricsInterceptor := grpc_prometheus.UnaryServerInterceptor
	customMetricsInterceptor := unaryMetricsInterceptor()

	chain := grpc.ChainUnaryInterceptor(
		loggingInterceptor,
		metricsInterceptor,
		customMetricsInterceptor,
	)

	s := &GRPCServer{
		server:  grpc.NewServer(chain),
		service: service,
		logger:  logger,
	}

	healthpb.RegisterHealthServer(s.server, s)
	reflection.Register(s.server)

	grpc_prometheus.Register(s.server)
	grpc_prometheus.EnableHandlingTimeHistogram()

	return s
}

func (s *GRPCServer) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s.logger.Info("Starting gRPC server", zap.String("addr", addr))
	return s.server.Serve(lis)
}

func (s *GRPCServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down gRPC server")

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
		return ctx.Err()
	}
}

// Check: пустое имя - сам процесс, "inference" - удалённый классификатор
func (s *GRPCServer) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	switch req.GetService() {
	case "":
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
	case InferenceServiceName:
		if s.service.UpstreamState() == domain.ServerOnline {
			return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
		}
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	default:
		return nil, status.Errorf(codes.NotFound, "unknown service %q", req.GetService())
	}
}

// Custom metrics interceptor для детального отслеживания статусов и длительности с статусом
func unaryMetricsInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		var statusCode string
		if err != nil {
			if st, ok := status.FromError(err); ok {
				statusCode = st.Code().String()
			} else {
				statusCode = codes.Unknown.String()
			}
		} else {
			statusCode = codes.OK.String()
		}

		duration := time.Since(start).Seconds()

		metrics.GRPCRequests.WithLabelValues(info.FullMethod, statusCode).Inc()
		metrics.GRPCRequestDuration.WithLabelValues(info.FullMethod, statusCode).Observe(duration)

		return resp, err
	}
}

// Logger adapter для grpc middleware
func interceptorLogger(l *zap.Logger) logging.Logger {
	return logging.LoggerFunc(func(_ context.Context, lvl logging.Level, msg string, fields ...any) {
		f := make([]zap.Field, 0, len(fields)/2)
		for i := 0; i+1 < len(fields); i += 2 {
			key, ok := fields[i].(string)
			if !ok {
				continue
			}
			f = append(f, zap.Any(key, fields[i+1]))
		}
		logger := l.WithOptions(zap.AddCallerSkip(1)).With(f...)

		switch lvl {
		case logging.LevelDebug:
			logger.Debug(msg)
		case logging.LevelInfo:
			logger.Info(msg)
		case logging.LevelWarn:
			logger.Warn(msg)
		case logging.LevelError:
			logger.Error(msg)
		default:
			logger.Info(msg)
		}
	})
}

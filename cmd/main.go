package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Samrat740/sleep-apnea-screening/internal/config"
	"github.com/Samrat740/sleep-apnea-screening/internal/events"
	appgrpc "github.com/Samrat740/sleep-apnea-screening/internal/grpc"
	apphttp "github.com/Samrat740/sleep-apnea-screening/internal/http"
	"github.com/Samrat740/sleep-apnea-screening/internal/inference"
	applogger "github.com/Samrat740/sleep-apnea-screening/internal/logger"
	"github.com/Samrat740/sleep-apnea-screening/internal/repository/postgres"
	"github.com/Samrat740/sleep-apnea-screening/internal/service"
	"github.com/Samrat740/sleep-apnea-screening/internal/session"
	"github.com/Samrat740/sleep-apnea-screening/internal/warmup"

	"go.uber.org/zap"
)

type sessionStore interface {
	service.SessionStore
	Close()
}

type eventPublisher interface {
	service.Publisher
	Close() error
}

func main() {
	// Контекст всего приложения, ограничивает фоновый опрос сервиса инференса
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.LoadConfig()

	logger, err := applogger.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			log.Printf("Error during logger sync: %v", err)
		}
	}()

	logger.Info("Starting Sleep Apnea Screening Service",
		zap.String("version", "1.0.0"),
		zap.String("inference_url", cfg.Inference.BaseURL))

	store, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize session store", zap.Error(err))
		return
	}
	defer func() {
		store.Close()
		logger.Info("Session store closed")
	}()

	publisher := newPublisher(cfg, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("Failed to close event publisher", zap.Error(err))
		}
	}()

	client := inference.NewClient(cfg.Inference.BaseURL, cfg.Inference.RequestTimeout, cfg.Inference.ProbeTimeout, logger)
	warmer := warmup.NewWarmer(ctx, client, cfg.Inference.WakeInterval, logger)

	screeningService := service.NewScreeningService(client, warmer, store, publisher, logger)

	// Запуск HTTP сервера
	httpServer := apphttp.NewHTTPServer(cfg.RESTPort, screeningService, cfg.MaxUploadBytes, cfg.CORSOrigins, logger)
	go func() {
		if err := httpServer.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", zap.Error(err))
			return
		}
	}()

	// Запуск GRPC сервера
	grpcServer := appgrpc.NewGRPCServer(screeningService, logger)
	go func() {
		if err := grpcServer.Start(cfg.GRPCPort); err != nil {
			logger.Error("gRPC server failed", zap.Error(err))
			return
		}
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down servers...")

	// Останавливает опрос, если он ещё идёт
	cancel()
	warmer.Wait()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	if err := grpcServer.Shutdown(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("gRPC server shutdown due to timeout")
		} else {
			logger.Error("gRPC server shutdown failed", zap.Error(err))
		}
	}

	// Дожидаемся фоновой отправки событий до закрытия publisher
	screeningService.Wait()

	logger.Info("Sleep Apnea Screening Service stopped")
}

func newSessionStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (sessionStore, error) {
	switch cfg.SessionStore {
	case config.SessionStorePostgres:
		repo, err := postgres.NewSessionRepository(ctx, cfg.DBConfig, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("Database connection established")
		return repo, nil
	case config.SessionStoreMemory, "":
		logger.Info("Using in-memory session store")
		return session.NewMemoryStore(), nil
	default:
		return nil, errors.New("unknown session store: " + cfg.SessionStore)
	}
}

func newPublisher(cfg *config.Config, logger *zap.Logger) eventPublisher {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("Kafka brokers not configured, events disabled")
		return events.NopPublisher{}
	}
	logger.Info("Publishing events to Kafka",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic))
	return events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
}

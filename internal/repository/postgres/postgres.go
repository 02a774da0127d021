package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Samrat740/sleep-apnea-screening/internal/config"
	"github.com/Samrat740/sleep-apnea-screening/internal/metrics"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const schema = `CREATE TABLE IF NOT EXISTS screening_sessions (
	session_id UUID PRIMARY KEY,
	warmed_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// SessionRepository хранит флаг прогрева сервера для браузерных сессий
type SessionRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewSessionRepository(ctx context.Context, dbConfig config.DBConfig, logger *zap.Logger) (*SessionRepository, error) {
	// Конфигурация пула
	config, err := pgxpool.ParseConfig(dbConfig.DBSource)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.MaxConns = int32(dbConfig.MaxDBConnections)
	config.MinConns = int32(dbConfig.MinDBConnections)
	config.MaxConnLifetime = dbConfig.MaxConnLifetime
	config.MaxConnIdleTime = dbConfig.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	go monitorConnections(ctx, pool, logger)

	return &SessionRepository{
		pool:   pool,
		logger: logger,
	}, nil
}

// monitorConnections периодически обновляет метрики соединений и завершается при отмене ctx
func monitorConnections(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping monitorConnections goroutine due to context cancellation")
			return
		case <-ticker.C:
			stats := pool.Stat()
			metrics.DBActiveConnections.Set(float64(stats.AcquiredConns()))
			metrics.DBIdleConnections.Set(float64(stats.IdleConns()))

			logger.Debug("Database connection stats",
				zap.Int("acquired", int(stats.AcquiredConns())),
				zap.Int("idle", int(stats.IdleConns())),
				zap.Int("max", int(stats.MaxConns())),
			)
		}
	}
}

func (r *SessionRepository) IsWarm(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.DBQueryDuration.WithLabelValues("is_warm").Observe(time.Since(start).Seconds())
	}()

	var warm bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM screening_sessions WHERE session_id = $1)",
		sessionID,
	).Scan(&warm)
	if err != nil {
		return false, fmt.Errorf("failed to read session flag: %w", err)
	}

	return warm, nil
}

// MarkWarm пишет флаг один раз, повторная запись игнорируется
func (r *SessionRepository) MarkWarm(ctx context.Context, sessionID uuid.UUID) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	start := time.Now()
	defer func() {
		metrics.DBQueryDuration.WithLabelValues("mark_warm").Observe(time.Since(start).Seconds())
	}()

	tag, err := r.pool.Exec(ctx,
		"INSERT INTO screening_sessions (session_id) VALUES ($1) ON CONFLICT (session_id) DO NOTHING",
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to save session flag: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Debug("session already marked warm", zap.String("session_id", sessionID.String()))
	}

	return nil
}

func (r *SessionRepository) HealthCheck(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.DBQueryDuration.WithLabelValues("health_check").Observe(time.Since(start).Seconds())
	}()

	return r.pool.Ping(ctx)
}

func (r *SessionRepository) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

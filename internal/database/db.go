package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storybook-server/internal/config"
)

// Connect создаёт пул и ждёт, пока база станет доступна.
// В docker-compose postgres часто поднимается позже сервиса.
func Connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns
	poolCfg.MaxConnIdleTime = cfg.DB.IdleTimeout

	attempts := cfg.DB.ConnectRetries
	if attempts < 1 {
		attempts = 1
	}
	delay := 2 * time.Second

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		logger.Info("Connecting to PostgreSQL",
			zap.String("dsn", cfg.GetMaskedDSN()),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts))

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = pool.Ping(pingCtx)
			cancel()
			if err == nil {
				logger.Info("Connected to PostgreSQL", zap.Int32("max_conns", poolCfg.MaxConns))
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err
		logger.Warn("PostgreSQL is not available yet", zap.Error(err), zap.Duration("retry_in", delay))

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, lastErr)
}

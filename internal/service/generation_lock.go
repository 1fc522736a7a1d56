package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storybook-server/internal/models"
)

//go:generate mockery --name GenerationLock --output ../mocks --outpkg mocks

// GenerationLock не даёт запустить две генерации одной истории одновременно.
// Это экономия на провайдерах, корректность номеров обеспечивает уникальный индекс в БД.
type GenerationLock interface {
	// Acquire возвращает release или models.ErrGenerationInProgress.
	Acquire(ctx context.Context, storyID string) (func(), error)
}

// releaseScript удаляет ключ, только если он всё ещё наш.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisGenerationLock struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisGenerationLock - ttl должен покрывать самый долгий пайплайн.
func NewRedisGenerationLock(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) GenerationLock {
	return &redisGenerationLock{client: client, ttl: ttl, logger: logger.Named("GenerationLock")}
}

func lockKey(storyID string) string {
	return fmt.Sprintf("storybook:generation:%s", storyID)
}

func (l *redisGenerationLock) Acquire(ctx context.Context, storyID string) (func(), error) {
	key := lockKey(storyID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		// Redis недоступен: продолжаем без блокировки, дубли отсечёт БД
		l.logger.Warn("Generation lock unavailable, continuing without it", zap.String("story_id", storyID), zap.Error(err))
		return func() {}, nil
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrGenerationInProgress, storyID)
	}

	return func() {
		// контекст запроса мог уже истечь
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			l.logger.Warn("Failed to release generation lock", zap.String("story_id", storyID), zap.Error(err))
		}
	}, nil
}

type noopGenerationLock struct{}

// NewNoopGenerationLock - для конфигурации без Redis.
func NewNoopGenerationLock() GenerationLock { return noopGenerationLock{} }

func (noopGenerationLock) Acquire(context.Context, string) (func(), error) { return func() {}, nil }

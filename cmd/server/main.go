package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storybook-server/internal/config"
	"storybook-server/internal/database"
	"storybook-server/internal/handler"
	"storybook-server/internal/logger"
	"storybook-server/internal/service"
	"storybook-server/internal/storage"
)

func main() {
	// стандартный log только до инициализации zap
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	if err := run(cfg, appLogger); err != nil {
		appLogger.Fatal("Server stopped with error", zap.Error(err))
	}
	appLogger.Info("Server exiting")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting storybook-server",
		zap.String("env", cfg.AppEnv),
		zap.String("db", cfg.GetMaskedDSN()),
		zap.String("ai_client", cfg.AI.ClientType),
		zap.String("image_provider", cfg.Image.Provider),
		zap.String("storage_backend", cfg.Storage.Backend))

	// --- PostgreSQL ---
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.ApplyMigrations(ctx, pool, logger); err != nil {
		return err
	}

	// --- Object store ---
	var (
		store storage.ObjectStore
		files handler.FileResolver
	)
	switch strings.ToLower(cfg.Storage.Backend) {
	case "gcs":
		gcs, err := storage.NewGCSStore(ctx, cfg.Storage.GCSCredentialsFile, logger)
		if err != nil {
			return err
		}
		defer gcs.Close()
		store = gcs
	default:
		local, err := storage.NewLocalStore(cfg.Storage.LocalRoot, cfg.Storage.PublicBaseURL, cfg.Storage.SigningSecret, logger)
		if err != nil {
			return err
		}
		store = local
		files = local
	}

	// --- Провайдеры ---
	aiClient, err := service.NewAIClient(cfg.AI, logger)
	if err != nil {
		return err
	}
	images, err := service.NewImageGenerator(cfg.Image, cfg.AI.APIKey, openAIBaseURL(cfg), logger)
	if err != nil {
		return err
	}
	speech := service.NewSpeechClient(cfg.Speech, cfg.AI.APIKey, openAIBaseURL(cfg), logger)

	temperature := cfg.AI.Temperature
	maxTokens := cfg.AI.MaxTokens
	writer := service.NewChapterWriter(aiClient, service.GenerationParams{Temperature: &temperature, MaxTokens: &maxTokens}, logger)
	describer := service.NewCharacterDescriber(aiClient, cfg.AI.DescriptionModel, logger)
	illustrator := service.NewIllustrator(images, store, cfg.Storage.IllustrationsBucket, cfg.Storage.SignedURLTTL, logger)
	narrator := service.NewNarrator(speech, store, cfg.Storage.AudioBucket, cfg.Storage.SignedURLTTL, logger)

	// --- Redis (опционально) ---
	lock := service.NewNoopGenerationLock()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// блокировка работает в режиме fail-open, старт не прерываем
			logger.Warn("Redis is not reachable at startup", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		lock = service.NewRedisGenerationLock(rdb, cfg.Redis.LockTTL, logger)
	} else {
		logger.Info("REDIS_ADDR not set, generation lock disabled")
	}

	// --- RabbitMQ (опционально) ---
	notifier := service.NewNoopNotifier()
	if cfg.RabbitMQ.URL != "" {
		conn, err := connectRabbitMQ(ctx, cfg.RabbitMQ.URL, logger)
		if err != nil {
			return err
		}
		defer conn.Close()
		ch, err := conn.Channel()
		if err != nil {
			return fmt.Errorf("failed to open rabbitmq channel: %w", err)
		}
		defer ch.Close()
		notifier, err = service.NewRabbitMQNotifier(ch, cfg.RabbitMQ.QueueName, logger)
		if err != nil {
			return err
		}
	} else {
		logger.Info("RABBITMQ_URL not set, chapter events disabled")
	}

	chapterService := service.NewChapterService(service.ChapterServiceDeps{
		DB:          pool,
		Tx:          database.NewTransactionHelper(pool, logger),
		Repo:        database.NewPgStoryRepository(logger),
		Writer:      writer,
		Describer:   describer,
		Illustrator: illustrator,
		Narrator:    narrator,
		Lock:        lock,
		Notifier:    notifier,
		Logger:      logger,
	})

	// --- HTTP ---
	var tokens *handler.TokenVerifier
	if cfg.Auth.JWTSecret != "" {
		if tokens, err = handler.NewTokenVerifier(cfg.Auth.JWTSecret); err != nil {
			return err
		}
	} else {
		logger.Warn("JWT_SECRET not set, userId is taken from requests as is")
	}

	gin.SetMode(gin.ReleaseMode)
	if cfg.AppEnv == "development" {
		gin.SetMode(gin.DebugMode)
	}
	router := handler.NewRouter(
		handler.NewChapterHandler(chapterService, files, tokens, logger),
		handler.RouterOptions{AllowedOrigins: cfg.CORSAllowedOrigins, Metrics: true},
		logger,
	)

	// текст, описание героя, затем TTS и выравнивание последовательно
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2*cfg.AI.Timeout + 2*max(cfg.Image.Timeout, cfg.Speech.Timeout) + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server forced to shutdown", zap.Error(err))
	}
	return nil
}

// openAIBaseURL - картинки и речь идут в OpenAI, даже если текст генерирует ollama.
func openAIBaseURL(cfg *config.Config) string {
	if strings.EqualFold(cfg.AI.ClientType, "openai") {
		return cfg.AI.BaseURL
	}
	return ""
}

func connectRabbitMQ(ctx context.Context, uri string, logger *zap.Logger) (*amqp.Connection, error) {
	const maxRetries = 5
	retryDelay := 2 * time.Second

	var err error
	for i := 0; i < maxRetries; i++ {
		var conn *amqp.Connection
		conn, err = amqp.Dial(uri)
		if err == nil {
			logger.Info("Connected to RabbitMQ")
			go func() {
				if closeErr := <-conn.NotifyClose(make(chan *amqp.Error, 1)); closeErr != nil {
					logger.Error("RabbitMQ connection closed", zap.Error(closeErr))
				}
			}()
			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ, retrying",
			zap.Error(err),
			zap.Int("attempt", i+1),
			zap.Duration("delay", retryDelay))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
		retryDelay *= 2
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}

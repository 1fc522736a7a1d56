package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"storybook-server/internal/logger"
	"storybook-server/internal/utils"
)

// Config содержит всю конфигурацию storybook-server.
type Config struct {
	AppEnv     string `env:"APP_ENV" env-default:"development"`
	Port       string `env:"HTTP_PORT" env-default:"8080"`
	SecretsDir string `env:"SECRETS_DIR" env-default:"/run/secrets"`

	// CORSAllowedOrigins - список через запятую. Пусто = все origin'ы.
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:","`

	Logger   logger.Config
	DB       DBConfig
	AI       AIConfig
	Image    ImageConfig
	Speech   SpeechConfig
	Storage  StorageConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Auth     AuthConfig
}

// DBConfig настройки PostgreSQL.
type DBConfig struct {
	Host           string        `env:"DB_HOST" env-default:"localhost"`
	Port           string        `env:"DB_PORT" env-default:"5432"`
	User           string        `env:"DB_USER" env-default:"postgres"`
	Name           string        `env:"DB_NAME" env-default:"storybook"`
	SSLMode        string        `env:"DB_SSL_MODE" env-default:"disable"`
	MaxConns       int32         `env:"DB_MAX_CONNECTIONS" env-default:"10"`
	IdleTimeout    time.Duration `env:"DB_MAX_IDLE" env-default:"5m"`
	ConnectRetries int           `env:"DB_CONNECT_RETRIES" env-default:"5"`
	// Из secret-файла db_password или DB_PASSWORD
	Password string
}

// AIConfig настройки текстовой LLM.
type AIConfig struct {
	ClientType       string        `env:"AI_CLIENT_TYPE" env-default:"openai"` // openai | ollama
	BaseURL          string        `env:"AI_BASE_URL" env-default:"https://api.openai.com/v1"`
	Model            string        `env:"AI_MODEL" env-default:"gpt-4o"`
	DescriptionModel string        `env:"AI_DESCRIPTION_MODEL" env-default:"gpt-4o-mini"`
	Timeout          time.Duration `env:"AI_TIMEOUT" env-default:"60s"`
	Temperature      float64       `env:"AI_TEMPERATURE" env-default:"0.8"`
	MaxTokens        int           `env:"AI_MAX_TOKENS" env-default:"2000"`
	// Из secret-файла ai_api_key или AI_API_KEY
	APIKey string
}

// ImageConfig настройки генерации иллюстраций.
type ImageConfig struct {
	Provider    string        `env:"IMAGE_PROVIDER" env-default:"openai"` // openai | sana
	Model       string        `env:"IMAGE_MODEL" env-default:"dall-e-3"`
	Size        string        `env:"IMAGE_SIZE" env-default:"1024x1024"`
	SanaBaseURL string        `env:"SANA_SERVER_BASE_URL"`
	SanaRatio   string        `env:"SANA_RATIO" env-default:"1:1"`
	Timeout     time.Duration `env:"IMAGE_TIMEOUT" env-default:"3m"`
}

// SpeechConfig настройки TTS и выравнивания слов.
type SpeechConfig struct {
	TTSModel           string        `env:"SPEECH_TTS_MODEL" env-default:"tts-1-hd"`
	Voice              string        `env:"SPEECH_VOICE" env-default:"nova"`
	TranscriptionModel string        `env:"SPEECH_TRANSCRIPTION_MODEL" env-default:"whisper-1"`
	Timeout            time.Duration `env:"SPEECH_TIMEOUT" env-default:"3m"`
}

// StorageConfig настройки объектного хранилища медиа.
type StorageConfig struct {
	Backend             string        `env:"STORAGE_BACKEND" env-default:"local"` // local | gcs
	IllustrationsBucket string        `env:"STORAGE_ILLUSTRATIONS_BUCKET" env-default:"illustrations"`
	AudioBucket         string        `env:"STORAGE_AUDIO_BUCKET" env-default:"audio"`
	SignedURLTTL        time.Duration `env:"STORAGE_SIGNED_URL_TTL" env-default:"8760h"`
	LocalRoot           string        `env:"STORAGE_LOCAL_ROOT" env-default:"./data/objects"`
	PublicBaseURL       string        `env:"STORAGE_PUBLIC_BASE_URL" env-default:"http://localhost:8080"`
	GCSCredentialsFile  string        `env:"STORAGE_GCS_CREDENTIALS_FILE"`
	// Из secret-файла storage_signing_secret или STORAGE_SIGNING_SECRET (только local)
	SigningSecret string
}

// RedisConfig - опционально. Без адреса защита от параллельной генерации отключена.
type RedisConfig struct {
	Addr    string        `env:"REDIS_ADDR"`
	DB      int           `env:"REDIS_DB" env-default:"0"`
	LockTTL time.Duration `env:"GENERATION_LOCK_TTL" env-default:"10m"`
	// Из secret-файла redis_password или REDIS_PASSWORD, может отсутствовать
	Password string
}

// RabbitMQConfig - опционально. Без URL события chapter_generated не публикуются.
type RabbitMQConfig struct {
	URL       string `env:"RABBITMQ_URL"`
	QueueName string `env:"CHAPTER_EVENTS_QUEUE" env-default:"chapter_events"`
}

// AuthConfig - если секрет задан, userId берётся из bearer токена.
type AuthConfig struct {
	// Из secret-файла jwt_secret или JWT_SECRET
	JWTSecret string
}

// Load читает .env (если есть), окружение и docker secrets.
func Load(envFiles ...string) (*Config, error) {
	// .env не обязателен
	_ = godotenv.Load(envFiles...)

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	var err error
	if cfg.DB.Password, err = utils.ResolveSecret(cfg.SecretsDir, "db_password", "DB_PASSWORD"); err != nil {
		return nil, err
	}

	if strings.EqualFold(cfg.AI.ClientType, "openai") || strings.EqualFold(cfg.Image.Provider, "openai") {
		if cfg.AI.APIKey, err = utils.ResolveSecret(cfg.SecretsDir, "ai_api_key", "AI_API_KEY"); err != nil {
			return nil, err
		}
	} else {
		// Ollama + SANA работают без ключа, но TTS всё равно идёт через OpenAI
		cfg.AI.APIKey, _ = utils.ResolveSecret(cfg.SecretsDir, "ai_api_key", "AI_API_KEY")
	}

	if strings.EqualFold(cfg.Storage.Backend, "local") {
		if cfg.Storage.SigningSecret, err = utils.ResolveSecret(cfg.SecretsDir, "storage_signing_secret", "STORAGE_SIGNING_SECRET"); err != nil {
			return nil, err
		}
	}

	cfg.Redis.Password, _ = utils.ResolveSecret(cfg.SecretsDir, "redis_password", "REDIS_PASSWORD")
	cfg.Auth.JWTSecret, _ = utils.ResolveSecret(cfg.SecretsDir, "jwt_secret", "JWT_SECRET")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет сочетания настроек, которые cleanenv не выразит тегами.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.AI.ClientType) {
	case "openai", "ollama":
	default:
		errs = append(errs, fmt.Errorf("unknown AI_CLIENT_TYPE %q", c.AI.ClientType))
	}
	switch strings.ToLower(c.Image.Provider) {
	case "openai":
	case "sana":
		if c.Image.SanaBaseURL == "" {
			errs = append(errs, errors.New("SANA_SERVER_BASE_URL is required for IMAGE_PROVIDER=sana"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown IMAGE_PROVIDER %q", c.Image.Provider))
	}
	switch strings.ToLower(c.Storage.Backend) {
	case "local":
		if _, err := url.ParseRequestURI(c.Storage.PublicBaseURL); err != nil {
			errs = append(errs, fmt.Errorf("invalid STORAGE_PUBLIC_BASE_URL: %w", err))
		}
	case "gcs":
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend))
	}
	if c.Storage.SignedURLTTL <= 0 {
		errs = append(errs, errors.New("STORAGE_SIGNED_URL_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// GetDSN возвращает строку подключения к PostgreSQL.
func (c *Config) GetDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DB.User, c.DB.Password),
		Host:     c.DB.Host + ":" + c.DB.Port,
		Path:     "/" + c.DB.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.DB.SSLMode),
	}
	return u.String()
}

// GetMaskedDSN - DSN для логов, пароль замаскирован.
func (c *Config) GetMaskedDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DB.User, "********"),
		Host:     c.DB.Host + ":" + c.DB.Port,
		Path:     "/" + c.DB.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.DB.SSLMode),
	}
	return u.String()
}

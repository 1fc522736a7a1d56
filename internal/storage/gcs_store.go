package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GCSStore - объектное хранилище в Google Cloud Storage.
type GCSStore struct {
	client *gcs.Client
	logger *zap.Logger
}

// NewGCSStore создаёт клиент. Без credentialsFile используются Application Default Credentials,
// но для подписи ссылок нужен ключ сервисного аккаунта.
func NewGCSStore(ctx context.Context, credentialsFile string, logger *zap.Logger) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSStore{client: client, logger: logger.Named("GCSStore")}, nil
}

// Put перезаписывает объект целиком.
func (s *GCSStore) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	bucket, key, err := cleanKey(bucket, key)
	if err != nil {
		return err
	}

	w := s.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "private, max-age=3600"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("upload gs://%s/%s: %w", bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize gs://%s/%s: %w", bucket, key, err)
	}

	s.logger.Debug("Object uploaded", zap.String("bucket", bucket), zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

// SignedURL использует схему V2: V4 ограничивает срок семью днями, а ссылкам на медиа нужен год.
func (s *GCSStore) SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	bucket, key, err := cleanKey(bucket, key)
	if err != nil {
		return "", err
	}
	if _, err := s.client.Bucket(bucket).Object(key).Attrs(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return "", fmt.Errorf("%w: gs://%s/%s", ErrObjectMissing, bucket, key)
		}
		return "", fmt.Errorf("stat gs://%s/%s: %w", bucket, key, err)
	}

	u, err := s.client.Bucket(bucket).SignedURL(key, &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV2,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("sign gs://%s/%s: %w", bucket, key, err)
	}
	return u, nil
}

// Close закрывает клиент.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const linkIssuer = "storybook-server"

// LocalStore хранит объекты на диске: root/{bucket}/{key}.
// Ссылки ведут на /files/{bucket}/{key} и подписаны HS256 токеном с exp.
type LocalStore struct {
	root          string
	publicBaseURL string
	secret        []byte
	logger        *zap.Logger
}

// linkClaims - подпись привязана к конкретному объекту.
type linkClaims struct {
	Object string `json:"obj"`
	jwt.RegisteredClaims
}

// NewLocalStore создаёт root, если его нет.
func NewLocalStore(root, publicBaseURL, secret string, logger *zap.Logger) (*LocalStore, error) {
	if secret == "" {
		return nil, errors.New("local store: signing secret is empty")
	}
	if _, err := url.ParseRequestURI(publicBaseURL); err != nil {
		return nil, fmt.Errorf("local store: invalid public base url: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("local store: create root %s: %w", root, err)
	}
	return &LocalStore{
		root:          root,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		secret:        []byte(secret),
		logger:        logger.Named("LocalStore"),
	}, nil
}

// Put пишет во временный файл и переименовывает, чтобы читатель не увидел половину объекта.
func (s *LocalStore) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	bucket, key, err := cleanKey(bucket, key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	target := s.objectPath(bucket, key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create dir for %s/%s: %w", bucket, key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s/%s: %w", bucket, key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s/%s: %w", bucket, key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s/%s: %w", bucket, key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s/%s: %w", bucket, key, err)
	}

	s.logger.Debug("Object stored",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.String("content_type", contentType),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// SignedURL выдаёт ссылку на существующий объект.
func (s *LocalStore) SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	bucket, key, err := cleanKey(bucket, key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(s.objectPath(bucket, key)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s/%s", ErrObjectMissing, bucket, key)
		}
		return "", fmt.Errorf("stat %s/%s: %w", bucket, key, err)
	}

	object := bucket + "/" + key
	now := time.Now()
	claims := linkClaims{
		Object: object,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    linkIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign link for %s: %w", object, err)
	}

	return s.publicBaseURL + "/files/" + (&url.URL{Path: object}).EscapedPath() + "?token=" + url.QueryEscape(token), nil
}

// Open проверяет подпись ссылки и возвращает путь к файлу объекта.
// object - "{bucket}/{key}" из пути запроса.
func (s *LocalStore) Open(object, token string) (string, error) {
	object = strings.TrimPrefix(object, "/")
	bucket, key, found := strings.Cut(object, "/")
	if !found {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, object)
	}
	bucket, key, err := cleanKey(bucket, key)
	if err != nil {
		return "", err
	}

	claims := &linkClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(linkIssuer), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ErrLinkInvalid, err)
	}
	if claims.Object != bucket+"/"+key {
		return "", fmt.Errorf("%w: token issued for another object", ErrLinkInvalid)
	}

	p := s.objectPath(bucket, key)
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrObjectMissing, object)
		}
		return "", err
	}
	return p, nil
}

func (s *LocalStore) objectPath(bucket, key string) string {
	return filepath.Join(s.root, bucket, filepath.FromSlash(key))
}

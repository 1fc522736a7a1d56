package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

// ObjectStore - хранилище медиа глав. Put перезаписывает объект,
// повторная запись того же ключа безопасна.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
	SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

var (
	ErrInvalidKey    = errors.New("invalid object key")
	ErrObjectMissing = errors.New("object not found")
	ErrLinkInvalid   = errors.New("signed link is invalid or expired")
)

// ChapterObjectKey - "{storyId}/{chapterNumber}{suffix}", например "s1/1.mp3".
func ChapterObjectKey(storyID string, chapterNumber int, suffix string) string {
	return fmt.Sprintf("%s/%d%s", storyID, chapterNumber, suffix)
}

// cleanKey нормализует ключ и отсекает выход за пределы бакета.
func cleanKey(bucket, key string) (string, string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", "", fmt.Errorf("%w: bucket %q", ErrInvalidKey, bucket)
	}
	if key == "" || strings.Contains(key, `\`) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, part := range strings.Split(cleaned, "/") {
		if part == ".." || part == "." {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return bucket, cleaned, nil
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"storybook-server/internal/prompts"
	"storybook-server/internal/storage"
)

//go:generate mockery --name Illustrator --output ../mocks --outpkg mocks

// Illustrator рисует иллюстрацию к главе и возвращает подписанную ссылку.
type Illustrator interface {
	Illustrate(ctx context.Context, storyID string, chapterNumber int, characterDescription, chapterContent string) (string, error)
}

type illustrator struct {
	images ImageGenerator
	store  storage.ObjectStore
	bucket string
	ttl    time.Duration
	logger *zap.Logger
}

func NewIllustrator(images ImageGenerator, store storage.ObjectStore, bucket string, ttl time.Duration, logger *zap.Logger) Illustrator {
	return &illustrator{images: images, store: store, bucket: bucket, ttl: ttl, logger: logger.Named("Illustrator")}
}

// Illustrate кладёт картинку в {storyId}/{n}.png с перезаписью, какой бы формат ни вернул провайдер.
func (il *illustrator) Illustrate(ctx context.Context, storyID string, chapterNumber int, characterDescription, chapterContent string) (string, error) {
	log := il.logger.With(zap.String("story_id", storyID), zap.Int("chapter_number", chapterNumber))

	prompt := prompts.IllustrationPrompt(characterDescription, chapterContent)
	data, err := il.images.GenerateImage(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}

	contentType := imageType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("generated payload is not an image: %s", contentType)
	}
	key := storage.ChapterObjectKey(storyID, chapterNumber, illustrationExt)
	if err := il.store.Put(ctx, il.bucket, key, data, contentType); err != nil {
		return "", fmt.Errorf("upload illustration %s: %w", key, err)
	}

	link, err := il.store.SignedURL(ctx, il.bucket, key, il.ttl)
	if err != nil {
		return "", fmt.Errorf("sign illustration %s: %w", key, err)
	}
	mediaBytes.WithLabelValues("illustration").Observe(float64(len(data)))
	log.Info("Illustration stored", zap.String("key", key), zap.String("content_type", contentType), zap.Int("bytes", len(data)))
	return link, nil
}

// illustrationExt - один путь на главу, иначе при смене формата остаются старые файлы.
const illustrationExt = ".png"

// imageType определяет MIME по сигнатуре. Провайдеры отдают png, но SANA может вернуть jpeg или webp.
// Реальный тип уходит в Content-Type объекта.
func imageType(data []byte) string {
	ct := mimetype.Detect(data).String()
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return ct
}

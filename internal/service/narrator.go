package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"storybook-server/internal/storage"
)

// NarrationResult - пара ссылок, либо обе есть, либо нет ни одной.
type NarrationResult struct {
	AudioURL      string
	TimestampsURL string
}

//go:generate mockery --name Narrator --output ../mocks --outpkg mocks

// Narrator озвучивает главу и сохраняет аудио с разметкой слов.
type Narrator interface {
	Narrate(ctx context.Context, storyID string, chapterNumber int, text string) (NarrationResult, error)
}

type narrator struct {
	speech SpeechClient
	store  storage.ObjectStore
	bucket string
	ttl    time.Duration
	logger *zap.Logger
}

func NewNarrator(speech SpeechClient, store storage.ObjectStore, bucket string, ttl time.Duration, logger *zap.Logger) Narrator {
	return &narrator{speech: speech, store: store, bucket: bucket, ttl: ttl, logger: logger.Named("Narrator")}
}

// Narrate: TTS -> {storyId}/{n}.mp3 -> разметка слов по этому же аудио -> {storyId}/{n}_timestamps.json -> ссылки.
func (n *narrator) Narrate(ctx context.Context, storyID string, chapterNumber int, text string) (NarrationResult, error) {
	log := n.logger.With(zap.String("story_id", storyID), zap.Int("chapter_number", chapterNumber))

	audio, err := n.speech.Synthesize(ctx, text)
	if err != nil {
		return NarrationResult{}, fmt.Errorf("synthesize speech: %w", err)
	}

	audioKey := storage.ChapterObjectKey(storyID, chapterNumber, ".mp3")
	if err := n.store.Put(ctx, n.bucket, audioKey, audio, "audio/mpeg"); err != nil {
		return NarrationResult{}, fmt.Errorf("upload audio %s: %w", audioKey, err)
	}

	timings, err := n.speech.Align(ctx, audio)
	if err != nil {
		return NarrationResult{}, fmt.Errorf("align words: %w", err)
	}
	timingsJSON, err := json.Marshal(timings)
	if err != nil {
		return NarrationResult{}, fmt.Errorf("marshal word timings: %w", err)
	}

	timestampsKey := storage.ChapterObjectKey(storyID, chapterNumber, "_timestamps.json")
	if err := n.store.Put(ctx, n.bucket, timestampsKey, timingsJSON, "application/json"); err != nil {
		return NarrationResult{}, fmt.Errorf("upload timestamps %s: %w", timestampsKey, err)
	}

	audioURL, err := n.store.SignedURL(ctx, n.bucket, audioKey, n.ttl)
	if err != nil {
		return NarrationResult{}, fmt.Errorf("sign audio %s: %w", audioKey, err)
	}
	timestampsURL, err := n.store.SignedURL(ctx, n.bucket, timestampsKey, n.ttl)
	if err != nil {
		return NarrationResult{}, fmt.Errorf("sign timestamps %s: %w", timestampsKey, err)
	}

	mediaBytes.WithLabelValues("audio").Observe(float64(len(audio)))
	log.Info("Narration stored", zap.Int("audio_bytes", len(audio)), zap.Int("words", len(timings)))
	return NarrationResult{AudioURL: audioURL, TimestampsURL: timestampsURL}, nil
}

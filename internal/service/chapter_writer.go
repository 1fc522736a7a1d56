package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"storybook-server/internal/models"
	"storybook-server/internal/prompts"
	"storybook-server/internal/schemas"
)

//go:generate mockery --name ChapterWriter --output ../mocks --outpkg mocks

// ChapterWriter генерирует текст главы в строгом JSON формате.
type ChapterWriter interface {
	Write(ctx context.Context, userID string, in prompts.ChapterInput) (*schemas.GeneratedChapter, error)
}

type structuredChapterWriter struct {
	ai     AIClient
	params GenerationParams
	logger *zap.Logger
}

// NewChapterWriter - params задают температуру и лимит токенов, JSON режим включается всегда.
func NewChapterWriter(ai AIClient, params GenerationParams, logger *zap.Logger) ChapterWriter {
	params.JSONMode = true
	return &structuredChapterWriter{ai: ai, params: params, logger: logger.Named("ChapterWriter")}
}

// Write делает ровно один запрос к модели. Ответ не по контракту -> models.ErrInvalidGenerationOutput.
func (w *structuredChapterWriter) Write(ctx context.Context, userID string, in prompts.ChapterInput) (*schemas.GeneratedChapter, error) {
	log := w.logger.With(zap.String("user_id", userID), zap.Int("chapter_number", in.ChapterNumber))

	systemPrompt, err := prompts.ChapterSystemPrompt(in)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	userPrompt := prompts.ChapterUserPrompt(in)

	raw, usage, err := w.ai.GenerateText(ctx, userID, systemPrompt, userPrompt, w.params)
	if err != nil {
		log.Error("Chapter text generation failed", zap.Error(err))
		if errors.Is(err, models.ErrInvalidGenerationOutput) || errors.Is(err, models.ErrUpstreamUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, err)
	}

	chapter, err := schemas.ParseChapter(raw, in.IsFirst())
	if err != nil {
		log.Warn("Model output does not match chapter contract", zap.Error(err), zap.Int("raw_len", len(raw)))
		return nil, err
	}

	log.Info("Chapter text generated",
		zap.String("title", chapter.Title),
		zap.Int("content_chars", len(chapter.Content)),
		zap.Int("total_tokens", usage.TotalTokens))
	return chapter, nil
}

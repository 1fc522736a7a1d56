package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"storybook-server/internal/prompts"
)

//go:generate mockery --name CharacterDescriber --output ../mocks --outpkg mocks

// CharacterDescriber описывает внешность героя по первой главе.
type CharacterDescriber interface {
	Describe(ctx context.Context, userID, characterName, chapterContent string) (string, error)
}

type llmCharacterDescriber struct {
	ai     AIClient
	model  string
	logger *zap.Logger
}

// NewCharacterDescriber - model может быть пустым, тогда используется модель AIClient.
func NewCharacterDescriber(ai AIClient, model string, logger *zap.Logger) CharacterDescriber {
	return &llmCharacterDescriber{ai: ai, model: model, logger: logger.Named("CharacterDescriber")}
}

func (d *llmCharacterDescriber) Describe(ctx context.Context, userID, characterName, chapterContent string) (string, error) {
	text, _, err := d.ai.GenerateText(ctx, userID,
		prompts.CharacterDescriptionSystemPrompt,
		prompts.CharacterDescriptionUserPrompt(characterName, chapterContent),
		GenerationParams{Model: d.model},
	)
	if err != nil {
		return "", fmt.Errorf("describe character %q: %w", characterName, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("empty character description")
	}
	d.logger.Debug("Character described", zap.String("user_id", userID), zap.Int("chars", len(text)))
	return text, nil
}

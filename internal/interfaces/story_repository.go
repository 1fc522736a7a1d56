package interfaces

import (
	"context"

	"storybook-server/internal/models"
)

//go:generate mockery --name StoryRepository --output ../mocks --outpkg mocks

// StoryRepository - истории и главы.
type StoryRepository interface {
	// CreateStory вставляет историю без глав. Повтор id -> models.ErrChapterConflict.
	CreateStory(ctx context.Context, querier DBTX, story *models.Story) error
	// CreateChapter вставляет главу. Повтор (story_id, number) -> models.ErrChapterConflict.
	CreateChapter(ctx context.Context, querier DBTX, chapter *models.Chapter) error
	// GetStory возвращает историю с главами по возрастанию номера или models.ErrNotFound.
	GetStory(ctx context.Context, querier DBTX, storyID string) (*models.Story, error)
	// ListByUser - истории пользователя, новые сверху, с главами.
	ListByUser(ctx context.Context, querier DBTX, userID string) ([]models.Story, error)
}

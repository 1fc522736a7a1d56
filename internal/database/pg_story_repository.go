package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"storybook-server/internal/interfaces"
	"storybook-server/internal/models"
)

const pgUniqueViolation = "23505"

const (
	insertStoryQuery = `
        INSERT INTO stories (id, user_id, title, character_name, character_type, character_descriptor,
                             genre, age_range, character_description, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	insertChapterQuery = `
        INSERT INTO chapters (id, story_id, number, title, content, illustration_url, audio_url, timestamps_url, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	storyColumns = `id, user_id, title, character_name, character_type, character_descriptor,
        genre, age_range, character_description, created_at`
	chapterColumns = `id, story_id, number, title, content, illustration_url, audio_url, timestamps_url, created_at`

	getStoryQuery        = `SELECT ` + storyColumns + ` FROM stories WHERE id = $1`
	listStoriesQuery     = `SELECT ` + storyColumns + ` FROM stories WHERE user_id = $1 ORDER BY created_at DESC, id`
	chaptersByStoryQuery = `SELECT ` + chapterColumns + ` FROM chapters WHERE story_id = $1 ORDER BY number`
	chaptersByUserQuery  = `
        SELECT c.id, c.story_id, c.number, c.title, c.content, c.illustration_url, c.audio_url, c.timestamps_url, c.created_at
        FROM chapters c
        JOIN stories s ON s.id = c.story_id
        WHERE s.user_id = $1
        ORDER BY c.story_id, c.number
    `
)

type pgStoryRepository struct {
	logger *zap.Logger
}

var _ interfaces.StoryRepository = (*pgStoryRepository)(nil)

// NewPgStoryRepository - репозиторий историй. Соединение или транзакция передаются в каждый метод.
func NewPgStoryRepository(logger *zap.Logger) interfaces.StoryRepository {
	return &pgStoryRepository{logger: logger.Named("StoryRepo")}
}

func (r *pgStoryRepository) CreateStory(ctx context.Context, querier interfaces.DBTX, story *models.Story) error {
	log := r.logger.With(zap.String("story_id", story.ID), zap.String("user_id", story.UserID))

	_, err := querier.Exec(ctx, insertStoryQuery,
		story.ID, story.UserID, story.Title, story.CharacterName, story.CharacterType, story.CharacterDescriptor,
		story.Genre, story.AgeRange, story.CharacterDescription, story.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			log.Warn("Story already exists")
			return fmt.Errorf("%w: story %s already exists", models.ErrChapterConflict, story.ID)
		}
		log.Error("Failed to insert story", zap.Error(err))
		return fmt.Errorf("%w: insert story %s: %v", models.ErrPersistence, story.ID, err)
	}
	log.Debug("Story inserted")
	return nil
}

func (r *pgStoryRepository) CreateChapter(ctx context.Context, querier interfaces.DBTX, ch *models.Chapter) error {
	log := r.logger.With(zap.String("story_id", ch.StoryID), zap.Int("chapter_number", ch.Number))

	_, err := querier.Exec(ctx, insertChapterQuery,
		ch.ID, ch.StoryID, ch.Number, ch.Title, ch.Content, ch.IllustrationURL, ch.AudioURL, ch.TimestampsURL, ch.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			log.Warn("Chapter number already taken")
			return fmt.Errorf("%w: story %s chapter %d", models.ErrChapterConflict, ch.StoryID, ch.Number)
		}
		log.Error("Failed to insert chapter", zap.Error(err))
		return fmt.Errorf("%w: insert chapter %d of story %s: %v", models.ErrPersistence, ch.Number, ch.StoryID, err)
	}
	log.Debug("Chapter inserted", zap.String("chapter_id", ch.ID))
	return nil
}

func (r *pgStoryRepository) GetStory(ctx context.Context, querier interfaces.DBTX, storyID string) (*models.Story, error) {
	log := r.logger.With(zap.String("story_id", storyID))

	var story models.Story
	if err := pgxscan.Get(ctx, querier, &story, getStoryQuery, storyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		log.Error("Failed to get story", zap.Error(err))
		return nil, fmt.Errorf("%w: get story %s: %v", models.ErrPersistence, storyID, err)
	}

	var chapters []models.Chapter
	if err := pgxscan.Select(ctx, querier, &chapters, chaptersByStoryQuery, storyID); err != nil {
		log.Error("Failed to get chapters", zap.Error(err))
		return nil, fmt.Errorf("%w: get chapters of story %s: %v", models.ErrPersistence, storyID, err)
	}
	story.Chapters = chapters
	return &story, nil
}

func (r *pgStoryRepository) ListByUser(ctx context.Context, querier interfaces.DBTX, userID string) ([]models.Story, error) {
	log := r.logger.With(zap.String("user_id", userID))

	stories := []models.Story{}
	if err := pgxscan.Select(ctx, querier, &stories, listStoriesQuery, userID); err != nil {
		log.Error("Failed to list stories", zap.Error(err))
		return nil, fmt.Errorf("%w: list stories: %v", models.ErrPersistence, err)
	}
	if len(stories) == 0 {
		return stories, nil
	}

	var chapters []models.Chapter
	if err := pgxscan.Select(ctx, querier, &chapters, chaptersByUserQuery, userID); err != nil {
		log.Error("Failed to list chapters", zap.Error(err))
		return nil, fmt.Errorf("%w: list chapters: %v", models.ErrPersistence, err)
	}

	byStory := make(map[string][]models.Chapter, len(stories))
	for _, ch := range chapters {
		byStory[ch.StoryID] = append(byStory[ch.StoryID], ch)
	}
	for i := range stories {
		stories[i].Chapters = byStory[stories[i].ID]
	}
	log.Debug("Stories listed", zap.Int("stories", len(stories)), zap.Int("chapters", len(chapters)))
	return stories, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

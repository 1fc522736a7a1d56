package service_test

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"storybook-server/internal/interfaces"
	"storybook-server/internal/models"
)

// memRepo - StoryRepository в памяти с той же уникальностью, что и в БД.
type memRepo struct {
	mu      sync.Mutex
	stories map[string]models.Story
}

func newMemRepo() *memRepo {
	return &memRepo{stories: make(map[string]models.Story)}
}

func (r *memRepo) CreateStory(_ context.Context, _ interfaces.DBTX, story *models.Story) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stories[story.ID]; ok {
		return fmt.Errorf("%w: story %s exists", models.ErrChapterConflict, story.ID)
	}
	s := *story
	s.Chapters = nil
	r.stories[story.ID] = s
	return nil
}

func (r *memRepo) CreateChapter(_ context.Context, _ interfaces.DBTX, ch *models.Chapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stories[ch.StoryID]
	if !ok {
		return fmt.Errorf("%w: story %s missing", models.ErrPersistence, ch.StoryID)
	}
	for _, existing := range s.Chapters {
		if existing.Number == ch.Number {
			return fmt.Errorf("%w: chapter %d", models.ErrChapterConflict, ch.Number)
		}
	}
	s.Chapters = append(append([]models.Chapter(nil), s.Chapters...), *ch)
	r.stories[ch.StoryID] = s
	return nil
}

func (r *memRepo) GetStory(_ context.Context, _ interfaces.DBTX, storyID string) (*models.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stories[storyID]
	if !ok {
		return nil, models.ErrNotFound
	}
	s.Chapters = append([]models.Chapter(nil), s.Chapters...)
	s.SortChapters()
	return &s, nil
}

func (r *memRepo) ListByUser(_ context.Context, _ interfaces.DBTX, userID string) ([]models.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Story
	for _, s := range r.stories {
		if s.UserID == userID {
			s.Chapters = append([]models.Chapter(nil), s.Chapters...)
			s.SortChapters()
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// snapshot/restore нужны memTx для отката.
func (r *memRepo) snapshot() map[string]models.Story {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make(map[string]models.Story, len(r.stories))
	for k, v := range r.stories {
		cp[k] = v
	}
	return cp
}

func (r *memRepo) restore(cp map[string]models.Story) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stories = cp
}

func (r *memRepo) chapterCount(storyID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stories[storyID].Chapters)
}

// memTx сериализует транзакции и откатывает repo при ошибке fn.
type memTx struct {
	mu   sync.Mutex
	repo *memRepo
}

func (t *memTx) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx interfaces.DBTX) error) error {
	// как pgx BeginTx: отменённый контекст не даёт начать транзакцию
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: begin transaction: %v", models.ErrPersistence, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := t.repo.snapshot()
	if err := fn(ctx, nil); err != nil {
		t.repo.restore(cp)
		return err
	}
	return nil
}

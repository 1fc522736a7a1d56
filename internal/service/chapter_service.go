package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storybook-server/internal/interfaces"
	"storybook-server/internal/models"
	"storybook-server/internal/prompts"
	"storybook-server/internal/schemas"
)

const notifyTimeout = 5 * time.Second

//go:generate mockery --name ChapterService --output ../mocks --outpkg mocks

// ChapterService - пайплайн генерации глав и чтение историй.
type ChapterService interface {
	// Generate создаёт первую главу новой истории или следующую главу существующей.
	Generate(ctx context.Context, req models.GenerateChapterRequest) (*models.GenerateChapterResult, error)
	// ListStories - истории пользователя, новые сверху, главы по номеру.
	ListStories(ctx context.Context, userID string) ([]models.Story, error)
	// GetStory - одна история пользователя. Чужая или отсутствующая -> models.ErrNotFound.
	GetStory(ctx context.Context, userID, storyID string) (*models.Story, error)
}

// ChapterServiceDeps - зависимости пайплайна. Lock и Notifier могут быть nil.
type ChapterServiceDeps struct {
	DB          interfaces.DBTX
	Tx          interfaces.TxManager
	Repo        interfaces.StoryRepository
	Writer      ChapterWriter
	Describer   CharacterDescriber
	Illustrator Illustrator
	Narrator    Narrator
	Lock        GenerationLock
	Notifier    Notifier
	Validator   *validator.Validate
	Logger      *zap.Logger

	// для тестов
	Now   func() time.Time
	NewID func() string
}

type chapterService struct {
	db          interfaces.DBTX
	tx          interfaces.TxManager
	repo        interfaces.StoryRepository
	writer      ChapterWriter
	describer   CharacterDescriber
	illustrator Illustrator
	narrator    Narrator
	lock        GenerationLock
	notifier    Notifier
	validate    *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
	newID       func() string
}

func NewChapterService(deps ChapterServiceDeps) ChapterService {
	s := &chapterService{
		db:          deps.DB,
		tx:          deps.Tx,
		repo:        deps.Repo,
		writer:      deps.Writer,
		describer:   deps.Describer,
		illustrator: deps.Illustrator,
		narrator:    deps.Narrator,
		lock:        deps.Lock,
		notifier:    deps.Notifier,
		validate:    deps.Validator,
		logger:      deps.Logger.Named("ChapterService"),
		now:         deps.Now,
		newID:       deps.NewID,
	}
	if s.lock == nil {
		s.lock = NewNoopGenerationLock()
	}
	if s.notifier == nil {
		s.notifier = NewNoopNotifier()
	}
	if s.validate == nil {
		s.validate = NewValidator()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// storyState - то, что известно об истории до генерации.
type storyState struct {
	story    *models.Story // nil для новой истории
	number   int
	previous []string
	input    prompts.ChapterInput
	desc     string
}

// mediaResult - итог параллельных шагов иллюстрации и озвучки.
type mediaResult struct {
	illustrationURL string
	narration       NarrationResult
	warnings        []string
}

func (s *chapterService) Generate(ctx context.Context, req models.GenerateChapterRequest) (result *models.GenerateChapterResult, err error) {
	start := time.Now()
	defer func() {
		chapterRequestsTotal.WithLabelValues(outcome(err, result)).Inc()
		pipelineStepDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
	}()

	normalizeRequest(&req)
	if err := validateRequest(s.validate, &req); err != nil {
		return nil, err
	}
	if req.StoryID == "" {
		req.StoryID = s.newID()
	}
	// После валидации конвейер не отменяется вместе с запросом клиента.
	// Каждый вызов провайдера ограничен своим таймаутом.
	ctx = context.WithoutCancel(ctx)
	log := s.logger.With(zap.String("story_id", req.StoryID), zap.String("user_id", req.UserID))

	release, err := s.lock.Acquire(ctx, req.StoryID)
	if err != nil {
		log.Warn("Generation rejected, story is locked", zap.Error(err))
		return nil, err
	}
	defer release()

	state, err := s.loadState(ctx, req)
	if err != nil {
		log.Warn("Failed to resolve story state", zap.Error(err))
		return nil, err
	}
	log = log.With(zap.Int("chapter_number", state.number))
	log.Info("Generating chapter", zap.Int("previous_chapters", len(state.previous)))

	stepStart := time.Now()
	generated, err := s.writer.Write(ctx, req.UserID, state.input)
	pipelineStepDuration.WithLabelValues("text").Observe(time.Since(stepStart).Seconds())
	if err != nil {
		log.Error("Chapter text generation failed", zap.Error(err))
		return nil, err
	}

	warnings := []string{}
	if state.number == 1 {
		stepStart = time.Now()
		desc, descErr := s.describer.Describe(ctx, req.UserID, state.input.CharacterName, generated.Content)
		pipelineStepDuration.WithLabelValues("character_description").Observe(time.Since(stepStart).Seconds())
		if descErr != nil {
			softFailuresTotal.WithLabelValues("character_description").Inc()
			log.Warn("Character description unavailable, continuing without it", zap.Error(descErr))
			warnings = append(warnings, models.WarningCharacterDescription)
		} else {
			state.desc = desc
		}
	}

	media := s.synthesizeMedia(ctx, log, req.StoryID, state.number, state.desc, generated.Content)
	warnings = append(warnings, media.warnings...)

	now := s.now()
	chapter := models.Chapter{
		ID:              s.newID(),
		StoryID:         req.StoryID,
		Number:          state.number,
		Title:           generated.Title,
		Content:         generated.Content,
		IllustrationURL: media.illustrationURL,
		AudioURL:        media.narration.AudioURL,
		TimestampsURL:   media.narration.TimestampsURL,
		CreatedAt:       now,
	}

	story := state.story
	newStory := story == nil
	if newStory {
		story = &models.Story{
			ID:                   req.StoryID,
			UserID:               req.UserID,
			Title:                generated.StoryName,
			CharacterName:        req.CharacterName,
			CharacterType:        req.CharacterType,
			CharacterDescriptor:  req.Descriptor,
			Genre:                req.Genre,
			AgeRange:             req.AgeRange,
			CharacterDescription: state.desc,
			CreatedAt:            now,
		}
	}

	stepStart = time.Now()
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		if newStory {
			if err := s.repo.CreateStory(ctx, tx, story); err != nil {
				return err
			}
		}
		return s.repo.CreateChapter(ctx, tx, &chapter)
	})
	pipelineStepDuration.WithLabelValues("persist").Observe(time.Since(stepStart).Seconds())
	if err != nil {
		log.Error("Failed to persist chapter", zap.Error(err))
		if errors.Is(err, models.ErrChapterConflict) || errors.Is(err, models.ErrPersistence) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	s.notify(ctx, log, story, chapter)

	respStory := *story
	respStory.Chapters = nil
	log.Info("Chapter generated", zap.String("chapter_id", chapter.ID), zap.Strings("warnings", warnings))
	return &models.GenerateChapterResult{
		Story:     respStory,
		Chapter:   chapter,
		StoryName: story.Title,
		Warnings:  warnings,
	}, nil
}

// loadState определяет номер главы и контекст по сохранённым данным.
// Сохранённые главы и описание героя приоритетнее присланных клиентом.
func (s *chapterService) loadState(ctx context.Context, req models.GenerateChapterRequest) (*storyState, error) {
	existing, err := s.repo.GetStory(ctx, s.db, req.StoryID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	if existing == nil {
		if req.NextChapterNumber > 1 {
			return nil, fmt.Errorf("%w: story %s has no chapters, requested chapter %d", models.ErrChapterConflict, req.StoryID, req.NextChapterNumber)
		}
		return &storyState{
			number: 1,
			input: prompts.ChapterInput{
				CharacterName: req.CharacterName,
				CharacterType: req.CharacterType,
				Descriptor:    req.Descriptor,
				Genre:         req.Genre,
				AgeRange:      req.AgeRange,
				ChapterNumber: 1,
			},
			desc: req.CharacterDescription,
		}, nil
	}

	if existing.UserID != req.UserID {
		return nil, fmt.Errorf("%w: story %s", models.ErrNotFound, req.StoryID)
	}
	number := existing.NextChapterNumber()
	if req.NextChapterNumber != 0 && req.NextChapterNumber != number {
		return nil, fmt.Errorf("%w: story %s expects chapter %d, requested %d", models.ErrChapterConflict, req.StoryID, number, req.NextChapterNumber)
	}

	previous := existing.ChapterContents()
	desc := existing.CharacterDescription
	if desc == "" {
		desc = req.CharacterDescription
	}
	return &storyState{
		story:    existing,
		number:   number,
		previous: previous,
		input: prompts.ChapterInput{
			CharacterName:    existing.CharacterName,
			CharacterType:    existing.CharacterType,
			Descriptor:       existing.CharacterDescriptor,
			Genre:            existing.Genre,
			AgeRange:         existing.AgeRange,
			PreviousChapters: previous,
			ChapterNumber:    number,
		},
		desc: desc,
	}, nil
}

// synthesizeMedia запускает иллюстрацию и озвучку параллельно и ждёт обе.
// Сбой одного шага не отменяет другой.
func (s *chapterService) synthesizeMedia(ctx context.Context, log *zap.Logger, storyID string, number int, desc, content string) mediaResult {
	var (
		wg              sync.WaitGroup
		illustrationURL string
		illustrationErr error
		narration       NarrationResult
		narrationErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		start := time.Now()
		illustrationURL, illustrationErr = s.illustrator.Illustrate(ctx, storyID, number, desc, content)
		pipelineStepDuration.WithLabelValues("illustration").Observe(time.Since(start).Seconds())
	}()
	go func() {
		defer wg.Done()
		start := time.Now()
		narration, narrationErr = s.narrator.Narrate(ctx, storyID, number, content)
		pipelineStepDuration.WithLabelValues("narration").Observe(time.Since(start).Seconds())
	}()
	wg.Wait()

	res := mediaResult{}
	if illustrationErr != nil {
		softFailuresTotal.WithLabelValues("illustration").Inc()
		log.Warn("Illustration unavailable", zap.Error(illustrationErr))
		res.warnings = append(res.warnings, models.WarningIllustration)
	} else {
		res.illustrationURL = illustrationURL
	}
	if narrationErr != nil {
		softFailuresTotal.WithLabelValues("narration").Inc()
		log.Warn("Narration unavailable", zap.Error(narrationErr))
		res.warnings = append(res.warnings, models.WarningNarration)
	} else {
		res.narration = narration
	}
	return res
}

func (s *chapterService) notify(ctx context.Context, log *zap.Logger, story *models.Story, ch models.Chapter) {
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	err := s.notifier.NotifyChapterGenerated(notifyCtx, models.ChapterGeneratedEvent{
		StoryID:         story.ID,
		UserID:          story.UserID,
		ChapterID:       ch.ID,
		ChapterNumber:   ch.Number,
		Title:           ch.Title,
		HasIllustration: ch.IllustrationURL != "",
		HasNarration:    ch.AudioURL != "",
	})
	if err != nil {
		softFailuresTotal.WithLabelValues("notify").Inc()
		log.Warn("Failed to publish chapter event", zap.Error(err))
	}
}

func (s *chapterService) ListStories(ctx context.Context, userID string) ([]models.Story, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", models.ErrValidation)
	}
	return s.repo.ListByUser(ctx, s.db, userID)
}

func (s *chapterService) GetStory(ctx context.Context, userID, storyID string) (*models.Story, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", models.ErrValidation)
	}
	story, err := s.repo.GetStory(ctx, s.db, storyID)
	if err != nil {
		return nil, err
	}
	if story.UserID != userID {
		return nil, fmt.Errorf("%w: story %s", models.ErrNotFound, storyID)
	}
	return story, nil
}

func normalizeRequest(req *models.GenerateChapterRequest) {
	req.StoryID = strings.TrimSpace(req.StoryID)
	req.UserID = strings.TrimSpace(req.UserID)
	req.CharacterName = strings.TrimSpace(req.CharacterName)
	req.CharacterType = strings.TrimSpace(req.CharacterType)
	req.AgeRange = strings.TrimSpace(req.AgeRange)
	req.Genre = strings.TrimSpace(req.Genre)
	req.Descriptor = strings.TrimSpace(req.Descriptor)
	req.CharacterDescription = strings.TrimSpace(req.CharacterDescription)
}

// outcome - метка для storybook_chapter_requests_total.
func outcome(err error, result *models.GenerateChapterResult) string {
	var vErr *schemas.ValidationError
	switch {
	case err == nil && result != nil && len(result.Warnings) > 0:
		return "degraded"
	case err == nil:
		return "success"
	case errors.Is(err, models.ErrValidation):
		return "validation"
	case errors.As(err, &vErr), errors.Is(err, models.ErrInvalidGenerationOutput):
		return "invalid_output"
	case errors.Is(err, models.ErrUpstreamUnavailable):
		return "upstream"
	case errors.Is(err, models.ErrChapterConflict), errors.Is(err, models.ErrGenerationInProgress):
		return "conflict"
	case errors.Is(err, models.ErrPersistence):
		return "persistence"
	default:
		return "error"
	}
}

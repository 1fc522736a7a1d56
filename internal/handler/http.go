package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storybook-server/internal/models"
	"storybook-server/internal/service"
	"storybook-server/internal/storage"
)

// FileResolver отдаёт путь к файлу объекта по подписанной ссылке (локальное хранилище).
type FileResolver interface {
	Open(object, token string) (string, error)
}

// ChapterHandler обрабатывает HTTP запросы генерации и чтения историй.
type ChapterHandler struct {
	service service.ChapterService
	files   FileResolver
	tokens  *TokenVerifier
	logger  *zap.Logger
}

// NewChapterHandler - files и tokens могут быть nil: без локального хранилища /files не регистрируется,
// без секрета JWT userId берётся из запроса.
func NewChapterHandler(s service.ChapterService, files FileResolver, tokens *TokenVerifier, logger *zap.Logger) *ChapterHandler {
	return &ChapterHandler{
		service: s,
		files:   files,
		tokens:  tokens,
		logger:  logger.Named("ChapterHandler"),
	}
}

// RegisterRoutes регистрирует маршруты API и раздачу файлов.
func (h *ChapterHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	if h.tokens != nil {
		api.Use(h.tokens.Middleware(h.logger))
	}
	{
		api.POST("/chapters/generate", h.generateChapter)
		api.GET("/stories", h.listStories)
		api.GET("/stories/:id", h.getStory)
	}

	if h.files != nil {
		router.GET("/files/*path", h.serveFile)
		router.HEAD("/files/*path", h.serveFile)
	}
}

func (h *ChapterHandler) generateChapter(c *gin.Context) {
	var req models.GenerateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid generate request body", zap.Error(err))
		writeError(c, http.StatusBadRequest, models.ErrCodeValidation, "invalid request body: "+err.Error())
		return
	}
	if userID, ok := authenticatedUserID(c); ok {
		req.UserID = userID
	}

	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ChapterHandler) listStories(c *gin.Context) {
	userID := h.requestUserID(c)
	stories, err := h.service.ListStories(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if stories == nil {
		stories = []models.Story{}
	}
	c.JSON(http.StatusOK, gin.H{"stories": stories})
}

func (h *ChapterHandler) getStory(c *gin.Context) {
	userID := h.requestUserID(c)
	story, err := h.service.GetStory(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"story": story})
}

// serveFile отдаёт объект локального хранилища по ссылке из SignedURL.
func (h *ChapterHandler) serveFile(c *gin.Context) {
	object := strings.TrimPrefix(c.Param("path"), "/")
	path, err := h.files.Open(object, c.Query("token"))
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidKey):
			writeError(c, http.StatusBadRequest, models.ErrCodeValidation, "invalid object path")
		case errors.Is(err, storage.ErrLinkInvalid):
			writeError(c, http.StatusUnauthorized, models.ErrCodeUnauthorized, "link is invalid or expired")
		case errors.Is(err, storage.ErrObjectMissing):
			writeError(c, http.StatusNotFound, models.ErrCodeNotFound, "object not found")
		default:
			_ = c.Error(err)
			writeError(c, http.StatusInternalServerError, models.ErrCodeInternal, "Internal server error")
		}
		return
	}
	// ссылки долгоживущие, объект по ключу может быть перезаписан
	c.Header("Cache-Control", "private, max-age=300")
	c.File(path)
}

// requestUserID - пользователь из токена, иначе из ?userId=.
func (h *ChapterHandler) requestUserID(c *gin.Context) string {
	if userID, ok := authenticatedUserID(c); ok {
		return userID
	}
	return c.Query("userId")
}

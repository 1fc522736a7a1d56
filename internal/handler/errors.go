package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storybook-server/internal/models"
)

// writeError пишет ErrorResponse и прерывает цепочку.
func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: message, Code: code})
}

// handleServiceError переводит ошибки сервиса в HTTP статус и код.
// Детали ошибок провайдеров и БД клиенту не отдаются, они попадают в лог через c.Error.
func handleServiceError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, models.ErrValidation):
		writeError(c, http.StatusBadRequest, models.ErrCodeValidation, err.Error())
	case errors.Is(err, models.ErrUnauthorized):
		writeError(c, http.StatusUnauthorized, models.ErrCodeUnauthorized, "Unauthorized")
	case errors.Is(err, models.ErrNotFound):
		writeError(c, http.StatusNotFound, models.ErrCodeNotFound, "Story not found")
	case errors.Is(err, models.ErrGenerationInProgress):
		writeError(c, http.StatusConflict, models.ErrCodeInProgress, "A chapter for this story is already being generated")
	case errors.Is(err, models.ErrChapterConflict):
		writeError(c, http.StatusConflict, models.ErrCodeChapterConflict, err.Error())
	case errors.Is(err, models.ErrInvalidGenerationOutput):
		writeError(c, http.StatusBadGateway, models.ErrCodeInvalidOutput, "Story generator returned an invalid chapter")
	case errors.Is(err, models.ErrUpstreamUnavailable):
		writeError(c, http.StatusBadGateway, models.ErrCodeUpstream, "Story generator is unavailable")
	case errors.Is(err, models.ErrPersistence):
		writeError(c, http.StatusInternalServerError, models.ErrCodePersistence, "Storage failure")
	default:
		writeError(c, http.StatusInternalServerError, models.ErrCodeInternal, "Internal server error")
	}
}

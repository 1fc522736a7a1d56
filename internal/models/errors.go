package models

import "errors"

// Ошибки пайплайна генерации глав. Сервисы оборачивают их через %w,
// HTTP слой классифицирует через errors.Is.
var (
	// Входные данные
	ErrValidation = errors.New("validation error")

	// Внешние провайдеры (LLM, изображения, речь)
	ErrUpstreamUnavailable     = errors.New("upstream provider unavailable")
	ErrInvalidGenerationOutput = errors.New("invalid generation output")

	// Хранилище
	ErrChapterConflict = errors.New("chapter number already exists for this story")
	ErrPersistence     = errors.New("persistence failure")
	ErrNotFound        = errors.New("resource not found")

	ErrGenerationInProgress = errors.New("generation is already in progress for this story")
	ErrUnauthorized         = errors.New("unauthorized")
)

// Коды ошибок в JSON ответе.
const (
	ErrCodeValidation       = "validation_error"
	ErrCodeUpstream         = "upstream_unavailable"
	ErrCodeInvalidOutput    = "invalid_generation_output"
	ErrCodeChapterConflict  = "chapter_conflict"
	ErrCodeInProgress       = "generation_in_progress"
	ErrCodePersistence      = "persistence_error"
	ErrCodeNotFound         = "not_found"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"
)

// ErrorResponse - тело ответа об ошибке.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

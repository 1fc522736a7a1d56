package schemas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"storybook-server/internal/models"
)

// GeneratedChapter - типизированный ответ LLM.
// StoryName заполняется только для первой главы.
type GeneratedChapter struct {
	StoryName string
	Title     string
	Content   string
}

// ValidationError описывает, чем ответ модели не подошёл под контракт.
// Unwrap отдаёт models.ErrInvalidGenerationOutput.
type ValidationError struct {
	Reason        string
	MissingFields []string
	Raw           string
}

func (e *ValidationError) Error() string {
	if len(e.MissingFields) > 0 {
		return fmt.Sprintf("%s: %s (missing: %s)", models.ErrInvalidGenerationOutput, e.Reason, strings.Join(e.MissingFields, ", "))
	}
	return fmt.Sprintf("%s: %s", models.ErrInvalidGenerationOutput, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return models.ErrInvalidGenerationOutput
}

// chapterPayload - сырой JSON. Неизвестные ключи игнорируются.
type chapterPayload struct {
	StoryName *string `json:"storyName"`
	Title     *string `json:"title"`
	Content   *string `json:"content"`
}

// ParseChapter проверяет ответ модели. Для первой главы storyName обязателен.
// Результат либо полностью заполнен, либо nil и *ValidationError.
func ParseChapter(raw string, firstChapter bool) (*GeneratedChapter, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return nil, &ValidationError{Reason: "empty response", Raw: raw}
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	var payload chapterPayload
	if err := dec.Decode(&payload); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("response is not a JSON object: %v", err), Raw: raw}
	}
	// после объекта не должно быть ничего, кроме пробелов
	if dec.More() {
		return nil, &ValidationError{Reason: "trailing data after JSON object", Raw: raw}
	}

	var missing []string
	if firstChapter && isBlank(payload.StoryName) {
		missing = append(missing, "storyName")
	}
	if isBlank(payload.Title) {
		missing = append(missing, "title")
	}
	if isBlank(payload.Content) {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Reason: "required fields are missing or empty", MissingFields: missing, Raw: raw}
	}

	out := &GeneratedChapter{
		Title:   strings.TrimSpace(*payload.Title),
		Content: strings.TrimSpace(*payload.Content),
	}
	if firstChapter {
		out.StoryName = strings.TrimSpace(*payload.StoryName)
	}
	return out, nil
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// stripCodeFence убирает обёртку ```json ... ```, которую модели иногда добавляют даже в JSON режиме.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// язык после ``` (json, JSON)
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "json"), "JSON")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

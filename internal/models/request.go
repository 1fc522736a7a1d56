package models

// GenerateChapterRequest - запрос на первую или следующую главу.
// PreviousChapters и CharacterDescription принимаются для совместимости со старыми клиентами
// и игнорируются: контекст продолжения берётся из сохранённых глав.
type GenerateChapterRequest struct {
	StoryID              string   `json:"storyId" validate:"omitempty,max=64,objectkey"`
	UserID               string   `json:"userId" validate:"required,max=128"`
	CharacterName        string   `json:"characterName" validate:"required,max=100"`
	CharacterType        string   `json:"characterType" validate:"required,max=100"`
	AgeRange             string   `json:"ageRange" validate:"required,agerange"`
	Genre                string   `json:"genre" validate:"max=100"`
	Descriptor           string   `json:"descriptor" validate:"max=200"`
	CharacterDescription string   `json:"characterDescription" validate:"max=2000"`
	PreviousChapters     []string `json:"previousChapters" validate:"max=200"`
	NextChapterNumber    int      `json:"nextChapterNumber" validate:"gte=0"`
}

// Warning-коды деградации медиа в успешном ответе.
const (
	WarningCharacterDescription = "character_description_unavailable"
	WarningIllustration         = "illustration_unavailable"
	WarningNarration            = "narration_unavailable"
)

// GenerateChapterResult - результат пайплайна.
type GenerateChapterResult struct {
	Story     Story    `json:"story"`
	Chapter   Chapter  `json:"chapter"`
	StoryName string   `json:"storyName"`
	Warnings  []string `json:"warnings"`
}

// ChapterGeneratedEvent публикуется после успешного коммита.
type ChapterGeneratedEvent struct {
	Event           string `json:"event"`
	StoryID         string `json:"storyId"`
	UserID          string `json:"userId"`
	ChapterID       string `json:"chapterId"`
	ChapterNumber   int    `json:"chapterNumber"`
	Title           string `json:"title"`
	HasIllustration bool   `json:"hasIllustration"`
	HasNarration    bool   `json:"hasNarration"`
}

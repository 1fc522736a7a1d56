package models

import (
	"sort"
	"time"
)

// Story - история пользователя. После создания меняется только набор глав.
type Story struct {
	ID                   string    `json:"id" db:"id"`
	UserID               string    `json:"userId" db:"user_id"`
	Title                string    `json:"title" db:"title"`
	CharacterName        string    `json:"characterName" db:"character_name"`
	CharacterType        string    `json:"characterType" db:"character_type"`
	CharacterDescriptor  string    `json:"characterDescriptor" db:"character_descriptor"`
	Genre                string    `json:"genre" db:"genre"`
	AgeRange             string    `json:"ageRange" db:"age_range"`
	CharacterDescription string    `json:"characterDescription" db:"character_description"`
	CreatedAt            time.Time `json:"createdAt" db:"created_at"`
	Chapters             []Chapter `json:"chapters,omitempty" db:"-"`
}

// Chapter - глава истории. Пишется один раз, номер уникален в пределах истории.
type Chapter struct {
	ID              string    `json:"id" db:"id"`
	StoryID         string    `json:"storyId" db:"story_id"`
	Number          int       `json:"number" db:"number"`
	Title           string    `json:"title" db:"title"`
	Content         string    `json:"content" db:"content"`
	IllustrationURL string    `json:"illustrationUrl" db:"illustration_url"`
	AudioURL        string    `json:"audioUrl,omitempty" db:"audio_url"`
	TimestampsURL   string    `json:"timestampsUrl,omitempty" db:"timestamps_url"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}

// WordTiming - слово из синтезированного аудио и его границы в секундах.
type WordTiming struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// SortChapters упорядочивает главы по номеру.
func (s *Story) SortChapters() {
	sort.Slice(s.Chapters, func(i, j int) bool { return s.Chapters[i].Number < s.Chapters[j].Number })
}

// NextChapterNumber - номер следующей главы: max(number)+1, для пустой истории 1.
func (s *Story) NextChapterNumber() int {
	last := 0
	for _, ch := range s.Chapters {
		if ch.Number > last {
			last = ch.Number
		}
	}
	return last + 1
}

// ChapterContents возвращает тексты глав по порядку номеров.
func (s *Story) ChapterContents() []string {
	s.SortChapters()
	out := make([]string, 0, len(s.Chapters))
	for _, ch := range s.Chapters {
		out = append(out, ch.Content)
	}
	return out
}

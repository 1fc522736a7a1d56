package prompts

import (
	"fmt"
	"strings"
)

// IllustrationPreamble - общий стиль всех иллюстраций.
const IllustrationPreamble = "A beautiful, hand-painted illustration for a children's story book, whimsical and colorful, suitable for young readers. IMPORTANT: There is no text in the image. "

// CharacterDescriptionSystemPrompt - системная инструкция для описания внешности героя.
const CharacterDescriptionSystemPrompt = "You are a helpful assistant that creates consistent visual descriptions of characters for children's book illustrations. " +
	"Keep the description concise, 2-3 sentences and optimized for sending to image generation."

// CharacterDescriptionUserPrompt просит описать главного героя по тексту первой главы.
func CharacterDescriptionUserPrompt(characterName, chapterContent string) string {
	return fmt.Sprintf("Based on this story, create a detailed visual description of the main character (%s): %s", characterName, chapterContent)
}

// IllustrationPrompt = преамбула + внешность героя (если есть) + текст главы.
func IllustrationPrompt(characterDescription, chapterContent string) string {
	var b strings.Builder
	b.WriteString(IllustrationPreamble)
	if d := strings.TrimSpace(characterDescription); d != "" {
		b.WriteString("The main character looks like: ")
		b.WriteString(strings.TrimSuffix(d, "."))
		b.WriteString(". ")
	}
	b.WriteString(chapterContent)
	return b.String()
}

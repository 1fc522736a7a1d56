package prompts

import (
	"fmt"
	"strings"
)

// ChapterInput - всё, что нужно LLM для следующей главы.
type ChapterInput struct {
	CharacterName    string
	CharacterType    string
	Descriptor       string
	Genre            string
	AgeRange         string
	PreviousChapters []string
	ChapterNumber    int
}

// IsFirst - первая глава задаёт название истории.
func (in ChapterInput) IsFirst() bool {
	return in.ChapterNumber <= 1
}

// ChapterSystemPrompt собирает системную инструкцию: роль, стиль по возрасту и JSON контракт.
func ChapterSystemPrompt(in ChapterInput) (string, error) {
	style, ok := StyleFor(in.AgeRange)
	if !ok {
		return "", fmt.Errorf("unknown age range %q", in.AgeRange)
	}

	var b strings.Builder
	b.WriteString("You are a helpful assistant that generates stories for children. ")
	if in.IsFirst() {
		b.WriteString("Your job is to generate a story for the user, one chapter at a time. ")
	} else {
		b.WriteString("Your job is to generate the next chapter of an ongoing story. ")
	}
	fmt.Fprintf(&b, "Please be creative and engaging, and follow these guidelines for %s readers: %s\n\n", in.AgeRange, style)
	if in.IsFirst() {
		b.WriteString(`Respond with only a JSON object with exactly these keys: "storyName" (a short title for the whole story), "title" (the chapter title) and "content" (the chapter text). `)
	} else {
		b.WriteString(`Respond with only a JSON object with exactly these keys: "title" (the chapter title) and "content" (the chapter text). `)
	}
	b.WriteString("Do not wrap the JSON in markdown and do not add any text outside of it.")
	return b.String(), nil
}

// ChapterUserPrompt описывает персонажа, предыдущие главы и номер новой главы.
func ChapterUserPrompt(in ChapterInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The character name is %s, the type of character is %s.", in.CharacterName, characterPhrase(in.Descriptor, in.CharacterType))
	if g := strings.TrimSpace(in.Genre); g != "" {
		fmt.Fprintf(&b, " The genre of the story is %s.", g)
	}
	b.WriteString("\n")
	if !in.IsFirst() && len(in.PreviousChapters) > 0 {
		b.WriteString("This is the story so far:\n\n")
		b.WriteString(strings.Join(in.PreviousChapters, "\n\n"))
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Please generate Chapter %d. Make sure to only return one chapter at a time.", chapterNumber(in.ChapterNumber))
	return b.String()
}

func chapterNumber(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func characterPhrase(descriptor, characterType string) string {
	descriptor = strings.TrimSpace(descriptor)
	if descriptor == "" {
		return characterType
	}
	return descriptor + " " + characterType
}

package content

import (
	"fmt"
	"strings"

	"github.com/abhisek/studybuddy/internal/difficulty"
)

const systemPrompt = `You write short daily practice material for children from junior kindergarten to grade 8.

RULES:
- Make all content age appropriate and engaging.
- Keep answers concise but correct.
- Use plain ASCII text, no markdown.
- Respond with valid minified JSON only.`

func dailyActivityPrompt(grade string, level difficulty.Level, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create today's activity for a %s student at %s difficulty.\n", gradeLabel(grade), strings.ToLower(level.String()))
	fmt.Fprintf(&b, "- mathQuestions: exactly %d math questions with answers.\n", n)
	b.WriteString("- readingPassage: one short reading passage.\n")
	fmt.Fprintf(&b, "- readingQuestions: exactly %d questions about the passage with answers.\n", n)
	return b.String()
}

func spellingWordsPrompt(grade string, level difficulty.Level, n int) string {
	return fmt.Sprintf(
		"Provide %d spelling words for a %s student at %s difficulty. Use single lowercase words with letters only.",
		n, gradeLabel(grade), strings.ToLower(level.String()),
	)
}

func gradeLabel(grade string) string {
	switch grade {
	case "JK":
		return "junior kindergarten"
	case "SK":
		return "senior kindergarten"
	}
	return "grade " + grade
}

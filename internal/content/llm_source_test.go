package content

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/studybuddy/internal/difficulty"
	"github.com/abhisek/studybuddy/internal/llm"
	"github.com/abhisek/studybuddy/internal/metrics"
)

func questions(n int) []map[string]string {
	qs := make([]map[string]string, n)
	for i := range qs {
		qs[i] = map[string]string{"question": "What is 1+1?", "answer": "2"}
	}
	return qs
}

func dailyPayload() map[string]any {
	return map[string]any{
		"mathQuestions":    questions(QuizLength),
		"readingPassage":   "The cat sat on the mat.",
		"readingQuestions": questions(QuizLength),
	}
}

func TestGenerateDailyContent(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockJSON(dailyPayload()))
	src := NewLLMSource(mock, DefaultConfig(), metrics.New())

	got, err := src.GenerateDailyContent(context.Background(), "3", difficulty.Medium)
	require.NoError(t, err)
	assert.Len(t, got.MathQuestions, QuizLength)
	assert.Len(t, got.ReadingQuestions, QuizLength)
	assert.Equal(t, "The cat sat on the mat.", got.ReadingPassage)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "daily-content", calls[0].Purpose)
	assert.Same(t, DailyActivitySchema, calls[0].Schema)
	assert.Contains(t, calls[0].Messages[0].Content, "grade 3 student at medium difficulty")
}

func TestGenerateDailyContent_Failures(t *testing.T) {
	incomplete := dailyPayload()
	incomplete["readingPassage"] = ""

	blankAnswer := dailyPayload()
	blankAnswer["mathQuestions"] = []map[string]string{{"question": "2+2?", "answer": " "}}

	tests := []struct {
		name  string
		reply llm.MockResponse
	}{
		{"provider error", llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}}},
		{"missing reading questions", llm.MockJSON(map[string]any{"mathQuestions": questions(2), "readingPassage": "p"})},
		{"empty passage", llm.MockJSON(incomplete)},
		{"blank answer", llm.MockJSON(blankAnswer)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewLLMSource(llm.NewMockProvider(tt.reply), DefaultConfig(), nil)

			_, err := src.GenerateDailyContent(context.Background(), "SK", difficulty.Easy)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrContentGeneration)

			var genErr *GenerationError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, "SK", genErr.Grade)
			assert.Equal(t, difficulty.Easy, genErr.Level)
		})
	}
}

func TestGenerateDailyContent_FencedReply(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: []byte("```json\n{\"mathQuestions\":[{\"question\":\"1+1\",\"answer\":\"2\"}],\"readingPassage\":\"Hi.\",\"readingQuestions\":[{\"question\":\"Who?\",\"answer\":\"Me\"}]}\n```"),
	})
	src := NewLLMSource(mock, DefaultConfig(), nil)

	got, err := src.GenerateDailyContent(context.Background(), "1", difficulty.Hard)
	require.NoError(t, err)
	assert.Equal(t, "Hi.", got.ReadingPassage)
}

func TestGenerateSpellingWords(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockJSON(map[string]any{"words": []string{" Cat", "dog "}}))
	src := NewLLMSource(mock, DefaultConfig(), nil)

	words, err := src.GenerateSpellingWords(context.Background(), "JK", difficulty.Medium)
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "dog"}, words)
	assert.Contains(t, mock.Calls()[0].Messages[0].Content, "junior kindergarten")
}

func TestGenerateSpellingWords_Invalid(t *testing.T) {
	for name, reply := range map[string]llm.MockResponse{
		"empty list":   llm.MockJSON(map[string]any{"words": []string{}}),
		"not letters":  llm.MockJSON(map[string]any{"words": []string{"cat", "ice cream"}}),
		"wrong shape":  llm.MockJSON([]string{"cat"}),
		"provider err": {Err: errors.New("boom")},
	} {
		t.Run(name, func(t *testing.T) {
			src := NewLLMSource(llm.NewMockProvider(reply), DefaultConfig(), nil)

			_, err := src.GenerateSpellingWords(context.Background(), "2", difficulty.Medium)
			assert.ErrorIs(t, err, ErrContentGeneration)
		})
	}
}

func TestValidGrade(t *testing.T) {
	assert.True(t, ValidGrade("JK"))
	assert.True(t, ValidGrade("8"))
	assert.False(t, ValidGrade("9"))
	assert.False(t, ValidGrade(""))
}

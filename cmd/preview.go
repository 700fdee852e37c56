package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/studybuddy/internal/config"
	"github.com/abhisek/studybuddy/internal/content"
	"github.com/abhisek/studybuddy/internal/difficulty"
	"github.com/abhisek/studybuddy/internal/llm"
	"github.com/abhisek/studybuddy/internal/logging"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview generated content for a grade (no database)",
	Long: `Generate a daily activity or a spelling list and print it.

This is a stateless developer tool: nothing is stored and model calls are
not recorded. Useful for checking content quality across grades and
difficulties. With --quiz the math questions are asked interactively.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().String("grade", "", "Grade level: JK, SK or 1-8 (required)")
	previewCmd.Flags().String("difficulty", "medium", "Difficulty: easy, medium or hard")
	previewCmd.Flags().Bool("spelling", false, "Generate a spelling list instead of an activity")
	previewCmd.Flags().Bool("quiz", false, "Answer the math questions interactively")
	_ = previewCmd.MarkFlagRequired("grade")
}

func runPreview(cmd *cobra.Command, args []string) error {
	grade, _ := cmd.Flags().GetString("grade")
	levelVal, _ := cmd.Flags().GetString("difficulty")
	spellingOnly, _ := cmd.Flags().GetBool("spelling")
	quiz, _ := cmd.Flags().GetBool("quiz")

	if !content.ValidGrade(grade) {
		return fmt.Errorf("invalid grade %q: must be one of %s", grade, strings.Join(content.Grades, ", "))
	}
	level, err := difficulty.ParseLevel(levelVal)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if _, err := logging.Setup(os.Stderr, cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}
	src, err := previewSource(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Grade %s, %s\n", grade, level)
	if spellingOnly {
		words, err := src.GenerateSpellingWords(cmd.Context(), grade, level)
		if err != nil {
			return err
		}
		for i, w := range words {
			fmt.Printf("%2d. %s\n", i+1, w)
		}
		return nil
	}

	dc, err := src.GenerateDailyContent(cmd.Context(), grade, level)
	if err != nil {
		return err
	}
	if quiz {
		return runQuiz(dc.MathQuestions)
	}

	fmt.Println()
	fmt.Println("MATH")
	printQuestions(dc.MathQuestions, true)
	fmt.Println()
	fmt.Println("READING")
	fmt.Println(dc.ReadingPassage)
	fmt.Println()
	printQuestions(dc.ReadingQuestions, true)
	return nil
}

func previewSource(ctx context.Context, cfg *config.Config) (*content.LLMSource, error) {
	provider, err := llm.NewProvider(ctx, cfg.Provider(), nil)
	if err != nil {
		return nil, fmt.Errorf("LLM provider: %w", err)
	}
	return content.NewLLMSource(provider, cfg.ContentSource(), nil), nil
}

func runQuiz(qs []content.Question) error {
	scanner := bufio.NewScanner(os.Stdin)
	var correct int

	for i, q := range qs {
		fmt.Printf("── Question %d/%d ──\n", i+1, len(qs))
		fmt.Println(q.Question)

		fmt.Print("\nYour answer: ")
		if !scanner.Scan() {
			fmt.Println("\n(input closed)")
			break
		}
		answer := strings.TrimSpace(scanner.Text())
		switch {
		case answer == "":
			fmt.Println("(skipped)")
		case strings.EqualFold(answer, strings.TrimSpace(q.Answer)):
			correct++
			fmt.Println("\033[32m✓ Correct!\033[0m")
		default:
			fmt.Printf("\033[31m✗ Not quite.\033[0m Answer: %s\n", q.Answer)
		}
		fmt.Println()
	}

	fmt.Printf("── Summary: %d/%d correct ──\n", correct, len(qs))
	return scanner.Err()
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/studybuddy/internal/activity"
	"github.com/abhisek/studybuddy/internal/content"
)

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's activity for a child, generating it if needed",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		child, _, err := d.learner(cmd)
		if err != nil {
			return err
		}
		activities, err := d.activities(cmd.Context())
		if err != nil {
			return err
		}
		a, err := activities.GetOrCreateToday(cmd.Context(), child.ActivityLearner())
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(a)
		}
		answers, _ := cmd.Flags().GetBool("answers")
		printActivity(a, answers)
		return nil
	},
}

var viewedCmd = &cobra.Command{
	Use:   "viewed <activity-id>",
	Short: "Mark an activity as done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		// Status changes never generate content, so no provider is needed.
		m := activity.NewManager(d.store.ActivityRepo(), nil, activity.Options{Metrics: d.metrics})
		if err := m.MarkViewed(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Marked %s as viewed.\n", args[0])
		return nil
	},
}

var gradeCmd = &cobra.Command{
	Use:   "grade <activity-id>",
	Short: "Grade an activity from the number of correct answers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mathCorrect, _ := cmd.Flags().GetInt("math")
		readingCorrect, _ := cmd.Flags().GetInt("reading")
		if mathCorrect < 0 || readingCorrect < 0 {
			return fmt.Errorf("correct counts cannot be negative")
		}

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		m := activity.NewManager(d.store.ActivityRepo(), nil, activity.Options{Metrics: d.metrics})
		a, err := m.Grade(cmd.Context(), args[0], mathCorrect, readingCorrect)
		if err != nil {
			return err
		}
		fmt.Printf("Math:    %5.1f%%\n", a.Score.Math)
		fmt.Printf("Reading: %5.1f%%\n", a.Score.Reading)
		fmt.Printf("Overall: %5.1f%%\n", a.Score.Overall)
		return nil
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "List a child's completed activities and spelling results",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		child, parentID, err := d.learner(cmd)
		if err != nil {
			return err
		}
		m := activity.NewManager(d.store.ActivityRepo(), nil, activity.Options{})
		completed, err := m.ListCompleted(cmd.Context(), child.ID)
		if err != nil {
			return err
		}
		results, err := d.families().SpellingProgress(cmd.Context(), parentID, child.ID)
		if err != nil {
			return err
		}

		fmt.Printf("%s (grade %s)\n\n", child.Name, child.GradeLevel)
		fmt.Println("Activities")
		fmt.Println(strings.Repeat("─", 48))
		if len(completed) == 0 {
			fmt.Println("none yet")
		}
		for _, a := range completed {
			score := "not graded"
			if a.Score != nil {
				score = fmt.Sprintf("%5.1f%%  (math %.0f%%, reading %.0f%%)", a.Score.Overall, a.Score.Math, a.Score.Reading)
			}
			fmt.Printf("%s  %-6s  %s\n", a.Date, a.Difficulty, score)
		}

		fmt.Println()
		fmt.Println("Spelling")
		fmt.Println(strings.Repeat("─", 48))
		if len(results) == 0 {
			fmt.Println("none yet")
		}
		for _, r := range results {
			fmt.Printf("%s  %2d words  %5.1f%%\n",
				r.Timestamp.Local().Format("2006-01-02 15:04"), len(r.Words), r.Score)
		}
		return nil
	},
}

func init() {
	addLearnerFlags(todayCmd)
	todayCmd.Flags().Bool("answers", false, "Include answers")
	todayCmd.Flags().Bool("json", false, "Print the activity as JSON")

	gradeCmd.Flags().Int("math", 0, "Correct math answers")
	gradeCmd.Flags().Int("reading", 0, "Correct reading answers")
	_ = gradeCmd.MarkFlagRequired("math")
	_ = gradeCmd.MarkFlagRequired("reading")

	addLearnerFlags(progressCmd)
}

func printActivity(a *activity.Activity, answers bool) {
	sep := strings.Repeat("─", 60)
	fmt.Printf("ID:         %s\n", a.ID)
	fmt.Printf("Date:       %s\n", a.Date)
	fmt.Printf("Difficulty: %s\n", a.Difficulty)
	fmt.Printf("Status:     %s\n", a.Status)
	if a.Score != nil {
		fmt.Printf("Score:      %.1f%%\n", a.Score.Overall)
	}

	fmt.Println(sep)
	fmt.Println("MATH")
	fmt.Println(sep)
	printQuestions(a.MathQuestions, answers)

	fmt.Println(sep)
	fmt.Println("READING")
	fmt.Println(sep)
	fmt.Println(a.ReadingPassage)
	fmt.Println()
	printQuestions(a.ReadingQuestions, answers)
}

func printQuestions(qs []content.Question, answers bool) {
	for i, q := range qs {
		fmt.Printf("%2d. %s\n", i+1, q.Question)
		if answers {
			fmt.Printf("    → %s\n", q.Answer)
		}
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

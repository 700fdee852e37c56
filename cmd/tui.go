package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/abhisek/studybuddy/internal/activity"
	"github.com/abhisek/studybuddy/internal/app"
	"github.com/abhisek/studybuddy/internal/content"
	"github.com/abhisek/studybuddy/internal/family"
	"github.com/abhisek/studybuddy/internal/router"
	"github.com/abhisek/studybuddy/internal/screens/home"
	"github.com/abhisek/studybuddy/internal/screens/progress"
	spellscreen "github.com/abhisek/studybuddy/internal/screens/spelling"
	"github.com/abhisek/studybuddy/internal/screens/today"
	"github.com/abhisek/studybuddy/internal/screens/welcome"
	"github.com/abhisek/studybuddy/internal/speech"
	"github.com/abhisek/studybuddy/internal/spelling"
)

var spellCmd = &cobra.Command{
	Use:   "spell",
	Short: "Practice spelling in the terminal",
	Long: `Reads each word aloud with espeak-ng, espeak or say when available,
otherwise shows it as a caption, and checks the spelling you type.`,
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
		src, err := d.contentSource(cmd.Context())
		if err != nil {
			return err
		}
		ui := d.newTUI(src, parentID)
		return app.Run(cmd.Context(), ui.spelling(*child), child.Name)
	},
}

var practiceCmd = &cobra.Command{
	Use:   "practice <parent-id>",
	Short: "Open the learning app for one of a parent's children",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		p, err := d.families().GetParent(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		src, err := d.contentSource(cmd.Context())
		if err != nil {
			return err
		}
		ui := d.newTUI(src, p.ID)
		return app.Run(cmd.Context(), welcome.New(p.Children, ui.home), "")
	},
}

func init() {
	addLearnerFlags(spellCmd)
}

// tui builds the terminal screens for one parent's children.
type tui struct {
	deps       *deps
	parentID   string
	families   *family.Service
	activities *activity.Manager
	source     content.Source
	answers    *speech.TypedRecognizer
}

func (d *deps) newTUI(src content.Source, parentID string) *tui {
	return &tui{
		deps:       d,
		parentID:   parentID,
		families:   d.families(),
		activities: activity.NewManager(d.store.ActivityRepo(), src, activity.Options{Metrics: d.metrics}),
		source:     src,
		answers:    speech.NewTypedRecognizer(),
	}
}

func (t *tui) home(c family.Child) router.Screen {
	return home.New(t.progressSource(), t.parentID, c.ID, c.Name, home.Screens{
		Today:    func() router.Screen { return today.New(t.activities, c.ActivityLearner()) },
		Spelling: func() router.Screen { return t.spelling(c) },
		Progress: func() router.Screen { return progress.New(t.progressSource(), t.parentID, c.ID) },
	})
}

func (t *tui) spelling(c family.Child) router.Screen {
	start := func(ctx context.Context, caption func(string)) (*spelling.Session, error) {
		return spelling.Start(ctx, spelling.Deps{
			Source:     t.source,
			Speaker:    speech.NewCommandSpeaker(caption),
			Recognizer: t.answers,
			Saver:      t.families,
			Metrics:    t.deps.metrics,
		}, c.SpellingLearner(t.parentID), t.deps.cfg.SpellingSession())
	}
	return spellscreen.New(start, t.answers)
}

type progressSource struct {
	*activity.Manager
	*family.Service
}

func (t *tui) progressSource() progressSource {
	return progressSource{Manager: t.activities, Service: t.families}
}

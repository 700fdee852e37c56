package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/studybuddy/internal/activity"
	"github.com/abhisek/studybuddy/internal/config"
	"github.com/abhisek/studybuddy/internal/content"
	"github.com/abhisek/studybuddy/internal/family"
	"github.com/abhisek/studybuddy/internal/llm"
	"github.com/abhisek/studybuddy/internal/logging"
	"github.com/abhisek/studybuddy/internal/metrics"
	"github.com/abhisek/studybuddy/internal/store"
)

// deps holds what every command shares: settings, the database and the
// metrics registry.
type deps struct {
	cfg     *config.Config
	store   *store.Store
	metrics *metrics.Metrics
}

// openDeps loads configuration, installs the logger and opens the store.
func openDeps(cmd *cobra.Command) (*deps, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if _, err := logging.Setup(os.Stderr, cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, err
	}

	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &deps{cfg: cfg, store: st, metrics: metrics.New()}, nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// resolveDBPath returns the database path using --db (highest priority),
// then db.path from the config, then STUDYBUDDY_DB or the default data dir.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.DB.Path != "" {
		return cfg.DB.Path, store.EnsureDir(cfg.DB.Path)
	}
	return store.DefaultDBPath()
}

func (d *deps) Close() error {
	return d.store.Close()
}

func (d *deps) families() *family.Service {
	return family.NewService(d.store.ParentRepo(), family.Options{Metrics: d.metrics})
}

// contentSource builds the model-backed generator. Every call is recorded
// in the store for `studybuddy llm`.
func (d *deps) contentSource(ctx context.Context) (*content.LLMSource, error) {
	provider, err := llm.NewProvider(ctx, d.cfg.Provider(), d.store.EventRepo())
	if err != nil {
		return nil, fmt.Errorf("LLM provider not configured: %w", err)
	}
	return content.NewLLMSource(provider, d.cfg.ContentSource(), d.metrics), nil
}

func (d *deps) activities(ctx context.Context) (*activity.Manager, error) {
	src, err := d.contentSource(ctx)
	if err != nil {
		return nil, err
	}
	return activity.NewManager(d.store.ActivityRepo(), src, activity.Options{Metrics: d.metrics}), nil
}

// learner resolves --parent/--child into the child's profile.
func (d *deps) learner(cmd *cobra.Command) (*family.Child, string, error) {
	parentID, _ := cmd.Flags().GetString("parent")
	childID, _ := cmd.Flags().GetString("child")
	c, err := d.families().Child(cmd.Context(), parentID, childID)
	if err != nil {
		return nil, "", err
	}
	return c, parentID, nil
}

func addLearnerFlags(cmd *cobra.Command) {
	cmd.Flags().String("parent", "", "Parent ID (required)")
	cmd.Flags().String("child", "", "Child ID (required)")
	_ = cmd.MarkFlagRequired("parent")
	_ = cmd.MarkFlagRequired("child")
}

package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/webforge-dev/webforge/internal/build"
	"github.com/webforge-dev/webforge/internal/config"
	"github.com/webforge-dev/webforge/internal/history"
	"github.com/webforge-dev/webforge/internal/notify"
)

// Global carries shared state into subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"webforge.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the unbundled and bundled output trees"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	Serve   ServeCmd   `cmd:"" help:"Serve an output branch locally, rebuilding on change"`
	History HistoryCmd `cmd:"" help:"Show recent build history"`
}

// AfterApply runs after flag parsing; sets up logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// openHistory opens the configured history store, or nil when disabled.
func openHistory(cfg *config.Config) (*history.Store, error) {
	if cfg.History.Disabled {
		return nil, nil
	}
	return history.NewStore(cfg.History.Path)
}

// openNotifier connects the configured publisher, or nil when unconfigured.
func openNotifier(cfg *config.Config, log *slog.Logger) (*notify.Publisher, error) {
	if cfg.Notify.URL == "" {
		return nil, nil
	}
	return notify.NewPublisher(cfg.Notify.URL, cfg.Notify.Subject, log)
}

// recordOutcome persists and publishes one build result. Recording problems
// are logged, never escalated: they must not mask the build's own outcome.
func recordOutcome(ctx context.Context, log *slog.Logger, cfg *config.Config,
	store *history.Store, publisher *notify.Publisher, result *build.Result, buildErr error) {

	if store != nil {
		entry := history.Entry{
			BuildID:        result.BuildID,
			Project:        cfg.Project.Name,
			StartedAt:      result.StartedAt,
			Duration:       result.Duration,
			UnbundledFiles: result.UnbundledFiles,
			BundledFiles:   result.BundledFiles,
			Status:         "ok",
		}
		if buildErr != nil {
			entry.Status = "failed"
			entry.Error = buildErr.Error()
		}
		for _, task := range result.Tasks {
			rec := history.TaskRecord{Name: task.Name}
			if task.Err != nil {
				rec.Error = task.Err.Error()
			}
			entry.Tasks = append(entry.Tasks, rec)
		}
		if err := store.Record(ctx, entry); err != nil {
			log.Warn("failed to record build history", "build_id", result.BuildID, "error", err)
		}
	}

	if publisher != nil {
		if err := publisher.PublishResult(cfg.Project.Name, result, buildErr); err != nil {
			log.Warn("failed to publish build event", "build_id", result.BuildID, "error", err)
		}
	}
}

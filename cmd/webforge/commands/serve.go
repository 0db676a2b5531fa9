package commands

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/webforge-dev/webforge/internal/build"
	"github.com/webforge-dev/webforge/internal/config"
	"github.com/webforge-dev/webforge/internal/server"
	"github.com/webforge-dev/webforge/internal/watch"
)

// ServeCmd implements the 'serve' command: an initial build, a preview
// server over the selected branch, and rebuild-on-change.
type ServeCmd struct {
	Addr     string        `help:"Override the configured listen address"`
	Branch   string        `help:"Output branch to serve (unbundled or bundled)"`
	NoWatch  bool          `help:"Serve without rebuilding on change"`
	Interval time.Duration `help:"Periodic full rebuild interval (0 disables)"`
}

func (s *ServeCmd) Run(global *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.Serve.Addr = s.Addr
	}
	if s.Branch != "" {
		cfg.Serve.Branch = s.Branch
	}
	if s.Interval > 0 {
		cfg.Watch.Interval = config.Duration(s.Interval)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}
	publisher, err := openNotifier(cfg, global.Logger)
	if err != nil {
		return err
	}
	if publisher != nil {
		defer publisher.Close()
	}

	svc := build.NewService(cfg, global.Logger)
	recorder := server.NewRecorder()

	runBuild := func(ctx context.Context) error {
		result, buildErr := svc.Run(ctx)
		recorder.ObserveBuild(result.Duration, result.UnbundledFiles, result.BundledFiles, buildErr != nil)
		recordOutcome(ctx, global.Logger, cfg, store, publisher, result, buildErr)
		return buildErr
	}

	// The initial build must succeed; watch-mode rebuilds only log failures.
	if err := runBuild(ctx); err != nil {
		return err
	}

	branchRoot := filepath.Join(cfg.Build.Output, cfg.Serve.Branch)
	srv := server.New(cfg.Serve.Addr, branchRoot, recorder, global.Logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })

	if !s.NoWatch {
		deb, err := watch.NewDebouncer(cfg.Watch.QuietWindow.Std(), cfg.Watch.MaxDelay.Std())
		if err != nil {
			return err
		}
		exclude := append([]string{}, cfg.Project.Exclude...)
		if rel, relErr := filepath.Rel(cfg.Project.Root, cfg.Build.Output); relErr == nil {
			exclude = append(exclude, filepath.ToSlash(rel))
		}
		watcher := watch.NewWatcher(cfg.Project.Root, exclude, deb, cfg.Watch.Interval.Std(), global.Logger)
		g.Go(func() error {
			return watcher.Run(ctx, func(ctx context.Context, t watch.Trigger) {
				if err := runBuild(ctx); err != nil {
					global.Logger.Error("rebuild failed", "cause", t.Cause, "error", err)
				}
			})
		})
	}

	return g.Wait()
}

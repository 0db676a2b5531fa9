package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/webforge-dev/webforge/internal/build"
	"github.com/webforge-dev/webforge/internal/config"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output                 string `short:"o" help:"Override the configured output directory"`
	PrefetchLinks          bool   `help:"Insert prefetch hints into unbundled HTML pages"`
	CollapseHTMLWhitespace bool   `name:"collapse-html-whitespace" help:"Collapse inter-tag whitespace in HTML"`
	PrecacheConfig         string `help:"Override the precache side configuration path"`
	NoPrecache             bool   `help:"Skip service worker generation"`
}

func (b *BuildCmd) Run(global *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.Build.Output = b.Output
	}
	if b.PrefetchLinks {
		cfg.Build.PrefetchLinks = true
	}
	if b.CollapseHTMLWhitespace {
		cfg.Build.HTML.CollapseWhitespace = true
	}
	if b.PrecacheConfig != "" {
		cfg.Precache.Config = b.PrecacheConfig
	}
	if b.NoPrecache {
		cfg.Precache.Disabled = true
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
	result, buildErr := svc.Run(ctx)
	recordOutcome(ctx, global.Logger, cfg, store, publisher, result, buildErr)
	if buildErr != nil {
		return buildErr
	}

	fmt.Printf("Build %s complete in %s\n", result.BuildID, result.Duration.Round(time.Millisecond))
	fmt.Printf("  unbundled: %s (%d files)\n", result.UnbundledRoot, result.UnbundledFiles)
	fmt.Printf("  bundled:   %s (%d files)\n", result.BundledRoot, result.BundledFiles)
	return nil
}

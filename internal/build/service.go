// Package build orchestrates the two-branch build: one streaming pipeline
// feeding an unbundled and a bundled output tree that settle independently.
package build

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/webforge-dev/webforge/internal/analyze"
	"github.com/webforge-dev/webforge/internal/bundle"
	"github.com/webforge-dev/webforge/internal/config"
	"github.com/webforge-dev/webforge/internal/manifest"
	"github.com/webforge-dev/webforge/internal/offline"
	"github.com/webforge-dev/webforge/internal/optimize"
	"github.com/webforge-dev/webforge/internal/prefetch"
	"github.com/webforge-dev/webforge/internal/source"
	"github.com/webforge-dev/webforge/internal/stream"
)

// Result summarizes one build: every task outcome plus per-branch output
// locations and file counts. A Result is produced even for failed builds so
// callers can record what happened.
type Result struct {
	BuildID   string
	StartedAt time.Time
	Duration  time.Duration

	Tasks []TaskResult

	UnbundledRoot  string
	BundledRoot    string
	UnbundledFiles int64
	BundledFiles   int64
}

// Failed reports whether any task failed.
func (r *Result) Failed() bool {
	for _, t := range r.Tasks {
		if t.Err != nil {
			return true
		}
	}
	return false
}

// Service runs complete builds for one project configuration.
type Service struct {
	cfg *config.Config
	log *slog.Logger
}

// NewService creates a build service.
func NewService(cfg *config.Config, log *slog.Logger) *Service {
	return &Service{cfg: cfg, log: log}
}

// Run executes one build. The shared pipeline optimizes and annotates every
// source file once; its output is forked into the unbundled and bundled
// branches, which write their trees concurrently. All tasks settle even when
// one fails; the returned error is the earliest-registered failure.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{
		BuildID:       uuid.NewString(),
		StartedAt:     start,
		UnbundledRoot: filepath.Join(s.cfg.Build.Output, "unbundled"),
		BundledRoot:   filepath.Join(s.cfg.Build.Output, "bundled"),
	}

	s.log.Info("build started",
		"build_id", result.BuildID,
		"root", s.cfg.Project.Root,
		"output", s.cfg.Build.Output)

	provider := source.NewProvider(s.cfg.Project.Root, s.cfg.Project.DependencyDirs, s.sourceExcludes())
	loader := offline.NewLoader(s.cfg.Precache.Config)

	pipeline, err := stream.NewChain("pipeline",
		optimize.MarkdownStage(s.cfg.Build.Markdown),
		optimize.HTMLStage(s.cfg.Build.HTML),
		optimize.CSSStage(s.cfg.Build.CSS),
		optimize.JSStage(s.cfg.Build.JS),
		analyze.NewStage(),
	)
	if err != nil {
		return result, err
	}

	post := func(ctx context.Context, root string) error {
		pc, err := loader.Load(ctx)
		if err != nil {
			return err
		}
		if s.cfg.Precache.Disabled {
			return nil
		}
		return offline.GenerateWorker(ctx, root, s.cfg.Project.Name, pc)
	}

	var unbundledStages []stream.Stage
	if s.cfg.Build.PrefetchLinks {
		unbundledStages = append(unbundledStages, prefetch.NewStage())
	}
	unbundled, err := NewBranch("unbundled", result.UnbundledRoot, post, unbundledStages...)
	if err != nil {
		return result, err
	}
	bundled, err := NewBranch("bundled", result.BundledRoot, post, bundle.NewStage())
	if err != nil {
		return result, err
	}

	analyzed := make(chan stream.File, stream.DefaultBuffer)
	left, right := stream.Fork(ctx, analyzed, stream.DefaultBuffer)

	tracker := NewTracker()
	tracker.Go("pipeline", func() error {
		defer close(analyzed)
		src := make(chan stream.File, stream.DefaultBuffer)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			defer close(src)
			return provider.Emit(gctx, src)
		})
		g.Go(func() error {
			return pipeline.Run(gctx, src, analyzed)
		})
		return g.Wait()
	})
	tracker.Go("unbundled", func() error {
		return unbundled.Run(ctx, left)
	})
	tracker.Go("bundled", func() error {
		return bundled.Run(ctx, right)
	})
	tracker.Go("precache-config", func() error {
		_, err := loader.Load(ctx)
		return err
	})

	results, primary := tracker.Wait()
	result.Tasks = results
	result.Duration = time.Since(start)
	result.UnbundledFiles = unbundled.Written()
	result.BundledFiles = bundled.Written()

	if primary != nil {
		s.log.Error("build failed",
			"build_id", result.BuildID,
			"duration", result.Duration,
			"error", primary)
		return result, primary
	}

	if err := s.writeManifests(result, unbundled, bundled); err != nil {
		return result, err
	}

	s.log.Info("build complete",
		"build_id", result.BuildID,
		"duration", result.Duration,
		"unbundled_files", result.UnbundledFiles,
		"bundled_files", result.BundledFiles)
	return result, nil
}

func (s *Service) writeManifests(result *Result, branches ...*Branch) error {
	vcs := manifest.CollectVCS(s.cfg.Project.Root)
	for _, b := range branches {
		m := manifest.Manifest{
			BuildID:  result.BuildID,
			Project:  s.cfg.Project.Name,
			Branch:   b.Name(),
			BuiltAt:  result.StartedAt.UTC(),
			Duration: result.Duration.String(),
			Files:    b.Written(),
			VCS:      vcs,
		}
		if err := manifest.Write(b.Root(), m); err != nil {
			return err
		}
	}
	return nil
}

// sourceExcludes extends the configured excludes with the output directory
// when it lives inside the project root, so builds never re-ingest their
// own output.
func (s *Service) sourceExcludes() []string {
	exclude := append([]string{}, s.cfg.Project.Exclude...)
	rel, err := filepath.Rel(s.cfg.Project.Root, s.cfg.Build.Output)
	if err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
		exclude = append(exclude, filepath.ToSlash(rel))
	}
	return exclude
}

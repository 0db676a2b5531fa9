package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"

	ferrors "github.com/webforge-dev/webforge/internal/foundation/errors"
)

// RebuildFunc runs one build in response to a trigger. Build failures are
// the function's own business (log, record); the watcher keeps running.
type RebuildFunc func(ctx context.Context, t Trigger)

// Watcher observes a project tree and drives rebuilds through a Debouncer.
// An optional interval schedules periodic rebuilds regardless of changes.
type Watcher struct {
	root     string
	exclude  []string
	deb      *Debouncer
	interval time.Duration
	log      *slog.Logger
}

// NewWatcher creates a watcher over root. exclude lists directory names or
// root-relative paths never watched (output trees, VCS metadata).
func NewWatcher(root string, exclude []string, deb *Debouncer, interval time.Duration, log *slog.Logger) *Watcher {
	return &Watcher{root: root, exclude: exclude, deb: deb, interval: interval, log: log}
}

// Run watches until ctx is cancelled. Rebuilds run serially on the trigger
// loop, so builds never overlap; changes arriving mid-build coalesce into
// one follow-up trigger.
func (w *Watcher) Run(ctx context.Context, rebuild RebuildFunc) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create filesystem watcher").Build()
	}
	defer fsw.Close()

	if err := w.addTree(fsw, w.root); err != nil {
		return err
	}

	var scheduler gocron.Scheduler
	if w.interval > 0 {
		scheduler, err = gocron.NewScheduler()
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryInternal, "create scheduler").Build()
		}
		_, err = scheduler.NewJob(
			gocron.DurationJob(w.interval),
			gocron.NewTask(func() { w.deb.Kick("schedule") }),
		)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryInternal, "schedule periodic rebuild").Build()
		}
		scheduler.Start()
		defer func() { _ = scheduler.Shutdown() }()
		w.log.Info("periodic rebuild scheduled", "interval", w.interval)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.deb.Run(ctx) })
	g.Go(func() error { return w.eventLoop(ctx, fsw) })
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case t := <-w.deb.Triggers():
				w.log.Info("rebuild triggered", "cause", t.Cause, "changes", t.Changes)
				rebuild(ctx, t)
			}
		}
	})
	return g.Wait()
}

func (w *Watcher) eventLoop(ctx context.Context, fsw *fsnotify.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.excluded(ev.Name) {
				continue
			}
			// Newly created directories must join the watch set.
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = w.addTree(fsw, ev.Name)
				}
			}
			w.deb.Notify()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("filesystem watch error", "error", err)
		}
	}
}

// addTree watches dir and every non-excluded directory beneath it.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.excluded(path) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "watch project tree").
			WithContext("root", dir).Build()
	}
	return nil
}

func (w *Watcher) excluded(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return false
	}
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	for _, ex := range w.exclude {
		for _, part := range strings.Split(rel, "/") {
			if part == ex {
				return true
			}
		}
		if rel == ex || strings.HasPrefix(rel, ex+"/") {
			return true
		}
	}
	return false
}

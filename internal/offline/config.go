// Package offline generates the offline-caching service worker written into
// each build output, and loads the precache configuration that drives it.
package offline

import (
	"context"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	ferrors "github.com/webforge-dev/webforge/internal/foundation/errors"
)

// Config is the precache side configuration. It is loaded independently of
// the build stream and consumed by both branches' worker generation.
type Config struct {
	// CacheName overrides the generated cache name.
	CacheName string `yaml:"cache_name"`

	// NavigateFallback is the URL served for navigations to uncached pages.
	NavigateFallback string `yaml:"navigate_fallback"`

	// Include restricts precached paths to those matching one of the glob
	// patterns. Empty means everything.
	Include []string `yaml:"include"`

	// Exclude removes matching paths from the precache list.
	Exclude []string `yaml:"exclude"`
}

// LoadConfig reads a precache configuration file. A missing file is not an
// error: the worker is generated with defaults and LoadConfig returns nil.
// A file that exists but fails to parse is fatal to the build.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryPrecache, "read precache config").
			WithContext("path", path).Build()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryPrecache, "parse precache config").
			WithContext("path", path).Build()
	}
	return &cfg, nil
}

// Loader memoizes a single LoadConfig call per build so both branches share
// one resolution (value or failure).
type Loader struct {
	path string
	once sync.Once
	cfg  *Config
	err  error
}

// NewLoader creates a loader for the given config path. An empty path loads
// to a nil config without error.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load resolves the configuration at most once and returns the memoized
// value or error on every subsequent call.
func (l *Loader) Load(_ context.Context) (*Config, error) {
	l.once.Do(func() {
		l.cfg, l.err = LoadConfig(l.path)
	})
	return l.cfg, l.err
}

// Package config loads and validates the webforge.yaml project
// configuration.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ferrors "github.com/webforge-dev/webforge/internal/foundation/errors"
	"github.com/webforge-dev/webforge/internal/optimize"
)

// Config represents the application configuration.
type Config struct {
	Project  ProjectConfig  `yaml:"project"`
	Build    BuildConfig    `yaml:"build"`
	Precache PrecacheConfig `yaml:"precache"`
	Serve    ServeConfig    `yaml:"serve"`
	Watch    WatchConfig    `yaml:"watch"`
	Notify   NotifyConfig   `yaml:"notify"`
	History  HistoryConfig  `yaml:"history"`
}

// ProjectConfig describes the project tree being built.
type ProjectConfig struct {
	// Name identifies the project in manifests and cache names.
	Name string `yaml:"name"`
	// Root is the project root directory.
	Root string `yaml:"root"`
	// Entrypoint is the application shell page, relative to Root.
	Entrypoint string `yaml:"entrypoint"`
	// DependencyDirs lists directories (relative to Root) holding
	// third-party dependency files.
	DependencyDirs []string `yaml:"dependency_dirs"`
	// Exclude lists directory names or project-relative paths never walked.
	Exclude []string `yaml:"exclude"`
}

// BuildConfig controls the build pipeline.
type BuildConfig struct {
	// Output is the directory receiving the unbundled/ and bundled/ trees.
	Output string `yaml:"output"`
	// PrefetchLinks inserts prefetch hints into unbundled HTML pages.
	PrefetchLinks bool `yaml:"prefetch_links"`

	HTML     optimize.HTMLOptions     `yaml:"html"`
	CSS      optimize.CSSOptions      `yaml:"css"`
	JS       optimize.JSOptions       `yaml:"js"`
	Markdown optimize.MarkdownOptions `yaml:"markdown"`
}

// PrecacheConfig controls offline-worker generation.
type PrecacheConfig struct {
	// Disabled skips service worker generation entirely.
	Disabled bool `yaml:"disabled"`
	// Config is the path of the precache side configuration file. A missing
	// file is fine; a malformed one fails the build.
	Config string `yaml:"config"`
}

// ServeConfig controls the preview server.
type ServeConfig struct {
	Addr string `yaml:"addr"`
	// Branch selects which output tree to serve: "unbundled" or "bundled".
	Branch string `yaml:"branch"`
}

// WatchConfig controls rebuild-on-change behavior.
type WatchConfig struct {
	// QuietWindow is how long the tree must stay quiet before a rebuild.
	QuietWindow Duration `yaml:"quiet_window"`
	// MaxDelay bounds how long rebuilds can be postponed by a busy tree.
	MaxDelay Duration `yaml:"max_delay"`
	// Interval triggers periodic full rebuilds regardless of changes.
	// Zero disables the schedule.
	Interval Duration `yaml:"interval"`
}

// NotifyConfig configures optional build-result notifications over NATS.
type NotifyConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// HistoryConfig configures the build history store.
type HistoryConfig struct {
	Disabled bool   `yaml:"disabled"`
	Path     string `yaml:"path"`
}

// Duration wraps time.Duration with YAML support for values like "500ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid duration").
			WithContext("value", raw).Build()
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load loads configuration from the specified file, expanding environment
// variables in its content. A .env file in the working directory is loaded
// first when present.
func Load(configPath string) (*Config, error) {
	// Best effort; a missing .env is the normal case.
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithContext("path", configPath).Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "read config file").
			WithContext("path", configPath).Build()
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "parse config file").
			WithContext("path", configPath).Build()
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Build.Output == "" {
		return ferrors.ValidationError("build.output must not be empty").Build()
	}
	if c.Project.Root == "" {
		return ferrors.ValidationError("project.root must not be empty").Build()
	}
	switch c.Serve.Branch {
	case "unbundled", "bundled":
	default:
		return ferrors.ValidationError("serve.branch must be \"unbundled\" or \"bundled\"").
			WithContext("value", c.Serve.Branch).Build()
	}
	if c.Watch.QuietWindow.Std() <= 0 {
		return ferrors.ValidationError("watch.quiet_window must be > 0").Build()
	}
	if c.Watch.MaxDelay.Std() < c.Watch.QuietWindow.Std() {
		return ferrors.ValidationError("watch.max_delay must be >= watch.quiet_window").Build()
	}
	return nil
}

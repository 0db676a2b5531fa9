package config

import (
	"os"
	"path/filepath"
	"time"

	ferrors "github.com/webforge-dev/webforge/internal/foundation/errors"
)

// Default creates a configuration with all defaults applied, used by the
// watch path and by tests.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Project.Name == "" {
		cfg.Project.Name = "webapp"
	}
	if cfg.Project.Root == "" {
		cfg.Project.Root = "."
	}
	if cfg.Project.Entrypoint == "" {
		cfg.Project.Entrypoint = "index.html"
	}
	if cfg.Project.DependencyDirs == nil {
		cfg.Project.DependencyDirs = []string{"vendor"}
	}
	if cfg.Project.Exclude == nil {
		cfg.Project.Exclude = []string{"node_modules"}
	}

	if cfg.Build.Output == "" {
		cfg.Build.Output = "./dist"
	}

	if cfg.Serve.Addr == "" {
		cfg.Serve.Addr = ":8080"
	}
	if cfg.Serve.Branch == "" {
		cfg.Serve.Branch = "unbundled"
	}

	if cfg.Watch.QuietWindow.Std() == 0 {
		cfg.Watch.QuietWindow = Duration(300 * time.Millisecond)
	}
	if cfg.Watch.MaxDelay.Std() == 0 {
		cfg.Watch.MaxDelay = Duration(2 * time.Second)
	}

	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = "webforge.builds"
	}

	if cfg.History.Path == "" {
		cfg.History.Path = filepath.Join(".webforge", "history.db")
	}
}

// StarterConfig is the annotated configuration written by `webforge init`.
const StarterConfig = `# webforge project configuration
project:
  name: webapp
  root: .
  entrypoint: index.html
  dependency_dirs:
    - vendor
  exclude:
    - node_modules

build:
  output: ./dist
  prefetch_links: false
  html:
    collapse_whitespace: true
  css:
    minify: true
  js:
    minify: true
  markdown:
    enabled: false

precache:
  # config: precache.yaml

serve:
  addr: ":8080"
  branch: unbundled

watch:
  quiet_window: 300ms
  max_delay: 2s

# notify:
#   url: nats://localhost:4222
#   subject: webforge.builds

history:
  path: .webforge/history.db
`

// Init writes a starter configuration file. It refuses to overwrite an
// existing file unless force is set.
func Init(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return ferrors.ValidationError("configuration file already exists").
				WithContext("path", path).Build()
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create config directory").
				WithContext("path", dir).Build()
		}
	}
	if err := os.WriteFile(path, []byte(StarterConfig), 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write config file").
			WithContext("path", path).Build()
	}
	return nil
}

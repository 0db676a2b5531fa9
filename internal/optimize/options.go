// Package optimize provides the per-type content optimization stages:
// HTML, CSS, and JavaScript minification plus Markdown page rendering.
// Each stage is conditional on file extension and passes everything else
// through untouched.
package optimize

// HTMLOptions configures the HTML optimization stage. The zero value leaves
// HTML untouched.
type HTMLOptions struct {
	// CollapseWhitespace collapses runs of inter-tag whitespace.
	CollapseWhitespace bool `yaml:"collapse_whitespace"`
	// Minify enables full minification (implies whitespace collapsing).
	Minify bool `yaml:"minify"`
}

func (o HTMLOptions) enabled() bool { return o.CollapseWhitespace || o.Minify }

// CSSOptions configures the CSS optimization stage. The zero value leaves
// CSS untouched.
type CSSOptions struct {
	// StripWhitespace removes insignificant whitespace.
	StripWhitespace bool `yaml:"strip_whitespace"`
	// Minify enables full minification (implies whitespace stripping).
	Minify bool `yaml:"minify"`
}

func (o CSSOptions) enabled() bool { return o.StripWhitespace || o.Minify }

// JSOptions configures the JavaScript optimization stage. The zero value
// leaves scripts untouched.
type JSOptions struct {
	Minify bool `yaml:"minify"`
}

// MarkdownOptions configures the Markdown page rendering stage.
type MarkdownOptions struct {
	// Enabled renders .md sources to .html pages.
	Enabled bool `yaml:"enabled"`
}

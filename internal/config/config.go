// Package config defines the normalized compile configuration and its loaders.
// Format-specific parsing (YAML, JSON, TOML) happens here; the pipeline only
// ever sees the typed Config.
package config

// TopLevelKey is the required root key in every configuration file.
const TopLevelKey = "web-compile"

// Config represents the normalized application configuration.
type Config struct {
	Sass  StyleOptions    `yaml:"sass"`
	JS    ScriptOptions   `yaml:"js"`
	Jinja TemplateOptions `yaml:"jinja"`

	GitAdd          *bool `yaml:"git_add"`           // Register new outputs in the git index (default true)
	TestRun         bool  `yaml:"test_run"`          // Report outcomes without touching the filesystem
	ContinueOnError bool  `yaml:"continue_on_error"` // Accumulate failures instead of stopping
	ExitCode        int   `yaml:"exit_code"`         // Process exit code when files changed
	Jobs            int   `yaml:"jobs"`              // Worker count per stage (0 or 1 = serial)
}

// TraversalOptions are shared directory-expansion options for an asset kind.
type TraversalOptions struct {
	Paths        []string `yaml:"paths,omitempty"`         // Files or directories to expand
	Recurse      *bool    `yaml:"recurse"`                 // Include sub-folders of directories (default true)
	PartialDepth int      `yaml:"partial_depth"`           // Ancestor levels to expand for partial inputs
	Translate    []string `yaml:"translate,omitempty"`     // "src/root:out/root" output translations
	Hash         bool     `yaml:"hash_filenames"`          // Content-hash output filenames
	Encoding     string   `yaml:"encoding,omitempty"`      // Charset for reads and writes
}

// StyleOptions configures the style-sheet stage.
type StyleOptions struct {
	TraversalOptions `yaml:",inline"`

	Files     map[string]string `yaml:"files,omitempty"` // Explicit source -> output mapping
	Format    string            `yaml:"format"`          // nested|expanded|compact|compressed
	Precision int               `yaml:"precision"`       // Numeric precision
	SourceMap bool              `yaml:"sourcemap"`       // Write side-car source maps
}

// ScriptOptions configures the script-minification stage.
type ScriptOptions struct {
	TraversalOptions `yaml:",inline"`

	Files    map[string]string `yaml:"files,omitempty"`
	Comments bool              `yaml:"comments"` // Keep comments starting with '/*!'
}

// TemplateOptions configures the template-rendering stage.
type TemplateOptions struct {
	Files     map[string]string `yaml:"files,omitempty"`
	Variables map[string]any    `yaml:"variables,omitempty"` // Global variable mapping
	Encoding  string            `yaml:"encoding,omitempty"`
}

// GitAddEnabled reports the effective git_add setting.
func (c *Config) GitAddEnabled() bool {
	return c.GitAdd == nil || *c.GitAdd
}

// RecurseEnabled reports the effective recurse setting.
func (t *TraversalOptions) RecurseEnabled() bool {
	return t.Recurse == nil || *t.Recurse
}

// TranslatePair is one parsed source-root to output-root translation.
type TranslatePair struct {
	Src string
	Dst string
}

package config

// DefaultChangedExitCode is the process exit code when outputs changed but
// nothing failed.
const DefaultChangedExitCode = 3

// Output format choices for the style stage.
var OutputFormats = []string{"nested", "expanded", "compact", "compressed"}

func applyDefaults(cfg *Config) {
	if cfg.ExitCode == 0 {
		cfg.ExitCode = DefaultChangedExitCode
	}
	if cfg.Sass.Format == "" {
		cfg.Sass.Format = "compressed"
	}
	if cfg.Sass.Precision == 0 {
		cfg.Sass.Precision = 5
	}
	if cfg.Sass.Encoding == "" {
		cfg.Sass.Encoding = "utf8"
	}
	if cfg.JS.Encoding == "" {
		cfg.JS.Encoding = "utf8"
	}
	if cfg.Jinja.Encoding == "" {
		cfg.Jinja.Encoding = "utf8"
	}
}

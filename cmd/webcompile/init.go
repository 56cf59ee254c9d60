package main

import (
	"fmt"
	"log/slog"
	"os"
)

const starterConfig = `# webcompile configuration
web-compile:
  sass:
    files:
      src/scss/main.scss: dist/css/main.[hash].css
    format: compressed
    precision: 5
    sourcemap: false
    hash_filenames: true
  js:
    files:
      src/js/app.js: dist/js/app.min.js
    comments: false
  jinja:
    files:
      templates/index.j2: index.html
    variables:
      title: My Site
  git_add: true
  continue_on_error: false
  exit_code: 3
`

func runInit(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return err
	}
	slog.Info("Configuration file created", "path", path)
	return nil
}

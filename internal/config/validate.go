package config

import (
	"fmt"
	"slices"
	"strings"

	"git.home.luguber.info/inful/webcompile/internal/errors"
)

// Validate checks the normalized configuration before any unit runs.
func Validate(cfg *Config) error {
	if cfg.ExitCode < 0 || cfg.ExitCode > 255 {
		return errors.ValidationFailed("exit_code",
			fmt.Sprintf("must be in [0, 255], got %d", cfg.ExitCode))
	}
	if cfg.Jobs < 0 {
		return errors.ValidationFailed("jobs", "must not be negative")
	}
	if !slices.Contains(OutputFormats, cfg.Sass.Format) {
		return errors.ValidationFailed("sass.format",
			fmt.Sprintf("must be one of %s", strings.Join(OutputFormats, "|")))
	}
	if cfg.Sass.Precision < 0 {
		return errors.ValidationFailed("sass.precision", "must not be negative")
	}
	for _, t := range [...]struct {
		field string
		opts  *TraversalOptions
	}{
		{"sass", &cfg.Sass.TraversalOptions},
		{"js", &cfg.JS.TraversalOptions},
	} {
		if t.opts.PartialDepth < 0 {
			return errors.ValidationFailed(t.field+".partial_depth", "must not be negative")
		}
		if _, err := t.opts.TranslatePairs(); err != nil {
			return err
		}
	}
	return nil
}

// TranslatePairs parses the raw "src:dst" translate strings.
func (t *TraversalOptions) TranslatePairs() ([]TranslatePair, error) {
	pairs := make([]TranslatePair, 0, len(t.Translate))
	for _, raw := range t.Translate {
		src, dst, ok := strings.Cut(raw, ":")
		if !ok || src == "" || dst == "" {
			return nil, errors.ValidationFailed("translate",
				fmt.Sprintf("malformed translate option: %q", raw))
		}
		pairs = append(pairs, TranslatePair{Src: src, Dst: dst})
	}
	return pairs, nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/webcompile/internal/config"
	"git.home.luguber.info/inful/webcompile/internal/observability"
	"git.home.luguber.info/inful/webcompile/internal/pipeline"
	"git.home.luguber.info/inful/webcompile/internal/vcs"
)

// loadRunConfig loads the configuration file and merges the compile command's
// flag overrides into it. The project root is the config file's directory.
func loadRunConfig() (*config.Config, string, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, "", err
	}

	abs, err := filepath.Abs(CLI.Config)
	if err != nil {
		return nil, "", err
	}
	root := filepath.Dir(abs)

	if CLI.Compile.TestRun {
		cfg.TestRun = true
	}
	if CLI.Compile.ContinueOnError {
		cfg.ContinueOnError = true
	}
	if CLI.Compile.NoGitAdd {
		disabled := false
		cfg.GitAdd = &disabled
	}
	if CLI.Compile.ExitCode >= 0 {
		cfg.ExitCode = CLI.Compile.ExitCode
	}
	if CLI.Compile.Jobs >= 0 {
		cfg.Jobs = CLI.Compile.Jobs
	}
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, root, nil
}

func newOrchestrator(cfg *config.Config, root string) (*pipeline.Orchestrator, error) {
	o := pipeline.New(root, cfg)
	if cfg.GitAddEnabled() && !cfg.TestRun {
		registrar, err := vcs.Open(root)
		if err != nil {
			return nil, err
		}
		o.VCS = registrar
	}
	return o, nil
}

func runCompile(ctx context.Context) int {
	cfg, root, err := loadRunConfig()
	if err != nil {
		slog.Error("Configuration failed", "error", err)
		return pipeline.ErrorExitCode
	}

	ctx = observability.WithRunID(ctx, uuid.NewString())
	if CLI.Verbose {
		echoConfig(cfg)
	}
	if cfg.TestRun {
		observability.WarnContext(ctx, "Test run only: no files will be created or deleted")
	}

	o, err := newOrchestrator(cfg, root)
	if err != nil {
		slog.Error("Git setup failed", "error", err)
		return pipeline.ErrorExitCode
	}

	result, code, err := o.RunAll(ctx)
	if err != nil {
		slog.Error("Resolution failed", "error", err)
		return pipeline.ErrorExitCode
	}

	reportResult(ctx, result)
	return code
}

// reportResult prints the failure summary or success line. Failed units are
// rendered as a YAML map of source path to diagnostic.
func reportResult(ctx context.Context, result *pipeline.RunResult) {
	if diags := result.Diagnostics(); len(diags) > 0 {
		summary, err := yaml.Marshal(diags)
		if err != nil {
			summary = []byte(fmt.Sprintf("%v", diags))
		}
		fmt.Fprintf(os.Stderr, "Compilations failed:\n%s", summary)
		return
	}
	observability.InfoContext(ctx, "Compilation succeeded")
	if result.AnyChanged() {
		observability.InfoContext(ctx, "File(s) changed")
	}
}

// echoConfig dumps the effective configuration, mirroring the config file
// format for easy copy-back.
func echoConfig(cfg *config.Config) {
	out, err := yaml.Marshal(map[string]*config.Config{config.TopLevelKey: cfg})
	if err != nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Compile configuration:\n%s", out)
}

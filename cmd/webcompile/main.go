package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/webcompile/internal/version"
)

var CLI struct {
	Config  string           `short:"c" help:"Configuration file path (json, toml, yml, yaml)" default:"web-compile-config.yml"`
	Verbose bool             `short:"v" help:"Increase stdout logging"`
	Quiet   bool             `short:"q" help:"Remove stdout logging"`
	Version kong.VersionFlag `help:"Print version and exit"`

	Compile struct {
		TestRun         bool `help:"Do not delete/create any files"`
		ContinueOnError bool `help:"Do not stop on the first error"`
		NoGitAdd        bool `help:"Do not add new files to the git index"`
		ExitCode        int  `help:"Exit code when files changed" default:"-1"`
		Jobs            int  `help:"Workers per stage (0 = serial)" default:"-1"`
	} `cmd:"" default:"1" help:"Compile web assets"`

	Watch struct {
		Debounce    time.Duration `help:"Quiet period before recompiling" default:"300ms"`
		MetricsAddr string        `help:"Serve Prometheus metrics on this address (optional)"`
	} `cmd:"" help:"Recompile whenever a source file changes"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`
}

func main() {
	ctx := kong.Parse(&CLI, kong.Vars{"version": version.Version})

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	if CLI.Quiet {
		logLevel = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	runCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch ctx.Command() {
	case "compile":
		os.Exit(runCompile(runCtx))
	case "watch":
		os.Exit(runWatch(runCtx))
	case "init":
		if err := runInit(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
	default:
		ctx.Fatalf("unknown command %s", ctx.Command())
	}
}

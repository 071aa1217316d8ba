// Command agentcore is a small host for the provider translators and the
// hook executor.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/tjfontaine/polyglot-agent/internal/config"
	"github.com/tjfontaine/polyglot-agent/internal/telemetry"
)

const serviceName = "polyglot-agent"

// app carries state shared by subcommands once Before has run.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	shutdown func(context.Context) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	if err := a.command().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:  "agentcore",
		Usage: "talk to model providers and run lifecycle hooks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "settings file (YAML or JSON)",
				Sources: cli.EnvVars(config.EnvPrefix + "CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "verbose logging, including hook output",
			},
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "export OpenTelemetry spans to stderr",
			},
		},
		Before: a.before,
		After:  a.after,
		Commands: []*cli.Command{
			a.generateCommand(),
			a.hooksCommand(),
			a.tokensCommand(),
		},
	}
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return ctx, err
	}
	if cmd.Bool("debug") {
		cfg.Debug = true
	}
	a.cfg = cfg

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	// stdout carries command output; logs go to stderr.
	a.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)

	if cmd.Bool("trace") {
		shutdown, err := telemetry.InitTracer(serviceName, os.Stderr, a.logger)
		if err != nil {
			return ctx, fmt.Errorf("failed to initialize tracer: %w", err)
		}
		a.shutdown = shutdown
	}
	return ctx, nil
}

func (a *app) after(ctx context.Context, cmd *cli.Command) error {
	if a.shutdown == nil {
		return nil
	}
	if err := a.shutdown(context.WithoutCancel(ctx)); err != nil {
		a.logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
	}
	return nil
}

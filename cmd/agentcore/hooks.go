package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/tjfontaine/polyglot-agent/internal/hooks"
)

// exitBlocked mirrors the hook protocol: a blocked operation exits 2.
const exitBlocked = 2

func (a *app) hooksCommand() *cli.Command {
	return &cli.Command{
		Name:  "hooks",
		Usage: "inspect and run configured lifecycle hooks",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "print the configured hooks",
				Action: a.hooksList,
			},
			{
				Name:      "run",
				Usage:     "run the hooks for an event with a JSON payload read from stdin",
				ArgsUsage: "<event>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "cwd", Usage: "working directory for hook commands"},
					&cli.DurationFlag{Name: "timeout", Usage: "timeout for hooks without their own"},
					&cli.StringMapFlag{Name: "env", Usage: "extra environment, KEY=VALUE"},
				},
				Action: a.hooksRun,
			},
		},
	}
}

func (a *app) hooksList(ctx context.Context, cmd *cli.Command) error {
	return writeJSON(os.Stdout, a.cfg.Hooks)
}

func (a *app) hooksRun(ctx context.Context, cmd *cli.Command) error {
	event := hooks.Event(cmd.Args().First())
	if !event.Valid() {
		return fmt.Errorf("unknown hook event %q (valid: %v)", event, hooks.Events)
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	payload, err := hooks.ParseRawPayload(data)
	if err != nil {
		return err
	}
	a.fillSession(payload)

	executor := hooks.NewExecutor(a.cfg.Hooks,
		hooks.WithLogger(a.logger),
		hooks.WithDebug(a.cfg.Debug),
	)
	results := executor.Execute(ctx, event, payload, hooks.Options{
		Timeout: cmd.Duration("timeout"),
		Cwd:     cmd.String("cwd"),
		Env:     cmd.StringMap("env"),
	})

	if err := writeJSON(os.Stdout, results); err != nil {
		return err
	}

	if verdict := hooks.Evaluate(results); verdict.Blocked {
		return cli.Exit(verdict.Err().Error(), exitBlocked)
	}
	return nil
}

// fillSession supplies session fields the payload leaves out from settings.
func (a *app) fillSession(p hooks.RawPayload) {
	set := func(key, value string) {
		if v, _ := p[key].(string); v == "" && value != "" {
			p[key] = value
		}
	}
	set("session_id", a.cfg.Session.ID)
	set("transcript_path", a.cfg.Session.TranscriptPath)
}

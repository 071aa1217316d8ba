package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/tjfontaine/polyglot-agent/internal/domain"
	"github.com/tjfontaine/polyglot-agent/internal/tokens"
)

func (a *app) tokensCommand() *cli.Command {
	return &cli.Command{
		Name:      "tokens",
		Usage:     "count the tokens of a text",
		ArgsUsage: "[text]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "exact", Usage: "use the tiktoken encoding of --model instead of the estimate"},
			&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Value: "gpt-4o", Usage: "model whose encoding --exact uses"},
		},
		Action: a.countTokens,
	}
}

func (a *app) countTokens(ctx context.Context, cmd *cli.Command) error {
	text, err := readInput(cmd)
	if err != nil {
		return err
	}
	contents := domain.NormalizeContents(text)

	if !cmd.Bool("exact") {
		return writeJSON(os.Stdout, tokens.EstimateContents(contents))
	}

	resp, err := tokens.NewCounter().CountContents(cmd.String("model"), contents)
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, resp)
}

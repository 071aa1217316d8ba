package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/tjfontaine/polyglot-agent/internal/domain"
	"github.com/tjfontaine/polyglot-agent/internal/provider"
)

func (a *app) generateCommand() *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Usage:     "send a prompt to the configured provider",
		ArgsUsage: "[prompt]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "model name; overrides provider.model"},
			&cli.StringFlag{Name: "system", Usage: "system instruction"},
			&cli.IntFlag{Name: "max-tokens", Usage: "output token limit"},
			&cli.BoolFlag{Name: "stream", Aliases: []string{"s"}, Usage: "print partial responses as JSON lines"},
		},
		Action: a.generate,
	}
}

func (a *app) generate(ctx context.Context, cmd *cli.Command) error {
	prompt, err := readInput(cmd)
	if err != nil {
		return err
	}
	if prompt == "" {
		return errors.New("a prompt is required")
	}

	pcfg := a.cfg.Provider
	if m := cmd.String("model"); m != "" {
		pcfg.Model = m
	}
	timeout, err := pcfg.TimeoutDuration()
	if err != nil {
		return err
	}

	gen, err := provider.New(pcfg, a.logger)
	if err != nil {
		return err
	}

	req := &domain.GenerateRequest{
		Model:    pcfg.Model,
		Contents: domain.NormalizeContents(prompt),
		Config: domain.GenerationConfig{
			MaxOutputTokens: int(cmd.Int("max-tokens")),
			Timeout:         timeout,
		},
	}
	if s := cmd.String("system"); s != "" {
		si := domain.Content{Role: domain.RoleSystem, Parts: []domain.Part{domain.TextPart(s)}}
		req.Config.SystemInstruction = &si
	}

	if !cmd.Bool("stream") {
		resp, err := gen.GenerateContent(ctx, req)
		if err != nil {
			return err
		}
		return writeJSON(os.Stdout, resp)
	}

	stream, err := gen.GenerateContentStream(ctx, req)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	var streamErr error
	for ev := range stream {
		if ev.Err != nil {
			streamErr = ev.Err
			continue
		}
		if err := enc.Encode(ev.Response); err != nil && streamErr == nil {
			streamErr = err
		}
	}
	return streamErr
}

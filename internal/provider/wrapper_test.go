package provider

import (
	"context"
	"testing"

	"github.com/tjfontaine/polyglot-agent/internal/domain"
)

func TestDefaultModelGenerator(t *testing.T) {
	inner := &stubGenerator{}
	gen := NewDefaultModelGenerator(inner, "gpt-4o")
	ctx := context.Background()

	req := &domain.GenerateRequest{Contents: []domain.Content{domain.UserText("hi")}}
	if _, err := gen.GenerateContent(ctx, req); err != nil {
		t.Fatalf("GenerateContent() error = %v", err)
	}
	if inner.lastModel != "gpt-4o" {
		t.Errorf("model = %q, want default", inner.lastModel)
	}
	if req.Model != "" {
		t.Error("caller's request was mutated")
	}

	if _, err := gen.GenerateContent(ctx, &domain.GenerateRequest{Model: "o3"}); err != nil {
		t.Fatalf("GenerateContent() error = %v", err)
	}
	if inner.lastModel != "o3" {
		t.Errorf("model = %q, explicit model must win", inner.lastModel)
	}

	stream, err := gen.GenerateContentStream(ctx, &domain.GenerateRequest{})
	if err != nil {
		t.Fatalf("GenerateContentStream() error = %v", err)
	}
	for range stream {
	}
	if inner.lastModel != "gpt-4o" {
		t.Errorf("stream model = %q", inner.lastModel)
	}

	if _, err := gen.CountTokens(ctx, &domain.CountTokensRequest{}); err != nil {
		t.Fatalf("CountTokens() error = %v", err)
	}
	if inner.lastModel != "gpt-4o" {
		t.Errorf("count model = %q", inner.lastModel)
	}

	gen.EmbedContent(ctx, &domain.EmbedRequest{Model: "text-embedding-3-small"})
	if inner.lastModel != "text-embedding-3-small" {
		t.Errorf("embed model = %q", inner.lastModel)
	}
}

package provider

import (
	"context"

	"github.com/tjfontaine/polyglot-agent/internal/domain"
)

// DefaultModelGenerator wraps a translator and fills in the model for
// requests that do not name one.
type DefaultModelGenerator struct {
	inner domain.ContentGenerator
	model string
}

var _ domain.ContentGenerator = (*DefaultModelGenerator)(nil)

// NewDefaultModelGenerator creates a new DefaultModelGenerator
func NewDefaultModelGenerator(inner domain.ContentGenerator, model string) *DefaultModelGenerator {
	return &DefaultModelGenerator{
		inner: inner,
		model: model,
	}
}

// Unwrap returns the wrapped translator.
func (p *DefaultModelGenerator) Unwrap() domain.ContentGenerator {
	return p.inner
}

func (p *DefaultModelGenerator) GenerateContent(ctx context.Context, req *domain.GenerateRequest) (*domain.GenerateResponse, error) {
	return p.inner.GenerateContent(ctx, p.withModel(req))
}

func (p *DefaultModelGenerator) GenerateContentStream(ctx context.Context, req *domain.GenerateRequest) (<-chan domain.StreamEvent, error) {
	return p.inner.GenerateContentStream(ctx, p.withModel(req))
}

func (p *DefaultModelGenerator) CountTokens(ctx context.Context, req *domain.CountTokensRequest) (*domain.CountTokensResponse, error) {
	if req.Model == "" {
		// Clone request to avoid side effects
		newReq := *req
		newReq.Model = p.model
		req = &newReq
	}
	return p.inner.CountTokens(ctx, req)
}

func (p *DefaultModelGenerator) EmbedContent(ctx context.Context, req *domain.EmbedRequest) (*domain.EmbedResponse, error) {
	if req.Model == "" {
		newReq := *req
		newReq.Model = p.model
		req = &newReq
	}
	return p.inner.EmbedContent(ctx, req)
}

func (p *DefaultModelGenerator) withModel(req *domain.GenerateRequest) *domain.GenerateRequest {
	if req.Model != "" {
		return req
	}
	// Clone request to avoid side effects
	newReq := *req
	newReq.Model = p.model
	return &newReq
}

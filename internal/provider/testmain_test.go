package provider

import (
	"context"
	"os"
	"testing"

	"github.com/tjfontaine/polyglot-agent/internal/domain"
)

// stubGenerator records the last request model it saw.
type stubGenerator struct {
	lastModel string
}

func (s *stubGenerator) GenerateContent(ctx context.Context, req *domain.GenerateRequest) (*domain.GenerateResponse, error) {
	s.lastModel = req.Model
	return &domain.GenerateResponse{Text: "ok", FinishReason: domain.FinishReasonStop}, nil
}

func (s *stubGenerator) GenerateContentStream(ctx context.Context, req *domain.GenerateRequest) (<-chan domain.StreamEvent, error) {
	s.lastModel = req.Model
	ch := make(chan domain.StreamEvent)
	close(ch)
	return ch, nil
}

func (s *stubGenerator) CountTokens(ctx context.Context, req *domain.CountTokensRequest) (*domain.CountTokensResponse, error) {
	s.lastModel = req.Model
	return &domain.CountTokensResponse{}, nil
}

func (s *stubGenerator) EmbedContent(ctx context.Context, req *domain.EmbedRequest) (*domain.EmbedResponse, error) {
	s.lastModel = req.Model
	return nil, domain.ErrUnsupported
}

func TestMain(m *testing.M) {
	ClearFactories()
	RegisterBuiltins()
	os.Exit(m.Run())
}

package anthropic

import (
	"context"
	"testing"

	"github.com/tjfontaine/polyglot-agent/internal/domain"
	"github.com/tjfontaine/polyglot-agent/internal/testutil"
)

func TestProvider_GenerateContent_Recorded(t *testing.T) {
	apiKey := testutil.APIKey(t, "ANTHROPIC_API_KEY")

	recorder, cleanup := testutil.NewVCRRecorder(t, "anthropic_generate")
	defer cleanup()

	p := New(apiKey, WithHTTPClient(testutil.VCRHTTPClient(recorder)))

	resp, err := p.GenerateContent(context.Background(), &domain.GenerateRequest{
		Model:    "claude-3-5-haiku-latest",
		Contents: []domain.Content{domain.UserText("Say hello in one word.")},
		Config:   domain.GenerationConfig{MaxOutputTokens: 16},
	})
	if err != nil {
		t.Fatalf("GenerateContent() error = %v", err)
	}

	if resp.Text != "Hello!" {
		t.Errorf("text = %q", resp.Text)
	}
	if resp.FinishReason != domain.FinishReasonStop {
		t.Errorf("finish = %q", resp.FinishReason)
	}
	if resp.Usage.TotalTokenCount != 19 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

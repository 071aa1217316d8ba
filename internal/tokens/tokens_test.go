package tokens

import (
	"strings"
	"testing"

	"github.com/tiktoken-go/tokenizer"

	"github.com/tjfontaine/polyglot-agent/internal/domain"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "one char", text: "a", want: 1},
		{name: "exact multiple", text: "abcdefgh", want: 2},
		{name: "rounds up", text: "abcdefghi", want: 3},
		{name: "multibyte counts characters", text: "日本語日", want: 1},
		{name: "mixed width", text: "héllo wörld", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Estimate(tt.text); got != tt.want {
				t.Errorf("Estimate(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestEstimateContents_Deterministic(t *testing.T) {
	contents := []domain.Content{
		domain.UserText("Hello, how are you?"),
		{Role: domain.RoleModel, Parts: []domain.Part{domain.TextPart("Fine.")}},
	}
	text := domain.ExtractText(contents)
	want := (len(text) + 3) / 4

	for i := 0; i < 3; i++ {
		if got := EstimateContents(contents).TotalTokens; got != want {
			t.Fatalf("call %d: got %d, want %d", i, got, want)
		}
	}
}

func TestCounter_CountText(t *testing.T) {
	c := NewCounter()

	for _, model := range []string{"gpt-4o", "gpt-3.5-turbo", "some-unknown-model"} {
		t.Run(model, func(t *testing.T) {
			n, err := c.CountText(model, "hello world")
			if err != nil {
				t.Fatalf("CountText() error = %v", err)
			}
			if n <= 0 || n > len("hello world") {
				t.Errorf("CountText() = %d, want between 1 and %d", n, len("hello world"))
			}
		})
	}
}

func TestCounter_CountContents(t *testing.T) {
	c := NewCounter()
	resp, err := c.CountContents("gpt-4o", []domain.Content{domain.UserText(strings.Repeat("word ", 50))})
	if err != nil {
		t.Fatalf("CountContents() error = %v", err)
	}
	if resp.TotalTokens < 10 {
		t.Errorf("TotalTokens = %d, want at least 10", resp.TotalTokens)
	}
}

func TestEncodingFor(t *testing.T) {
	tests := map[string]tokenizer.Encoding{
		"gpt-4o-mini":   tokenizer.O200kBase,
		"o3-mini":       tokenizer.O200kBase,
		"gpt-4-turbo":   tokenizer.Cl100kBase,
		"gpt-3.5-turbo": tokenizer.Cl100kBase,
		"llama-3":       tokenizer.O200kBase,
	}
	for model, want := range tests {
		if got := encodingFor(model); got != want {
			t.Errorf("encodingFor(%q) = %v, want %v", model, got, want)
		}
	}
}

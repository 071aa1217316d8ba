// Package openai implements domain.ContentGenerator against any endpoint
// speaking the OpenAI chat-completions protocol.
package openai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	openaiapi "github.com/tjfontaine/polyglot-agent/internal/api/openai"
	"github.com/tjfontaine/polyglot-agent/internal/domain"
	"github.com/tjfontaine/polyglot-agent/internal/provider/toolcall"
	"github.com/tjfontaine/polyglot-agent/internal/telemetry"
	"github.com/tjfontaine/polyglot-agent/internal/tokens"
)

// ProviderOption configures the provider.
type ProviderOption func(*Provider)

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = httpClient
	}
}

// WithHeaders adds headers sent on every request.
func WithHeaders(headers map[string]string) ProviderOption {
	return func(p *Provider) {
		p.headers = headers
	}
}

// WithModelRules replaces the default model rules.
func WithModelRules(rules ModelRules) ProviderOption {
	return func(p *Provider) {
		p.rules = rules
	}
}

// WithDialect sets the protocol dialect.
func WithDialect(d Dialect) ProviderOption {
	return func(p *Provider) {
		p.dialect = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = logger
	}
}

// Provider translates canonical requests to chat completions.
type Provider struct {
	client     *openaiapi.Client
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
	rules      ModelRules
	dialect    Dialect
	logger     *slog.Logger
	tracer     trace.Tracer
}

var _ domain.ContentGenerator = (*Provider)(nil)

// New creates a new OpenAI-compatible provider.
func New(apiKey string, opts ...ProviderOption) *Provider {
	p := &Provider{
		rules:  DefaultModelRules(),
		logger: slog.Default(),
		tracer: telemetry.Tracer(),
	}

	for _, opt := range opts {
		opt(p)
	}

	clientOpts := []openaiapi.ClientOption{
		openaiapi.WithProviderName(p.dialect.name()),
		openaiapi.WithLogger(p.logger),
	}
	if p.baseURL != "" {
		clientOpts = append(clientOpts, openaiapi.WithBaseURL(p.baseURL))
	}
	if p.httpClient != nil {
		clientOpts = append(clientOpts, openaiapi.WithHTTPClient(p.httpClient))
	}
	if len(p.headers) > 0 {
		clientOpts = append(clientOpts, openaiapi.WithHeaders(p.headers))
	}

	p.client = openaiapi.NewClient(apiKey, clientOpts...)
	return p
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return p.dialect.name()
}

// GenerateContent performs one chat completion round trip.
func (p *Provider) GenerateContent(ctx context.Context, req *domain.GenerateRequest) (*domain.GenerateResponse, error) {
	ctx, cancel := withTimeout(ctx, req.Config.Timeout)
	defer cancel()

	ctx, span := p.startSpan(ctx, "GenerateContent", req.Model)
	defer span.End()

	resp, err := p.client.CreateChatCompletion(ctx, p.toAPIRequest(req))
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	out := p.fromAPIResponse(resp)
	span.SetAttributes(
		attribute.String("llm.finish_reason", string(out.FinishReason)),
		attribute.Int("llm.usage.total_tokens", out.Usage.TotalTokenCount),
	)
	return out, nil
}

// GenerateContentStream streams a chat completion. Text deltas are sent as
// they arrive; tool calls are assembled and sent once, after the stream
// ends. A final event carries usage when the endpoint reports it.
func (p *Provider) GenerateContentStream(ctx context.Context, req *domain.GenerateRequest) (<-chan domain.StreamEvent, error) {
	ctx, cancel := withTimeout(ctx, req.Config.Timeout)

	ctx, span := p.startSpan(ctx, "GenerateContentStream", req.Model)

	stream, err := p.client.StreamChatCompletion(ctx, p.toAPIRequest(req))
	if err != nil {
		recordError(span, err)
		span.End()
		cancel()
		return nil, err
	}

	out := make(chan domain.StreamEvent)
	go func() {
		defer close(out)
		defer cancel()
		defer span.End()

		if err := p.consumeStream(ctx, req.Model, stream, out); err != nil {
			recordError(span, err)
			p.logger.Warn("stream failed",
				slog.String("provider", p.Name()),
				slog.String("model", req.Model),
				slog.String("error", err.Error()),
			)
			out <- domain.StreamEvent{Err: err}
		}
	}()

	return out, nil
}

// consumeStream owns the accumulator for one stream.
func (p *Provider) consumeStream(ctx context.Context, model string, stream <-chan openaiapi.StreamResult, out chan<- domain.StreamEvent) error {
	acc := toolcall.New()
	legacyID := ""

	var (
		usage    domain.Usage
		reported bool
		finish   domain.FinishReason
	)

	for result := range stream {
		if result.Err != nil {
			return result.Err
		}

		chunk := result.Chunk
		if chunk.Usage != nil {
			usage = domain.NewUsage(chunk.Usage.PromptTokens, chunk.Usage.CompletionTokens)
			reported = true
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		delta := choice.Delta

		for _, tc := range delta.ToolCalls {
			var name, args string
			if tc.Function != nil {
				name, args = tc.Function.Name, tc.Function.Arguments
			}
			acc.Add(tc.Index, tc.ID, name, args)
		}

		if delta.FunctionCall != nil && p.dialect.legacyFunctionCall() {
			if legacyID == "" {
				legacyID = p.dialect.NewCallID()
			}
			acc.Add(legacyCallIndex, legacyID, delta.FunctionCall.Name, delta.FunctionCall.Arguments)
		}

		if choice.FinishReason != nil {
			finish = finishReason(*choice.FinishReason)
		}

		if delta.Content != "" {
			out <- domain.StreamEvent{Response: &domain.GenerateResponse{Text: delta.Content}}
		}
	}

	// The reader stops quietly on cancellation; report it.
	if err := ctx.Err(); err != nil {
		return domain.RequestError(ctx, p.Name(), err)
	}

	if final := acc.FlushResponse(); final != nil {
		final.Usage = usage
		p.logCompletion(model, final)
		out <- domain.StreamEvent{Response: final}
		return nil
	}

	if reported || finish != "" {
		if finish == "" {
			finish = domain.FinishReasonStop
		}
		final := &domain.GenerateResponse{FinishReason: finish, Usage: usage}
		p.logCompletion(model, final)
		out <- domain.StreamEvent{Response: final}
	}
	return nil
}

func (p *Provider) logCompletion(model string, final *domain.GenerateResponse) {
	p.logger.Debug("stream completed",
		slog.String("provider", p.Name()),
		slog.String("model", model),
		slog.String("finish_reason", string(final.FinishReason)),
		slog.Int("tool_calls", len(final.FunctionCalls)),
		slog.Int("total_tokens", final.Usage.TotalTokenCount),
	)
}

// legacyCallIndex keys calls sent through the single function_call field,
// apart from any indexed tool_calls.
const legacyCallIndex = -1

// CountTokens estimates the prompt size locally without calling the API.
func (p *Provider) CountTokens(_ context.Context, req *domain.CountTokensRequest) (*domain.CountTokensResponse, error) {
	return tokens.EstimateContents(req.Contents), nil
}

// EmbedContent embeds the text of the request contents.
func (p *Provider) EmbedContent(ctx context.Context, req *domain.EmbedRequest) (*domain.EmbedResponse, error) {
	ctx, span := p.startSpan(ctx, "EmbedContent", req.Model)
	defer span.End()

	resp, err := p.client.CreateEmbedding(ctx, &openaiapi.EmbeddingRequest{
		Input: domain.ExtractText(req.Contents),
		Model: req.Model,
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	if len(resp.Data) == 0 {
		err := fmt.Errorf("%s embedding response contained no vectors", p.Name())
		recordError(span, err)
		return nil, err
	}

	return &domain.EmbedResponse{
		Embeddings: []domain.Embedding{{Values: resp.Data[0].Embedding}},
	}, nil
}

func (p *Provider) startSpan(ctx context.Context, op, model string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, p.Name()+"."+op, trace.WithAttributes(
		attribute.String("llm.provider", p.Name()),
		attribute.String("llm.model", model),
	))
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// withTimeout bounds ctx when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// Package anthropic implements domain.ContentGenerator against the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	anthropicapi "github.com/tjfontaine/polyglot-agent/internal/api/anthropic"
	"github.com/tjfontaine/polyglot-agent/internal/domain"
	"github.com/tjfontaine/polyglot-agent/internal/provider/toolcall"
	"github.com/tjfontaine/polyglot-agent/internal/telemetry"
	"github.com/tjfontaine/polyglot-agent/internal/tokens"
)

// DefaultMaxTokens is sent when the request does not set a limit; the API
// requires one.
const DefaultMaxTokens = 4096

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

// WithMaxTokens sets the default max_tokens.
func WithMaxTokens(n int) ProviderOption {
	return func(p *Provider) {
		p.maxTokens = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = logger
	}
}

// Provider translates canonical requests to Anthropic messages.
type Provider struct {
	client     *anthropicapi.Client
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
	maxTokens  int
	logger     *slog.Logger
	tracer     trace.Tracer
}

var _ domain.ContentGenerator = (*Provider)(nil)

// New creates a new Anthropic provider.
func New(apiKey string, opts ...ProviderOption) *Provider {
	p := &Provider{
		maxTokens: DefaultMaxTokens,
		logger:    slog.Default(),
		tracer:    telemetry.Tracer(),
	}

	for _, opt := range opts {
		opt(p)
	}

	var clientOpts []anthropicapi.ClientOption
	if p.baseURL != "" {
		clientOpts = append(clientOpts, anthropicapi.WithBaseURL(p.baseURL))
	}
	if p.httpClient != nil {
		clientOpts = append(clientOpts, anthropicapi.WithHTTPClient(p.httpClient))
	}
	if len(p.headers) > 0 {
		clientOpts = append(clientOpts, anthropicapi.WithHeaders(p.headers))
	}

	p.client = anthropicapi.NewClient(apiKey, clientOpts...)
	return p
}

func (p *Provider) Name() string {
	return ProviderType
}

// GenerateContent performs one messages round trip.
func (p *Provider) GenerateContent(ctx context.Context, req *domain.GenerateRequest) (*domain.GenerateResponse, error) {
	ctx, cancel := withTimeout(ctx, req.Config.Timeout)
	defer cancel()

	ctx, span := p.startSpan(ctx, "GenerateContent", req.Model)
	defer span.End()

	resp, err := p.client.CreateMessage(ctx, p.toAPIRequest(req))
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	out := fromAPIResponse(resp)
	span.SetAttributes(
		attribute.String("llm.finish_reason", string(out.FinishReason)),
		attribute.Int("llm.usage.total_tokens", out.Usage.TotalTokenCount),
	)
	return out, nil
}

// GenerateContentStream streams a message. Text deltas are sent as they
// arrive; tool_use blocks are assembled by block index and sent once after
// the stream ends, together with usage.
func (p *Provider) GenerateContentStream(ctx context.Context, req *domain.GenerateRequest) (<-chan domain.StreamEvent, error) {
	ctx, cancel := withTimeout(ctx, req.Config.Timeout)

	ctx, span := p.startSpan(ctx, "GenerateContentStream", req.Model)

	stream, err := p.client.StreamMessage(ctx, p.toAPIRequest(req))
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
				slog.String("provider", ProviderType),
				slog.String("model", req.Model),
				slog.String("error", err.Error()),
			)
			out <- domain.StreamEvent{Err: err}
		}
	}()

	return out, nil
}

func (p *Provider) consumeStream(ctx context.Context, model string, stream <-chan anthropicapi.StreamEventResult, out chan<- domain.StreamEvent) error {
	acc := toolcall.New()

	var (
		inputTokens, outputTokens int
		reported                  bool
		finish                    domain.FinishReason
	)

	skip := func(eventType string, err error) {
		p.logger.Debug("skipping malformed stream event",
			slog.String("provider", ProviderType),
			slog.String("event", eventType),
			slog.String("error", err.Error()),
		)
	}

	emitText := func(text string) {
		if text != "" {
			out <- domain.StreamEvent{Response: &domain.GenerateResponse{Text: text}}
		}
	}

	for result := range stream {
		if result.Err != nil {
			return result.Err
		}

		switch result.EventType {
		case "message_start":
			var ev anthropicapi.MessageStartEvent
			if err := result.Decode(&ev); err != nil {
				skip(result.EventType, err)
				continue
			}
			inputTokens = ev.Message.Usage.InputTokens
			outputTokens = ev.Message.Usage.OutputTokens
			reported = true

		case "content_block_start":
			var ev anthropicapi.ContentBlockStartEvent
			if err := result.Decode(&ev); err != nil {
				skip(result.EventType, err)
				continue
			}
			switch ev.ContentBlock.Type {
			case "tool_use":
				acc.Add(ev.Index, ev.ContentBlock.ID, ev.ContentBlock.Name, "")
			case "text":
				emitText(ev.ContentBlock.Text)
			}

		case "content_block_delta":
			var ev anthropicapi.ContentBlockDeltaEvent
			if err := result.Decode(&ev); err != nil {
				skip(result.EventType, err)
				continue
			}
			switch ev.Delta.Type {
			case "text_delta":
				emitText(ev.Delta.Text)
			case "input_json_delta":
				acc.Add(ev.Index, "", "", ev.Delta.PartialJSON)
			}

		case "message_delta":
			var ev anthropicapi.MessageDeltaEvent
			if err := result.Decode(&ev); err != nil {
				skip(result.EventType, err)
				continue
			}
			if ev.Delta.StopReason != "" {
				finish = stopReason(ev.Delta.StopReason)
			}
			if ev.Usage != nil {
				outputTokens = ev.Usage.OutputTokens
				reported = true
			}

		case "error":
			var ev anthropicapi.ErrorEvent
			if err := result.Decode(&ev); err != nil {
				skip(result.EventType, err)
				continue
			}
			return fmt.Errorf("%s stream error: %w", ProviderType, &ev.Error)
		}
	}

	// The reader stops quietly on cancellation; report it.
	if err := ctx.Err(); err != nil {
		return domain.RequestError(ctx, ProviderType, err)
	}

	usage := domain.NewUsage(inputTokens, outputTokens)
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
		slog.String("provider", ProviderType),
		slog.String("model", model),
		slog.String("finish_reason", string(final.FinishReason)),
		slog.Int("tool_calls", len(final.FunctionCalls)),
		slog.Int("total_tokens", final.Usage.TotalTokenCount),
	)
}

// CountTokens estimates the prompt size locally without calling the API.
func (p *Provider) CountTokens(_ context.Context, req *domain.CountTokensRequest) (*domain.CountTokensResponse, error) {
	return tokens.EstimateContents(req.Contents), nil
}

// EmbedContent always fails: the Messages API has no embeddings.
func (p *Provider) EmbedContent(_ context.Context, _ *domain.EmbedRequest) (*domain.EmbedResponse, error) {
	return nil, fmt.Errorf("%s embeddings: %w", ProviderType, domain.ErrUnsupported)
}

func (p *Provider) startSpan(ctx context.Context, op, model string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, ProviderType+"."+op, trace.WithAttributes(
		attribute.String("llm.provider", ProviderType),
		attribute.String("llm.model", model),
	))
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

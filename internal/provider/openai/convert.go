package openai

import (
	"encoding/json"
	"fmt"

	openaiapi "github.com/tjfontaine/polyglot-agent/internal/api/openai"
	"github.com/tjfontaine/polyglot-agent/internal/domain"
	"github.com/tjfontaine/polyglot-agent/internal/schema"
)

// jsonModeInstruction prefixes the schema in forced-JSON requests.
const jsonModeInstruction = "You must respond with valid JSON only, strictly conforming to the following JSON schema. Do not include any text, markdown or code fences outside the JSON value.\n\nSchema:\n"

// toAPIRequest converts a canonical request to a chat completion request.
func (p *Provider) toAPIRequest(req *domain.GenerateRequest) *openaiapi.ChatCompletionRequest {
	cfg := req.Config

	apiReq := &openaiapi.ChatCompletionRequest{
		Model:    p.dialect.wireModel(req.Model),
		Messages: toMessages(req),
		TopP:     cfg.TopP,
	}

	if cfg.MaxOutputTokens > 0 {
		if p.usesCompletionTokens(req.Model) {
			apiReq.MaxCompletionTokens = cfg.MaxOutputTokens
		} else {
			apiReq.MaxTokens = cfg.MaxOutputTokens
		}
	}

	apiReq.Temperature = p.temperature(req.Model, cfg.Temperature)

	apiReq.Tools = p.toTools(cfg.Tools)
	if len(apiReq.Tools) > 0 {
		apiReq.ToolChoice = "auto"
	}

	return apiReq
}

func (p *Provider) usesCompletionTokens(model string) bool {
	if p.dialect.CompletionTokens != nil {
		return p.dialect.CompletionTokens(model)
	}
	return p.rules.UsesCompletionTokens(model)
}

func (p *Provider) temperature(model string, requested *float32) *float32 {
	if p.dialect.OmitTemperature != nil && p.dialect.OmitTemperature(model) {
		return nil
	}
	t := DefaultTemperature
	switch {
	case p.rules.IsThinking(model):
		t = 1
	case requested != nil:
		t = *requested
	}
	return &t
}

// toMessages flattens canonical turns into chat messages. Turns that end up
// with no content are dropped.
func toMessages(req *domain.GenerateRequest) []openaiapi.ChatCompletionMessage {
	var messages []openaiapi.ChatCompletionMessage

	if req.Config.ForcedJSON() {
		messages = append(messages, openaiapi.ChatCompletionMessage{
			Role:    "system",
			Content: jsonModeInstruction + schemaText(req.Config.ResponseSchema),
		})
	}

	if si := req.Config.SystemInstruction; si != nil {
		if text := si.Text(); text != "" {
			messages = append(messages, openaiapi.ChatCompletionMessage{Role: "system", Content: text})
		}
	}

	for _, c := range req.Contents {
		if !c.HasRecognizedParts() {
			continue
		}
		messages = append(messages, toTurnMessages(c)...)
	}

	return messages
}

// toTurnMessages converts one turn. Function responses that carry a call id
// become tool messages, which must directly follow the assistant message
// that made the calls, so they are emitted ahead of the turn's own text.
func toTurnMessages(c domain.Content) []openaiapi.ChatCompletionMessage {
	var (
		out       []openaiapi.ChatCompletionMessage
		text      string
		toolCalls []openaiapi.ToolCall
	)

	for _, part := range c.Parts {
		switch {
		case part.FunctionCall != nil:
			fc := part.FunctionCall
			toolCalls = append(toolCalls, openaiapi.ToolCall{
				ID:   fc.ID,
				Type: "function",
				Function: openaiapi.FunctionCall{
					Name:      fc.Name,
					Arguments: domain.MarshalArgs(fc.Args),
				},
			})
		case part.FunctionResponse != nil:
			fr := part.FunctionResponse
			if fr.ID != "" {
				out = append(out, openaiapi.ChatCompletionMessage{
					Role:       "tool",
					ToolCallID: fr.ID,
					Content:    responseText(fr.Response),
				})
				continue
			}
			text += fmt.Sprintf("Tool %s returned: %s", fr.Name, responseText(fr.Response))
		case part.IsText():
			text += part.Text
		}
	}

	if text == "" && len(toolCalls) == 0 {
		return out
	}

	return append(out, openaiapi.ChatCompletionMessage{
		Role:      c.Role.WireRole(),
		Content:   text,
		ToolCalls: toolCalls,
	})
}

func responseText(resp map[string]any) string {
	if resp == nil {
		return "{}"
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func schemaText(s map[string]any) string {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// toTools converts declarations into function tools. Provider directives are
// forwarded verbatim when the dialect allows it and dropped otherwise.
func (p *Provider) toTools(tools []domain.Tool) []openaiapi.Tool {
	var out []openaiapi.Tool
	for _, t := range tools {
		for _, fd := range t.FunctionDeclarations {
			out = append(out, openaiapi.Tool{
				Type: "function",
				Function: &openaiapi.FunctionTool{
					Name:        fd.Name,
					Description: fd.Description,
					Parameters:  schema.Sanitize(fd.Parameters),
				},
			})
		}
		if !p.dialect.PassthroughDirectives {
			continue
		}
		for _, d := range directives(t) {
			out = append(out, openaiapi.Tool{Raw: d})
		}
	}
	return out
}

func directives(t domain.Tool) []map[string]any {
	var out []map[string]any
	if t.GoogleSearch != nil {
		out = append(out, map[string]any{"googleSearch": t.GoogleSearch})
	}
	if t.CodeExecution != nil {
		out = append(out, map[string]any{"codeExecution": t.CodeExecution})
	}
	if t.URLContext != nil {
		out = append(out, map[string]any{"urlContext": t.URLContext})
	}
	return out
}

// fromAPIResponse converts a chat completion response to the canonical form.
func (p *Provider) fromAPIResponse(resp *openaiapi.ChatCompletionResponse) *domain.GenerateResponse {
	out := &domain.GenerateResponse{FinishReason: domain.FinishReasonStop}
	if resp.Usage != nil {
		out.Usage = domain.NewUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}
	if len(resp.Choices) == 0 {
		return out
	}

	choice := resp.Choices[0]
	msg := choice.Message
	out.Text = msg.Content
	out.FinishReason = finishReason(choice.FinishReason)

	for _, tc := range msg.ToolCalls {
		if tc.Type != "" && tc.Type != "function" {
			continue
		}
		out.FunctionCalls = append(out.FunctionCalls, domain.FunctionCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: domain.ParseArgs(tc.Function.Arguments),
		})
	}

	if len(out.FunctionCalls) == 0 && msg.FunctionCall != nil && p.dialect.legacyFunctionCall() {
		out.FunctionCalls = append(out.FunctionCalls, domain.FunctionCall{
			ID:   p.dialect.NewCallID(),
			Name: msg.FunctionCall.Name,
			Args: domain.ParseArgs(msg.FunctionCall.Arguments),
		})
	}

	return out
}

// finishReason maps wire finish reasons. Unknown values pass through and a
// missing one means the model stopped normally.
func finishReason(reason string) domain.FinishReason {
	switch reason {
	case "", "stop":
		return domain.FinishReasonStop
	case "tool_calls", "function_call":
		return domain.FinishReasonToolCalls
	case "length":
		return domain.FinishReasonMaxTokens
	default:
		return domain.FinishReason(reason)
	}
}

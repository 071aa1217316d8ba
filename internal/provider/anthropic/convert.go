package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	anthropicapi "github.com/tjfontaine/polyglot-agent/internal/api/anthropic"
	"github.com/tjfontaine/polyglot-agent/internal/domain"
	"github.com/tjfontaine/polyglot-agent/internal/provider/toolcall"
	"github.com/tjfontaine/polyglot-agent/internal/schema"
)

const (
	// ToolResultsHeading opens the text that replaces function responses
	// in user turns.
	ToolResultsHeading = "## Tool Execution Completed"

	// toolResultsLead is inserted into user turns that would otherwise
	// carry no readable text.
	toolResultsLead = "Here are the tool results:"

	jsonModeInstruction = "Respond with valid JSON only, strictly conforming to the following JSON schema. Do not include any text, markdown or code fences outside the JSON value.\n\nSchema:\n"
)

// toAPIRequest converts a canonical request to a messages request.
func (p *Provider) toAPIRequest(req *domain.GenerateRequest) *anthropicapi.MessagesRequest {
	cfg := req.Config

	maxTokens := cfg.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = p.maxTokens
	}

	apiReq := &anthropicapi.MessagesRequest{
		Model:       req.Model,
		MaxTokens:   maxTokens,
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
		System:      systemBlocks(req),
		Messages:    toMessages(req),
	}

	for _, fd := range cfg.FunctionDeclarations() {
		apiReq.Tools = append(apiReq.Tools, anthropicapi.Tool{
			Name:        fd.Name,
			Description: fd.Description,
			InputSchema: schema.Sanitize(fd.Parameters),
		})
	}
	if len(apiReq.Tools) > 0 {
		apiReq.ToolChoice = &anthropicapi.ToolChoice{Type: "auto"}
	}

	return apiReq
}

func systemBlocks(req *domain.GenerateRequest) []anthropicapi.SystemBlock {
	var blocks []anthropicapi.SystemBlock
	add := func(c *domain.Content) {
		if text := c.Text(); text != "" {
			blocks = append(blocks, anthropicapi.SystemBlock{Type: "text", Text: text})
		}
	}
	if req.Config.SystemInstruction != nil {
		add(req.Config.SystemInstruction)
	}
	for i := range req.Contents {
		if req.Contents[i].Role == domain.RoleSystem {
			add(&req.Contents[i])
		}
	}
	return blocks
}

func toMessages(req *domain.GenerateRequest) []anthropicapi.Message {
	contents := make([]domain.Content, 0, len(req.Contents))
	for _, c := range req.Contents {
		if c.Role == domain.RoleSystem || !c.HasRecognizedParts() {
			continue
		}
		contents = append(contents, RewriteToolResults(c))
	}

	if req.Config.ForcedJSON() {
		contents = prependJSONInstruction(contents, jsonModeInstruction+schemaText(req.Config.ResponseSchema))
	}

	var messages []anthropicapi.Message
	for _, c := range contents {
		blocks := toBlocks(c)
		if len(blocks) == 0 {
			continue
		}
		messages = append(messages, anthropicapi.Message{
			Role:    c.Role.WireRole(),
			Content: blocks,
		})
	}
	return messages
}

// RewriteToolResults replaces the function responses of a user turn with a
// single text part: the turn's own text, then a "## Tool Execution
// Completed" report with one section per result. Structured linkage
// between calls and results is not preserved. Other turns are returned
// unchanged.
func RewriteToolResults(c domain.Content) domain.Content {
	responses := c.FunctionResponses()
	if c.Role != domain.RoleUser || len(responses) == 0 {
		return c
	}

	var (
		texts []string
		other []domain.Part
	)
	for _, part := range c.Parts {
		switch {
		case part.FunctionResponse != nil:
		case part.IsText():
			texts = append(texts, part.Text)
		case part.Recognized():
			other = append(other, part)
		}
	}

	var b strings.Builder
	if existing := strings.Join(texts, ""); existing != "" {
		b.WriteString(existing)
		b.WriteString("\n\n")
	}
	b.WriteString(ToolResultsHeading)
	for _, fr := range responses {
		b.WriteString("\n\n")
		b.WriteString(formatToolResult(fr))
	}

	parts := append([]domain.Part{domain.TextPart(b.String())}, other...)
	return domain.Content{Role: c.Role, Parts: parts}
}

func formatToolResult(fr *domain.FunctionResponse) string {
	return fmt.Sprintf("### %s\n```json\n%s\n```", fr.Name, prettyJSON(fr.Response))
}

func prependJSONInstruction(contents []domain.Content, instruction string) []domain.Content {
	for i, c := range contents {
		if c.Role != domain.RoleUser {
			continue
		}
		parts := append([]domain.Part{domain.TextPart(instruction)}, c.Parts...)
		contents[i] = domain.Content{Role: c.Role, Parts: parts}
		return contents
	}
	return append([]domain.Content{domain.UserText(instruction)}, contents...)
}

// toBlocks converts the parts of one turn into content blocks.
func toBlocks(c domain.Content) []anthropicapi.ContentPart {
	var (
		blocks        []anthropicapi.ContentPart
		hasText       bool
		hasToolResult bool
	)

	for i, part := range c.Parts {
		switch {
		case part.FunctionCall != nil:
			fc := part.FunctionCall
			id := fc.ID
			if id == "" {
				id = toolcall.SyntheticID(i)
			}
			input := fc.Args
			if input == nil {
				input = map[string]any{}
			}
			blocks = append(blocks, anthropicapi.ContentPart{
				Type:  "tool_use",
				ID:    id,
				Name:  fc.Name,
				Input: input,
			})
		case part.FunctionResponse != nil:
			// Left over after RewriteToolResults; render it as text.
			hasToolResult = true
			blocks = append(blocks, anthropicapi.ContentPart{
				Type: "text",
				Text: formatToolResult(part.FunctionResponse),
			})
		case part.IsText():
			hasText = true
			blocks = append(blocks, anthropicapi.ContentPart{Type: "text", Text: part.Text})
		}
	}

	if c.Role == domain.RoleUser && hasToolResult && !hasText {
		lead := anthropicapi.ContentPart{Type: "text", Text: toolResultsLead}
		blocks = append([]anthropicapi.ContentPart{lead}, blocks...)
	}
	return blocks
}

func prettyJSON(v map[string]any) string {
	if v == nil {
		return "{}"
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

func schemaText(s map[string]any) string {
	return prettyJSON(s)
}

// fromAPIResponse converts a messages response to the canonical form.
func fromAPIResponse(resp *anthropicapi.MessagesResponse) *domain.GenerateResponse {
	out := &domain.GenerateResponse{
		FinishReason: stopReason(resp.StopReason),
		Usage:        domain.NewUsage(resp.Usage.InputTokens, resp.Usage.OutputTokens),
	}

	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			args := block.Input
			if args == nil {
				args = map[string]any{}
			}
			out.FunctionCalls = append(out.FunctionCalls, domain.FunctionCall{
				ID:   block.ID,
				Name: block.Name,
				Args: args,
			})
		}
	}
	out.Text = text.String()

	return out
}

// stopReason maps Anthropic stop reasons. Unknown values pass through and a
// missing one means the model stopped normally.
func stopReason(reason string) domain.FinishReason {
	switch reason {
	case "", "end_turn", "stop_sequence":
		return domain.FinishReasonStop
	case "tool_use":
		return domain.FinishReasonToolCalls
	case "max_tokens":
		return domain.FinishReasonMaxTokens
	default:
		return domain.FinishReason(reason)
	}
}

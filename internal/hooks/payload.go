package hooks

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Payload is the event input written to each hook's stdin.
type Payload interface {
	// Session returns the session identifier and transcript path.
	Session() (id, transcriptPath string)
	// ToolTarget returns the tool name, when the event concerns a tool.
	ToolTarget() (string, bool)
}

// Session identifies the agent session that hook payloads belong to.
type Session struct {
	ID             string
	TranscriptPath string
}

// Base holds the fields shared by every payload.
type Base struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	HookEventName  Event  `json:"hook_event_name"`
}

// Session implements Payload.
func (b Base) Session() (string, string) {
	return b.SessionID, b.TranscriptPath
}

// ToolTarget implements Payload.
func (b Base) ToolTarget() (string, bool) {
	return "", false
}

// ToolUseInput is the PreToolUse payload. Args mirrors ToolInput for hooks
// written against either name.
type ToolUseInput struct {
	Base
	ToolName  string         `json:"tool_name"`
	ToolInput map[string]any `json:"tool_input"`
	Args      map[string]any `json:"args"`
}

// ToolTarget implements Payload.
func (t ToolUseInput) ToolTarget() (string, bool) {
	return t.ToolName, true
}

// ToolResultInput is the PostToolUse payload. Result mirrors ToolResponse.
type ToolResultInput struct {
	ToolUseInput
	ToolResponse any `json:"tool_response"`
	Result       any `json:"result"`
}

// NotificationInput is the Notification payload.
type NotificationInput struct {
	Base
	NotificationType string `json:"notification_type"`
	Message          string `json:"message"`
	Timestamp        string `json:"timestamp"`
}

// StopInput is the Stop and SubagentStop payload.
type StopInput struct {
	Base
	StopReason string `json:"stop_reason"`
	Timestamp  string `json:"timestamp"`
}

func (s Session) base(event Event) Base {
	return Base{SessionID: s.ID, TranscriptPath: s.TranscriptPath, HookEventName: event}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// PreToolUse builds the payload for a tool about to run.
func (s Session) PreToolUse(toolName string, input map[string]any) ToolUseInput {
	if input == nil {
		input = map[string]any{}
	}
	return ToolUseInput{
		Base:      s.base(EventPreToolUse),
		ToolName:  toolName,
		ToolInput: input,
		Args:      input,
	}
}

// PostToolUse builds the payload for a tool that has finished.
func (s Session) PostToolUse(toolName string, input map[string]any, response any) ToolResultInput {
	use := s.PreToolUse(toolName, input)
	use.HookEventName = EventPostToolUse
	return ToolResultInput{
		ToolUseInput: use,
		ToolResponse: response,
		Result:       response,
	}
}

// Notification builds a Notification payload.
func (s Session) Notification(kind, message string) NotificationInput {
	return NotificationInput{
		Base:             s.base(EventNotification),
		NotificationType: kind,
		Message:          message,
		Timestamp:        timestamp(),
	}
}

// Stop builds a Stop or SubagentStop payload.
func (s Session) Stop(event Event, reason string) StopInput {
	return StopInput{
		Base:       s.base(event),
		StopReason: reason,
		Timestamp:  timestamp(),
	}
}

// RawPayload is a payload supplied as an arbitrary JSON object, such as one
// read from stdin by a host process.
type RawPayload map[string]any

// ParseRawPayload decodes a JSON object payload.
func ParseRawPayload(data []byte) (RawPayload, error) {
	var p RawPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid hook payload: %w", err)
	}
	if p == nil {
		return nil, errors.New("invalid hook payload: expected a JSON object")
	}
	return p, nil
}

// Session implements Payload.
func (p RawPayload) Session() (string, string) {
	return p.str("session_id"), p.str("transcript_path")
}

// ToolTarget implements Payload.
func (p RawPayload) ToolTarget() (string, bool) {
	v, ok := p["tool_name"].(string)
	return v, ok
}

func (p RawPayload) str(key string) string {
	v, _ := p[key].(string)
	return v
}

// validatePayload rejects payloads missing the fields every hook relies on.
func validatePayload(p Payload) error {
	if p == nil {
		return errors.New("hook payload is required")
	}
	id, transcript := p.Session()
	if id == "" {
		return errors.New("hook payload is missing session_id")
	}
	if transcript == "" {
		return errors.New("hook payload is missing transcript_path")
	}
	return nil
}

// encodePayload serializes p, filling in hook_event_name for raw payloads.
func encodePayload(event Event, p Payload) ([]byte, error) {
	if raw, ok := p.(RawPayload); ok {
		if _, set := raw["hook_event_name"]; !set {
			withEvent := make(RawPayload, len(raw)+1)
			for k, v := range raw {
				withEvent[k] = v
			}
			withEvent["hook_event_name"] = string(event)
			p = withEvent
		}
	}
	return json.Marshal(p)
}

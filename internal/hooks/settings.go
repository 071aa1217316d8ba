package hooks

import (
	"fmt"
	"time"
)

// Event is a lifecycle point at which hooks run.
type Event string

const (
	EventPreToolUse   Event = "PreToolUse"
	EventPostToolUse  Event = "PostToolUse"
	EventNotification Event = "Notification"
	EventStop         Event = "Stop"
	EventSubagentStop Event = "SubagentStop"
)

// Events lists every supported event in lifecycle order.
var Events = []Event{
	EventPreToolUse,
	EventPostToolUse,
	EventNotification,
	EventStop,
	EventSubagentStop,
}

// Valid reports whether e is a supported event.
func (e Event) Valid() bool {
	for _, known := range Events {
		if e == known {
			return true
		}
	}
	return false
}

// CommandType is the only hook type currently supported.
const CommandType = "command"

// Command is a single hook command.
type Command struct {
	Type    string `koanf:"type" json:"type,omitempty"`
	Command string `koanf:"command" json:"command"`
	// Timeout in milliseconds; zero defers to the call options.
	Timeout int `koanf:"timeout" json:"timeout,omitempty"`
}

func (c Command) timeout() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// Matcher pairs an optional tool-name pattern with the hooks it triggers.
type Matcher struct {
	Pattern string    `koanf:"matcher" json:"matcher,omitempty"`
	Hooks   []Command `koanf:"hooks" json:"hooks"`
}

// Settings maps each event to its matchers, in evaluation order. It is
// loaded once at startup and treated as read-only afterwards.
type Settings map[Event][]Matcher

// Validate checks event names and commands.
func (s Settings) Validate() error {
	for event, matchers := range s {
		if !event.Valid() {
			return fmt.Errorf("unknown hook event %q", event)
		}
		for i, m := range matchers {
			for j, h := range m.Hooks {
				if h.Type != "" && h.Type != CommandType {
					return fmt.Errorf("%s matcher %d hook %d: unsupported type %q", event, i, j, h.Type)
				}
				if h.Command == "" {
					return fmt.Errorf("%s matcher %d hook %d: command is required", event, i, j)
				}
				if h.Timeout < 0 {
					return fmt.Errorf("%s matcher %d hook %d: timeout must not be negative", event, i, j)
				}
			}
		}
	}
	return nil
}

package hooks

import "regexp"

// Matches reports whether the matcher applies to a payload. Patterns only
// filter payloads that name a tool; every other payload matches.
func (m Matcher) Matches(toolName string, hasTool bool) bool {
	if m.Pattern == "" || !hasTool {
		return true
	}
	return matchPattern(m.Pattern, toolName)
}

// matchPattern tests the pattern as a case-insensitive regular expression.
// A pattern that does not compile is compared to the tool name literally.
func matchPattern(pattern, toolName string) bool {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return pattern == toolName
	}
	return re.MatchString(toolName)
}

// commandsFor concatenates the hooks of every matching matcher, preserving
// matcher order and then hook order.
func (s Settings) commandsFor(event Event, p Payload) []Command {
	toolName, hasTool := p.ToolTarget()

	var out []Command
	for _, m := range s[event] {
		if m.Matches(toolName, hasTool) {
			out = append(out, m.Hooks...)
		}
	}
	return out
}

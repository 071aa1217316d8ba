package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettings_Validate(t *testing.T) {
	valid := Settings{
		EventPreToolUse: {{Pattern: "bash", Hooks: []Command{{Type: CommandType, Command: "true", Timeout: 1000}}}},
		EventStop:       {{Hooks: []Command{{Command: "true"}}}},
	}
	assert.NoError(t, valid.Validate())

	assert.ErrorContains(t, Settings{"BeforeLunch": nil}.Validate(), "unknown hook event")
	assert.ErrorContains(t, Settings{EventStop: {{Hooks: []Command{{}}}}}.Validate(), "command is required")
	assert.ErrorContains(t, Settings{EventStop: {{Hooks: []Command{{Type: "prompt", Command: "x"}}}}}.Validate(), "unsupported type")
	assert.ErrorContains(t, Settings{EventStop: {{Hooks: []Command{{Command: "x", Timeout: -1}}}}}.Validate(), "negative")
}

func TestMatcher_Matches(t *testing.T) {
	m := Matcher{Pattern: "write_file|edit"}

	assert.True(t, m.Matches("write_file", true))
	assert.True(t, m.Matches("multi_edit", true))
	assert.False(t, m.Matches("read_file", true))
	assert.True(t, m.Matches("", false))
	assert.True(t, Matcher{}.Matches("anything", true))
}

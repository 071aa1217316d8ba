package toolcall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjfontaine/polyglot-agent/internal/domain"
)

func TestAccumulator_AssemblesFragments(t *testing.T) {
	a := New()
	assert.Equal(t, StateCollectingText, a.State())

	a.Add(0, "call_1", "f", "")
	a.Add(0, "", "", `{"a"`)
	a.Add(0, "", "", `:1}`)
	assert.Equal(t, StateCollectingToolCall, a.State())

	calls := a.Flush()
	require.Len(t, calls, 1)
	assert.Equal(t, domain.FunctionCall{ID: "call_1", Name: "f", Args: map[string]any{"a": float64(1)}}, calls[0])
	assert.Equal(t, StateCompleted, a.State())
}

func TestAccumulator_FlushOnce(t *testing.T) {
	a := New()
	a.Add(0, "x", "f", "{}")
	require.Len(t, a.Flush(), 1)
	assert.Nil(t, a.Flush())

	a.Add(1, "y", "g", "{}")
	assert.Nil(t, a.Flush(), "input after completion is ignored")
}

func TestAccumulator_SyntheticIDs(t *testing.T) {
	a := New()
	a.Add(0, "", "first", `{}`)
	a.Add(1, "", "second", `{}`)
	a.Add(1, "", "", ``)

	calls := a.Flush()
	require.Len(t, calls, 2)
	assert.Equal(t, "call_0", calls[0].ID)
	assert.Equal(t, "call_1", calls[1].ID)
	assert.Equal(t, "first", calls[0].Name)
	assert.Equal(t, "second", calls[1].Name)
}

func TestAccumulator_LateIDReplacesSynthetic(t *testing.T) {
	a := New()
	a.Add(2, "", "f", `{"x":`)
	a.Add(2, "toolu_9", "", `true}`)
	a.Add(2, "toolu_9", "", ``)

	calls := a.Flush()
	require.Len(t, calls, 1)
	assert.Equal(t, "toolu_9", calls[0].ID)
	assert.Equal(t, map[string]any{"x": true}, calls[0].Args)
}

func TestAccumulator_MalformedArgs(t *testing.T) {
	a := New()
	a.Add(0, "c", "f", `{"broken"`)

	calls := a.Flush()
	require.Len(t, calls, 1)
	assert.Equal(t, "c", calls[0].ID)
	assert.Equal(t, "f", calls[0].Name)
	assert.Empty(t, calls[0].Args)
}

func TestAccumulator_FlushResponse(t *testing.T) {
	assert.Nil(t, New().FlushResponse())

	a := New()
	a.Add(0, "c", "f", "{}")
	resp := a.FlushResponse()
	require.NotNil(t, resp)
	assert.Equal(t, domain.FinishReasonToolCalls, resp.FinishReason)
	assert.Len(t, resp.FunctionCalls, 1)
	assert.Empty(t, resp.Text)
}

func TestAccumulator_NewIDAtUsedIndexStartsNewCall(t *testing.T) {
	a := New()
	a.Add(0, "call_a", "f", `{"x":1}`)
	a.Add(0, "call_b", "g", `{"y":2}`)
	a.Add(0, "", "", ``)

	calls := a.Flush()
	require.Len(t, calls, 2)
	assert.Equal(t, domain.FunctionCall{ID: "call_a", Name: "f", Args: map[string]any{"x": float64(1)}}, calls[0])
	assert.Equal(t, domain.FunctionCall{ID: "call_b", Name: "g", Args: map[string]any{"y": float64(2)}}, calls[1])
}

func TestAccumulator_IDlessFragmentsFollowIndex(t *testing.T) {
	a := New()
	a.Add(0, "call_a", "f", `{"x":`)
	a.Add(1, "call_b", "g", `{"y":`)
	a.Add(0, "", "", `1}`)
	a.Add(1, "", "", `2}`)

	calls := a.Flush()
	require.Len(t, calls, 2)
	assert.Equal(t, map[string]any{"x": float64(1)}, calls[0].Args)
	assert.Equal(t, map[string]any{"y": float64(2)}, calls[1].Args)
}

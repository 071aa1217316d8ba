// Package toolcall assembles tool calls that arrive fragmented across
// streamed chunks.
package toolcall

import (
	"strconv"
	"strings"

	"github.com/tjfontaine/polyglot-agent/internal/domain"
)

// State is the phase of a streaming response.
type State int

const (
	// StateCollectingText means only text (or nothing) has been seen.
	StateCollectingText State = iota
	// StateCollectingToolCall means at least one partial call is open.
	StateCollectingToolCall
	// StateCompleted means Flush has run; further input is ignored.
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateCollectingText:
		return "collecting-text"
	case StateCollectingToolCall:
		return "collecting-tool-call"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

type entry struct {
	name string
	args strings.Builder
}

// Accumulator collects partial tool calls for a single streaming response.
// Calls are keyed by id; indexID remembers which call each stream index
// currently feeds. It is owned by one stream reader and is not safe for
// concurrent use.
type Accumulator struct {
	state   State
	order   []string
	entries map[string]*entry
	indexID map[int]string
}

// New creates an empty accumulator.
func New() *Accumulator {
	return &Accumulator{
		entries: make(map[string]*entry),
		indexID: make(map[int]string),
	}
}

// State returns the current phase.
func (a *Accumulator) State() State {
	return a.state
}

// SyntheticID is the id given to a call whose chunks never carried one.
func SyntheticID(index int) string {
	return "call_" + strconv.Itoa(index)
}

// Add records a fragment for the call at index. A fragment without an id
// belongs to the call the index last fed, or to call_<index>. A synthetic
// id is replaced by the first real id seen for its index; any other new id
// at an index starts a separate call. The first non-empty name seen for a
// call is kept.
func (a *Accumulator) Add(index int, id, name, argsFragment string) {
	if a.state == StateCompleted {
		return
	}

	key := a.resolve(index, id)
	e, ok := a.entries[key]
	if !ok {
		e = &entry{}
		a.entries[key] = e
		a.order = append(a.order, key)
	}
	if name != "" && e.name == "" {
		e.name = name
	}
	e.args.WriteString(argsFragment)
	a.state = StateCollectingToolCall
}

func (a *Accumulator) resolve(index int, id string) string {
	current, known := a.indexID[index]
	switch {
	case id == "" && known:
		return current
	case id == "":
		id = SyntheticID(index)
	case known && current == SyntheticID(index) && current != id:
		if _, taken := a.entries[id]; !taken {
			a.rename(current, id)
		}
	}
	a.indexID[index] = id
	return id
}

func (a *Accumulator) rename(from, to string) {
	e, ok := a.entries[from]
	if !ok {
		return
	}
	delete(a.entries, from)
	a.entries[to] = e
	for i, key := range a.order {
		if key == from {
			a.order[i] = to
		}
	}
}

// Len returns the number of calls being assembled.
func (a *Accumulator) Len() int {
	return len(a.order)
}

// Flush returns every accumulated call, fully assembled, in first-seen
// order, and moves to the completed state. Argument strings are parsed as
// JSON; malformed arguments become an empty map. Only the first call
// returns calls.
func (a *Accumulator) Flush() []domain.FunctionCall {
	if a.state == StateCompleted {
		return nil
	}
	a.state = StateCompleted

	if len(a.order) == 0 {
		return nil
	}
	calls := make([]domain.FunctionCall, 0, len(a.order))
	for _, id := range a.order {
		e := a.entries[id]
		calls = append(calls, domain.FunctionCall{
			ID:   id,
			Name: e.name,
			Args: domain.ParseArgs(e.args.String()),
		})
	}
	a.entries = nil
	a.order = nil
	a.indexID = nil
	return calls
}

// FlushResponse wraps the flushed calls into one final response with a
// TOOL_CALLS finish reason, or returns nil when there is nothing to emit.
func (a *Accumulator) FlushResponse() *domain.GenerateResponse {
	calls := a.Flush()
	if len(calls) == 0 {
		return nil
	}
	return &domain.GenerateResponse{
		FunctionCalls: calls,
		FinishReason:  domain.FinishReasonToolCalls,
	}
}

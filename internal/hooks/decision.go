package hooks

import (
	"encoding/json"
	"errors"
	"strings"
)

const (
	DecisionApprove = "approve"
	DecisionBlock   = "block"
)

// defaultBlockReason is used when a blocking hook writes nothing to stderr.
const defaultBlockReason = "blocked by hook"

// Decision is a hook's verdict on the triggering operation.
type Decision struct {
	Decision string `json:"decision,omitempty"`
	Reason   string `json:"reason,omitempty"`

	// Raw is the full object the hook printed, when it printed one.
	Raw map[string]any `json:"-"`
}

// parseDecision extracts a decision from hook stdout. Output that is not a
// JSON object, or lacks both decision and reason, carries no decision.
func parseDecision(stdout string) *Decision {
	trimmed := strings.TrimSpace(stdout)
	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return nil
	}
	_, hasDecision := obj["decision"]
	_, hasReason := obj["reason"]
	if !hasDecision && !hasReason {
		return nil
	}
	d := &Decision{Raw: obj}
	d.Decision, _ = obj["decision"].(string)
	d.Reason, _ = obj["reason"].(string)
	return d
}

// Verdict is the aggregate outcome of a hook run.
type Verdict struct {
	Blocked bool
	Reason  string
	// Index is the position of the deciding result, or -1.
	Index int
}

// Evaluate returns the verdict of the first result that blocks, either by
// decision or by failing with an error. With no such result the operation
// proceeds.
func Evaluate(results []Result) Verdict {
	for i, r := range results {
		if r.Decision != nil && r.Decision.Decision == DecisionBlock {
			reason := r.Decision.Reason
			if reason == "" {
				reason = defaultBlockReason
			}
			return Verdict{Blocked: true, Reason: reason, Index: i}
		}
		if !r.Success && r.Error != "" {
			return Verdict{Blocked: true, Reason: r.Error, Index: i}
		}
	}
	return Verdict{Index: -1}
}

// Err returns a *BlockedError for a blocking verdict and nil otherwise.
func (v Verdict) Err() error {
	if !v.Blocked {
		return nil
	}
	return &BlockedError{Reason: v.Reason}
}

// BlockedError is returned to hosts when a hook vetoes an operation.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return "operation blocked: " + e.Reason
}

// IsBlocked returns true if err wraps a *BlockedError.
func IsBlocked(err error) bool {
	var blocked *BlockedError
	return errors.As(err, &blocked)
}

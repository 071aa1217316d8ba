// Package hooks runs user-configured shell commands at agent lifecycle
// events.
//
// Hooks are configured per event as an ordered list of matchers, each with
// an optional tool-name pattern and one or more commands:
//
//	hooks:
//	  PreToolUse:
//	    - matcher: "write_file|edit"
//	      hooks:
//	        - type: command
//	          command: ./scripts/check-write.sh
//	          timeout: 5000
//
// # Command Contract
//
// Each command runs through "sh -c" and receives the event payload as JSON
// on stdin:
//
//	{
//	  "session_id": "...",
//	  "transcript_path": "...",
//	  "hook_event_name": "PreToolUse",
//	  "tool_name": "write_file",
//	  "tool_input": { ... },
//	  "args": { ... }
//	}
//
// The exit code decides the outcome:
//   - 0: success. Stdout may carry {"decision": "approve"|"block", "reason": "..."}
//   - 2: block the operation, with stderr as the reason
//   - anything else: failure, with stderr as the error
//
// The executor never returns an error. Every failure, including timeouts
// and spawn errors, is reported as a Result.
package hooks

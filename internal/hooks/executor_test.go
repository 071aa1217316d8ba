package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSession = Session{ID: "sess-1", TranscriptPath: "/tmp/transcript.jsonl"}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestExecutor(settings Settings, opts ...ExecutorOption) *Executor {
	opts = append([]ExecutorOption{WithLogger(quietLogger())}, opts...)
	return NewExecutor(settings, opts...)
}

func single(event Event, command string) Settings {
	return Settings{event: {{Hooks: []Command{{Type: CommandType, Command: command}}}}}
}

func TestExecute_NoMatchersSpawnsNothing(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")

	// Hooks exist for a different event only.
	e := newTestExecutor(single(EventStop, "touch "+marker))

	for _, event := range []Event{EventPreToolUse, EventPostToolUse, EventNotification, EventSubagentStop} {
		results := e.Execute(context.Background(), event, testSession.PreToolUse("bash", nil), Options{})
		assert.NotNil(t, results)
		assert.Empty(t, results, event)
	}

	_, err := os.Stat(marker)
	assert.True(t, os.IsNotExist(err), "no hook should have been spawned")
}

func TestExecute_PatternMatching(t *testing.T) {
	settings := Settings{
		EventPreToolUse: {
			{Pattern: "write_file|edit", Hooks: []Command{{Command: "echo matched"}}},
		},
	}
	e := newTestExecutor(settings)

	tests := []struct {
		tool string
		want int
	}{
		{"write_file", 1},
		{"WRITE_FILE", 1},
		{"edit_file", 1},
		{"Edit", 1},
		{"read_file", 0},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			results := e.Execute(context.Background(), EventPreToolUse, testSession.PreToolUse(tt.tool, nil), Options{})
			require.Len(t, results, tt.want)
			if tt.want > 0 {
				assert.True(t, results[0].Success)
				assert.Equal(t, "matched\n", results[0].Output)
			}
		})
	}
}

func TestExecute_PatternIgnoredWithoutToolName(t *testing.T) {
	settings := Settings{
		EventNotification: {
			{Pattern: "write_file", Hooks: []Command{{Command: "true"}}},
		},
	}
	e := newTestExecutor(settings)

	results := e.Execute(context.Background(), EventNotification, testSession.Notification("idle", "waiting"), Options{})
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
}

func TestExecute_InvalidPatternFallsBackToEquality(t *testing.T) {
	settings := Settings{
		EventPreToolUse: {
			{Pattern: "bash(", Hooks: []Command{{Command: "true"}}},
		},
	}
	e := newTestExecutor(settings)

	assert.Len(t, e.Execute(context.Background(), EventPreToolUse, testSession.PreToolUse("bash(", nil), Options{}), 1)
	assert.Empty(t, e.Execute(context.Background(), EventPreToolUse, testSession.PreToolUse("bash", nil), Options{}))
}

func TestExecute_ExitCodes(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    Result
	}{
		{
			name:    "success with decision",
			command: `echo '{"decision":"approve"}'`,
			want: Result{
				Success:  true,
				Output:   "{\"decision\":\"approve\"}\n",
				Decision: &Decision{Decision: DecisionApprove, Raw: map[string]any{"decision": "approve"}},
			},
		},
		{
			name:    "success with plain text",
			command: `echo "plain text"`,
			want:    Result{Success: true, Output: "plain text\n"},
		},
		{
			name:    "success with unrelated json",
			command: `echo '{"ok":true}'`,
			want:    Result{Success: true, Output: "{\"ok\":true}\n"},
		},
		{
			name:    "block with stderr",
			command: `echo "dangerous path" >&2; exit 2`,
			want: Result{
				Decision: &Decision{Decision: DecisionBlock, Reason: "dangerous path"},
				ExitCode: 2,
			},
		},
		{
			name:    "block without stderr",
			command: `exit 2`,
			want: Result{
				Decision: &Decision{Decision: DecisionBlock, Reason: defaultBlockReason},
				ExitCode: 2,
			},
		},
		{
			name:    "failure with stderr",
			command: `echo "boom" >&2; exit 1`,
			want:    Result{Error: "boom", ExitCode: 1},
		},
		{
			name:    "failure without stderr",
			command: `exit 3`,
			want:    Result{Error: "exited with code 3", ExitCode: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExecutor(single(EventPreToolUse, tt.command))
			results := e.Execute(context.Background(), EventPreToolUse, testSession.PreToolUse("bash", nil), Options{})
			require.Len(t, results, 1)

			got := results[0]
			assert.Equal(t, tt.want.Success, got.Success)
			assert.Equal(t, tt.want.Output, got.Output)
			assert.Equal(t, tt.want.Error, got.Error)
			assert.Equal(t, tt.want.Decision, got.Decision)
			assert.Equal(t, tt.want.ExitCode, got.ExitCode)
			assert.Equal(t, tt.command, got.Command)
		})
	}
}

func TestExecute_Timeout(t *testing.T) {
	settings := Settings{
		EventPreToolUse: {{Hooks: []Command{{Command: "sleep 10", Timeout: 200}}}},
	}
	e := newTestExecutor(settings, WithKillGrace(time.Second))

	start := time.Now()
	results := e.Execute(context.Background(), EventPreToolUse, testSession.PreToolUse("bash", nil), Options{})
	elapsed := time.Since(start)

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "timed out")
	assert.Nil(t, results[0].Decision)
	assert.Less(t, elapsed, 5*time.Second)
}

func TestExecute_OptionsTimeoutApplies(t *testing.T) {
	e := newTestExecutor(single(EventStop, "sleep 10"), WithKillGrace(time.Second))

	results := e.Execute(context.Background(), EventStop, testSession.Stop(EventStop, "done"), Options{Timeout: 100 * time.Millisecond})
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Error, "timed out")
}

func TestExecute_RunsConcurrentlyAndKeepsOrder(t *testing.T) {
	settings := Settings{
		EventPreToolUse: {
			{Hooks: []Command{
				{Command: "sleep 0.4; echo first"},
				{Command: "echo second"},
			}},
			{Pattern: "bash", Hooks: []Command{{Command: "sleep 0.4; echo third"}}},
			{Pattern: "other", Hooks: []Command{{Command: "echo skipped"}}},
		},
	}
	e := newTestExecutor(settings)

	start := time.Now()
	results := e.Execute(context.Background(), EventPreToolUse, testSession.PreToolUse("bash", nil), Options{})
	elapsed := time.Since(start)

	require.Len(t, results, 3)
	assert.Equal(t, "first\n", results[0].Output)
	assert.Equal(t, "second\n", results[1].Output)
	assert.Equal(t, "third\n", results[2].Output)
	assert.Less(t, elapsed, 800*time.Millisecond, "hooks should run in parallel")
}

func TestExecute_StdinEnvAndCwd(t *testing.T) {
	dir := t.TempDir()
	e := newTestExecutor(single(EventPostToolUse, `cat; printf '|%s|' "$HOOK_TEST_VAR"; pwd`))

	payload := testSession.PostToolUse("write_file", map[string]any{"path": "a.txt"}, "ok")
	results := e.Execute(context.Background(), EventPostToolUse, payload, Options{
		Cwd: dir,
		Env: map[string]string{"HOOK_TEST_VAR": "override"},
	})
	require.Len(t, results, 1)
	require.True(t, results[0].Success, results[0].Error)

	out := results[0].Output
	jsonPart, rest, found := strings.Cut(out, "|")
	require.True(t, found)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(jsonPart), &got))
	assert.Equal(t, "sess-1", got["session_id"])
	assert.Equal(t, "/tmp/transcript.jsonl", got["transcript_path"])
	assert.Equal(t, "PostToolUse", got["hook_event_name"])
	assert.Equal(t, "write_file", got["tool_name"])
	assert.Equal(t, map[string]any{"path": "a.txt"}, got["tool_input"])
	assert.Equal(t, got["tool_input"], got["args"])
	assert.Equal(t, "ok", got["tool_response"])
	assert.Equal(t, "ok", got["result"])

	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("override|%s\n", resolved), rest)
}

func TestExecute_IgnoresBrokenPipe(t *testing.T) {
	e := newTestExecutor(single(EventPreToolUse, "exit 0"))

	big := map[string]any{"content": strings.Repeat("x", 1<<20)}
	results := e.Execute(context.Background(), EventPreToolUse, testSession.PreToolUse("write_file", big), Options{})
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
}

func TestExecute_MissingSessionFailsClosed(t *testing.T) {
	e := newTestExecutor(single(EventPreToolUse, "true"))

	results := e.Execute(context.Background(), EventPreToolUse, Session{}.PreToolUse("bash", nil), Options{})
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "session_id")

	results = e.Execute(context.Background(), EventPreToolUse, Session{ID: "s"}.PreToolUse("bash", nil), Options{})
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Error, "transcript_path")

	assert.True(t, Evaluate(results).Blocked)
}

func TestExecute_RawPayload(t *testing.T) {
	e := newTestExecutor(Settings{
		EventPreToolUse: {{Pattern: "^bash$", Hooks: []Command{{Command: "cat"}}}},
	})

	raw, err := ParseRawPayload([]byte(`{"session_id":"s","transcript_path":"/t","tool_name":"Bash"}`))
	require.NoError(t, err)

	results := e.Execute(context.Background(), EventPreToolUse, raw, Options{})
	require.Len(t, results, 1)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(results[0].Output), &got))
	assert.Equal(t, "PreToolUse", got["hook_event_name"])
	_, stillMissing := raw["hook_event_name"]
	assert.False(t, stillMissing, "caller payload must not be mutated")
}

func TestExecute_CanceledContextDoesNotStopHooks(t *testing.T) {
	e := newTestExecutor(single(EventStop, "sleep 0.2; echo done"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := e.Execute(ctx, EventStop, testSession.Stop(EventStop, "end_turn"), Options{})
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, "done\n", results[0].Output)
}

func TestExecute_SpawnError(t *testing.T) {
	e := newTestExecutor(single(EventStop, "true"), WithShell("/nonexistent/shell"))

	results := e.Execute(context.Background(), EventStop, testSession.Stop(EventStop, "end_turn"), Options{})
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.NotEmpty(t, results[0].Error)
}

func TestExecute_BackgroundChildDoesNotFailHook(t *testing.T) {
	tests := []struct {
		name        string
		command     string
		wantSuccess bool
		wantBlocked bool
	}{
		{name: "exit 0", command: "sleep 3 & echo ok", wantSuccess: true},
		{name: "exit 2", command: "sleep 3 & echo nope >&2; exit 2", wantBlocked: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExecutor(single(EventNotification, tt.command), WithKillGrace(200*time.Millisecond))

			start := time.Now()
			results := e.Execute(context.Background(), EventNotification, testSession.Notification("info", "hi"), Options{})
			elapsed := time.Since(start)

			require.Len(t, results, 1)
			assert.Equal(t, tt.wantSuccess, results[0].Success, "result: %+v", results[0])
			assert.Equal(t, tt.wantBlocked, Evaluate(results).Blocked)
			assert.Less(t, elapsed, 2*time.Second, "leftover child must not be waited for")
			if tt.wantSuccess {
				assert.Equal(t, "ok\n", results[0].Output)
				assert.Empty(t, results[0].Error)
			}
		})
	}
}

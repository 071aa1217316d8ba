package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"os/exec"
	"slices"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tjfontaine/polyglot-agent/internal/telemetry"
)

const (
	// DefaultTimeout applies when neither the hook nor the call sets one.
	DefaultTimeout = 60 * time.Second

	// DefaultKillGrace is how long a hook may run after SIGTERM before it
	// is killed.
	DefaultKillGrace = 5 * time.Second

	// exitBlock is the exit code a hook uses to block the operation.
	exitBlock = 2
)

// Result is the outcome of one hook command.
type Result struct {
	Success  bool      `json:"success"`
	Output   string    `json:"output,omitempty"`
	Error    string    `json:"error,omitempty"`
	Decision *Decision `json:"decision,omitempty"`

	Command  string        `json:"-"`
	ExitCode int           `json:"-"`
	Duration time.Duration `json:"-"`
}

// Options are per-call execution settings.
type Options struct {
	// Timeout applies to hooks without their own timeout.
	Timeout time.Duration
	// Cwd defaults to the process working directory.
	Cwd string
	// Env overrides entries of the process environment.
	Env map[string]string
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithDebug logs every hook invocation with its exit status and output.
func WithDebug(debug bool) ExecutorOption {
	return func(e *Executor) {
		e.debug = debug
	}
}

// WithKillGrace sets the delay between SIGTERM and SIGKILL on timeout.
func WithKillGrace(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.killGrace = d
	}
}

// WithShell sets the interpreter used to run commands (default "sh").
func WithShell(shell string) ExecutorOption {
	return func(e *Executor) {
		e.shell = shell
	}
}

// Executor runs hook commands for lifecycle events.
type Executor struct {
	settings  Settings
	logger    *slog.Logger
	debug     bool
	killGrace time.Duration
	shell     string
	tracer    trace.Tracer
}

// NewExecutor creates an executor for the given settings.
func NewExecutor(settings Settings, opts ...ExecutorOption) *Executor {
	e := &Executor{
		settings:  settings,
		logger:    slog.Default(),
		killGrace: DefaultKillGrace,
		shell:     "sh",
		tracer:    telemetry.Tracer(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HasHooks reports whether any matcher is registered for event.
func (e *Executor) HasHooks(event Event) bool {
	return len(e.settings[event]) > 0
}

// Execute runs every hook matching the event and payload concurrently and
// returns one result per hook, in matcher order then hook order. It never
// fails: problems are reported through the results.
//
// ctx carries tracing only. Cancelling it does not stop running hooks;
// each hook is bounded by its own timeout.
func (e *Executor) Execute(ctx context.Context, event Event, payload Payload, opts Options) []Result {
	if len(e.settings[event]) == 0 {
		return []Result{}
	}
	ctx = context.WithoutCancel(ctx)

	if err := validatePayload(payload); err != nil {
		e.logger.Warn("hook payload rejected",
			slog.String("event", string(event)),
			slog.String("error", err.Error()),
		)
		return []Result{{Success: false, Error: err.Error()}}
	}

	commands := e.settings.commandsFor(event, payload)
	if len(commands) == 0 {
		return []Result{}
	}

	input, err := encodePayload(event, payload)
	if err != nil {
		return []Result{{Success: false, Error: fmt.Sprintf("failed to encode hook payload: %v", err)}}
	}

	env := mergeEnv(opts.Env)
	results := make([]Result, len(commands))

	var g errgroup.Group
	for i, cmd := range commands {
		g.Go(func() error {
			results[i] = e.run(ctx, event, cmd, input, env, opts)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (e *Executor) run(ctx context.Context, event Event, hook Command, input []byte, env []string, opts Options) Result {
	timeout := hook.timeout()
	if timeout <= 0 {
		timeout = opts.Timeout
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, span := e.tracer.Start(ctx, "hooks.run", trace.WithAttributes(
		attribute.String("hook.event", string(event)),
		attribute.String("hook.command", hook.Command),
	))
	defer span.End()

	start := time.Now()
	result := e.exec(ctx, hook, input, env, opts.Cwd, timeout)
	result.Command = hook.Command
	result.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("hook.exit_code", result.ExitCode),
		attribute.Bool("hook.success", result.Success),
	)
	if !result.Success {
		span.SetStatus(codes.Error, result.Error)
	}

	e.logResult(event, result)
	return result
}

func (e *Executor) exec(ctx context.Context, hook Command, input []byte, env []string, cwd string, timeout time.Duration) Result {
	if hook.Type != "" && hook.Type != CommandType {
		return Result{Error: fmt.Sprintf("unsupported hook type %q", hook.Type), ExitCode: -1}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, e.shell, "-c", hook.Command)
	cmd.Env = env
	cmd.Dir = cwd
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		return terminate(cmd)
	}
	cmd.WaitDelay = e.killGrace

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return Result{Error: err.Error(), ExitCode: -1}
	}

	if err := cmd.Start(); err != nil {
		return Result{Error: err.Error(), ExitCode: -1}
	}

	go func() {
		defer stdin.Close()
		if _, err := stdin.Write(input); err != nil && !isClosedPipe(err) {
			e.logger.Debug("hook stdin write failed", slog.String("error", err.Error()))
		}
	}()

	waitErr := cmd.Wait()

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		kill(cmd)
		return Result{
			Output:   stdout.String(),
			Error:    fmt.Sprintf("hook timed out after %s", timeout),
			ExitCode: -1,
		}
	}

	if errors.Is(waitErr, exec.ErrWaitDelay) && cmd.ProcessState != nil {
		// The shell exited but a background child still holds its output.
		kill(cmd)
		waitErr = nil
		if !cmd.ProcessState.Success() {
			waitErr = &exec.ExitError{ProcessState: cmd.ProcessState}
		}
	}

	return classify(waitErr, stdout.String(), stderr.String())
}

// classify maps a finished process to a result by exit code.
func classify(waitErr error, stdout, stderr string) Result {
	stderr = strings.TrimSpace(stderr)

	if waitErr == nil {
		return Result{
			Success:  true,
			Output:   stdout,
			Decision: parseDecision(stdout),
		}
	}

	var exitErr *exec.ExitError
	if !errors.As(waitErr, &exitErr) {
		return Result{Output: stdout, Error: waitErr.Error(), ExitCode: -1}
	}

	code := exitErr.ExitCode()
	switch {
	case code == exitBlock:
		reason := stderr
		if reason == "" {
			reason = defaultBlockReason
		}
		return Result{
			Output:   stdout,
			Decision: &Decision{Decision: DecisionBlock, Reason: reason},
			ExitCode: code,
		}
	case stderr != "":
		return Result{Output: stdout, Error: stderr, ExitCode: code}
	case code < 0:
		return Result{Output: stdout, Error: exitErr.Error(), ExitCode: code}
	default:
		return Result{Output: stdout, Error: fmt.Sprintf("exited with code %d", code), ExitCode: code}
	}
}

func (e *Executor) logResult(event Event, r Result) {
	attrs := []any{
		slog.String("event", string(event)),
		slog.String("command", r.Command),
		slog.Int("exit_code", r.ExitCode),
		slog.Bool("success", r.Success),
		slog.Duration("duration", r.Duration),
	}
	if !e.debug {
		e.logger.Debug("hook finished", attrs...)
		return
	}
	attrs = append(attrs, slog.String("output", r.Output), slog.String("error", r.Error))
	if r.Decision != nil {
		attrs = append(attrs, slog.String("decision", r.Decision.Decision), slog.String("reason", r.Decision.Reason))
	}
	e.logger.Info("hook finished", attrs...)
}

// mergeEnv returns the process environment with overrides applied.
func mergeEnv(overrides map[string]string) []string {
	env := os.Environ()
	for _, k := range slices.Sorted(maps.Keys(overrides)) {
		env = append(env, k+"="+overrides[k])
	}
	return env
}

// isClosedPipe reports whether a stdin write failed because the hook
// already exited or stopped reading.
func isClosedPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed)
}

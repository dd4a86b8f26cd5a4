package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/vanderheijden86/aidglobe/pkg/debug"
)

// maxOutputLen bounds hook output kept in summaries.
const maxOutputLen = 200

// HookResult records one hook run.
type HookResult struct {
	Hook     Hook
	Phase    Phase
	Success  bool
	Stdout   string
	Stderr   string
	Duration time.Duration
	Error    error
}

// Executor runs the hooks of one export.
type Executor struct {
	config  *Config
	context ExportContext
	results []HookResult
}

// NewExecutor creates an executor for config. A nil config runs nothing.
func NewExecutor(config *Config, ctx ExportContext) *Executor {
	if config == nil {
		config = &Config{}
	}
	return &Executor{config: config, context: ctx}
}

// RunPreExport runs pre-export hooks in order. The first failing hook with
// on_error=fail stops the run and its error is returned.
func (e *Executor) RunPreExport() error {
	for _, h := range e.config.Hooks.PreExport {
		res := e.run(h, PreExport)
		if !res.Success && h.OnError != OnErrorContinue {
			return fmt.Errorf("pre-export hook %q failed: %w", h.Name, res.Error)
		}
	}
	return nil
}

// RunPostExport runs every post-export hook. Failures of on_error=fail
// hooks are joined into the returned error; later hooks still run.
func (e *Executor) RunPostExport() error {
	var errs []error
	for _, h := range e.config.Hooks.PostExport {
		res := e.run(h, PostExport)
		if !res.Success && h.OnError == OnErrorFail {
			errs = append(errs, fmt.Errorf("post-export hook %q failed: %w", h.Name, res.Error))
		}
	}
	return errors.Join(errs...)
}

func (e *Executor) run(h Hook, phase Phase) HookResult {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", h.Command)
	env := append(os.Environ(), e.context.ToEnv()...)
	for k, v := range h.Env {
		env = append(env, k+"="+os.ExpandEnv(v))
	}
	cmd.Env = env
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 500 * time.Millisecond

	start := time.Now()
	err := cmd.Run()
	res := HookResult{
		Hook:     h,
		Phase:    phase,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		res.Error = fmt.Errorf("timed out after %v", timeout)
	case err != nil:
		res.Error = err
	default:
		res.Success = true
	}
	debug.Log("hooks: %s %s (%v) success=%v", phase, h.Name, res.Duration, res.Success)
	e.results = append(e.results, res)
	return res
}

// Results returns every hook run so far, in order.
func (e *Executor) Results() []HookResult {
	return e.results
}

// Summary describes the runs for a status line, one failure per block.
func (e *Executor) Summary() string {
	if len(e.results) == 0 {
		return ""
	}
	ok, failed := 0, 0
	for _, r := range e.results {
		if r.Success {
			ok++
		} else {
			failed++
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hooks: %d succeeded, %d failed", ok, failed)
	for _, r := range e.results {
		if r.Success {
			continue
		}
		fmt.Fprintf(&b, "\n  ✗ %s [%s]: %v", r.Hook.Name, r.Phase, r.Error)
		if r.Stderr != "" {
			fmt.Fprintf(&b, "\n    stderr: %s", truncate(r.Stderr, maxOutputLen))
		}
	}
	return b.String()
}

// RunHooks loads projectDir's hooks and returns an executor for them. It
// returns nil when noHooks is set or no hooks are configured.
func RunHooks(projectDir string, ctx ExportContext, noHooks bool) (*Executor, error) {
	if noHooks {
		return nil, nil
	}
	cfg, warnings, err := LoadConfig(projectDir)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		debug.Log("hooks: %s", w)
	}
	if cfg.Empty() {
		return nil, nil
	}
	return NewExecutor(cfg, ctx), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

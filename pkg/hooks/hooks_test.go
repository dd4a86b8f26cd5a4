package hooks

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func writeHooksFile(t *testing.T, dir, content string) {
	t.Helper()
	d := filepath.Join(dir, Dir)
	if err := os.MkdirAll(d, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", Dir, err)
	}
	if err := os.WriteFile(filepath.Join(d, "hooks.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write hooks.yaml: %v", err)
	}
}

func pre(hooks ...Hook) *Config  { return &Config{Hooks: Phases{PreExport: hooks}} }
func post(hooks ...Hook) *Config { return &Config{Hooks: Phases{PostExport: hooks}} }

func TestExportContextToEnv(t *testing.T) {
	ctx := ExportContext{
		ExportPath:    "/tmp/globe.db",
		ExportFormat:  "sqlite",
		IncidentCount: 42,
		Chapter:       "rising",
		DataHash:      "abc123",
		Timestamp:     time.Date(2025, 11, 30, 10, 30, 0, 0, time.UTC),
	}
	want := []string{
		"GLOBE_EXPORT_PATH=/tmp/globe.db",
		"GLOBE_EXPORT_FORMAT=sqlite",
		"GLOBE_INCIDENT_COUNT=42",
		"GLOBE_CHAPTER=rising",
		"GLOBE_DATA_HASH=abc123",
		"GLOBE_TIMESTAMP=2025-11-30T10:30:00Z",
	}
	got := ctx.ToEnv()
	if len(got) != len(want) {
		t.Fatalf("ToEnv() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("env[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, warnings, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("missing config should not fail: %v", err)
	}
	if !cfg.Empty() || len(warnings) != 0 {
		t.Errorf("cfg = %+v warnings = %v", cfg, warnings)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	writeHooksFile(t, dir, `
hooks:
  pre-export:
    - name: validate
      command: echo "validating"
      timeout: 5s
  post-export:
    - command: rsync "$GLOBE_EXPORT_PATH" backup:/exports/
      timeout: 10
      env:
        RSYNC_RSH: ssh -q
`)
	cfg, _, err := LoadConfig(dir)
	if err != nil {
		t.Fatal(err)
	}

	preHooks := cfg.For(PreExport)
	if len(preHooks) != 1 || preHooks[0].Timeout != 5*time.Second || preHooks[0].OnError != "fail" {
		t.Errorf("pre-export = %+v", preHooks)
	}
	postHooks := cfg.For(PostExport)
	if len(postHooks) != 1 {
		t.Fatalf("post-export = %+v", postHooks)
	}
	h := postHooks[0]
	if h.Name != "post-export-1" || h.OnError != "continue" || h.Timeout != 10*time.Second || h.Env["RSYNC_RSH"] != "ssh -q" {
		t.Errorf("post-export hook = %+v", h)
	}
	if cfg.For(Phase("unknown")) != nil {
		t.Error("unknown phase should have no hooks")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	writeHooksFile(t, dir, "hooks:\n  pre-export:\n    - name: [broken\n")
	if _, _, err := LoadConfig(dir); err == nil {
		t.Error("expected error for invalid YAML")
	}

	var h Hook
	if err := yaml.Unmarshal([]byte("command: echo hi\ntimeout: soon\n"), &h); err == nil {
		t.Error("expected error for invalid timeout")
	}
}

func TestLoadConfigSkipsEmptyCommands(t *testing.T) {
	dir := t.TempDir()
	writeHooksFile(t, dir, `
hooks:
  pre-export:
    - name: empty
      command: ""
  post-export:
    - command: "   "
`)
	cfg, warnings, err := LoadConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Empty() {
		t.Error("empty commands should be dropped")
	}
	if len(warnings) != 2 {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestExecutorRunsWithExportEnv(t *testing.T) {
	t.Setenv("GLOBE_HOOK_TEST", "expanded")
	cfg := pre(Hook{
		Name:    "env",
		Command: `echo "$GLOBE_EXPORT_FORMAT $GLOBE_INCIDENT_COUNT $DEST"`,
		Timeout: 5 * time.Second,
		OnError: "fail",
		Env:     map[string]string{"DEST": "${GLOBE_HOOK_TEST}"},
	})
	e := NewExecutor(cfg, ExportContext{ExportFormat: "png", IncidentCount: 7})
	if err := e.RunPreExport(); err != nil {
		t.Fatal(err)
	}
	res := e.Results()
	if len(res) != 1 || !res[0].Success || res[0].Stdout != "png 7 expanded" {
		t.Errorf("results = %+v", res)
	}
}

func TestRunPreExportStopsOnFail(t *testing.T) {
	e := NewExecutor(pre(
		Hook{Name: "fail-fast", Command: "exit 1", Timeout: time.Second, OnError: "fail"},
		Hook{Name: "never", Command: "echo nope", Timeout: time.Second, OnError: "fail"},
	), ExportContext{})
	if err := e.RunPreExport(); err == nil {
		t.Fatal("expected error")
	}
	if res := e.Results(); len(res) != 1 || res[0].Success {
		t.Errorf("results = %+v", res)
	}
}

func TestRunPreExportContinue(t *testing.T) {
	e := NewExecutor(pre(
		Hook{Name: "soft", Command: "exit 3", Timeout: time.Second, OnError: "continue"},
		Hook{Name: "next", Command: "echo ran", Timeout: time.Second, OnError: "fail"},
	), ExportContext{})
	if err := e.RunPreExport(); err != nil {
		t.Fatalf("continue hook should not fail the run: %v", err)
	}
	if res := e.Results(); len(res) != 2 || res[1].Stdout != "ran" {
		t.Errorf("results = %+v", res)
	}
}

func TestRunPostExportRunsAll(t *testing.T) {
	tests := []struct {
		name    string
		onError string
		wantErr bool
	}{
		{"continue", "continue", false},
		{"fail", "fail", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExecutor(post(
				Hook{Name: "broken", Command: "exit 1", Timeout: time.Second, OnError: tt.onError},
				Hook{Name: "after", Command: "echo ok", Timeout: time.Second, OnError: "continue"},
			), ExportContext{})
			err := e.RunPostExport()
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v", err)
			}
			res := e.Results()
			if len(res) != 2 || res[1].Stdout != "ok" {
				t.Errorf("results = %+v", res)
			}
		})
	}
}

func TestExecutorTimeout(t *testing.T) {
	e := NewExecutor(pre(Hook{Name: "slow", Command: "sleep 10", Timeout: 100 * time.Millisecond, OnError: "fail"}), ExportContext{})
	err := e.RunPreExport()
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("err = %v", err)
	}
	res := e.Results()
	if res[0].Success || res[0].Duration < 100*time.Millisecond || res[0].Duration > 5*time.Second {
		t.Errorf("result = %+v", res[0])
	}
}

func TestExecutorShellErrors(t *testing.T) {
	script := filepath.Join(t.TempDir(), "script.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho nope\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, cmd := range []string{"definitely-not-a-real-command-xyz", script} {
		e := NewExecutor(pre(Hook{Name: "bad", Command: cmd, Timeout: time.Second, OnError: "fail"}), ExportContext{})
		if err := e.RunPreExport(); err == nil {
			t.Errorf("%s: expected failure", cmd)
		}
		if res := e.Results(); len(res) != 1 || res[0].Success || res[0].Stderr == "" {
			t.Errorf("%s: results = %+v", cmd, res)
		}
	}
}

func TestSummary(t *testing.T) {
	e := NewExecutor(&Config{Hooks: Phases{
		PreExport:  []Hook{{Name: "ok", Command: "echo ok", Timeout: time.Second, OnError: "continue"}},
		PostExport: []Hook{{Name: "noisy", Command: "printf '%0300d' 0 1>&2; exit 1", Timeout: time.Second, OnError: "continue"}},
	}}, ExportContext{})
	if e.Summary() != "" {
		t.Error("summary before any run should be empty")
	}
	_ = e.RunPreExport()
	_ = e.RunPostExport()

	s := e.Summary()
	if !strings.Contains(s, "1 succeeded") || !strings.Contains(s, "1 failed") {
		t.Errorf("summary counts: %s", s)
	}
	for _, line := range strings.Split(s, "\n") {
		if strings.Contains(line, "stderr:") && (len(line) > 230 || !strings.HasSuffix(line, "...")) {
			t.Errorf("stderr line not truncated: %d bytes", len(line))
		}
	}
}

func TestRunHooks(t *testing.T) {
	dir := t.TempDir()
	if e, err := RunHooks(dir, ExportContext{}, false); err != nil || e != nil {
		t.Fatalf("no config: e=%v err=%v", e, err)
	}

	writeHooksFile(t, dir, "hooks:\n  post-export:\n    - command: echo hi\n")
	if e, err := RunHooks(dir, ExportContext{}, true); err != nil || e != nil {
		t.Fatalf("noHooks should short-circuit: e=%v err=%v", e, err)
	}
	e, err := RunHooks(dir, ExportContext{ExportFormat: "json"}, false)
	if err != nil || e == nil {
		t.Fatalf("RunHooks: e=%v err=%v", e, err)
	}
	if len(e.Results()) != 0 {
		t.Error("results should be empty before runs")
	}
}

func TestLoadConfigUsesCWD(t *testing.T) {
	dir := t.TempDir()
	writeHooksFile(t, dir, "hooks:\n  pre-export:\n    - command: echo ok\n")
	t.Chdir(dir)

	cfg, _, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Empty() || Path(dir) != filepath.Join(dir, ".globe", "hooks.yaml") {
		t.Error("expected hooks loaded from the working directory")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncate("abcdefghijklmnopqrstuvwxyz", 8); got != "abcde..." {
		t.Errorf("got %q", got)
	}
}

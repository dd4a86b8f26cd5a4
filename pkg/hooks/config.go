// Package hooks runs user shell commands around globe exports.
//
// Hooks live in <project>/.globe/hooks.yaml:
//
//	hooks:
//	  pre-export:
//	    - name: check-space
//	      command: test -w "$(dirname "$GLOBE_EXPORT_PATH")"
//	  post-export:
//	    - command: rsync "$GLOBE_EXPORT_PATH" backup:/exports/
//	      timeout: 10s
//	      on_error: fail
package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Phase is a point in the export pipeline.
type Phase string

const (
	PreExport  Phase = "pre-export"
	PostExport Phase = "post-export"
)

// on_error values. Pre-export hooks default to OnErrorFail, post-export
// hooks to OnErrorContinue.
const (
	OnErrorFail     = "fail"
	OnErrorContinue = "continue"
)

// Dir is the per-project directory holding File.
const Dir = ".globe"

// File is the hooks configuration file name inside Dir.
const File = "hooks.yaml"

// DefaultTimeout bounds a hook without an explicit timeout.
const DefaultTimeout = 30 * time.Second

// Hook is one configured command.
type Hook struct {
	Name    string            `yaml:"name"`
	Command string            `yaml:"command"`
	Timeout time.Duration     `yaml:"timeout,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	OnError string            `yaml:"on_error,omitempty"`
}

// Phases groups hooks by when they run.
type Phases struct {
	PreExport  []Hook `yaml:"pre-export,omitempty"`
	PostExport []Hook `yaml:"post-export,omitempty"`
}

// Config is the parsed hooks.yaml.
type Config struct {
	Hooks Phases `yaml:"hooks"`
}

// For returns the hooks of phase p.
func (c *Config) For(p Phase) []Hook {
	if c == nil {
		return nil
	}
	switch p {
	case PreExport:
		return c.Hooks.PreExport
	case PostExport:
		return c.Hooks.PostExport
	}
	return nil
}

// Empty reports whether no hook is configured.
func (c *Config) Empty() bool {
	return c == nil || len(c.Hooks.PreExport)+len(c.Hooks.PostExport) == 0
}

// ExportContext describes the export a hook runs for. Hooks see it as
// GLOBE_* environment variables.
type ExportContext struct {
	ExportPath    string
	ExportFormat  string // json, sqlite, svg or png
	IncidentCount int
	Chapter       string
	DataHash      string
	Timestamp     time.Time
}

// ToEnv renders the context as KEY=value pairs.
func (c ExportContext) ToEnv() []string {
	return []string{
		fmt.Sprintf("GLOBE_EXPORT_PATH=%s", c.ExportPath),
		fmt.Sprintf("GLOBE_EXPORT_FORMAT=%s", c.ExportFormat),
		fmt.Sprintf("GLOBE_INCIDENT_COUNT=%d", c.IncidentCount),
		fmt.Sprintf("GLOBE_CHAPTER=%s", c.Chapter),
		fmt.Sprintf("GLOBE_DATA_HASH=%s", c.DataHash),
		fmt.Sprintf("GLOBE_TIMESTAMP=%s", c.Timestamp.Format(time.RFC3339)),
	}
}

// Path returns the hooks file location for projectDir.
func Path(projectDir string) string {
	return filepath.Join(projectDir, Dir, File)
}

// LoadConfig reads the hooks file of projectDir (the working directory when
// empty). A missing file yields an empty Config. Hooks without a command are
// dropped and reported in warnings; the rest get their defaults filled in.
func LoadConfig(projectDir string) (*Config, []string, error) {
	if projectDir == "" {
		projectDir, _ = os.Getwd()
	}
	path := Path(projectDir)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading hooks config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	var warnings []string
	cfg.Hooks.PreExport = withDefaults(cfg.Hooks.PreExport, PreExport, &warnings)
	cfg.Hooks.PostExport = withDefaults(cfg.Hooks.PostExport, PostExport, &warnings)
	return &cfg, warnings, nil
}

func withDefaults(hooks []Hook, phase Phase, warnings *[]string) []Hook {
	var out []Hook
	for i, h := range hooks {
		if strings.TrimSpace(h.Command) == "" {
			*warnings = append(*warnings, fmt.Sprintf("%s hook %d has empty command; skipping", phase, i+1))
			continue
		}
		if h.Name == "" {
			h.Name = fmt.Sprintf("%s-%d", phase, i+1)
		}
		if h.Timeout <= 0 {
			h.Timeout = DefaultTimeout
		}
		if h.OnError == "" {
			h.OnError = OnErrorContinue
			if phase == PreExport {
				h.OnError = OnErrorFail
			}
		}
		out = append(out, h)
	}
	return out
}

// UnmarshalYAML accepts timeouts as Go durations ("30s") or bare seconds.
func (h *Hook) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Name    string            `yaml:"name"`
		Command string            `yaml:"command"`
		Timeout string            `yaml:"timeout"`
		Env     map[string]string `yaml:"env"`
		OnError string            `yaml:"on_error"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*h = Hook{Name: raw.Name, Command: raw.Command, Env: raw.Env, OnError: raw.OnError}
	if raw.Timeout == "" {
		return nil
	}
	if d, err := time.ParseDuration(raw.Timeout); err == nil {
		h.Timeout = d
		return nil
	}
	var seconds float64
	if _, err := fmt.Sscanf(raw.Timeout, "%g", &seconds); err != nil {
		return fmt.Errorf("invalid timeout %q", raw.Timeout)
	}
	h.Timeout = time.Duration(seconds * float64(time.Second))
	return nil
}

package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	json "github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/vanderheijden86/aidglobe/pkg/config"
)

// Export formats.
const (
	FormatJSON   = "json"
	FormatSQLite = "sqlite"
	FormatSVG    = "svg"
	FormatPNG    = "png"
)

// AllFormats lists every supported export format.
var AllFormats = []string{FormatJSON, FormatSQLite, FormatSVG, FormatPNG}

// DefaultOutputDir is where exports land when no directory is chosen.
const DefaultOutputDir = "./globe-export"

// WizardConfig holds the choices made in the export wizard.
type WizardConfig struct {
	Formats   []string `json:"formats"`
	OutputDir string   `json:"output_dir"`
	Title     string   `json:"title,omitempty"`
	// BaseName prefixes every output file; defaults to the chapter ID.
	BaseName string `json:"base_name,omitempty"`
	Width    int    `json:"width,omitempty"`
}

// DefaultWizardConfig exports every format into DefaultOutputDir.
func DefaultWizardConfig() *WizardConfig {
	return &WizardConfig{
		Formats:   append([]string(nil), AllFormats...),
		OutputDir: DefaultOutputDir,
		Width:     DefaultSnapshotWidth,
	}
}

// Validate rejects unknown formats and an empty format list.
func (c *WizardConfig) Validate() error {
	if len(c.Formats) == 0 {
		return fmt.Errorf("no export format selected")
	}
	for _, f := range c.Formats {
		if !isFormat(f) {
			return fmt.Errorf("unknown export format %q (want one of %s)", f, strings.Join(AllFormats, ", "))
		}
	}
	return nil
}

func isFormat(f string) bool {
	for _, known := range AllFormats {
		if f == known {
			return true
		}
	}
	return false
}

// Wizard walks the user through exporting the current frame.
type Wizard struct {
	config *WizardConfig
	frame  Frame
}

// NewWizard creates a wizard for f.
func NewWizard(f Frame) *Wizard {
	cfg := DefaultWizardConfig()
	cfg.Title = f.Title
	return &Wizard{config: cfg, frame: f}
}

// GetConfig returns the collected configuration.
func (w *Wizard) GetConfig() *WizardConfig {
	return w.config
}

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// Run collects options, writes the exports and saves the choices for next
// time. It returns the written paths.
func (w *Wizard) Run() ([]string, error) {
	fmt.Println("")
	fmt.Println("Globe export")
	fmt.Println("────────────────────────────")
	fmt.Printf("  Chapter:   %s\n", chapterLabel(w.frame.Chapter))
	fmt.Printf("  Incidents: %d\n", w.frame.View.Len())
	fmt.Println("")

	if saved, err := LoadWizardConfig(); err == nil && saved != nil && len(saved.Formats) > 0 {
		w.config.Formats = saved.Formats
		w.config.OutputDir = saved.OutputDir
		if saved.Width > 0 {
			w.config.Width = saved.Width
		}
	}

	if err := w.collectOptions(); err != nil {
		return nil, err
	}
	if err := w.config.Validate(); err != nil {
		return nil, err
	}

	paths, err := ExportAll(w.frame, w.config)
	if err != nil {
		return paths, err
	}
	if err := SaveWizardConfig(w.config); err != nil {
		fmt.Printf("Warning: could not save export settings: %v\n", err)
	}

	fmt.Println("")
	for _, p := range paths {
		fmt.Printf("  wrote %s\n", p)
	}
	fmt.Println("")
	return paths, nil
}

func chapterLabel(chapter string) string {
	if chapter == "" {
		return "(free explore)"
	}
	return chapter
}

func (w *Wizard) collectOptions() error {
	title := w.config.Title
	outputDir := w.config.OutputDir
	formats := w.config.Formats

	options := make([]huh.Option[string], 0, len(AllFormats))
	for _, f := range AllFormats {
		options = append(options, huh.NewOption(formatLabel(f), f))
	}

	form := newForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Formats").
				Description("Space to toggle, enter to confirm").
				Options(options...).
				Value(&formats),
			huh.NewInput().
				Title("Output directory").
				Value(&outputDir).
				Placeholder(DefaultOutputDir),
			huh.NewInput().
				Title("Snapshot title").
				Value(&title).
				Placeholder(w.frame.Title),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	w.config.Formats = formats
	w.config.Title = title
	if strings.TrimSpace(outputDir) == "" {
		outputDir = DefaultOutputDir
	}
	w.config.OutputDir = outputDir
	return nil
}

func formatLabel(f string) string {
	switch f {
	case FormatJSON:
		return "Render buffers (JSON)"
	case FormatSQLite:
		return "Incidents and heatmap grid (SQLite)"
	case FormatSVG:
		return "Map snapshot (SVG)"
	case FormatPNG:
		return "Map snapshot (PNG)"
	}
	return f
}

// ExportAll writes the frame in every configured format and returns the
// written paths in format order. It stops at the first failure.
func ExportAll(f Frame, cfg *WizardConfig) ([]string, error) {
	if cfg == nil {
		cfg = DefaultWizardConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dir := cfg.OutputDir
	if dir == "" {
		dir = DefaultOutputDir
	}
	base := cfg.BaseName
	if base == "" {
		base = f.Chapter
	}
	base = sanitizeName(base)

	var written []string
	for _, format := range cfg.Formats {
		var path string
		var err error
		switch format {
		case FormatJSON:
			path = filepath.Join(dir, base+".json")
			err = SaveBuffersJSON(f, path)
		case FormatSQLite:
			path = filepath.Join(dir, base+".sqlite")
			err = NewSQLiteExporter(f).Export(path)
		case FormatSVG, FormatPNG:
			path = filepath.Join(dir, base+"."+format)
			err = SaveSnapshot(SnapshotOptions{Path: path, Format: format, Title: cfg.Title, Width: cfg.Width, Frame: f})
		}
		if err != nil {
			return written, fmt.Errorf("export %s: %w", format, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func sanitizeName(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "globe"
	}
	return b.String()
}

// WizardConfigPath returns the path to the saved wizard settings.
func WizardConfigPath() string {
	dir := config.ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "export-wizard.json")
}

// LoadWizardConfig loads previously saved wizard settings. A missing file
// returns nil, nil.
func LoadWizardConfig() (*WizardConfig, error) {
	path := WizardConfigPath()
	if path == "" {
		return nil, fmt.Errorf("could not determine config path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var cfg WizardConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveWizardConfig saves wizard settings for future runs.
func SaveWizardConfig(cfg *WizardConfig) error {
	path := WizardConfigPath()
	if path == "" {
		return fmt.Errorf("could not determine config path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

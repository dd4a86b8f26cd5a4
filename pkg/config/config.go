// Package config loads and saves the globe's user configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/globe/config.yaml
//   - Data:    ~/.local/share/globe/ (exports)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/aidglobe/pkg/filter"
	"github.com/vanderheijden86/aidglobe/pkg/heatmap"
	"github.com/vanderheijden86/aidglobe/pkg/playback"
	"github.com/vanderheijden86/aidglobe/pkg/proximity"
	"github.com/vanderheijden86/aidglobe/pkg/store"
)

const appName = "globe"

// GlobeConfig holds scene geometry.
type GlobeConfig struct {
	Radius         float64 `yaml:"radius"`
	IncidentRadius float64 `yaml:"incident_radius"` // must exceed Radius
	CameraDistance float64 `yaml:"camera_distance"`
}

// HoverConfig controls proximity queries.
type HoverConfig struct {
	Radius         float64 `yaml:"radius"`          // UV units, 0.0025-0.1
	IndexThreshold int     `yaml:"index_threshold"` // view size that switches to the k-d tree
}

// HeatmapConfig controls grid binning and intensity.
type HeatmapConfig struct {
	CellSize  float64 `yaml:"cell_size"` // degrees
	Reference float64 `yaml:"reference"`
	Floor     float64 `yaml:"floor"`
}

// PlaybackConfig controls the timeline.
type PlaybackConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// UIConfig holds explorer preferences.
type UIConfig struct {
	RotationSpeeds []float64 `yaml:"rotation_speeds,omitempty"`
	MapWidth       int       `yaml:"map_width,omitempty"` // 0 = fit terminal
}

// WatchConfig controls live reload of the dataset.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce,omitempty"`
	Poll     bool          `yaml:"poll,omitempty"` // force polling (network filesystems)
}

// Config is the top-level configuration.
type Config struct {
	Dataset  string         `yaml:"dataset,omitempty"`
	Chapters string         `yaml:"chapters,omitempty"` // empty = built-in narrative
	Globe    GlobeConfig    `yaml:"globe"`
	Hover    HoverConfig    `yaml:"hover"`
	Heatmap  HeatmapConfig  `yaml:"heatmap"`
	Palette  filter.Palette `yaml:"palette"`
	Playback PlaybackConfig `yaml:"playback"`
	UI       UIConfig       `yaml:"ui,omitempty"`
	Watch    WatchConfig    `yaml:"watch"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Globe: GlobeConfig{
			Radius:         1.0,
			IncidentRadius: store.DefaultSurfaceRadius,
			CameraDistance: 3.5,
		},
		Hover: HoverConfig{
			Radius:         proximity.DefaultRadius,
			IndexThreshold: proximity.DefaultIndexThreshold,
		},
		Heatmap: HeatmapConfig{
			CellSize:  heatmap.DefaultCellSize,
			Reference: heatmap.DefaultReference,
			Floor:     heatmap.DefaultFloor,
		},
		Palette:  filter.DefaultPalette(),
		Playback: PlaybackConfig{Interval: playback.DefaultInterval},
		UI:       UIConfig{RotationSpeeds: []float64{0, 0.001, 0.003}},
		Watch:    WatchConfig{Enabled: true},
	}
}

// ConfigDir returns the XDG config directory.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// DataDir returns the XDG data directory.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path. Keys absent from the file keep
// their defaults. Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	// Color maps are decoded empty so user keys never sit next to default
	// keys spelled differently.
	defaults := cfg.Palette
	cfg.Palette.Actors, cfg.Palette.Orgs = nil, nil
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config: %w", err)
	}
	cfg.Dataset = expandHome(cfg.Dataset)
	cfg.Chapters = expandHome(cfg.Chapters)
	cfg.Palette = cfg.Palette.WithDefaults(defaults)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks value ranges. All problems are reported together.
func (c Config) Validate() error {
	var errs []error
	if c.Globe.Radius <= 0 {
		errs = append(errs, fmt.Errorf("globe.radius must be positive, got %v", c.Globe.Radius))
	}
	if c.Globe.IncidentRadius <= c.Globe.Radius {
		errs = append(errs, fmt.Errorf("globe.incident_radius (%v) must exceed globe.radius (%v)", c.Globe.IncidentRadius, c.Globe.Radius))
	}
	if c.Hover.Radius < proximity.MinRadius || c.Hover.Radius > proximity.MaxRadius {
		errs = append(errs, fmt.Errorf("hover.radius must be within [%v, %v], got %v", proximity.MinRadius, proximity.MaxRadius, c.Hover.Radius))
	}
	if c.Heatmap.CellSize <= 0 || c.Heatmap.CellSize > 90 {
		errs = append(errs, fmt.Errorf("heatmap.cell_size must be within (0, 90], got %v", c.Heatmap.CellSize))
	}
	if c.Heatmap.Reference <= 0 {
		errs = append(errs, fmt.Errorf("heatmap.reference must be positive, got %v", c.Heatmap.Reference))
	}
	if c.Heatmap.Floor < 0 || c.Heatmap.Floor > 1 {
		errs = append(errs, fmt.Errorf("heatmap.floor must be within [0, 1], got %v", c.Heatmap.Floor))
	}
	if c.Playback.Interval <= 0 {
		errs = append(errs, fmt.Errorf("playback.interval must be positive, got %v", c.Playback.Interval))
	}
	return errors.Join(errs...)
}

// HeatmapOptions converts the heatmap section for heatmap.Bin.
func (c Config) HeatmapOptions() heatmap.Options {
	return heatmap.Options{
		CellSize: c.Heatmap.CellSize,
		Scale:    heatmap.Scale{Reference: c.Heatmap.Reference, Floor: c.Heatmap.Floor},
	}
}

// PaletteWithScale returns the palette with the heatmap scale applied, so
// heatmap-colored points and grid cells share one normalization.
func (c Config) PaletteWithScale() filter.Palette {
	p := c.Palette
	p.Heat = c.HeatmapOptions().Scale
	return p
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

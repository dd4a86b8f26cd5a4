package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/aidglobe/internal/datasource"
	"github.com/vanderheijden86/aidglobe/pkg/config"
	"github.com/vanderheijden86/aidglobe/pkg/debug"
	"github.com/vanderheijden86/aidglobe/pkg/export"
	"github.com/vanderheijden86/aidglobe/pkg/loader"
	"github.com/vanderheijden86/aidglobe/pkg/metrics"
	"github.com/vanderheijden86/aidglobe/pkg/model"
	"github.com/vanderheijden86/aidglobe/pkg/session"
	"github.com/vanderheijden86/aidglobe/pkg/store"
	"github.com/vanderheijden86/aidglobe/pkg/story"
	"github.com/vanderheijden86/aidglobe/pkg/ui"
	"github.com/vanderheijden86/aidglobe/pkg/version"
	"github.com/vanderheijden86/aidglobe/pkg/watcher"
)

// pathList collects a repeatable string flag.
type pathList []string

func (p *pathList) String() string { return strings.Join(*p, ",") }

func (p *pathList) Set(v string) error {
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			*p = append(*p, s)
		}
	}
	return nil
}

func main() {
	var dataPaths pathList
	flag.Var(&dataPaths, "data", "Dataset file (CSV or SQLite); repeat or comma-separate for several")
	configPath := flag.String("config", "", "Config file (default: $XDG_CONFIG_HOME/globe/config.yaml)")
	chaptersPath := flag.String("chapters", "", "Chapters YAML file (default: built-in narrative)")
	chapterFlag := flag.String("chapter", "", "Start at chapter (index or id)")
	noWatch := flag.Bool("no-watch", false, "Do not reload when the dataset changes")
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")

	robotView := flag.Bool("robot-view", false, "Print the current view's render buffers as JSON")
	robotHeatmap := flag.Bool("robot-heatmap", false, "Print heatmap cells and statistics as JSON")
	robotHover := flag.String("robot-hover", "", "Print the tooltip summary at UV 'u,v' as JSON")
	robotChapters := flag.Bool("robot-chapters", false, "Print the chapter list as JSON")
	robotSources := flag.Bool("robot-sources", false, "Print the datasets discovered in the current directory as JSON")
	robotMetrics := flag.Bool("robot-metrics", false, "Print timing metrics as JSON after other robot output")
	robotPlayback := flag.Bool("robot-playback", false, "Play the chapter timeline headless, printing one JSON frame per year")
	playbackInterval := flag.Duration("playback-interval", 0, "Time per year for --robot-playback (default: playback.interval from config)")

	exportJSON := flag.String("export-json", "", "Write render buffers to a JSON file")
	exportSQLite := flag.String("export-sqlite", "", "Write the filtered view to a SQLite database")
	exportSnapshot := flag.String("export-snapshot", "", "Write a map snapshot (.svg or .png)")
	snapshotWidth := flag.Int("snapshot-width", export.DefaultSnapshotWidth, "Snapshot map width in pixels")
	exportWizard := flag.Bool("export-wizard", false, "Run the interactive export wizard")
	noHooks := flag.Bool("no-hooks", false, "Skip .globe/hooks.yaml export hooks")
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: globe [options]")
		fmt.Println("\nExplore humanitarian security incidents on a world map.")
		flag.PrintDefaults()
		os.Exit(0)
	}
	if *versionFlag {
		fmt.Printf("globe %s\n", version.Version)
		os.Exit(0)
	}

	robotMode := *robotView || *robotHeatmap || *robotHover != "" || *robotChapters || *robotSources || *robotMetrics || *robotPlayback
	if robotMode {
		_ = os.Setenv(loader.RobotEnvVar, "1")
		metrics.SetEnabled(true)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		// Non-fatal: continue with defaults
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}
	debug.Dump("config", cfg)

	if *robotSources {
		if err := printSources(os.Stdout, "."); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	env, err := buildEnv(cfg, *chaptersPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *robotChapters {
		if err := printChapters(os.Stdout, env.Chapters); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	paths, err := resolveDataPaths(dataPaths, cfg, ".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Pass a dataset with --data or set "+loader.DatasetEnvVar+".")
		os.Exit(1)
	}

	loadStart := time.Now()
	incidents, err := datasource.LoadAll(context.Background(), paths, loader.ParseOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading incidents: %v\n", err)
		os.Exit(1)
	}
	s := store.New(incidents, store.Options{SurfaceRadius: cfg.Globe.IncidentRadius})
	if s.Len() == 0 {
		fmt.Fprintln(os.Stderr, "No placeable incidents found (every row lacks valid coordinates).")
		os.Exit(1)
	}
	debug.LogTiming("load", time.Since(loadStart))
	debug.Log("main: %d incidents from %d files", s.Len(), len(paths))

	st := session.New(env, s)
	if *chapterFlag != "" {
		idx, err := findChapter(env.Chapters, *chapterFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		st = session.Reduce(env, st, session.Jump{Index: idx})
	}

	if *robotPlayback {
		interval := *playbackInterval
		if interval <= 0 {
			interval = cfg.Playback.Interval
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		st, err = runPlayback(ctx, os.Stdout, env, st, interval)
		stop()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if robotMode {
		if err := runRobot(os.Stdout, env, st, robotOptions{
			View:    *robotView,
			Heatmap: *robotHeatmap,
			Hover:   *robotHover,
			Metrics: *robotMetrics,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	frame := export.FrameFromSession(env, st)
	if *exportJSON != "" || *exportSQLite != "" || *exportSnapshot != "" {
		written, err := runExports(frame, exportTargets{
			JSON:     *exportJSON,
			SQLite:   *exportSQLite,
			Snapshot: *exportSnapshot,
			Width:    *snapshotWidth,
			NoHooks:  *noHooks,
		}, os.Stderr)
		for _, p := range written {
			fmt.Printf("wrote %s\n", p)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}
	if *exportWizard {
		if _, err := export.NewWizard(frame).Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	m := ui.NewModel(env, st).WithConfig(cfg)
	if cfg.Watch.Enabled && !*noWatch {
		w, err := startWatcher(paths, cfg.Watch)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: live reload disabled: %v\n", err)
		} else {
			defer w.Stop()
			m = m.WithWatcher(w, paths)
		}
	}

	if err := runTUIProgram(m); err != nil {
		fmt.Printf("Error running globe: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads path, or the XDG config when path is empty.
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// buildEnv assembles the session environment. chaptersPath overrides the
// config's chapters file.
func buildEnv(cfg config.Config, chaptersPath string) (session.Env, error) {
	if chaptersPath == "" {
		chaptersPath = cfg.Chapters
	}
	chapters, err := story.LoadChapters(chaptersPath)
	if err != nil {
		return session.Env{}, err
	}
	return session.Env{
		Chapters:       chapters,
		Palette:        cfg.PaletteWithScale(),
		Heatmap:        cfg.HeatmapOptions(),
		IndexThreshold: cfg.Hover.IndexThreshold,
		Radius:         cfg.Hover.Radius,
	}, nil
}

// resolveDataPaths picks the datasets to load: explicit flags first, then
// $GLOBE_DATA, then the config, then the freshest valid file in dir.
func resolveDataPaths(flagPaths []string, cfg config.Config, dir string) ([]string, error) {
	if len(flagPaths) > 0 {
		return flagPaths, nil
	}
	if env := strings.TrimSpace(os.Getenv(loader.DatasetEnvVar)); env != "" {
		return []string{env}, nil
	}
	if cfg.Dataset != "" {
		return []string{cfg.Dataset}, nil
	}
	sources, err := datasource.DiscoverSources(dir)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	for i := range sources {
		_ = datasource.ValidateSource(ctx, &sources[i])
		debug.Log("main: candidate %s", sources[i])
	}
	best, err := datasource.SelectBestSource(sources)
	if err != nil {
		return nil, err
	}
	return []string{best.Path}, nil
}

// findChapter resolves a chapter by 0-based index or id.
func findChapter(chapters []model.ChapterSpec, key string) (int, error) {
	if i, err := strconv.Atoi(key); err == nil {
		if i < 0 || i >= len(chapters) {
			return 0, fmt.Errorf("chapter %d out of range (0-%d)", i, len(chapters)-1)
		}
		return i, nil
	}
	for i, ch := range chapters {
		if strings.EqualFold(ch.ID, key) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown chapter %q", key)
}

func startWatcher(paths []string, wc config.WatchConfig) (*watcher.Watcher, error) {
	opts := []watcher.WatcherOption{
		watcher.WithForcePoll(wc.Poll),
		watcher.WithOnError(func(err error) { debug.Log("watcher: %v", err) }),
	}
	if wc.Debounce > 0 {
		opts = append(opts, watcher.WithDebounceDuration(wc.Debounce))
	}
	w, err := watcher.NewWatcher(paths, opts...)
	if err != nil {
		return nil, err
	}
	if err := w.Start(context.Background()); err != nil {
		return nil, err
	}
	return w, nil
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set GLOBE_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("GLOBE_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	_, err := p.Run()
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted)) {
		return nil
	}
	return err
}

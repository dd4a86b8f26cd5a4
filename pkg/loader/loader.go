// Package loader reads incident datasets from header-driven CSV files.
package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/aidglobe/pkg/debug"
	"github.com/vanderheijden86/aidglobe/pkg/model"
)

// DatasetEnvVar names the environment variable holding the default dataset path.
const DatasetEnvVar = "GLOBE_DATA"

// RobotEnvVar silences default warnings when set to "1".
const RobotEnvVar = "GLOBE_ROBOT"

// ErrNoRecords is returned when a dataset has a header but no data rows.
var ErrNoRecords = errors.New("dataset contains no records")

// ParseOptions configures the behavior of ParseCSV.
type ParseOptions struct {
	// WarningHandler is called with warning messages (e.g., malformed rows).
	// If nil, warnings are printed to os.Stderr.
	WarningHandler func(string)

	// RecordFilter optionally filters decoded incidents. Return true to include.
	RecordFilter func(*model.Incident) bool
}

// Warner returns WarningHandler, or DefaultWarningHandler when it is nil.
func (o ParseOptions) Warner() func(string) {
	if o.WarningHandler != nil {
		return o.WarningHandler
	}
	return DefaultWarningHandler()
}

// DefaultWarningHandler prints "Warning: ..." lines to stderr, or discards
// them when RobotEnvVar is "1".
func DefaultWarningHandler() func(string) {
	if os.Getenv(RobotEnvVar) == "1" {
		return func(string) {}
	}
	return func(msg string) {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
	}
}

// LoadFile reads incidents from a CSV file.
func LoadFile(path string) ([]model.Incident, error) {
	return LoadFileWithOptions(path, ParseOptions{})
}

// LoadFileWithOptions reads incidents from a CSV file with custom options.
func LoadFileWithOptions(path string, opts ParseOptions) ([]model.Incident, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no dataset found at %s", path)
		}
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	incidents, err := ParseCSVWithOptions(file, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return incidents, nil
}

// LoadFiles reads several CSV files concurrently and concatenates their
// incidents in argument order. Warnings are serialized onto one handler.
func LoadFiles(ctx context.Context, paths []string, opts ParseOptions) ([]model.Incident, error) {
	warn := opts.Warner()
	var mu sync.Mutex
	opts.WarningHandler = func(msg string) {
		mu.Lock()
		defer mu.Unlock()
		warn(msg)
	}

	results := make([][]model.Incident, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			incs, err := LoadFileWithOptions(path, opts)
			if err != nil {
				return err
			}
			results[i] = incs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	out := make([]model.Incident, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	debug.Log("loader: %d incidents from %d files", len(out), len(paths))
	return out, nil
}

// ParseCSV parses dataset content from a reader into incidents.
func ParseCSV(r io.Reader) ([]model.Incident, error) {
	return ParseCSVWithOptions(r, ParseOptions{})
}

// ParseCSVWithOptions parses dataset content with custom options. Malformed
// rows are skipped with a warning; rows with bad coordinates are kept with
// GeoOK unset so the store can report them.
func ParseCSVWithOptions(r io.Reader, opts ParseOptions) ([]model.Incident, error) {
	warn := opts.Warner()

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoRecords
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	dec, err := NewDecoder(header)
	if err != nil {
		return nil, err
	}

	var incidents []model.Incident
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				warn(fmt.Sprintf("skipping malformed row on line %d: %v", perr.StartLine, perr.Err))
				continue
			}
			return nil, fmt.Errorf("error reading dataset: %w", err)
		}
		if blank(fields) {
			continue
		}

		inc := dec.Decode(fields)
		if !inc.YearOK {
			line, _ := cr.FieldPos(0)
			warn(fmt.Sprintf("line %d (%s): unparseable year", line, model.OrDefault(inc.ID, "no id")))
		}
		if opts.RecordFilter != nil && !opts.RecordFilter(&inc) {
			continue
		}
		incidents = append(incidents, inc)
	}

	if len(incidents) == 0 {
		return nil, ErrNoRecords
	}
	return incidents, nil
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// stripBOM removes the UTF-8 Byte Order Mark if present
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}

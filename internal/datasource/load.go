package datasource

import (
	"context"
	"fmt"

	"github.com/vanderheijden86/aidglobe/pkg/debug"
	"github.com/vanderheijden86/aidglobe/pkg/loader"
	"github.com/vanderheijden86/aidglobe/pkg/model"
)

// Load detects the source type of path and reads its incidents.
func Load(ctx context.Context, path string, opts loader.ParseOptions) ([]model.Incident, error) {
	src, err := Detect(path)
	if err != nil {
		return nil, err
	}
	return LoadFromSource(ctx, src, opts)
}

// LoadAll reads several datasets and concatenates them in argument order.
// All-CSV inputs are parsed concurrently.
func LoadAll(ctx context.Context, paths []string, opts loader.ParseOptions) ([]model.Incident, error) {
	sources := make([]DataSource, len(paths))
	allCSV := true
	for i, p := range paths {
		src, err := Detect(p)
		if err != nil {
			return nil, err
		}
		sources[i] = src
		allCSV = allCSV && src.Type == SourceTypeCSV
	}
	if allCSV && len(paths) > 1 {
		return loader.LoadFiles(ctx, paths, opts)
	}

	var out []model.Incident
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		incs, err := LoadFromSource(ctx, src, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, incs...)
	}
	return out, nil
}

// LoadFromSource loads incidents from a specific DataSource, dispatching to
// the appropriate reader based on source type.
func LoadFromSource(ctx context.Context, source DataSource, opts loader.ParseOptions) ([]model.Incident, error) {
	debug.Log("datasource: loading %s", source.Path)
	switch source.Type {
	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite source %s: %w", source.Path, err)
		}
		defer reader.Close()
		incs, err := reader.LoadIncidents(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", source.Path, err)
		}
		return incs, nil

	case SourceTypeCSV:
		return loader.LoadFileWithOptions(source.Path, opts)

	default:
		return nil, fmt.Errorf("unknown source type: %s", source.Type)
	}
}

// ValidateSource loads the source once and records whether it is usable.
func ValidateSource(ctx context.Context, source *DataSource) error {
	incs, err := LoadFromSource(ctx, *source, loader.ParseOptions{WarningHandler: func(string) {}})
	if err != nil {
		source.Valid = false
		source.ValidationError = err.Error()
		return err
	}
	source.Valid = true
	source.ValidationError = ""
	source.IncidentCount = len(incs)
	return nil
}

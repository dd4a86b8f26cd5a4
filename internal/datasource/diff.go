package datasource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vanderheijden86/aidglobe/pkg/model"
)

// DatasetDiff describes how a reloaded dataset differs from the previous one.
type DatasetDiff struct {
	// Added contains IDs present only in the new dataset
	Added []string `json:"added,omitempty"`
	// Removed contains IDs present only in the old dataset
	Removed []string `json:"removed,omitempty"`
	// Changed contains IDs whose fields differ
	Changed []string `json:"changed,omitempty"`
	CountA  int      `json:"count_a"`
	CountB  int      `json:"count_b"`
	// Unkeyed counts rows without an Incident ID; they are compared by count only.
	Unkeyed int `json:"unkeyed,omitempty"`
}

// HasChanges returns true if the datasets differ in any tracked way
func (d DatasetDiff) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Changed) > 0 || d.CountA != d.CountB
}

// Summary returns a one-line description suitable for a status bar.
func (d DatasetDiff) Summary() string {
	if !d.HasChanges() {
		return fmt.Sprintf("dataset unchanged (%d incidents)", d.CountB)
	}
	parts := []string{fmt.Sprintf("%d → %d incidents", d.CountA, d.CountB)}
	if n := len(d.Added); n > 0 {
		parts = append(parts, fmt.Sprintf("+%d", n))
	}
	if n := len(d.Removed); n > 0 {
		parts = append(parts, fmt.Sprintf("-%d", n))
	}
	if n := len(d.Changed); n > 0 {
		parts = append(parts, fmt.Sprintf("~%d", n))
	}
	return strings.Join(parts, " ")
}

// DiffOptions configures the diff operation
type DiffOptions struct {
	// MaxDifferences limits the IDs kept per list (0 = unlimited)
	MaxDifferences int
}

// DefaultDiffOptions returns sensible default diff options
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{MaxDifferences: 100}
}

// Diff compares two incident sets by Incident ID. Lists are sorted.
func Diff(a, b []model.Incident, opts DiffOptions) DatasetDiff {
	diff := DatasetDiff{CountA: len(a), CountB: len(b)}

	mapA := make(map[string]*model.Incident, len(a))
	for i := range a {
		if a[i].ID == "" {
			diff.Unkeyed++
			continue
		}
		mapA[a[i].ID] = &a[i]
	}
	mapB := make(map[string]*model.Incident, len(b))
	for i := range b {
		if b[i].ID == "" {
			diff.Unkeyed++
			continue
		}
		mapB[b[i].ID] = &b[i]
	}

	for id := range mapA {
		if _, ok := mapB[id]; !ok {
			diff.Removed = append(diff.Removed, id)
		}
	}
	for id, incB := range mapB {
		incA, ok := mapA[id]
		switch {
		case !ok:
			diff.Added = append(diff.Added, id)
		case *incA != *incB:
			diff.Changed = append(diff.Changed, id)
		}
	}

	diff.Added = truncate(diff.Added, opts.MaxDifferences)
	diff.Removed = truncate(diff.Removed, opts.MaxDifferences)
	diff.Changed = truncate(diff.Changed, opts.MaxDifferences)
	return diff
}

func truncate(ids []string, max int) []string {
	sort.Strings(ids)
	if max > 0 && len(ids) > max {
		return ids[:max]
	}
	return ids
}

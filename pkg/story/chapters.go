// Package story drives the guided narrative: a fixed, ordered list of
// chapters, each of which fully describes what the globe shows.
package story

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/aidglobe/pkg/model"
)

//go:embed chapters.yaml
var builtinChapters []byte

type chapterFile struct {
	Chapters []model.ChapterSpec `yaml:"chapters"`
}

// DefaultChapters returns the built-in narrative.
func DefaultChapters() []model.ChapterSpec {
	chapters, err := ParseChapters(builtinChapters)
	if err != nil {
		panic(fmt.Sprintf("built-in chapters: %v", err))
	}
	return chapters
}

// LoadChapters reads a chapters file. An empty path returns DefaultChapters.
func LoadChapters(path string) ([]model.ChapterSpec, error) {
	if path == "" {
		return DefaultChapters(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chapters file: %w", err)
	}
	chapters, err := ParseChapters(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return chapters, nil
}

// ParseChapters decodes and validates a chapters document. Chapters with
// no tooltip sections get model.BasicSections.
func ParseChapters(data []byte) ([]model.ChapterSpec, error) {
	var f chapterFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if len(f.Chapters) == 0 {
		return nil, fmt.Errorf("no chapters defined")
	}
	seen := make(map[string]bool, len(f.Chapters))
	for i := range f.Chapters {
		ch := &f.Chapters[i]
		ch.ID = strings.TrimSpace(ch.ID)
		if ch.ID == "" {
			return nil, fmt.Errorf("chapter %d: missing id", i)
		}
		if seen[ch.ID] {
			return nil, fmt.Errorf("chapter %d: duplicate id %q", i, ch.ID)
		}
		seen[ch.ID] = true
		if ch.Orgs.IsEmpty() {
			return nil, fmt.Errorf("chapter %q: selects no organizations", ch.ID)
		}
		if ch.Years.Min != 0 && ch.Years.Max != 0 && ch.Years.Min > ch.Years.Max {
			return nil, fmt.Errorf("chapter %q: years min %d > max %d", ch.ID, ch.Years.Min, ch.Years.Max)
		}
		if ch.Timeline.Min != 0 && ch.Timeline.Max != 0 && ch.Timeline.Min > ch.Timeline.Max {
			return nil, fmt.Errorf("chapter %q: timeline min %d > max %d", ch.ID, ch.Timeline.Min, ch.Timeline.Max)
		}
		if ch.Sections == 0 {
			ch.Sections = model.BasicSections
		}
	}
	return f.Chapters, nil
}

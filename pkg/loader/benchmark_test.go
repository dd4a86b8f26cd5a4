package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/aidglobe/pkg/testutil"
)

func BenchmarkLoadFile(b *testing.B) {
	for _, size := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("incidents=%d", size), func(b *testing.B) {
			dir := b.TempDir()
			path := filepath.Join(dir, "incidents.csv")

			incidents := testutil.QuickIncidents(size)
			content := testutil.ToCSV(incidents)
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				b.Fatalf("write dataset: %v", err)
			}

			opts := ParseOptions{
				WarningHandler: func(string) {},
			}

			b.SetBytes(int64(len(content)))
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				loaded, err := LoadFileWithOptions(path, opts)
				if err != nil {
					b.Fatalf("load dataset: %v", err)
				}
				if len(loaded) != len(incidents) {
					b.Fatalf("unexpected incident count: got=%d want=%d", len(loaded), len(incidents))
				}
			}
		})
	}
}

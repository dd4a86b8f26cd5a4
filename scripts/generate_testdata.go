//go:build ignore
// +build ignore

// generate_testdata.go creates synthetic incident datasets for benchmarking.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	tests/testdata/benchmark/small.csv   (500 incidents)
//	tests/testdata/benchmark/medium.csv  (5000 incidents)
//	tests/testdata/benchmark/large.csv   (25000 incidents)
//	tests/testdata/benchmark/huge.csv    (100000 incidents)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/aidglobe/pkg/model"
	"github.com/vanderheijden86/aidglobe/pkg/testutil"
)

type datasetSpec struct {
	name string
	size int
}

var datasets = []datasetSpec{
	{"small", 500},
	{"medium", 5000},
	{"large", 25000},
	{"huge", 100000},
}

// hotspots get a share of every dataset so hover and heatmap benchmarks see
// dense regions, not just uniform noise.
var hotspots = []model.LatLon{
	{Lat: 34.5, Lon: 69.2},  // Kabul
	{Lat: 15.6, Lon: 32.5},  // Khartoum
	{Lat: 2.0, Lon: 45.3},   // Mogadishu
	{Lat: 33.5, Lon: 36.3},  // Damascus
	{Lat: 4.85, Lon: 31.6},  // Juba
	{Lat: 31.5, Lon: 34.45}, // Gaza
}

func main() {
	outputDir := "tests/testdata/benchmark"
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%d incidents)...\n", ds.name, ds.size)

		gen := testutil.New(testutil.GeneratorConfig{
			Seed:           int64(ds.size), // Reproducible per-size
			IDPrefix:       "BENCH",
			MinYear:        1997,
			MaxYear:        2024,
			InvalidGeoRate: 0.02,
		})

		clustered := ds.size / 2
		incidents := gen.Incidents(ds.size - clustered)
		for i, h := range hotspots {
			n := clustered / len(hotspots)
			if i == 0 {
				n += clustered % len(hotspots)
			}
			incidents = append(incidents, gen.Cluster(h, 1.5, n)...)
		}

		csv := testutil.ToCSV(incidents)
		outputPath := filepath.Join(outputDir, ds.name+".csv")
		if err := os.WriteFile(outputPath, []byte(csv), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
			os.Exit(1)
		}

		fmt.Printf("  Written %s (%d bytes)\n", outputPath, len(csv))
	}

	fmt.Println("\nDone! Test datasets created in", outputDir)
}

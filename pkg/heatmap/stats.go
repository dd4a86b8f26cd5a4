package heatmap

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/aidglobe/pkg/model"
)

// Stats summarizes a grid for legends and robot output.
type Stats struct {
	Cells           int     `json:"cells"`
	Incidents       int     `json:"incidents"`
	TotalAffected   float64 `json:"total_affected"`
	MaxAffected     float64 `json:"max_affected"`
	MeanAffected    float64 `json:"mean_affected"`
	MeanIntensity   float64 `json:"mean_intensity"`
	StdDevIntensity float64 `json:"stddev_intensity"`
	// Hottest is the index of the cell with the largest aggregate, -1 if empty.
	Hottest int `json:"hottest"`
}

// Summarize computes grid statistics.
func Summarize(cells []model.GridCell) Stats {
	st := Stats{Cells: len(cells), Hottest: -1}
	if len(cells) == 0 {
		return st
	}
	affected := make([]float64, len(cells))
	intensity := make([]float64, len(cells))
	for i, c := range cells {
		affected[i] = c.AggregateAffected
		intensity[i] = c.Intensity
		st.Incidents += c.Count
	}
	st.TotalAffected = floats.Sum(affected)
	st.Hottest = floats.MaxIdx(affected)
	st.MaxAffected = affected[st.Hottest]
	st.MeanAffected = stat.Mean(affected, nil)
	st.MeanIntensity = stat.Mean(intensity, nil)
	if len(cells) > 1 {
		st.StdDevIntensity = stat.StdDev(intensity, nil)
	}
	return st
}

package analytics

import (
	"time"

	"github.com/branddi/taskdash/backend/internal/types"
)

type cellKey struct {
	day  string
	hour int
}

// buildHeatGrid expands a sparse (day,hour) count map into a dense
// row-major grid: every day carries all 24 hours, gaps filled with 0.
func buildHeatGrid(days []string, counts map[cellKey]int) []types.HeatmapCell {
	grid := make([]types.HeatmapCell, 0, len(days)*24)
	for _, day := range days {
		for h := 0; h < 24; h++ {
			grid = append(grid, types.HeatmapCell{
				Day:   day,
				Hour:  h,
				Value: counts[cellKey{day: day, hour: h}],
			})
		}
	}
	return grid
}

// buildVolume produces the chronological daily volume series.
// days must already be sorted ascending.
func buildVolume(days []string, counts map[string]int) []types.VolumePoint {
	series := make([]types.VolumePoint, 0, len(days))
	for _, day := range days {
		series = append(series, types.VolumePoint{
			Day:   day,
			Label: dayLabel(day),
			Count: counts[day],
		})
	}
	return series
}

// dayLabel shortens a YYYY-MM-DD key to the DD/MM display label
func dayLabel(day string) string {
	t, err := time.Parse(types.DayFormat, day)
	if err != nil {
		return day
	}
	return t.Format("02/01")
}

// FilterHeatmap collapses any cell with value <= threshold to the
// zero bucket. The compare is inclusive. The input slice is not
// modified.
func FilterHeatmap(cells []types.HeatmapCell, threshold int) []types.HeatmapCell {
	if threshold <= 0 {
		return cells
	}
	filtered := make([]types.HeatmapCell, len(cells))
	copy(filtered, cells)
	for i := range filtered {
		if filtered[i].Value <= threshold {
			filtered[i].Value = 0
		}
	}
	return filtered
}

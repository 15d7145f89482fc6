package analytics

import (
	"sort"

	"github.com/branddi/taskdash/backend/internal/types"
)

// Drilldown re-aggregates a single user's activities out of an
// existing dashboard: the user's metrics, a dense heat grid over the
// user's own distinct days, and a chronological daily timeline.
// Returns false when the user is unknown.
func Drilldown(d *types.Dashboard, user string) (*types.UserDrilldown, bool) {
	var metrics *types.UserMetrics
	for i := range d.UserMetrics {
		if d.UserMetrics[i].Name == user {
			metrics = &d.UserMetrics[i]
			break
		}
	}
	if metrics == nil {
		return nil, false
	}

	heatCounts := make(map[cellKey]int)
	dailyCounts := make(map[string]int)
	daySet := make(map[string]struct{})

	for i := range d.RawActivities {
		act := &d.RawActivities[i]
		if act.User != user {
			continue
		}
		daySet[act.Day] = struct{}{}
		heatCounts[cellKey{day: act.Day, hour: act.Hour}]++
		dailyCounts[act.Day]++
	}

	days := make([]string, 0, len(daySet))
	for day := range daySet {
		days = append(days, day)
	}
	sort.Strings(days)

	return &types.UserDrilldown{
		Metrics:  *metrics,
		Heatmap:  buildHeatGrid(days, heatCounts),
		Timeline: buildVolume(days, dailyCounts),
	}, true
}

package ingest

import (
	"time"

	"github.com/branddi/taskdash/backend/internal/types"
	"github.com/google/uuid"
)

// FromRows normalizes stored activity rows back into activity records.
// Hour and day are re-derived from ActivityDate in loc using the same
// rule as the CSV path; the stored hour column is ignored so both
// ingest paths apply one timezone policy. Rows with unparseable dates
// are dropped.
func FromRows(rows []types.ActivityRow, loc *time.Location) ([]types.Activity, Stats) {
	var stats Stats
	activities := make([]types.Activity, 0, len(rows))

	for _, row := range rows {
		stats.RowsRead++

		if row.UserName == "" || row.Type == "" || row.ActivityDate == "" {
			stats.RowsSkipped++
			continue
		}

		ts, err := time.Parse(time.RFC3339, row.ActivityDate)
		if err != nil {
			stats.RowsSkipped++
			continue
		}

		id := row.ID
		if id == "" {
			id = uuid.New().String()
		}

		activities = append(activities, types.NewActivity(id, row.UserName, row.Type, ts, loc))
		stats.RowsParsed++
	}

	return activities, stats
}

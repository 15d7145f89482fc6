package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/branddi/taskdash/backend/internal/types"
	"github.com/google/uuid"
)

// Stats reports how many source rows survived normalization
type Stats struct {
	RowsRead    int `json:"rowsRead"`
	RowsParsed  int `json:"rowsParsed"`
	RowsSkipped int `json:"rowsSkipped"`
}

// timestampLayouts are tried in order when parsing the activity date
// column. CRM exports in the wild mix RFC 3339 with space-separated
// local timestamps.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
}

// columnIndexes locates the user, type and date columns in the header
// row by case-insensitive substring match. Portuguese CRM export
// headers are checked first, generic English fallbacks second.
func columnIndexes(header []string) (userIdx, typeIdx, dateIdx int) {
	find := func(markers ...string) int {
		for i, h := range header {
			lower := strings.ToLower(strings.TrimSpace(h))
			for _, m := range markers {
				if strings.Contains(lower, m) {
					return i
				}
			}
		}
		return -1
	}

	userIdx = find("usuário responsável", "usuario responsavel", "user")
	typeIdx = find("tipo", "type")
	dateIdx = find("marcado como feito em", "activity_date", "date")
	return
}

// ParseCSV normalizes a CSV activity export into activity records.
// Fields are parsed strictly per RFC 4180 (quoted fields supported);
// rows with missing required fields or unparseable timestamps are
// skipped and counted, never fatal. Hour and day are derived from the
// timestamp in loc.
func ParseCSV(r io.Reader, loc *time.Location) ([]types.Activity, Stats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, Stats{}, errors.New("empty csv input")
	}
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to read csv header: %w", err)
	}

	userIdx, typeIdx, dateIdx := columnIndexes(header)
	if userIdx < 0 || typeIdx < 0 || dateIdx < 0 {
		return nil, Stats{}, fmt.Errorf("could not locate user/type/date columns in header %v", header)
	}

	var stats Stats
	activities := make([]types.Activity, 0)

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed row, skip and keep going
			stats.RowsRead++
			stats.RowsSkipped++
			continue
		}
		stats.RowsRead++

		if len(row) <= userIdx || len(row) <= typeIdx || len(row) <= dateIdx {
			stats.RowsSkipped++
			continue
		}

		user := strings.TrimSpace(row[userIdx])
		rawType := strings.TrimSpace(row[typeIdx])
		rawDate := strings.TrimSpace(row[dateIdx])
		if user == "" || rawType == "" || rawDate == "" {
			stats.RowsSkipped++
			continue
		}

		ts, ok := parseTimestamp(rawDate, loc)
		if !ok {
			stats.RowsSkipped++
			continue
		}

		activities = append(activities, types.NewActivity(uuid.New().String(), user, rawType, ts, loc))
		stats.RowsParsed++
	}

	return activities, stats, nil
}

// parseTimestamp tries the known layouts; layouts without an explicit
// offset are interpreted in loc.
func parseTimestamp(value string, loc *time.Location) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if layout == time.RFC3339 {
			if ts, err := time.Parse(layout, value); err == nil {
				return ts, true
			}
			continue
		}
		if ts, err := time.ParseInLocation(layout, value, loc); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

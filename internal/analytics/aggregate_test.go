package analytics

import (
	"reflect"
	"testing"
	"time"

	"github.com/branddi/taskdash/backend/internal/types"
)

// act builds a normalized record from an RFC 3339 timestamp in UTC
func act(t *testing.T, id, user, rawType, timestamp string) types.Activity {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		t.Fatalf("bad test timestamp %q: %v", timestamp, err)
	}
	return types.NewActivity(id, user, rawType, ts, time.UTC)
}

func TestAggregateEmptyInput(t *testing.T) {
	d := Aggregate(nil)

	if d.TotalActivities != 0 {
		t.Errorf("expected 0 total activities, got %d", d.TotalActivities)
	}
	if d.DateRange.Start != nil || d.DateRange.End != nil {
		t.Errorf("expected nil date range, got %v", d.DateRange)
	}
	if len(d.UserMetrics) != 0 {
		t.Errorf("expected no user metrics, got %d", len(d.UserMetrics))
	}
	if len(d.HeatmapData) != 0 {
		t.Errorf("expected empty heatmap, got %d cells", len(d.HeatmapData))
	}
	if len(d.DailyVolume) != 0 {
		t.Errorf("expected empty daily volume, got %d points", len(d.DailyVolume))
	}
}

func TestAggregateSingleRecord(t *testing.T) {
	records := []types.Activity{
		act(t, "1", "A", "E-mail", "2024-01-01T09:30:00Z"),
	}

	d := Aggregate(records)

	if d.TotalActivities != 1 {
		t.Fatalf("expected 1 total activity, got %d", d.TotalActivities)
	}
	if len(d.UserMetrics) != 1 {
		t.Fatalf("expected 1 user, got %d", len(d.UserMetrics))
	}

	m := d.UserMetrics[0]
	if m.Name != "A" {
		t.Errorf("expected user A, got %s", m.Name)
	}
	if m.Total != 1 || m.Email != 1 || m.WhatsApp != 0 || m.LinkedIn != 0 || m.Call != 0 {
		t.Errorf("unexpected channel counts: %+v", m)
	}
	if m.ActiveDays != 1 || m.TotalDaysInRange != 1 {
		t.Errorf("expected 1 active day of 1, got %d of %d", m.ActiveDays, m.TotalDaysInRange)
	}
	if m.AvgHoursPerDay != 0.0 {
		t.Errorf("expected avg hours 0.0, got %v", m.AvgHoursPerDay)
	}
	if m.AvgActivitiesPerDay != 1.0 {
		t.Errorf("expected avg activities 1.0, got %v", m.AvgActivitiesPerDay)
	}
	if m.PeakHour != 9 {
		t.Errorf("expected peak hour 9, got %d", m.PeakHour)
	}
	if m.MorningPercentage != 100 || m.AfternoonPercentage != 0 {
		t.Errorf("expected 100/0 morning split, got %d/%d", m.MorningPercentage, m.AfternoonPercentage)
	}

	// Dense grid for a single day has all 24 hours
	if len(d.HeatmapData) != 24 {
		t.Fatalf("expected 24 heatmap cells, got %d", len(d.HeatmapData))
	}
	for _, cell := range d.HeatmapData {
		if cell.Day != "2024-01-01" {
			t.Errorf("expected day 2024-01-01, got %s", cell.Day)
		}
		expected := 0
		if cell.Hour == 9 {
			expected = 1
		}
		if cell.Value != expected {
			t.Errorf("hour %d: expected value %d, got %d", cell.Hour, expected, cell.Value)
		}
	}
}

func TestAggregateDailySpan(t *testing.T) {
	records := []types.Activity{
		act(t, "1", "A", "Email", "2024-01-01T09:00:00Z"),
		act(t, "2", "A", "Email", "2024-01-01T17:00:00Z"),
	}

	d := Aggregate(records)
	m := d.UserMetrics[0]

	if m.AvgHoursPerDay != 8.0 {
		t.Errorf("expected avg hours 8.0, got %v", m.AvgHoursPerDay)
	}
	if m.MorningPercentage != 50 || m.AfternoonPercentage != 50 {
		t.Errorf("expected 50/50 split, got %d/%d", m.MorningPercentage, m.AfternoonPercentage)
	}
}

func TestAggregateStableUserOrderOnTies(t *testing.T) {
	// Two users with identical totals keep first-encounter order
	records := []types.Activity{
		act(t, "1", "B", "Email", "2024-01-01T09:00:00Z"),
		act(t, "2", "A", "Email", "2024-01-01T10:00:00Z"),
		act(t, "3", "B", "Email", "2024-01-02T09:00:00Z"),
		act(t, "4", "A", "Email", "2024-01-02T10:00:00Z"),
	}

	d := Aggregate(records)

	if len(d.UserMetrics) != 2 {
		t.Fatalf("expected 2 users, got %d", len(d.UserMetrics))
	}
	if d.UserMetrics[0].Name != "B" || d.UserMetrics[1].Name != "A" {
		t.Errorf("expected order [B A], got [%s %s]", d.UserMetrics[0].Name, d.UserMetrics[1].Name)
	}
}

func TestAggregateTypeCountsKeepRawLabels(t *testing.T) {
	records := []types.Activity{
		act(t, "1", "A", "WhatsApp Business", "2024-01-01T09:00:00Z"),
		act(t, "2", "A", "WhatsApp", "2024-01-01T10:00:00Z"),
		act(t, "3", "A", "WhatsApp", "2024-01-01T11:00:00Z"),
	}

	d := Aggregate(records)

	// Both labels classify as whatsapp for the channel counter
	if d.UserMetrics[0].WhatsApp != 3 {
		t.Errorf("expected 3 whatsapp activities, got %d", d.UserMetrics[0].WhatsApp)
	}

	// But the type breakdown keeps verbatim labels, highest count first
	expected := []types.TypeCount{
		{Name: "WhatsApp", Value: 2},
		{Name: "WhatsApp Business", Value: 1},
	}
	if !reflect.DeepEqual(d.ActivitiesByType, expected) {
		t.Errorf("unexpected type breakdown: %+v", d.ActivitiesByType)
	}
}

func TestAggregatePeakHourLowestWinsTie(t *testing.T) {
	records := []types.Activity{
		act(t, "1", "A", "Email", "2024-01-01T14:00:00Z"),
		act(t, "2", "A", "Email", "2024-01-01T08:00:00Z"),
		act(t, "3", "A", "Email", "2024-01-02T14:00:00Z"),
		act(t, "4", "A", "Email", "2024-01-02T08:00:00Z"),
	}

	d := Aggregate(records)

	if d.UserMetrics[0].PeakHour != 8 {
		t.Errorf("expected peak hour 8 on tie, got %d", d.UserMetrics[0].PeakHour)
	}
}

func TestAggregateDateRange(t *testing.T) {
	records := []types.Activity{
		act(t, "1", "A", "Email", "2024-01-03T12:00:00Z"),
		act(t, "2", "B", "Email", "2024-01-01T08:15:00Z"),
		act(t, "3", "A", "Email", "2024-01-05T23:45:00Z"),
	}

	d := Aggregate(records)

	if d.DateRange.Start == nil || d.DateRange.End == nil {
		t.Fatal("expected non-nil date range")
	}
	wantStart, _ := time.Parse(time.RFC3339, "2024-01-01T08:15:00Z")
	wantEnd, _ := time.Parse(time.RFC3339, "2024-01-05T23:45:00Z")
	if !d.DateRange.Start.Equal(wantStart) {
		t.Errorf("expected start %v, got %v", wantStart, d.DateRange.Start)
	}
	if !d.DateRange.End.Equal(wantEnd) {
		t.Errorf("expected end %v, got %v", wantEnd, d.DateRange.End)
	}
}

func TestAggregateDensityInvariant(t *testing.T) {
	records := []types.Activity{
		act(t, "1", "A", "Email", "2024-01-01T09:00:00Z"),
		act(t, "2", "B", "Chamada", "2024-01-03T15:00:00Z"),
		act(t, "3", "A", "LinkedIn", "2024-02-10T20:00:00Z"),
	}

	d := Aggregate(records)

	if len(d.HeatmapData) != len(d.UniqueDates)*24 {
		t.Fatalf("density broken: %d cells for %d days", len(d.HeatmapData), len(d.UniqueDates))
	}

	// Every (day, hour) pair appears exactly once
	seen := make(map[string]map[int]bool)
	for _, cell := range d.HeatmapData {
		if seen[cell.Day] == nil {
			seen[cell.Day] = make(map[int]bool)
		}
		if seen[cell.Day][cell.Hour] {
			t.Fatalf("duplicate cell (%s, %d)", cell.Day, cell.Hour)
		}
		seen[cell.Day][cell.Hour] = true
	}
	for _, day := range d.UniqueDates {
		if len(seen[day]) != 24 {
			t.Errorf("day %s has %d hours, expected 24", day, len(seen[day]))
		}
	}
}

func TestAggregateCountConservation(t *testing.T) {
	records := []types.Activity{
		act(t, "1", "A", "Email", "2024-01-01T09:00:00Z"),
		act(t, "2", "A", "Reunião", "2024-01-01T10:00:00Z"),
		act(t, "3", "B", "WhatsApp", "2024-01-02T11:00:00Z"),
		act(t, "4", "B", "Chamada", "2024-01-02T12:00:00Z"),
		act(t, "5", "B", "Outro", "2024-01-03T13:00:00Z"),
	}

	d := Aggregate(records)

	if d.TotalActivities != len(records) {
		t.Errorf("expected %d total, got %d", len(records), d.TotalActivities)
	}

	userTotals := 0
	for _, m := range d.UserMetrics {
		classified := m.Email + m.WhatsApp + m.LinkedIn + m.Call
		if classified > m.Total {
			t.Errorf("user %s: classified %d exceeds total %d", m.Name, classified, m.Total)
		}
		if m.ActiveDays < 0 || m.ActiveDays > m.TotalDaysInRange {
			t.Errorf("user %s: active days %d outside [0,%d]", m.Name, m.ActiveDays, m.TotalDaysInRange)
		}
		if m.MorningPercentage < 0 || m.MorningPercentage > 100 {
			t.Errorf("user %s: morning percentage %d out of range", m.Name, m.MorningPercentage)
		}
		userTotals += m.Total
	}
	if userTotals != d.TotalActivities {
		t.Errorf("user totals sum to %d, expected %d", userTotals, d.TotalActivities)
	}
}

func TestAggregateIdempotence(t *testing.T) {
	records := []types.Activity{
		act(t, "1", "A", "Email", "2024-01-01T09:00:00Z"),
		act(t, "2", "B", "WhatsApp", "2024-01-02T14:00:00Z"),
		act(t, "3", "A", "Chamada", "2024-01-02T16:00:00Z"),
	}

	first := Aggregate(records)
	second := Aggregate(records)

	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over the same input produced different aggregates")
	}
}

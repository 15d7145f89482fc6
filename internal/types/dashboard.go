package types

import "time"

// UserMetrics holds the derived metrics for one distinct user
type UserMetrics struct {
	Name     string `json:"name"`
	Total    int    `json:"total"`
	Email    int    `json:"email"`
	WhatsApp int    `json:"whatsapp"`
	LinkedIn int    `json:"linkedin"`
	Call     int    `json:"call"`

	ActiveDays       int `json:"activeDays"`
	TotalDaysInRange int `json:"totalDaysInRange"`

	// AvgHoursPerDay is the mean per-active-day hour span (max - min),
	// rounded to one decimal
	AvgHoursPerDay float64 `json:"avgHoursPerDay"`

	// PeakHour is the busiest hour of day; ties resolve to the lowest
	// numeric hour, users without hour data default to 9
	PeakHour int `json:"peakHour"`

	MorningPercentage   int `json:"morningPercentage"`   // records with hour < 12
	AfternoonPercentage int `json:"afternoonPercentage"` // records with hour >= 12

	AvgActivitiesPerDay float64 `json:"avgActivitiesPerDay"`
}

// DateRange bounds the input batch; both fields are nil for empty input
type DateRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// TypeCount is one slice of the raw-label type distribution
type TypeCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// HeatmapCell is one cell of the dense day x hour grid
type HeatmapCell struct {
	Day   string `json:"day"` // YYYY-MM-DD
	Hour  int    `json:"hour"`
	Value int    `json:"value"`
}

// VolumePoint is one point of the daily volume series
type VolumePoint struct {
	Day   string `json:"day"`   // YYYY-MM-DD
	Label string `json:"label"` // DD/MM display label
	Count int    `json:"count"`
}

// Dashboard is the full aggregate produced by one aggregation pass.
// It is immutable once produced; downstream readers never recompute.
type Dashboard struct {
	TotalActivities  int           `json:"totalActivities"`
	DateRange        DateRange     `json:"dateRange"`
	UserMetrics      []UserMetrics `json:"userMetrics"`
	ActivitiesByType []TypeCount   `json:"activitiesByType"`
	HeatmapData      []HeatmapCell `json:"heatmapData"`
	DailyVolume      []VolumePoint `json:"dailyVolume"`
	UniqueDates      []string      `json:"uniqueDates"`
	RawActivities    []Activity    `json:"rawActivities"`
}

// UserDrilldown is the per-user re-aggregation served by the
// individual view
type UserDrilldown struct {
	Metrics  UserMetrics   `json:"metrics"`
	Heatmap  []HeatmapCell `json:"heatmap"`
	Timeline []VolumePoint `json:"timeline"`
}

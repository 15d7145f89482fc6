package analytics

import (
	"math"
	"sort"

	"github.com/branddi/taskdash/backend/internal/types"
)

// defaultPeakHour is reported for users without any hour observations
const defaultPeakHour = 9

// userAccumulator collects per-user counts during the grouping pass.
// One accumulator exists per distinct user, created on first encounter.
type userAccumulator struct {
	metrics  types.UserMetrics
	dayHours map[string][]int // day -> hours observed that day
}

// Aggregate runs the full pipeline over a batch of normalized activity
// records and returns the dashboard aggregate. It is a pure function:
// one forward grouping pass, then per-user post-processing and the
// derived projections. An empty batch yields a valid empty dashboard,
// never an error.
func Aggregate(records []types.Activity) *types.Dashboard {
	users := make(map[string]*userAccumulator)
	userOrder := make([]string, 0)

	typeCounts := make(map[string]int)
	typeOrder := make([]string, 0)

	heatCounts := make(map[cellKey]int)
	dailyCounts := make(map[string]int)
	daySet := make(map[string]struct{})

	var minTS, maxTS *types.Activity

	for i := range records {
		act := &records[i]
		daySet[act.Day] = struct{}{}

		acc, ok := users[act.User]
		if !ok {
			acc = &userAccumulator{
				metrics:  types.UserMetrics{Name: act.User},
				dayHours: make(map[string][]int),
			}
			users[act.User] = acc
			userOrder = append(userOrder, act.User)
		}
		acc.metrics.Total++

		switch ClassifyChannel(act.Type) {
		case types.ChannelEmail:
			acc.metrics.Email++
		case types.ChannelWhatsApp:
			acc.metrics.WhatsApp++
		case types.ChannelLinkedIn:
			acc.metrics.LinkedIn++
		case types.ChannelCall:
			acc.metrics.Call++
		}

		if _, seen := typeCounts[act.Type]; !seen {
			typeOrder = append(typeOrder, act.Type)
		}
		typeCounts[act.Type]++

		heatCounts[cellKey{day: act.Day, hour: act.Hour}]++
		dailyCounts[act.Day]++
		acc.dayHours[act.Day] = append(acc.dayHours[act.Day], act.Hour)

		if minTS == nil || act.Timestamp.Before(minTS.Timestamp) {
			minTS = act
		}
		if maxTS == nil || act.Timestamp.After(maxTS.Timestamp) {
			maxTS = act
		}
	}

	uniqueDates := make([]string, 0, len(daySet))
	for day := range daySet {
		uniqueDates = append(uniqueDates, day)
	}
	sort.Strings(uniqueDates)

	totalDays := len(uniqueDates)
	userMetrics := make([]types.UserMetrics, 0, len(userOrder))
	for _, name := range userOrder {
		userMetrics = append(userMetrics, finalizeUser(users[name], totalDays))
	}
	// Descending by total; stable keeps input encounter order on ties
	sort.SliceStable(userMetrics, func(i, j int) bool {
		return userMetrics[i].Total > userMetrics[j].Total
	})

	byType := make([]types.TypeCount, 0, len(typeOrder))
	for _, name := range typeOrder {
		byType = append(byType, types.TypeCount{Name: name, Value: typeCounts[name]})
	}
	sort.SliceStable(byType, func(i, j int) bool {
		return byType[i].Value > byType[j].Value
	})

	dashboard := &types.Dashboard{
		TotalActivities:  len(records),
		UserMetrics:      userMetrics,
		ActivitiesByType: byType,
		HeatmapData:      buildHeatGrid(uniqueDates, heatCounts),
		DailyVolume:      buildVolume(uniqueDates, dailyCounts),
		UniqueDates:      uniqueDates,
		RawActivities:    records,
	}
	if minTS != nil {
		start := minTS.Timestamp
		end := maxTS.Timestamp
		dashboard.DateRange = types.DateRange{Start: &start, End: &end}
	}
	return dashboard
}

// finalizeUser derives the statistical metrics from a user's
// accumulated day/hour buckets. Every record contributes one hour
// observation; spans are computed per active day.
func finalizeUser(acc *userAccumulator, totalDays int) types.UserMetrics {
	m := acc.metrics
	m.ActiveDays = len(acc.dayHours)
	m.TotalDaysInRange = totalDays
	m.PeakHour = defaultPeakHour

	var hourCounts [24]int
	spanSum := 0
	morning, afternoon, observed := 0, 0, 0

	for _, hours := range acc.dayHours {
		if len(hours) == 0 {
			continue
		}
		lo, hi := hours[0], hours[0]
		for _, h := range hours {
			if h < lo {
				lo = h
			}
			if h > hi {
				hi = h
			}
			hourCounts[h]++
			if h < 12 {
				morning++
			} else {
				afternoon++
			}
			observed++
		}
		spanSum += hi - lo
	}

	if m.ActiveDays > 0 {
		m.AvgHoursPerDay = round1(float64(spanSum) / float64(m.ActiveDays))
		m.AvgActivitiesPerDay = round1(float64(m.Total) / float64(m.ActiveDays))
	}

	// Ascending scan with a strict compare: the lowest hour wins ties
	best := 0
	for h := 0; h < 24; h++ {
		if hourCounts[h] > best {
			best = hourCounts[h]
			m.PeakHour = h
		}
	}

	if observed > 0 {
		m.MorningPercentage = int(math.Round(float64(morning) / float64(observed) * 100))
		m.AfternoonPercentage = int(math.Round(float64(afternoon) / float64(observed) * 100))
	}

	return m
}

// round1 rounds to one decimal place
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

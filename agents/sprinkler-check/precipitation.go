package sprinklercheck

import (
	"math"
	"sort"
	"time"

	"sprinkler-agent/internal/models"
)

const (
	mmPerInch = 25.4

	// HistoryHorizon bounds both the daily breakdown and how far back
	// observations are consumed.
	HistoryHorizon = 7 * 24 * time.Hour
)

// SummarizePrecipitation aggregates observations (newest first) into the
// recent-window total and per-day totals for the trailing seven days.
// Calendar days are taken in loc.
func SummarizePrecipitation(observations []models.Observation, now time.Time, window time.Duration, loc *time.Location) *models.PrecipitationSummary {
	if loc == nil {
		loc = time.Local
	}

	cutoff := now.Add(-window)
	horizon := now.Add(-HistoryHorizon)

	var totalMM float64
	var count int
	var latest *time.Time
	daily := make(map[dayKey]float64)

	for _, obs := range observations {
		// Observations are newest first, so everything after this is older too
		if obs.Timestamp.Before(horizon) {
			break
		}

		if latest == nil {
			ts := obs.Timestamp
			latest = &ts
		}

		if obs.PrecipitationLastHourMM == nil {
			continue
		}
		mm := *obs.PrecipitationLastHourMM

		if !obs.Timestamp.Before(cutoff) {
			totalMM += mm
			count++
		}

		daily[dayOf(obs.Timestamp, loc)] += mm
	}

	dailyTotals := make([]models.DailyTotal, 0, len(daily))
	for day, mm := range daily {
		dailyTotals = append(dailyTotals, models.DailyTotal{
			Date:   time.Date(day.year, day.month, day.day, 0, 0, 0, 0, loc),
			Inches: round(mm/mmPerInch, 2),
		})
	}
	sort.Slice(dailyTotals, func(i, j int) bool {
		return dailyTotals[i].Date.After(dailyTotals[j].Date)
	})

	return &models.PrecipitationSummary{
		TotalMM:           round(totalMM, 2),
		TotalInches:       round(totalMM/mmPerInch, 2),
		ObservationCount:  count,
		LatestObservation: latest,
		DailyTotals:       dailyTotals,
	}
}

type dayKey struct {
	year  int
	month time.Month
	day   int
}

func dayOf(t time.Time, loc *time.Location) dayKey {
	y, m, d := t.In(loc).Date()
	return dayKey{year: y, month: m, day: d}
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

package sprinklercheck

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprinkler-agent/internal/models"
)

var testNow = time.Date(2024, 5, 8, 6, 0, 0, 0, time.UTC)

func value(v float64) *float64 { return &v }

func obsAt(ts time.Time, precipMM, pressurePa *float64) models.Observation {
	return models.Observation{
		Timestamp:               ts,
		PrecipitationLastHourMM: precipMM,
		BarometricPressurePa:    pressurePa,
	}
}

func TestSummarizePrecipitationEmpty(t *testing.T) {
	summary := SummarizePrecipitation(nil, testNow, 12*time.Hour, time.UTC)

	assert.Equal(t, 0.0, summary.TotalMM)
	assert.Equal(t, 0.0, summary.TotalInches)
	assert.Equal(t, 0, summary.ObservationCount)
	assert.Nil(t, summary.LatestObservation)
	assert.Empty(t, summary.DailyTotals)
}

func TestSummarizePrecipitation(t *testing.T) {
	observations := []models.Observation{
		obsAt(time.Date(2024, 5, 8, 5, 0, 0, 0, time.UTC), value(2.54), nil),
		obsAt(time.Date(2024, 5, 8, 1, 0, 0, 0, time.UTC), nil, nil),
		obsAt(time.Date(2024, 5, 7, 20, 0, 0, 0, time.UTC), value(5.08), nil),
		obsAt(time.Date(2024, 5, 7, 10, 0, 0, 0, time.UTC), value(2.54), nil),
		obsAt(time.Date(2024, 5, 3, 12, 0, 0, 0, time.UTC), value(1.27), nil),
		// Older than the 7 day horizon: stops consumption
		obsAt(time.Date(2024, 4, 30, 12, 0, 0, 0, time.UTC), value(25.4), nil),
		// Never reached, even though it is inside the horizon
		obsAt(time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC), value(25.4), nil),
	}

	summary := SummarizePrecipitation(observations, testNow, 12*time.Hour, time.UTC)

	assert.InDelta(t, 7.62, summary.TotalMM, 1e-9)
	assert.InDelta(t, 0.3, summary.TotalInches, 1e-9)
	assert.Equal(t, 2, summary.ObservationCount)
	require.NotNil(t, summary.LatestObservation)
	assert.Equal(t, time.Date(2024, 5, 8, 5, 0, 0, 0, time.UTC), *summary.LatestObservation)

	require.Len(t, summary.DailyTotals, 3)
	assert.Equal(t, time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC), summary.DailyTotals[0].Date)
	assert.InDelta(t, 0.1, summary.DailyTotals[0].Inches, 1e-9)
	assert.Equal(t, time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC), summary.DailyTotals[1].Date)
	assert.InDelta(t, 0.3, summary.DailyTotals[1].Inches, 1e-9)
	assert.Equal(t, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), summary.DailyTotals[2].Date)
	assert.InDelta(t, 0.05, summary.DailyTotals[2].Inches, 1e-9)
}

func TestSummarizePrecipitationLatestWithoutPrecipitation(t *testing.T) {
	observations := []models.Observation{
		obsAt(time.Date(2024, 5, 8, 5, 45, 0, 0, time.UTC), nil, value(101300)),
		obsAt(time.Date(2024, 5, 8, 4, 45, 0, 0, time.UTC), value(1.0), nil),
	}

	summary := SummarizePrecipitation(observations, testNow, 12*time.Hour, time.UTC)

	require.NotNil(t, summary.LatestObservation)
	assert.Equal(t, time.Date(2024, 5, 8, 5, 45, 0, 0, time.UTC), *summary.LatestObservation)
	assert.Equal(t, 1, summary.ObservationCount)
}

func TestSummarizePrecipitationAllOutsideHorizon(t *testing.T) {
	observations := []models.Observation{
		obsAt(testNow.Add(-8*24*time.Hour), value(10), nil),
	}

	summary := SummarizePrecipitation(observations, testNow, 12*time.Hour, time.UTC)

	assert.Nil(t, summary.LatestObservation)
	assert.Empty(t, summary.DailyTotals)
	assert.Equal(t, 0, summary.ObservationCount)
}

func TestSummarizePrecipitationWindowBoundary(t *testing.T) {
	window := 12 * time.Hour
	observations := []models.Observation{
		obsAt(testNow.Add(-window), value(2.54), nil),
		obsAt(testNow.Add(-window-time.Second), value(2.54), nil),
	}

	summary := SummarizePrecipitation(observations, testNow, window, time.UTC)

	assert.Equal(t, 1, summary.ObservationCount)
	assert.InDelta(t, 2.54, summary.TotalMM, 1e-9)
	assert.InDelta(t, 0.1, summary.TotalInches, 1e-9)
}

func TestSummarizePrecipitationLocalCalendarDays(t *testing.T) {
	eastern := time.FixedZone("EST", -5*60*60)
	observations := []models.Observation{
		// 01:00 UTC on the 8th is still the 7th in EST
		obsAt(time.Date(2024, 5, 8, 1, 0, 0, 0, time.UTC), value(2.54), nil),
		obsAt(time.Date(2024, 5, 7, 23, 0, 0, 0, time.UTC), value(2.54), nil),
	}

	summary := SummarizePrecipitation(observations, testNow, 12*time.Hour, eastern)

	require.Len(t, summary.DailyTotals, 1)
	assert.Equal(t, time.Date(2024, 5, 7, 0, 0, 0, 0, eastern), summary.DailyTotals[0].Date)
	assert.InDelta(t, 0.2, summary.DailyTotals[0].Inches, 1e-9)
}

func TestSummarizePrecipitationInvariants(t *testing.T) {
	// Hourly observations for the last ten days, 0.5mm each
	var observations []models.Observation
	for h := 0; h < 240; h++ {
		observations = append(observations, obsAt(testNow.Add(-time.Duration(h)*time.Hour), value(0.5), nil))
	}

	for _, hours := range []int{1, 6, 12, 24, 48} {
		window := time.Duration(hours) * time.Hour
		summary := SummarizePrecipitation(observations, testNow, window, time.UTC)

		horizonDay := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		var dailySum float64
		for i, day := range summary.DailyTotals {
			assert.False(t, day.Date.Before(horizonDay), "day %s is older than the horizon", day.Date)
			if i > 0 {
				assert.True(t, day.Date.Before(summary.DailyTotals[i-1].Date), "daily totals must be newest first")
			}
			dailySum += day.Inches
		}

		assert.LessOrEqual(t, summary.TotalInches, dailySum+1e-9)
		assert.LessOrEqual(t, len(summary.DailyTotals), 8)
		assert.Equal(t, hours+1, summary.ObservationCount)
		assert.InDelta(t, round(float64(hours+1)*0.5/mmPerInch, 2), summary.TotalInches, 1e-9)
	}
}

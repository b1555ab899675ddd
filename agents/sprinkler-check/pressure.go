package sprinklercheck

import (
	"time"

	"sprinkler-agent/internal/models"
)

const (
	pressureLookback  = 24 * time.Hour
	pressureTolerance = time.Hour
)

// AnalyzePressure computes the 24 hour barometric pressure change. The whole
// page of observations is scanned; "yesterday" is the reading nearest to
// exactly 24h before now, provided it lies within one hour of that mark.
func AnalyzePressure(observations []models.Observation, now time.Time) *models.PressureSummary {
	target := now.Add(-pressureLookback)
	summary := &models.PressureSummary{}

	var currentPa, previousPa *float64
	bestDistance := time.Duration(-1)

	for _, obs := range observations {
		if obs.BarometricPressurePa == nil {
			continue
		}
		pa := *obs.BarometricPressurePa

		if currentPa == nil {
			currentPa = &pa
			summary.CurrentTime = obs.Timestamp
		}

		distance := obs.Timestamp.Sub(target)
		if distance < 0 {
			distance = -distance
		}
		if distance >= pressureTolerance {
			continue
		}
		if bestDistance < 0 || distance < bestDistance {
			bestDistance = distance
			previousPa = &pa
			summary.PreviousTime = obs.Timestamp
		}
	}

	if currentPa != nil {
		hpa := round(*currentPa/100, 1)
		summary.CurrentHPa = &hpa
	}
	if previousPa != nil {
		hpa := round(*previousPa/100, 1)
		summary.PreviousHPa = &hpa
	}
	if currentPa != nil && previousPa != nil {
		change := round((*currentPa-*previousPa)/100, 1)
		summary.ChangeHPa = &change
	}

	return summary
}

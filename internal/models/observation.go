package models

import "time"

// Observation is a single station observation from the NWS API.
// Nil values mean the station did not report that quantity.
type Observation struct {
	Timestamp               time.Time `json:"timestamp"`
	PrecipitationLastHourMM *float64  `json:"precipitation_last_hour_mm,omitempty"`
	BarometricPressurePa    *float64  `json:"barometric_pressure_pa,omitempty"`
}

// DailyTotal is the summed precipitation for one calendar day
type DailyTotal struct {
	Date   time.Time `json:"date"`
	Inches float64   `json:"inches"`
}

// PrecipitationSummary contains the aggregated precipitation for a station
type PrecipitationSummary struct {
	TotalMM           float64      `json:"total_mm"`
	TotalInches       float64      `json:"total_inches"`
	ObservationCount  int          `json:"observation_count"`
	LatestObservation *time.Time   `json:"latest_observation,omitempty"`
	DailyTotals       []DailyTotal `json:"daily_totals"` // newest date first
}

// PressureSummary contains the 24 hour barometric pressure trend (hPa)
type PressureSummary struct {
	CurrentHPa   *float64  `json:"current_hpa,omitempty"`
	CurrentTime  time.Time `json:"current_time"`
	PreviousHPa  *float64  `json:"previous_hpa,omitempty"` // reading closest to 24h ago
	PreviousTime time.Time `json:"previous_time"`
	ChangeHPa    *float64  `json:"change_hpa,omitempty"`
}

// Available reports whether both readings were found and a change could be computed.
func (p *PressureSummary) Available() bool {
	return p != nil && p.CurrentHPa != nil && p.ChangeHPa != nil
}

// IsSignificant reports whether the pressure dropped by at least threshold hPa.
// Rises are never significant.
func (p *PressureSummary) IsSignificant(threshold float64) bool {
	if !p.Available() {
		return false
	}
	change := *p.ChangeHPa
	return change < 0 && -change >= threshold
}

// Trend describes the direction of the pressure change
func (p *PressureSummary) Trend(threshold float64) string {
	if !p.Available() {
		return "unknown"
	}
	change := *p.ChangeHPa
	switch {
	case p.IsSignificant(threshold):
		return "falling"
	case change > 0:
		return "rising"
	case change == 0:
		return "steady"
	default:
		return "falling slightly"
	}
}

// ForecastSummary is the first period of the NWS forecast (usually today or tonight)
type ForecastSummary struct {
	Name             string `json:"name"`
	Temperature      int    `json:"temperature"`
	TemperatureUnit  string `json:"temperature_unit"`
	WindSpeed        string `json:"wind_speed"`
	WindDirection    string `json:"wind_direction"`
	ShortForecast    string `json:"short_forecast"`
	DetailedForecast string `json:"detailed_forecast"`
}

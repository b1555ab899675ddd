package models

import "time"

// Recommendation is the verdict on whether the sprinkler should run today
type Recommendation struct {
	Run    bool   `json:"run"`
	Label  string `json:"label"`  // e.g., "YES - Run sprinkler"
	Marker string `json:"marker"` // ✗ when rain was insufficient, ✓ otherwise
}

// SprinklerReport represents a sprinkler check report for email delivery
type SprinklerReport struct {
	GeneratedAt       time.Time             `json:"generated_at"`
	StationID         string                `json:"station_id"`
	Latitude          float64               `json:"latitude"`
	Longitude         float64               `json:"longitude"`
	HoursToCheck      int                   `json:"hours_to_check"`
	Threshold         float64               `json:"threshold"`          // inches
	PressureThreshold float64               `json:"pressure_threshold"` // hPa
	Location          *time.Location        `json:"-"`
	Precipitation     *PrecipitationSummary `json:"precipitation"`
	Pressure          *PressureSummary      `json:"pressure,omitempty"`
	Forecast          *ForecastSummary      `json:"forecast,omitempty"`
	Recommendation    Recommendation        `json:"recommendation"`
	Outlook           string                `json:"outlook,omitempty"`
}

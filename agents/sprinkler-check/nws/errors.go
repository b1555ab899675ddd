package nws

import (
	"errors"
	"fmt"
)

// Data sources reported by FetchError
const (
	SourceObservations = "observations"
	SourceForecast     = "forecast"
)

// ErrNoStations is returned when the point lookup lists no observation stations
var ErrNoStations = errors.New("no observation stations found for this location")

// StatusError is returned for any non-2xx response from the API
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("weather API returned status %d for %s", e.StatusCode, e.URL)
}

// StationResolutionError reports that no station could be resolved for a location.
type StationResolutionError struct {
	Latitude  float64
	Longitude float64
	Err       error
}

func (e *StationResolutionError) Error() string {
	return fmt.Sprintf("error fetching NWS station for %.4f,%.4f: %v", e.Latitude, e.Longitude, e.Err)
}

func (e *StationResolutionError) Unwrap() error {
	return e.Err
}

// FetchError reports a transport or parse failure while fetching observation
// or forecast data.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("error fetching %s data: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

package nws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"sprinkler-agent/internal/models"
	"sprinkler-agent/shared/config"
)

// Client handles interactions with the National Weather Service API
type Client struct {
	config *config.NWSConfig
	client *http.Client
	logger *slog.Logger
}

// Point holds the endpoints the NWS assigns to a coordinate
type Point struct {
	ForecastURL            string
	ObservationStationsURL string
}

type pointResponse struct {
	Properties struct {
		Forecast            string `json:"forecast"`
		ObservationStations string `json:"observationStations"`
	} `json:"properties"`
}

type stationsResponse struct {
	Features []struct {
		Properties struct {
			StationIdentifier string `json:"stationIdentifier"`
		} `json:"properties"`
	} `json:"features"`
}

type quantitativeValue struct {
	UnitCode string   `json:"unitCode"`
	Value    *float64 `json:"value"`
}

type observationsResponse struct {
	Features []struct {
		Properties struct {
			Timestamp             time.Time         `json:"timestamp"`
			PrecipitationLastHour quantitativeValue `json:"precipitationLastHour"`
			BarometricPressure    quantitativeValue `json:"barometricPressure"`
		} `json:"properties"`
	} `json:"features"`
}

type forecastResponse struct {
	Properties struct {
		Periods []struct {
			Name             string  `json:"name"`
			Temperature      float64 `json:"temperature"`
			TemperatureUnit  string  `json:"temperatureUnit"`
			WindSpeed        string  `json:"windSpeed"`
			WindDirection    string  `json:"windDirection"`
			ShortForecast    string  `json:"shortForecast"`
			DetailedForecast string  `json:"detailedForecast"`
		} `json:"periods"`
	} `json:"properties"`
}

// NewClient returns an NWS client using cfg.Timeout as the per-request timeout
func NewClient(cfg *config.NWSConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = config.DefaultNWSTimeout
	}
	return &Client{
		config: cfg,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With("component", "nws"),
	}
}

// GetPoint looks up the forecast and observation station endpoints for a coordinate
func (c *Client) GetPoint(ctx context.Context, lat, lon float64) (*Point, error) {
	url := fmt.Sprintf("%s/points/%.4f,%.4f", c.config.BaseURL, lat, lon)

	var resp pointResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	return &Point{
		ForecastURL:            resp.Properties.Forecast,
		ObservationStationsURL: resp.Properties.ObservationStations,
	}, nil
}

// NearestStation returns the identifier of the first (closest) observation
// station listed for the coordinate.
func (c *Client) NearestStation(ctx context.Context, lat, lon float64) (string, error) {
	stationErr := func(err error) error {
		return &StationResolutionError{Latitude: lat, Longitude: lon, Err: err}
	}

	point, err := c.GetPoint(ctx, lat, lon)
	if err != nil {
		return "", stationErr(err)
	}
	if point.ObservationStationsURL == "" {
		return "", stationErr(fmt.Errorf("point response has no observationStations URL"))
	}

	var resp stationsResponse
	if err := c.getJSON(ctx, point.ObservationStationsURL, &resp); err != nil {
		return "", stationErr(err)
	}

	if len(resp.Features) == 0 || resp.Features[0].Properties.StationIdentifier == "" {
		return "", stationErr(ErrNoStations)
	}

	return resp.Features[0].Properties.StationIdentifier, nil
}

// GetObservations fetches the latest page of observations for a station, newest first
func (c *Client) GetObservations(ctx context.Context, stationID string) ([]models.Observation, error) {
	url := fmt.Sprintf("%s/stations/%s/observations", c.config.BaseURL, stationID)

	var resp observationsResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, &FetchError{Source: SourceObservations, Err: err}
	}

	observations := make([]models.Observation, 0, len(resp.Features))
	for _, f := range resp.Features {
		p := f.Properties
		observations = append(observations, models.Observation{
			Timestamp:               p.Timestamp,
			PrecipitationLastHourMM: p.PrecipitationLastHour.millimeters(),
			BarometricPressurePa:    p.BarometricPressure.pascals(),
		})
	}

	c.logger.Debug("observations fetched", "station", stationID, "count", len(observations))
	return observations, nil
}

// GetForecast fetches the forecast for a coordinate and returns its first
// period. It returns nil without error when the forecast has no periods.
func (c *Client) GetForecast(ctx context.Context, lat, lon float64) (*models.ForecastSummary, error) {
	point, err := c.GetPoint(ctx, lat, lon)
	if err != nil {
		return nil, &FetchError{Source: SourceForecast, Err: err}
	}
	if point.ForecastURL == "" {
		return nil, &FetchError{Source: SourceForecast, Err: fmt.Errorf("point response has no forecast URL")}
	}

	var resp forecastResponse
	if err := c.getJSON(ctx, point.ForecastURL, &resp); err != nil {
		return nil, &FetchError{Source: SourceForecast, Err: err}
	}

	if len(resp.Properties.Periods) == 0 {
		c.logger.Warn("forecast has no periods", "url", point.ForecastURL)
		return nil, nil
	}

	today := resp.Properties.Periods[0]
	return &models.ForecastSummary{
		Name:             today.Name,
		Temperature:      int(math.Round(today.Temperature)),
		TemperatureUnit:  today.TemperatureUnit,
		WindSpeed:        today.WindSpeed,
		WindDirection:    today.WindDirection,
		ShortForecast:    today.ShortForecast,
		DetailedForecast: today.DetailedForecast,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	c.logger.Debug("fetching", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, URL: url}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// millimeters returns the value in mm; NWS reports precipitation in mm or m.
func (q quantitativeValue) millimeters() *float64 {
	if q.Value == nil {
		return nil
	}
	v := *q.Value
	if q.UnitCode == "wmoUnit:m" {
		v *= 1000
	}
	return &v
}

// pascals returns the value in Pa; NWS reports pressure in Pa or hPa.
func (q quantitativeValue) pascals() *float64 {
	if q.Value == nil {
		return nil
	}
	v := *q.Value
	if q.UnitCode == "wmoUnit:hPa" {
		v *= 100
	}
	return &v
}

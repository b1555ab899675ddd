package nws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprinkler-agent/shared/config"
)

const testUserAgent = "sprinkler-agent-test (test@example.com)"

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.NWSConfig{
		BaseURL:   server.URL,
		UserAgent: testUserAgent,
		Timeout:   2 * time.Second,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(cfg, logger), server
}

// fakeNWS serves a minimal subset of api.weather.gov
type fakeNWS struct {
	t            *testing.T
	serverURL    string
	stations     string
	observations string
	forecast     string
	pointStatus  int
	forecastHits int
}

func (f *fakeNWS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	assert.Equal(f.t, testUserAgent, r.Header.Get("User-Agent"))
	assert.Equal(f.t, "application/geo+json", r.Header.Get("Accept"))

	w.Header().Set("Content-Type", "application/geo+json")
	switch r.URL.Path {
	case "/points/40.7128,-74.0060":
		if f.pointStatus != 0 {
			w.WriteHeader(f.pointStatus)
			return
		}
		fmt.Fprintf(w, `{"properties": {
			"forecast": "%[1]s/gridpoints/OKX/33,35/forecast",
			"observationStations": "%[1]s/gridpoints/OKX/33,35/stations"
		}}`, f.serverURL)
	case "/gridpoints/OKX/33,35/stations":
		fmt.Fprint(w, f.stations)
	case "/stations/KNYC/observations":
		fmt.Fprint(w, f.observations)
	case "/gridpoints/OKX/33,35/forecast":
		f.forecastHits++
		fmt.Fprint(w, f.forecast)
	default:
		http.NotFound(w, r)
	}
}

func newFakeNWS(t *testing.T) (*Client, *fakeNWS) {
	fake := &fakeNWS{
		t:        t,
		stations: `{"features": [{"properties": {"stationIdentifier": "KNYC"}}, {"properties": {"stationIdentifier": "KLGA"}}]}`,
	}
	client, server := newTestClient(t, fake)
	fake.serverURL = server.URL
	return client, fake
}

func TestNearestStation(t *testing.T) {
	client, _ := newFakeNWS(t)

	station, err := client.NearestStation(context.Background(), 40.7128, -74.0060)
	require.NoError(t, err)
	assert.Equal(t, "KNYC", station)
}

func TestNearestStationErrors(t *testing.T) {
	tests := []struct {
		name        string
		stations    string
		pointStatus int
		expectIs    error
	}{
		{
			name:     "No stations",
			stations: `{"features": []}`,
			expectIs: ErrNoStations,
		},
		{
			name:        "Point lookup fails",
			pointStatus: http.StatusInternalServerError,
		},
		{
			name:     "Malformed stations response",
			stations: `{"features": [`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, fake := newFakeNWS(t)
			if tt.stations != "" {
				fake.stations = tt.stations
			}
			fake.pointStatus = tt.pointStatus

			_, err := client.NearestStation(context.Background(), 40.7128, -74.0060)
			require.Error(t, err)

			var stationErr *StationResolutionError
			require.True(t, errors.As(err, &stationErr), "expected StationResolutionError, got %T", err)
			if tt.expectIs != nil {
				assert.ErrorIs(t, err, tt.expectIs)
			}
			if tt.pointStatus != 0 {
				var statusErr *StatusError
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, tt.pointStatus, statusErr.StatusCode)
			}
		})
	}
}

func TestNearestStationTimeout(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	client.client.Timeout = 50 * time.Millisecond

	_, err := client.NearestStation(context.Background(), 40.7128, -74.0060)

	var stationErr *StationResolutionError
	assert.True(t, errors.As(err, &stationErr))
}

func TestGetObservations(t *testing.T) {
	client, fake := newFakeNWS(t)
	fake.observations = `{"features": [
		{"properties": {
			"timestamp": "2024-05-01T05:51:00+00:00",
			"precipitationLastHour": {"unitCode": "wmoUnit:mm", "value": 2.5},
			"barometricPressure": {"unitCode": "wmoUnit:Pa", "value": 101320}
		}},
		{"properties": {
			"timestamp": "2024-05-01T04:51:00+00:00",
			"precipitationLastHour": {"unitCode": "wmoUnit:mm", "value": null},
			"barometricPressure": {"unitCode": "wmoUnit:Pa", "value": null}
		}},
		{"properties": {
			"timestamp": "2024-05-01T03:51:00+00:00",
			"precipitationLastHour": {"unitCode": "wmoUnit:m", "value": 0.001}
		}}
	]}`

	obs, err := client.GetObservations(context.Background(), "KNYC")
	require.NoError(t, err)
	require.Len(t, obs, 3)

	assert.Equal(t, time.Date(2024, 5, 1, 5, 51, 0, 0, time.UTC), obs[0].Timestamp.UTC())
	require.NotNil(t, obs[0].PrecipitationLastHourMM)
	assert.Equal(t, 2.5, *obs[0].PrecipitationLastHourMM)
	require.NotNil(t, obs[0].BarometricPressurePa)
	assert.Equal(t, 101320.0, *obs[0].BarometricPressurePa)

	assert.Nil(t, obs[1].PrecipitationLastHourMM)
	assert.Nil(t, obs[1].BarometricPressurePa)

	require.NotNil(t, obs[2].PrecipitationLastHourMM)
	assert.InDelta(t, 1.0, *obs[2].PrecipitationLastHourMM, 1e-9)
	assert.Nil(t, obs[2].BarometricPressurePa)
}

func TestGetObservationsHTTPError(t *testing.T) {
	client, _ := newFakeNWS(t)

	_, err := client.GetObservations(context.Background(), "UNKNOWN")
	require.Error(t, err)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, SourceObservations, fetchErr.Source)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestGetForecast(t *testing.T) {
	client, fake := newFakeNWS(t)
	fake.forecast = `{"properties": {"periods": [
		{
			"name": "Tonight",
			"temperature": 54,
			"temperatureUnit": "F",
			"windSpeed": "5 to 10 mph",
			"windDirection": "SW",
			"shortForecast": "Chance Rain Showers",
			"detailedForecast": "A chance of rain showers after 2am. Low around 54."
		},
		{"name": "Thursday", "temperature": 70, "temperatureUnit": "F"}
	]}}`

	forecast, err := client.GetForecast(context.Background(), 40.7128, -74.0060)
	require.NoError(t, err)
	require.NotNil(t, forecast)

	assert.Equal(t, "Tonight", forecast.Name)
	assert.Equal(t, 54, forecast.Temperature)
	assert.Equal(t, "F", forecast.TemperatureUnit)
	assert.Equal(t, "5 to 10 mph", forecast.WindSpeed)
	assert.Equal(t, "SW", forecast.WindDirection)
	assert.Equal(t, "Chance Rain Showers", forecast.ShortForecast)
	assert.Equal(t, "A chance of rain showers after 2am. Low around 54.", forecast.DetailedForecast)
	assert.Equal(t, 1, fake.forecastHits)
}

func TestGetForecastNoPeriods(t *testing.T) {
	client, fake := newFakeNWS(t)
	fake.forecast = `{"properties": {"periods": []}}`

	forecast, err := client.GetForecast(context.Background(), 40.7128, -74.0060)
	require.NoError(t, err)
	assert.Nil(t, forecast)
}

func TestGetForecastPointFailure(t *testing.T) {
	client, fake := newFakeNWS(t)
	fake.pointStatus = http.StatusServiceUnavailable

	_, err := client.GetForecast(context.Background(), 40.7128, -74.0060)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, SourceForecast, fetchErr.Source)
	assert.Equal(t, 0, fake.forecastHits)
}

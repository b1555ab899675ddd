package sprinklercheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"sprinkler-agent/agents/sprinkler-check/nws"
	"sprinkler-agent/internal/models"
	"sprinkler-agent/shared/ai"
	"sprinkler-agent/shared/config"
	"sprinkler-agent/shared/email"
	"sprinkler-agent/shared/scheduler"
)

// WeatherClient is the subset of the NWS client a run depends on
type WeatherClient interface {
	NearestStation(ctx context.Context, lat, lon float64) (string, error)
	GetObservations(ctx context.Context, stationID string) ([]models.Observation, error)
	GetForecast(ctx context.Context, lat, lon float64) (*models.ForecastSummary, error)
}

// Notifier delivers a plain-text message to the configured recipients
type Notifier interface {
	Send(ctx context.Context, subject, body string) error
}

// OutlookProvider produces an optional free-text outlook for a report
type OutlookProvider interface {
	Summarize(ctx context.Context, report *models.SprinklerReport) (string, error)
}

// ConfigLoader reloads configuration when a failure must be reported
type ConfigLoader func() (*config.Config, error)

// NotifierFactory builds a notifier from email settings
type NotifierFactory func(cfg *config.EmailConfig) Notifier

// NewEmailNotifier is the default NotifierFactory
func NewEmailNotifier(cfg *config.EmailConfig) Notifier {
	return email.NewSender(cfg)
}

// SprinklerMetrics represents the metrics collected during a sprinkler check
type SprinklerMetrics struct {
	StationID         string  `json:"station_id"`
	ObservationCount  int     `json:"observation_count"`
	TotalInches       float64 `json:"total_inches"`
	Threshold         float64 `json:"threshold"`
	RunSprinkler      bool    `json:"run_sprinkler"`
	PressureAvailable bool    `json:"pressure_available"`
	ForecastAvailable bool    `json:"forecast_available"`
	OutlookIncluded   bool    `json:"outlook_included"`
	EmailSent         bool    `json:"email_sent"`
}

// GetSummary implements the scheduler.Metrics interface
func (m SprinklerMetrics) GetSummary() string {
	verdict := fmt.Sprintf("sufficient rainfall (%.2f in >= %.2f in)", m.TotalInches, m.Threshold)
	if m.RunSprinkler {
		verdict = fmt.Sprintf("sprinkler recommended (%.2f in < %.2f in)", m.TotalInches, m.Threshold)
	}

	if m.EmailSent {
		return verdict + ", email sent"
	}
	return verdict + ", no email sent"
}

// SprinklerAgent implements the scheduler.Agent interface
type SprinklerAgent struct {
	config      *config.Config
	logger      *slog.Logger
	weather     WeatherClient
	notifier    Notifier
	outlook     OutlookProvider
	loadConfig  ConfigLoader
	newNotifier NotifierFactory
	stdout      io.Writer
	now         func() time.Time
	newRunID    func() string
}

// NewSprinklerAgent creates the agent; load is used to reload configuration
// before sending a failure notification.
func NewSprinklerAgent(cfg *config.Config, load ConfigLoader, logger *slog.Logger) *SprinklerAgent {
	return &SprinklerAgent{
		config:      cfg,
		logger:      logger.With("component", "sprinkler-check"),
		loadConfig:  load,
		newNotifier: NewEmailNotifier,
		stdout:      os.Stdout,
		now:         time.Now,
		newRunID:    uuid.NewString,
	}
}

func (a *SprinklerAgent) Name() string {
	return "Sprinkler Check Agent"
}

func (a *SprinklerAgent) Initialize() error {
	a.logger.Info("initializing agent", "agent", a.Name())

	if a.config.Location.Latitude == 0 || a.config.Location.Longitude == 0 {
		return fmt.Errorf("location coordinates must be configured (location.latitude and location.longitude)")
	}
	if _, err := a.config.Location.TimeLocation(); err != nil {
		return err
	}

	if a.weather == nil {
		a.weather = nws.NewClient(&a.config.NWS, a.logger)
		a.logger.Debug("weather client initialized", "base_url", a.config.NWS.BaseURL)
	}

	if a.notifier == nil {
		a.notifier = a.newNotifier(&a.config.Email)
		a.logger.Debug("email notifier initialized", "recipients", len(a.config.Email.ToEmails))
	}

	if a.outlook == nil && a.config.AI.GeminiAPIKey != "" {
		outlook, err := ai.NewOutlook(context.Background(), &a.config.AI, a.logger)
		if err != nil {
			// The outlook is optional, the report is complete without it
			a.logger.Warn("AI outlook disabled", "error", err)
		} else {
			a.outlook = outlook
			a.logger.Debug("AI outlook enabled", "model", a.config.AI.Model)
		}
	}

	a.logger.Info("configured location",
		"latitude", a.config.Location.Latitude,
		"longitude", a.config.Location.Longitude,
		"hours_to_check", a.config.Sprinkler.HoursToCheck,
		"threshold", a.config.Sprinkler.Threshold)

	return nil
}

func (a *SprinklerAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := a.now()
	logger := a.logger.With("run_id", a.newRunID())
	metrics := SprinklerMetrics{Threshold: a.config.Sprinkler.Threshold}

	fail := func(err error) error {
		if events != nil && events.OnCriticalFailure != nil {
			events.OnCriticalFailure(err, a.now().Sub(startTime))
		}
		logger.Error("sprinkler check failed", "error", err)
		if notifyErr := NotifyFailure(ctx, err, a.loadConfig, a.newNotifier, logger); notifyErr != nil {
			logger.Error("failure notification not delivered", "error", notifyErr)
		}
		return err
	}

	report, err := a.buildReport(ctx, startTime, logger, &metrics)
	if err != nil {
		return fail(err)
	}

	if a.outlook != nil {
		outlook, err := a.outlook.Summarize(ctx, report)
		if err != nil {
			if events != nil && events.OnPartialFailure != nil {
				events.OnPartialFailure(fmt.Errorf("failed to generate outlook: %w", err), a.now().Sub(startTime))
			}
			logger.Warn("outlook omitted from report", "error", err)
		} else {
			report.Outlook = outlook
			metrics.OutlookIncluded = true
		}
	}

	body, err := RenderReport(report)
	if err != nil {
		return fail(err)
	}

	fmt.Fprintln(a.stdout, body)

	logger.Info("sending report", "subject", email.SubjectReport)
	if err := a.notifier.Send(ctx, email.SubjectReport, body); err != nil {
		return fail(err)
	}
	metrics.EmailSent = true

	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, a.now().Sub(startTime))
	}

	logger.Info("sprinkler check complete",
		"run_sprinkler", metrics.RunSprinkler,
		"total_inches", metrics.TotalInches,
		"email_sent", metrics.EmailSent)

	return nil
}

// buildReport fetches every data source in sequence and assembles the report
// for the run started at now.
func (a *SprinklerAgent) buildReport(ctx context.Context, now time.Time, logger *slog.Logger, metrics *SprinklerMetrics) (*models.SprinklerReport, error) {
	loc, err := a.config.Location.TimeLocation()
	if err != nil {
		return nil, err
	}
	lat, lon := a.config.Location.Latitude, a.config.Location.Longitude

	logger.Info("resolving weather station", "latitude", lat, "longitude", lon)
	stationID, err := a.weather.NearestStation(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	metrics.StationID = stationID

	// One page of observations serves both precipitation and pressure
	logger.Info("fetching observations", "station", stationID)
	observations, err := a.weather.GetObservations(ctx, stationID)
	if err != nil {
		return nil, err
	}

	precipitation := SummarizePrecipitation(observations, now, a.config.Sprinkler.Window(), loc)
	metrics.ObservationCount = precipitation.ObservationCount
	metrics.TotalInches = precipitation.TotalInches

	pressure := AnalyzePressure(observations, now)
	metrics.PressureAvailable = pressure.Available()
	if !pressure.Available() {
		logger.Warn("pressure change unavailable", "observations", len(observations))
	}

	logger.Info("fetching forecast")
	forecast, err := a.weather.GetForecast(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	metrics.ForecastAvailable = forecast != nil

	recommendation := Recommend(precipitation.TotalInches, a.config.Sprinkler.Threshold)
	metrics.RunSprinkler = recommendation.Run

	logger.Info("precipitation summarized",
		"total_inches", precipitation.TotalInches,
		"observations", precipitation.ObservationCount,
		"run_sprinkler", recommendation.Run)

	return &models.SprinklerReport{
		GeneratedAt:       now,
		StationID:         stationID,
		Latitude:          lat,
		Longitude:         lon,
		HoursToCheck:      a.config.Sprinkler.HoursToCheck,
		Threshold:         a.config.Sprinkler.Threshold,
		PressureThreshold: a.config.Sprinkler.PressureChangeThreshold,
		Location:          loc,
		Precipitation:     precipitation,
		Pressure:          pressure,
		Forecast:          forecast,
		Recommendation:    recommendation,
	}, nil
}

// NotifyFailure reloads the configuration and emails runErr to the configured
// recipients. The returned error describes why the notification could not be
// delivered; runErr itself is never returned.
func NotifyFailure(ctx context.Context, runErr error, load ConfigLoader, newNotifier NotifierFactory, logger *slog.Logger) error {
	if load == nil {
		return errors.New("no configuration loader for failure notification")
	}
	if newNotifier == nil {
		newNotifier = NewEmailNotifier
	}

	cfg, err := load()
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}

	// The run context may already be cancelled or expired
	ctx = context.WithoutCancel(ctx)

	logger.Info("sending failure notification", "subject", email.SubjectError)
	if err := newNotifier(&cfg.Email).Send(ctx, email.SubjectError, RenderError(runErr)); err != nil {
		return err
	}
	return nil
}

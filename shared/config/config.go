package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile              = "config.yaml"
	DefaultHoursToCheck            = 12
	DefaultPressureChangeThreshold = 6.0
	DefaultSMTPPort                = 587
	DefaultNWSBaseURL              = "https://api.weather.gov"
	DefaultUserAgent               = "sprinkler-agent/1.0"
	DefaultNWSTimeout              = 10 * time.Second
	DefaultModel                   = "gemini-2.5-flash"
	DefaultSchedule                = "0 0 6 * * *" // Daily at 6 AM
	DefaultHealthPort              = 8080
)

type Config struct {
	Location   LocationConfig   `yaml:"location"`
	Sprinkler  SprinklerConfig  `yaml:"sprinkler"`
	Email      EmailConfig      `yaml:"email"`
	NWS        NWSConfig        `yaml:"nws"`
	AI         AIConfig         `yaml:"ai"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Schedule   string           `yaml:"schedule"`
}

type LocationConfig struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Timezone  string  `yaml:"timezone"`
}

type SprinklerConfig struct {
	HoursToCheck            int     `yaml:"hours_to_check"`
	Threshold               float64 `yaml:"threshold"`                 // inches
	PressureChangeThreshold float64 `yaml:"pressure_change_threshold"` // hPa
}

type EmailConfig struct {
	FromEmail    string     `yaml:"from_email"`
	ToEmails     Recipients `yaml:"to_emails"`
	ToEmail      string     `yaml:"to_email"` // legacy single recipient
	SMTPHost     string     `yaml:"smtp_host"`
	SMTPPort     int        `yaml:"smtp_port"`
	SMTPUsername string     `yaml:"smtp_username" env:"EMAIL_USERNAME"`
	SMTPPassword string     `yaml:"smtp_password" env:"EMAIL_PASSWORD"`
}

type NWSConfig struct {
	BaseURL   string        `yaml:"base_url"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string `yaml:"model"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

// Recipients is the canonical list of email recipients. In YAML it may be
// written either as a single string or as a list of strings.
type Recipients []string

// UnmarshalYAML implements yaml.Unmarshaler
func (r *Recipients) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var single string
		if err := value.Decode(&single); err != nil {
			return err
		}
		if single == "" {
			*r = nil
			return nil
		}
		*r = Recipients{single}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*r = Recipients(list)
		return nil
	default:
		return fmt.Errorf("line %d: to_emails must be a string or a list of strings", value.Line)
	}
}

// ConfigError reports a missing, unreadable or invalid configuration file
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error (%s): %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Path returns the configuration file to load, honoring CONFIG_FILE.
func Path() string {
	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = DefaultConfigFile
	}
	return configFile
}

// Load reads the configuration from CONFIG_FILE (default config.yaml).
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom loads .env, if present, then reads the configuration at path.
func LoadFrom(path string) (*Config, error) {
	_ = godotenv.Load()
	return LoadFile(path)
}

// LoadFile reads, defaults and validates the configuration at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ConfigError{Path: path, Err: fmt.Errorf("configuration file not found, please create it with your settings: %w", err)}
		}
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("failed to read config file: %w", err)}
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return cfg, nil
}

// Parse decodes YAML configuration data, applies environment overrides and
// defaults, and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Email.SMTPUsername == "" {
		cfg.Email.SMTPUsername = os.Getenv("EMAIL_USERNAME")
	}
	if cfg.Email.SMTPPassword == "" {
		cfg.Email.SMTPPassword = os.Getenv("EMAIL_PASSWORD")
	}
	if cfg.AI.GeminiAPIKey == "" {
		cfg.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.Email.ToEmails) == 0 && c.Email.ToEmail != "" {
		c.Email.ToEmails = Recipients{c.Email.ToEmail}
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = DefaultSMTPPort
	}
	if c.Sprinkler.HoursToCheck == 0 {
		c.Sprinkler.HoursToCheck = DefaultHoursToCheck
	}
	if c.Sprinkler.PressureChangeThreshold == 0 {
		c.Sprinkler.PressureChangeThreshold = DefaultPressureChangeThreshold
	}
	if c.NWS.BaseURL == "" {
		c.NWS.BaseURL = DefaultNWSBaseURL
	}
	if c.NWS.UserAgent == "" {
		c.NWS.UserAgent = DefaultUserAgent
	}
	if c.NWS.Timeout == 0 {
		c.NWS.Timeout = DefaultNWSTimeout
	}
	if c.AI.Model == "" {
		c.AI.Model = DefaultModel
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Schedule == "" {
		c.Schedule = DefaultSchedule
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = DefaultHealthPort
	}
}

func (c *Config) validate() error {
	if c.Location.Latitude == 0 || c.Location.Longitude == 0 {
		return fmt.Errorf("location coordinates are required (location.latitude and location.longitude)")
	}
	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		return fmt.Errorf("location.latitude %.4f is out of range", c.Location.Latitude)
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		return fmt.Errorf("location.longitude %.4f is out of range", c.Location.Longitude)
	}
	if _, err := c.Location.TimeLocation(); err != nil {
		return err
	}
	if c.Sprinkler.HoursToCheck < 0 {
		return fmt.Errorf("sprinkler.hours_to_check must be positive")
	}
	if c.Sprinkler.Threshold <= 0 {
		return fmt.Errorf("sprinkler.threshold is required and must be positive (inches)")
	}
	if len(c.Email.ToEmails) == 0 {
		return fmt.Errorf("no recipient email configured, use 'to_emails' (list) or 'to_email' (string)")
	}
	if c.Email.FromEmail == "" {
		return fmt.Errorf("email.from_email is required")
	}
	if c.Email.SMTPHost == "" {
		return fmt.Errorf("email.smtp_host is required")
	}
	if c.Email.SMTPUsername == "" {
		return fmt.Errorf("email username is required (set EMAIL_USERNAME or email.smtp_username)")
	}
	if c.Email.SMTPPassword == "" {
		return fmt.Errorf("email password is required (set EMAIL_PASSWORD or email.smtp_password)")
	}
	return nil
}

// TimeLocation returns the timezone used for calendar-day bucketing.
func (l LocationConfig) TimeLocation() (*time.Location, error) {
	if l.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid location.timezone %q: %w", l.Timezone, err)
	}
	return loc, nil
}

// Window returns the recent precipitation window.
func (s SprinklerConfig) Window() time.Duration {
	return time.Duration(s.HoursToCheck) * time.Hour
}

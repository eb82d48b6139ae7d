package config

import (
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultTelemetryURL      = "ws://127.0.0.1:20777/telemetry"
	defaultWebserverAddress  = ":5000"
	defaultRefreshInterval   = 200 * time.Millisecond
	defaultNumAdjacentCars   = 2
	defaultMaxWeatherSamples = 4
	defaultLogFile           = "png.log"
	defaultSettingsDB        = "./telemetry-settings.db"
	defaultReconnectDelay    = 2 * time.Second
)

type Config struct {
	TelemetryURL      string
	WebserverAddress  string
	RefreshInterval   time.Duration
	NumAdjacentCars   int
	MaxWeatherSamples int
	LogFile           string
	LogLevel          slog.Level
	SettingsDB        string
	ReconnectDelay    time.Duration
}

// Load reads the configuration from the environment. Pass os.Getenv.
func Load(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		TelemetryURL:     getenv("TELEMETRY_URL"),
		WebserverAddress: getenv("WEBSERVER_ADDRESS"),
		LogFile:          getenv("LOG_FILE"),
		SettingsDB:       getenv("SETTINGS_DB"),
	}

	var err error
	if cfg.RefreshInterval, err = millisecondsVar(getenv, "REFRESH_INTERVAL_MS"); err != nil {
		return nil, err
	}
	if cfg.ReconnectDelay, err = millisecondsVar(getenv, "RECONNECT_DELAY_MS"); err != nil {
		return nil, err
	}
	if cfg.NumAdjacentCars, err = intVar(getenv, "NUM_ADJACENT_CARS", defaultNumAdjacentCars); err != nil {
		return nil, err
	}
	if cfg.MaxWeatherSamples, err = intVar(getenv, "MAX_WEATHER_SAMPLES", defaultMaxWeatherSamples); err != nil {
		return nil, err
	}
	if level := getenv("LOG_LEVEL"); level != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
			return nil, errors.Wrapf(err, "LOG_LEVEL %q", level)
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func intVar(getenv func(string) string, name string, fallback int) (int, error) {
	v := strings.TrimSpace(getenv(name))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "%s must be an integer", name)
	}
	return n, nil
}

func millisecondsVar(getenv func(string) string, name string) (time.Duration, error) {
	n, err := intVar(getenv, name, 0)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Millisecond, nil
}

func (c *Config) applyDefaults() {
	if c.TelemetryURL == "" {
		c.TelemetryURL = defaultTelemetryURL
	}
	if c.WebserverAddress == "" {
		c.WebserverAddress = defaultWebserverAddress
	}
	if c.RefreshInterval == 0 {
		c.RefreshInterval = defaultRefreshInterval
	}
	if c.LogFile == "" {
		c.LogFile = defaultLogFile
	}
	if c.SettingsDB == "" {
		c.SettingsDB = defaultSettingsDB
	}
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = defaultReconnectDelay
	}
}

func (c *Config) validate() error {
	u, err := url.Parse(c.TelemetryURL)
	if err != nil {
		return errors.Wrap(err, "TELEMETRY_URL")
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return errors.Errorf("TELEMETRY_URL must use ws or wss, got %q", u.Scheme)
	}
	if c.RefreshInterval < 0 {
		return errors.New("REFRESH_INTERVAL_MS must be positive")
	}
	if c.ReconnectDelay < 0 {
		return errors.New("RECONNECT_DELAY_MS must be positive")
	}
	if c.NumAdjacentCars < 0 {
		return errors.New("NUM_ADJACENT_CARS must not be negative")
	}
	if c.MaxWeatherSamples < 0 {
		return errors.New("MAX_WEATHER_SAMPLES must not be negative")
	}
	return nil
}

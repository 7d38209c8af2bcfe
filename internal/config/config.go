package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	EventsURL       string        `toml:"events_url"`
	TriggerURL      string        `toml:"trigger_url"`
	Action          string        `toml:"action"`
	RetryInterval   time.Duration `toml:"retry_interval"`
	TriggerTimeout  time.Duration `toml:"trigger_timeout"`
	MaxFrameBytes   int           `toml:"max_frame_bytes"`
	LogCapacityHint int           `toml:"log_capacity_hint"`
	LogFile         string        `toml:"log_file"`
	LogLevel        string        `toml:"log_level"`
	Server          Server        `toml:"server"`
}

// Server holds settings for the bundled push server.
type Server struct {
	Addr              string        `toml:"addr"`
	HeartbeatInterval time.Duration `toml:"heartbeat_interval"`
	ClientBuffer      int           `toml:"client_buffer"`
}

func Default() Config {
	return Config{
		EventsURL:       "http://localhost:8080/events",
		TriggerURL:      "http://localhost:8080/trigger",
		Action:          "ping",
		RetryInterval:   3 * time.Second,
		TriggerTimeout:  10 * time.Second,
		MaxFrameBytes:   64 << 10,
		LogCapacityHint: 256,
		LogFile:         "pulse.log",
		LogLevel:        "info",
		Server: Server{
			Addr:              ":8080",
			HeartbeatInterval: 10 * time.Second,
			ClientBuffer:      10,
		},
	}
}

// Load starts from Default, overlays the TOML file at path when path is not
// empty, then applies PULSE_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("config: no config file at %s", path)
			}
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.EventsURL = envOrDefault("PULSE_EVENTS_URL", cfg.EventsURL)
	cfg.TriggerURL = envOrDefault("PULSE_TRIGGER_URL", cfg.TriggerURL)
	cfg.LogFile = envOrDefault("PULSE_LOG_FILE", cfg.LogFile)
	cfg.Server.Addr = envOrDefault("PULSE_ADDR", cfg.Server.Addr)
}

func (c Config) Validate() error {
	if err := validateHTTPURL("events_url", c.EventsURL); err != nil {
		return err
	}
	if err := validateHTTPURL("trigger_url", c.TriggerURL); err != nil {
		return err
	}
	if c.Action == "" {
		return errors.New("config: action must not be empty")
	}
	if c.RetryInterval <= 0 {
		return fmt.Errorf("config: retry_interval must be positive, got %s", c.RetryInterval)
	}
	if c.TriggerTimeout <= 0 {
		return fmt.Errorf("config: trigger_timeout must be positive, got %s", c.TriggerTimeout)
	}
	if c.MaxFrameBytes <= 0 {
		return fmt.Errorf("config: max_frame_bytes must be positive, got %d", c.MaxFrameBytes)
	}
	if c.Server.HeartbeatInterval <= 0 {
		return fmt.Errorf("config: server.heartbeat_interval must be positive, got %s", c.Server.HeartbeatInterval)
	}
	if c.Server.ClientBuffer <= 0 {
		return fmt.Errorf("config: server.client_buffer must be positive, got %d", c.Server.ClientBuffer)
	}
	return nil
}

func validateHTTPURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("config: %s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("config: %s must be an http or https URL, got %q", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("config: %s is missing a host", field)
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

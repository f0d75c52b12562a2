// Package config loads the host tool configuration.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"priamsmart/host/serial"
)

// WaitReady is the policy for bringing the interface to Ready
type WaitReady struct {
	PauseMS   uint32 `json:"pause_ms"`
	MaxTries  uint32 `json:"max_tries"`
	TimeoutMS uint32 `json:"timeout_ms"`
}

// Config is the host tool configuration
type Config struct {
	Device       string `json:"device"`
	Baud         int    `json:"baud"`
	ReadTimeout  int    `json:"read_timeout_ms"`
	AckTimeout   int    `json:"ack_timeout_ms"`
	ReplyTimeout int    `json:"response_timeout_ms"`

	// CommandTimeout bounds commands the firmware runs before acknowledging,
	// such as spin-up-and-wait
	CommandTimeout int `json:"command_timeout_ms"`

	IdentifyChunk uint8     `json:"identify_chunk"`
	WaitReady     WaitReady `json:"wait_ready"`
	LogLevel      string    `json:"log_level"`
}

// LoadConfig parses a JSON configuration and fills in defaults
func LoadConfig(jsonData []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadFile reads a configuration file. An empty path returns the defaults.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := LoadConfig(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Device == "" {
		cfg.Device = "/dev/ttyACM0"
	}
	if cfg.Baud == 0 {
		cfg.Baud = 250000
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 100
	}
	if cfg.AckTimeout == 0 {
		cfg.AckTimeout = 2000
	}
	if cfg.ReplyTimeout == 0 {
		cfg.ReplyTimeout = 1000
	}
	if cfg.CommandTimeout == 0 {
		cfg.CommandTimeout = 60000
	}
	if cfg.IdentifyChunk == 0 {
		cfg.IdentifyChunk = 40
	}
	if cfg.WaitReady.PauseMS == 0 {
		cfg.WaitReady.PauseMS = 100
	}
	if cfg.WaitReady.MaxTries == 0 {
		cfg.WaitReady.MaxTries = 50
	}
	if cfg.WaitReady.TimeoutMS == 0 {
		cfg.WaitReady.TimeoutMS = 30000
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
}

// Serial returns the serial port settings
func (c *Config) Serial() *serial.Config {
	return &serial.Config{
		Device:      c.Device,
		Baud:        c.Baud,
		ReadTimeout: time.Duration(c.ReadTimeout) * time.Millisecond,
	}
}

func (c *Config) AckTimeoutDuration() time.Duration {
	return time.Duration(c.AckTimeout) * time.Millisecond
}

func (c *Config) ResponseTimeoutDuration() time.Duration {
	return time.Duration(c.ReplyTimeout) * time.Millisecond
}

func (c *Config) CommandTimeoutDuration() time.Duration {
	return time.Duration(c.CommandTimeout) * time.Millisecond
}

// Level returns the slog level named by LogLevel, defaulting to warn
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

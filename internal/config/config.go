// Package config manages landrop configuration using koanf/v2.
//
// Layering, lowest priority first: built-in defaults, YAML file,
// LANDROP_-prefixed environment variables, CLI flag overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds the complete landrop configuration.
type Config struct {
	// Alias is the display name announced to peers.
	Alias string `koanf:"alias"`
	// Port serves both the UDP discovery socket and the TLS listener.
	Port int `koanf:"port"`

	Device    DeviceConfig    `koanf:"device"`
	Receive   ReceiveConfig   `koanf:"receive"`
	Multicast MulticastConfig `koanf:"multicast"`
	Log       LogConfig       `koanf:"log"`
}

// DeviceConfig describes the identity announced to peers.
type DeviceConfig struct {
	// Type is free-form, e.g. "desktop" or "mobile".
	Type string `koanf:"type"`
	// Model is optional, e.g. the OS name.
	Model string `koanf:"model"`
}

// ReceiveConfig holds the receive-side parameters.
type ReceiveConfig struct {
	// Dir is where received files land.
	Dir string `koanf:"dir"`
}

// MulticastConfig holds the discovery engine parameters.
type MulticastConfig struct {
	// Group is the IPv4 multicast group address.
	Group string `koanf:"group"`
	// Interval is the self-announcement cadence.
	Interval time.Duration `koanf:"interval"`
	// Repeat is the announcement burst size.
	Repeat int `koanf:"repeat"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// Overrides carries CLI flag values applied on top of everything else.
// Zero values mean "not set".
type Overrides struct {
	Alias          string
	Port           int
	DestinationDir string
	LogLevel       string
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	alias, err := os.Hostname()
	if err != nil || alias == "" {
		alias = "landrop"
	}
	return &Config{
		Alias: alias,
		Port:  53317,
		Device: DeviceConfig{
			Type:  "desktop",
			Model: runtime.GOOS,
		},
		Receive: ReceiveConfig{
			Dir: "./test_files",
		},
		Multicast: MulticastConfig{
			Group:    "224.0.0.167",
			Interval: 5 * time.Second,
			Repeat:   2,
		},
		Log: LogConfig{
			Level:  "error",
			Format: "text",
		},
	}
}

// envPrefix is the environment variable prefix for landrop configuration.
// Variables are named LANDROP_<section>_<key>, e.g., LANDROP_LOG_LEVEL.
const envPrefix = "LANDROP_"

// Load reads configuration from an optional YAML file at path, overlays
// environment variables and flag overrides on top of DefaultConfig().
// An empty path skips the file layer; a missing file at an explicit path
// is an error.
func Load(path string, overrides Overrides) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k, DefaultConfig()); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
	}

	// LANDROP_MULTICAST_GROUP -> multicast.group, LANDROP_ALIAS -> alias.
	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyOverrides(cfg, overrides)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKeyMapper transforms LANDROP_LOG_LEVEL -> log.level.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", ".")
}

// loadDefaults seeds koanf with the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"alias":              defaults.Alias,
		"device.type":        defaults.Device.Type,
		"device.model":       defaults.Device.Model,
		"port":               defaults.Port,
		"receive.dir":        defaults.Receive.Dir,
		"multicast.group":    defaults.Multicast.Group,
		"multicast.interval": defaults.Multicast.Interval.String(),
		"multicast.repeat":   defaults.Multicast.Repeat,
		"log.level":          defaults.Log.Level,
		"log.format":         defaults.Log.Format,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}
	return nil
}

func applyOverrides(cfg *Config, o Overrides) {
	if o.Alias != "" {
		cfg.Alias = o.Alias
	}
	if o.Port != 0 {
		cfg.Port = o.Port
	}
	if o.DestinationDir != "" {
		cfg.Receive.Dir = o.DestinationDir
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
}

// Validation errors.
var (
	ErrEmptyAlias       = errors.New("alias must not be empty")
	ErrInvalidPort      = errors.New("port must be between 1 and 65535")
	ErrInvalidInterval  = errors.New("multicast.interval must be > 0")
	ErrInvalidRepeat    = errors.New("multicast.repeat must be >= 1")
	ErrInvalidLogLevel  = errors.New(`log.level must be one of "debug", "info", "warn", "error"`)
	ErrInvalidLogFormat = errors.New(`log.format must be "json" or "text"`)
)

// Validate checks the configuration invariants.
func Validate(cfg *Config) error {
	if cfg.Alias == "" {
		return ErrEmptyAlias
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return ErrInvalidPort
	}
	if cfg.Multicast.Interval <= 0 {
		return ErrInvalidInterval
	}
	if cfg.Multicast.Repeat < 1 {
		return ErrInvalidRepeat
	}
	if _, err := cfg.Log.SlogLevel(); err != nil {
		return err
	}
	switch cfg.Log.Format {
	case "json", "text":
	default:
		return ErrInvalidLogFormat
	}
	return nil
}

// SlogLevel maps the configured level string onto slog.Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch l.Level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "":
		return slog.LevelError, nil
	default:
		return slog.LevelError, ErrInvalidLogLevel
	}
}

// Package config loads soundwave configuration.
//
// Configuration is read from os.UserConfigDir()/soundwave/config.yaml:
//
//	~/Library/Application Support/soundwave/config.yaml   (macOS)
//	~/.config/soundwave/config.yaml                       (Linux)
//
// A missing file yields the defaults. Environment variables override file
// values; engine settings saved through the HTTP API override both at
// startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/goccy/go-yaml"

	"github.com/ayusman/soundwave/internal/gesture"
)

const (
	appDir     = "soundwave"
	configFile = "config.yaml"
	dbFile     = "soundwave.db"
)

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("invalid config")

// Config is the full application configuration.
type Config struct {
	Addr      string `yaml:"addr"`
	CameraID  int    `yaml:"camera_id"`
	DBPath    string `yaml:"db_path"`
	PluginDir string `yaml:"plugin_dir"`
	StaticDir string `yaml:"static_dir"`
	LogLevel  string `yaml:"log_level"`
	Tray      bool   `yaml:"tray"`

	// MotionThreshold is the percentage of changed pixels that switches the
	// pipeline into active mode.
	MotionThreshold float64 `yaml:"motion_threshold"`

	// RecordPath, when set, appends every tick to a recording file.
	RecordPath string `yaml:"record_path"`

	// Sink selects the audio sink: "plugin" or "memory".
	Sink string `yaml:"sink"`

	Engine gesture.Config `yaml:"engine"`
}

// Default returns the built-in configuration.
func Default() Config {
	dataDir := DataDir()
	return Config{
		Addr:            ":8080",
		CameraID:        0,
		DBPath:          filepath.Join(dataDir, dbFile),
		PluginDir:       filepath.Join(dataDir, "plugins"),
		LogLevel:        "info",
		MotionThreshold: 1.0,
		Sink:            "plugin",
		Engine:          gesture.DefaultConfig(),
	}
}

// DataDir returns ~/.soundwave, or a relative directory when the home
// directory cannot be determined.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".soundwave"
	}
	return filepath.Join(home, ".soundwave")
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, configFile), nil
}

// Load reads the config at path, or the default location when path is
// empty, then applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// defaults only
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides fields from SOUNDWAVE_* environment variables.
func (c *Config) applyEnv() error {
	if v := os.Getenv("SOUNDWAVE_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("SOUNDWAVE_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("SOUNDWAVE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("SOUNDWAVE_CAMERA"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: SOUNDWAVE_CAMERA=%q: %v", ErrInvalid, v, err)
		}
		c.CameraID = id
	}
	if v := os.Getenv("SOUNDWAVE_MODE"); v != "" {
		m, err := gesture.ParseMode(v)
		if err != nil {
			return fmt.Errorf("%w: SOUNDWAVE_MODE: %v", ErrInvalid, err)
		}
		c.Engine.Mode = m
	}
	return nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr is required", ErrInvalid)
	}
	if c.DBPath == "" {
		return fmt.Errorf("%w: db_path is required", ErrInvalid)
	}
	if c.MotionThreshold < 0 {
		return fmt.Errorf("%w: motion_threshold must not be negative", ErrInvalid)
	}
	switch c.Sink {
	case "plugin", "memory":
	default:
		return fmt.Errorf("%w: unknown sink %q", ErrInvalid, c.Sink)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Save writes c as YAML to path, creating parent directories.
func Save(path string, c Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

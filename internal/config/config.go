package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Capture CaptureConfig `yaml:"capture"`
	Camera  CameraConfig  `yaml:"camera"`
	Edit    EditConfig    `yaml:"edit"`
	Export  ExportConfig  `yaml:"export"`
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	Host           string        `yaml:"host"`
	AuthToken      string        `yaml:"auth_token"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	SnapshotEvery  time.Duration `yaml:"snapshot_interval"`
	Throttle       time.Duration `yaml:"broadcast_throttle"`
	// MaxConnections caps WebSocket clients; zero means no limit.
	MaxConnections int `yaml:"max_connections"`
}

type CaptureConfig struct {
	MaxPhotos   int           `yaml:"max_photos"`
	Countdown   int           `yaml:"countdown"`
	Tick        time.Duration `yaml:"tick"`
	Pause       time.Duration `yaml:"pause"`
	EditorDelay time.Duration `yaml:"editor_delay"`
	Filter      string        `yaml:"filter"`
}

type CameraConfig struct {
	// Device is "synthetic", "dir" or "denied".
	Device string `yaml:"device"`
	Dir    string `yaml:"dir"`
	Facing string `yaml:"facing"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	FPS    int    `yaml:"fps"`
}

type EditConfig struct {
	Template     string `yaml:"template"`
	Background   string `yaml:"background"`
	Brush        string `yaml:"brush"`
	BrushSize    int    `yaml:"brush_size"`
	Color        string `yaml:"color"`
	HistoryLimit int    `yaml:"history_limit"`
	// Width is the strip width in base units.
	Width   int     `yaml:"width"`
	Density float64 `yaml:"density"`
}

type ExportConfig struct {
	Dir   string `yaml:"dir"`
	Scale int    `yaml:"scale"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			Host:           "127.0.0.1",
			SnapshotEvery:  5 * time.Second,
			Throttle:       100 * time.Millisecond,
			MaxConnections: 32,
		},
		Capture: CaptureConfig{
			MaxPhotos:   4,
			Countdown:   3,
			Tick:        time.Second,
			Pause:       2 * time.Second,
			EditorDelay: 2500 * time.Millisecond,
			Filter:      "none",
		},
		Camera: CameraConfig{
			Device: "synthetic",
			Facing: "user",
			Width:  640,
			Height: 480,
			FPS:    12,
		},
		Edit: EditConfig{
			Template:   "classic-strip",
			Background: "white",
			Brush:      "regular",
			BrushSize:  5,
			Color:      "#000000",
			Width:      250,
			Density:    1,
		},
		Export: ExportConfig{
			Dir:   ".",
			Scale: 4,
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config { return defaultConfig() }

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but returns the defaults when path is
// empty or the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return defaultConfig(), nil
	}
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaultConfig(), nil
	}
	return cfg, err
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxConnections < 0 {
		errs = append(errs, fmt.Errorf("server.max_connections must not be negative"))
	}
	if c.Capture.MaxPhotos < 1 {
		errs = append(errs, fmt.Errorf("capture.max_photos must be at least 1"))
	}
	if c.Capture.Countdown < 1 {
		errs = append(errs, fmt.Errorf("capture.countdown must be at least 1"))
	}
	if c.Capture.Tick <= 0 || c.Capture.Pause < 0 || c.Capture.EditorDelay < 0 {
		errs = append(errs, fmt.Errorf("capture timings must be positive"))
	}
	switch c.Camera.Device {
	case "synthetic", "denied":
	case "dir":
		if c.Camera.Dir == "" {
			errs = append(errs, fmt.Errorf("camera.dir is required for the dir device"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown camera.device %q", c.Camera.Device))
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		errs = append(errs, fmt.Errorf("camera size must be positive"))
	}
	if c.Edit.BrushSize < 1 || c.Edit.BrushSize > 20 {
		errs = append(errs, fmt.Errorf("edit.brush_size %d outside 1-20", c.Edit.BrushSize))
	}
	if c.Edit.HistoryLimit < 0 {
		errs = append(errs, fmt.Errorf("edit.history_limit must not be negative"))
	}
	if c.Edit.Width <= 0 || c.Edit.Density <= 0 {
		errs = append(errs, fmt.Errorf("edit.width and edit.density must be positive"))
	}
	if c.Export.Scale < 1 || c.Export.Scale > 8 {
		errs = append(errs, fmt.Errorf("export.scale %d outside 1-8", c.Export.Scale))
	}
	return errors.Join(errs...)
}

// Addr returns the kiosk server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

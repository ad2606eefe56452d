// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/user/qrmobilevision/pkg/adapters/zxing"
	"github.com/user/qrmobilevision/pkg/orchestrator"
	"github.com/user/qrmobilevision/pkg/ports"
	"github.com/user/qrmobilevision/pkg/qrreader"
	"github.com/user/qrmobilevision/pkg/vision"
)

// ErrInvalid is wrapped by every Validate error.
var ErrInvalid = errors.New("invalid configuration")

// Camera sources.
const (
	SourceDir    = "dir"
	SourceWebcam = "webcam"
)

// Config represents the full configuration for a scan.
type Config struct {
	// Preset (responsive, balanced, battery)
	Preset string `yaml:"preset"`

	// Scanning. Unset fields keep the preset's value.
	MinIntervalMs *int     `yaml:"min_interval_ms"`
	TargetWidth   *int     `yaml:"target_width"`
	TargetHeight  *int     `yaml:"target_height"`
	Formats       []string `yaml:"formats"`
	TryHarder     *bool    `yaml:"try_harder"`
	DurationSec   int      `yaml:"duration_sec"`

	// Camera
	Camera CameraConfig `yaml:"camera"`

	// Debug
	Debug       bool   `yaml:"debug"`
	DebugDir    string `yaml:"debug_dir"`
	DebugFormat string `yaml:"debug_format"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Telemetry
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// CameraConfig selects and describes the frame source.
type CameraConfig struct {
	Source      string  `yaml:"source"`      // dir or webcam
	Dir         string  `yaml:"dir"`         // image directory for the dir source
	FPS         float64 `yaml:"fps"`         // replay rate for the dir source
	Loop        bool    `yaml:"loop"`        // replay the directory forever
	DeviceID    int     `yaml:"device_id"`   // capture device for the webcam source
	Facing      string  `yaml:"facing"`      // back or front
	Orientation int     `yaml:"orientation"` // sensor mounting in degrees
	Rotation    int     `yaml:"rotation"`    // display rotation in degrees
}

// TelemetryConfig configures OTLP metrics export.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	IntervalMs  int    `yaml:"interval_ms"`
	ServiceName string `yaml:"service_name"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Preset: string(qrreader.PresetBalanced),

		// Camera
		Camera: CameraConfig{
			Source:      SourceDir,
			Dir:         "./images",
			FPS:         15,
			Facing:      "back",
			Orientation: 90,
		},

		// Debug
		DebugDir:    "./debug",
		DebugFormat: "png",

		// Logging
		LogLevel: "info",

		// Telemetry
		Telemetry: TelemetryConfig{
			Endpoint:    "localhost:4317",
			Insecure:    true,
			IntervalMs:  10000,
			ServiceName: "qrscan",
		},
	}
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate reports every problem with the configuration.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalid}, args...)...))
	}

	if _, err := qrreader.ParsePreset(c.Preset); err != nil {
		add("%s", err)
	}
	if c.MinIntervalMs != nil && *c.MinIntervalMs < 0 {
		add("min_interval_ms must not be negative")
	}
	if c.TargetWidth != nil && *c.TargetWidth <= 0 {
		add("target_width must be positive")
	}
	if c.TargetHeight != nil && *c.TargetHeight <= 0 {
		add("target_height must be positive")
	}
	for _, f := range c.Formats {
		if _, err := zxing.ParseFormat(f); err != nil {
			add("%s", err)
		}
	}
	if c.DurationSec < 0 {
		add("duration_sec must not be negative")
	}

	switch c.Camera.Source {
	case SourceDir:
		if c.Camera.Dir == "" {
			add("camera.dir is required for the dir source")
		}
	case SourceWebcam:
	default:
		add("camera.source must be %s or %s, got %q", SourceDir, SourceWebcam, c.Camera.Source)
	}
	if c.Camera.FPS < 0 {
		add("camera.fps must not be negative")
	}
	if _, err := ParseFacing(c.Camera.Facing); err != nil {
		add("%s", err)
	}
	if _, ok := vision.RotationFromDegrees(c.Camera.Orientation); !ok {
		add("camera.orientation must be 0, 90, 180 or 270, got %d", c.Camera.Orientation)
	}
	if _, ok := vision.RotationFromDegrees(c.Camera.Rotation); !ok {
		add("camera.rotation must be 0, 90, 180 or 270, got %d", c.Camera.Rotation)
	}

	if _, err := ParseImageFormat(c.DebugFormat); err != nil {
		add("%s", err)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		add("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}

	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		add("telemetry.endpoint is required when telemetry is enabled")
	}
	if c.Telemetry.IntervalMs < 0 {
		add("telemetry.interval_ms must not be negative")
	}

	return errors.Join(errs...)
}

// ParseFacing parses "back" or "front".
func ParseFacing(s string) (ports.Facing, error) {
	switch strings.ToLower(s) {
	case "", "back":
		return ports.FacingBack, nil
	case "front":
		return ports.FacingFront, nil
	default:
		return 0, fmt.Errorf("camera.facing must be back or front, got %q", s)
	}
}

// ParseImageFormat parses a debug image format name.
func ParseImageFormat(s string) (ports.ImageFormat, error) {
	switch strings.ToLower(s) {
	case "", "png":
		return ports.FormatPNG, nil
	case "jpg", "jpeg":
		return ports.FormatJPEG, nil
	default:
		return 0, fmt.Errorf("debug_format must be png or jpeg, got %q", s)
	}
}

// DisplayRotation returns the configured display rotation. Invalid values
// fall back to upright.
func (c Config) DisplayRotation() vision.Rotation {
	r, ok := vision.RotationFromDegrees(c.Camera.Rotation)
	if !ok {
		return vision.R0
	}
	return r
}

// ToReaderConfig applies the scanning fields over the preset.
func (c Config) ToReaderConfig() qrreader.Config {
	preset, err := qrreader.ParsePreset(c.Preset)
	if err != nil {
		preset = qrreader.PresetBalanced
	}
	b := qrreader.NewPresetConfigBuilder(preset).WithDurationSec(c.DurationSec)

	settings := qrreader.GetPresetSettings(preset)
	width, height := settings.TargetWidth, settings.TargetHeight
	if c.TargetWidth != nil {
		width = *c.TargetWidth
	}
	if c.TargetHeight != nil {
		height = *c.TargetHeight
	}
	b.WithTargetSize(width, height)

	if c.MinIntervalMs != nil {
		b.WithMinIntervalMs(*c.MinIntervalMs)
	}
	if len(c.Formats) > 0 {
		b.WithFormats(c.Formats...)
	}
	if c.TryHarder != nil {
		b.WithTryHarder(*c.TryHarder)
	}
	return b.Build()
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	return c.ToReaderConfig().ToOrchestratorConfig()
}

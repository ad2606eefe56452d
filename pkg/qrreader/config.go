// Package qrreader provides a high-level API for configuring barcode scans
// from a camera preview.
package qrreader

import (
	"fmt"
	"strings"
	"time"

	"github.com/user/qrmobilevision/pkg/adapters/zxing"
	"github.com/user/qrmobilevision/pkg/orchestrator"
	"github.com/user/qrmobilevision/pkg/vision"
)

// Preset names a pacing preset.
type Preset string

const (
	PresetResponsive Preset = "responsive"
	PresetBalanced   Preset = "balanced"
	PresetBattery    Preset = "battery"
)

// ParsePreset parses a preset name. An empty name means balanced.
func ParsePreset(s string) (Preset, error) {
	switch p := Preset(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PresetBalanced, nil
	case PresetResponsive, PresetBalanced, PresetBattery:
		return p, nil
	default:
		return "", fmt.Errorf("unknown preset %q (responsive, balanced, battery)", s)
	}
}

// PresetSettings contains the pacing parameters of a preset.
type PresetSettings struct {
	MinIntervalMs int  // minimum time between admitted frames
	TargetWidth   int  // desired preview width in display coordinates
	TargetHeight  int  // desired preview height in display coordinates
	TryHarder     bool // slower, more thorough recognition
}

// GetPresetSettings returns the settings for the given preset.
func GetPresetSettings(preset Preset) PresetSettings {
	switch preset {
	case PresetResponsive:
		return PresetSettings{
			MinIntervalMs: 0,
			TargetWidth:   1280,
			TargetHeight:  720,
		}
	case PresetBattery:
		return PresetSettings{
			MinIntervalMs: 500,
			TargetWidth:   640,
			TargetHeight:  480,
		}
	default: // balanced
		return PresetSettings{
			MinIntervalMs: 150,
			TargetWidth:   1280,
			TargetHeight:  720,
		}
	}
}

// minTargetSide is the smallest target dimension Build accepts.
const minTargetSide = 64

// Config represents the configuration of a scan.
type Config struct {
	Preset Preset

	// Pacing
	MinIntervalMs int // 0 admits every frame the recognizer can take

	// Preview
	TargetWidth  int
	TargetHeight int

	// Recognition
	Formats   []string // barcode formats, e.g. "qr_code", "ean_13"
	TryHarder bool

	// Run
	DurationSec int // 0 runs until interrupted
}

// ConfigBuilder provides a fluent interface for building Config.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder creates a new ConfigBuilder with balanced preset defaults.
func NewConfigBuilder() *ConfigBuilder {
	return NewPresetConfigBuilder(PresetBalanced)
}

// NewPresetConfigBuilder creates a new ConfigBuilder with the given preset's
// defaults.
func NewPresetConfigBuilder(preset Preset) *ConfigBuilder {
	b := &ConfigBuilder{
		config: Config{
			Formats: []string{string(zxing.FormatQRCode)},
		},
	}
	return b.WithPreset(preset)
}

// Build returns the final Config, applying constraints.
func (b *ConfigBuilder) Build() Config {
	cfg := b.config
	cfg.Formats = append([]string(nil), cfg.Formats...)

	if cfg.MinIntervalMs < 0 {
		cfg.MinIntervalMs = 0
	}
	if cfg.TargetWidth < minTargetSide {
		cfg.TargetWidth = minTargetSide
	}
	if cfg.TargetHeight < minTargetSide {
		cfg.TargetHeight = minTargetSide
	}
	if len(cfg.Formats) == 0 {
		cfg.Formats = []string{string(zxing.FormatQRCode)}
	}
	if cfg.DurationSec < 0 {
		cfg.DurationSec = 0
	}

	return cfg
}

// WithPreset applies a preset's pacing, target size and recognition
// effort.
func (b *ConfigBuilder) WithPreset(preset Preset) *ConfigBuilder {
	settings := GetPresetSettings(preset)
	if preset == "" {
		preset = PresetBalanced
	}
	b.config.Preset = preset
	b.config.MinIntervalMs = settings.MinIntervalMs
	b.config.TargetWidth = settings.TargetWidth
	b.config.TargetHeight = settings.TargetHeight
	b.config.TryHarder = settings.TryHarder
	return b
}

// WithMinIntervalMs sets the minimum time between admitted frames.
// Negative values are forced to 0.
func (b *ConfigBuilder) WithMinIntervalMs(ms int) *ConfigBuilder {
	b.config.MinIntervalMs = ms
	return b
}

// WithTargetSize sets the desired preview size in display coordinates.
// Dimensions below 64 are forced to 64.
func (b *ConfigBuilder) WithTargetSize(width, height int) *ConfigBuilder {
	b.config.TargetWidth = width
	b.config.TargetHeight = height
	return b
}

// WithFormats sets the barcode formats to look for.
func (b *ConfigBuilder) WithFormats(formats ...string) *ConfigBuilder {
	b.config.Formats = append([]string(nil), formats...)
	return b
}

// WithTryHarder enables slower, more thorough recognition.
func (b *ConfigBuilder) WithTryHarder(tryHarder bool) *ConfigBuilder {
	b.config.TryHarder = tryHarder
	return b
}

// WithDurationSec bounds the scan. Use 0 to run until interrupted.
func (b *ConfigBuilder) WithDurationSec(sec int) *ConfigBuilder {
	b.config.DurationSec = sec
	return b
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	cfg := orchestrator.DefaultConfig()
	cfg.MinInterval = time.Duration(c.MinIntervalMs) * time.Millisecond
	cfg.TargetSize = vision.Size{Width: c.TargetWidth, Height: c.TargetHeight}
	cfg.Duration = time.Duration(c.DurationSec) * time.Second
	return cfg
}

// RecognizerOptions converts the recognition settings to zxing.Options.
func (c Config) RecognizerOptions() (zxing.Options, error) {
	opts := zxing.Options{TryHarder: c.TryHarder}
	for _, name := range c.Formats {
		f, err := zxing.ParseFormat(name)
		if err != nil {
			return zxing.Options{}, err
		}
		opts.Formats = append(opts.Formats, f)
	}
	return opts, nil
}

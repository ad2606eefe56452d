package main

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/urfave/cli/v2"

	"github.com/user/qrmobilevision/pkg/config"
)

// writeQRImage renders text as a QR code centered on a 640x480 canvas.
func writeQRImage(t *testing.T, dir, name, text string) {
	t.Helper()
	matrix, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, 300, 300, nil)
	if err != nil {
		t.Fatalf("encode QR: %v", err)
	}

	img := image.NewGray(image.Rect(0, 0, 640, 480))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	ox, oy := (640-matrix.GetWidth())/2, (480-matrix.GetHeight())/2
	for y := 0; y < matrix.GetHeight(); y++ {
		for x := 0; x < matrix.GetWidth(); x++ {
			if matrix.Get(x, y) {
				img.Pix[(oy+y)*img.Stride+ox+x] = 0
			}
		}
	}

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

// captureConfig runs the scan flags through loadConfig without scanning.
func captureConfig(t *testing.T, args ...string) (config.Config, error) {
	t.Helper()
	var (
		cfg     config.Config
		loadErr error
	)
	app := &cli.App{
		Name: "qrscan",
		Commands: []*cli.Command{{
			Name:  "scan",
			Flags: scanCommand(io.Discard).Flags,
			Action: func(c *cli.Context) error {
				cfg, loadErr = loadConfig(c)
				return nil
			},
		}},
	}
	if err := app.Run(append([]string{"qrscan", "scan"}, args...)); err != nil {
		t.Fatalf("app.Run failed: %v", err)
	}
	return cfg, loadErr
}

func TestScan_DecodesDirectory(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping end-to-end scan in short mode")
	}

	imagesDir := t.TempDir()
	writeQRImage(t, imagesDir, "frame.png", "HELLO-QRSCAN")
	summaryPath := filepath.Join(t.TempDir(), "summary.md")

	var out bytes.Buffer
	err := newApp(&out).Run([]string{
		"qrscan", "scan",
		"--dir", imagesDir,
		"--fps", "50",
		"--orientation", "0",
		"--target-width", "600",
		"--target-height", "400",
		"--min-interval", "0",
		"--summary", summaryPath,
		"--quiet",
	})
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if got := strings.TrimSpace(out.String()); got != "HELLO-QRSCAN" {
		t.Errorf("expected the payload on stdout, got %q", got)
	}

	summary, err := os.ReadFile(summaryPath)
	if err != nil {
		t.Fatalf("summary not written: %v", err)
	}
	for _, want := range []string{"`HELLO-QRSCAN`", "640x480", "dir"} {
		if !strings.Contains(string(summary), want) {
			t.Errorf("expected summary to contain %q", want)
		}
	}
}

func TestScan_MissingDirectory(t *testing.T) {
	err := newApp(io.Discard).Run([]string{
		"qrscan", "scan",
		"--dir", filepath.Join(t.TempDir(), "missing"),
		"--quiet",
	})
	if err == nil {
		t.Fatal("expected an error for a missing image directory")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := captureConfig(t)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Preset != "balanced" || cfg.Camera.Source != config.SourceDir {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.MinIntervalMs != nil || cfg.TargetWidth != nil || cfg.TryHarder != nil {
		t.Error("unset flags must not override the preset")
	}
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qrscan.yaml")
	yaml := "preset: battery\ncamera:\n  dir: /from/file\n  fps: 5\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := captureConfig(t,
		"--config", path,
		"--min-interval", "0",
		"--format", "qr_code", "--format", "ean_13",
		"--try-harder",
		"--duration", "3s",
		"--fps", "30",
		"--facing", "front",
		"--rotation", "270",
		"--telemetry",
		"--otlp-endpoint", "collector:4317",
	)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Preset != "battery" || cfg.LogLevel != "debug" || cfg.Camera.Dir != "/from/file" {
		t.Errorf("file values lost: %+v", cfg)
	}
	if cfg.MinIntervalMs == nil || *cfg.MinIntervalMs != 0 {
		t.Errorf("expected explicit 0 interval, got %v", cfg.MinIntervalMs)
	}
	if cfg.TryHarder == nil || !*cfg.TryHarder {
		t.Error("expected try-harder")
	}
	if len(cfg.Formats) != 2 || cfg.Formats[1] != "ean_13" {
		t.Errorf("unexpected formats %v", cfg.Formats)
	}
	if cfg.DurationSec != 3 {
		t.Errorf("expected 3s duration, got %d", cfg.DurationSec)
	}
	if cfg.Camera.FPS != 30 || cfg.Camera.Facing != "front" || cfg.Camera.Rotation != 270 {
		t.Errorf("camera flags not applied: %+v", cfg.Camera)
	}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.Endpoint != "collector:4317" {
		t.Errorf("telemetry flags not applied: %+v", cfg.Telemetry)
	}

	oc := cfg.ToOrchestratorConfig()
	if oc.MinInterval != 0 || oc.Duration != 3*time.Second {
		t.Errorf("unexpected orchestrator config %+v", oc)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := captureConfig(t, "--preset", "turbo", "--orientation", "45")
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := captureConfig(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	if err := newApp(&out).Run([]string{"qrscan", "version"}); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out.String(), version) {
		t.Errorf("expected version in output, got %q", out.String())
	}
}

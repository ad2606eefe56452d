// Package main provides the CLI entry point for qrscan.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/user/qrmobilevision/pkg/adapters/dircamera"
	"github.com/user/qrmobilevision/pkg/adapters/filesink"
	"github.com/user/qrmobilevision/pkg/adapters/ggrenderer"
	"github.com/user/qrmobilevision/pkg/adapters/gocvcamera"
	"github.com/user/qrmobilevision/pkg/adapters/logger"
	"github.com/user/qrmobilevision/pkg/adapters/nullsink"
	"github.com/user/qrmobilevision/pkg/adapters/osfilesystem"
	"github.com/user/qrmobilevision/pkg/adapters/otelmetrics"
	"github.com/user/qrmobilevision/pkg/adapters/zxing"
	"github.com/user/qrmobilevision/pkg/config"
	"github.com/user/qrmobilevision/pkg/orchestrator"
	"github.com/user/qrmobilevision/pkg/ports"
	"github.com/user/qrmobilevision/pkg/qrreader"
	"github.com/user/qrmobilevision/pkg/summarizer"
	"github.com/user/qrmobilevision/pkg/telemetry"
	"github.com/user/qrmobilevision/pkg/vision"
)

var version = "dev"

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newApp builds the CLI. Decoded payloads are printed to out.
func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:        "qrscan",
		Usage:       l10n.T("Scan barcodes from a camera preview"),
		Description: l10n.T("qrscan paces camera preview frames into a barcode recognizer and prints every decoded payload."),
		Version:     version,
		Writer:      out,
		Commands: []*cli.Command{
			scanCommand(out),
			versionCommand(out),
		},
	}
}

func versionCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: l10n.T("Show version information"),
		Action: func(c *cli.Context) error {
			fmt.Fprintln(out, l10n.F("qrscan version %s", version))
			return nil
		},
	}
}

func scanCommand(out io.Writer) *cli.Command {
	const (
		catConfig    = "Configuration"
		catScanning  = "Scanning"
		catCamera    = "Camera"
		catOutput    = "Output"
		catDebug     = "Debug"
		catLogging   = "Logging"
		catTelemetry = "Telemetry"
	)

	return &cli.Command{
		Name:        "scan",
		Usage:       l10n.T("Scan a camera preview for barcodes"),
		Description: l10n.T("Open the rear camera, feed its preview to the recognizer and print decoded payloads until interrupted."),
		Flags: []cli.Flag{
			// Configuration
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Category: l10n.T(catConfig), Usage: l10n.T("YAML configuration file")},
			&cli.StringFlag{Name: "preset", Aliases: []string{"p"}, Category: l10n.T(catConfig), Usage: l10n.T("Pacing preset (responsive, balanced, battery)")},

			// Scanning
			&cli.IntFlag{Name: "min-interval", Category: l10n.T(catScanning), Usage: l10n.T("Minimum milliseconds between recognized frames (0 = no limit)")},
			&cli.IntFlag{Name: "target-width", Category: l10n.T(catScanning), Usage: l10n.T("Desired preview width in display coordinates")},
			&cli.IntFlag{Name: "target-height", Category: l10n.T(catScanning), Usage: l10n.T("Desired preview height in display coordinates")},
			&cli.StringSliceFlag{Name: "format", Aliases: []string{"f"}, Category: l10n.T(catScanning), Usage: l10n.T("Barcode format to look for (repeatable)")},
			&cli.BoolFlag{Name: "try-harder", Category: l10n.T(catScanning), Usage: l10n.T("Spend more time per frame to find difficult codes")},
			&cli.DurationFlag{Name: "duration", Category: l10n.T(catScanning), Usage: l10n.T("Stop after this long (0 = until interrupted)")},

			// Camera
			&cli.StringFlag{Name: "source", Category: l10n.T(catCamera), Usage: l10n.T("Frame source (dir, webcam)")},
			&cli.StringFlag{Name: "dir", Category: l10n.T(catCamera), Usage: l10n.T("Directory of images to replay")},
			&cli.Float64Flag{Name: "fps", Category: l10n.T(catCamera), Usage: l10n.T("Replay rate in frames per second")},
			&cli.BoolFlag{Name: "loop", Category: l10n.T(catCamera), Usage: l10n.T("Replay the directory forever")},
			&cli.IntFlag{Name: "device", Category: l10n.T(catCamera), Usage: l10n.T("Webcam device index")},
			&cli.StringFlag{Name: "facing", Category: l10n.T(catCamera), Usage: l10n.T("Reported camera facing (back, front)")},
			&cli.IntFlag{Name: "orientation", Category: l10n.T(catCamera), Usage: l10n.T("Reported sensor orientation in degrees")},
			&cli.IntFlag{Name: "rotation", Category: l10n.T(catCamera), Usage: l10n.T("Display rotation in degrees")},

			// Output
			&cli.StringFlag{Name: "summary", Aliases: []string{"s"}, Category: l10n.T(catOutput), Usage: l10n.T("Output execution summary to file (Markdown format)")},

			// Debug
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Category: l10n.T(catDebug), Usage: l10n.T("Save recognized frames for inspection")},
			&cli.StringFlag{Name: "debug-dir", Category: l10n.T(catDebug), Usage: l10n.T("Directory for debug output")},

			// Logging
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Category: l10n.T(catLogging), Usage: l10n.T("Log level (debug, info, warn, error)")},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Category: l10n.T(catLogging), Usage: l10n.T("Suppress all log output")},

			// Telemetry
			&cli.BoolFlag{Name: "telemetry", Category: l10n.T(catTelemetry), Usage: l10n.T("Export metrics over OTLP")},
			&cli.StringFlag{Name: "otlp-endpoint", Category: l10n.T(catTelemetry), Usage: l10n.T("OTLP gRPC collector address")},
		},
		Action: func(c *cli.Context) error {
			return runScan(c, out)
		},
	}
}

// loadConfig reads the configuration file, if any, and applies the flags
// the user set on top of it.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if c.IsSet("preset") {
		cfg.Preset = c.String("preset")
	}
	if c.IsSet("min-interval") {
		v := c.Int("min-interval")
		cfg.MinIntervalMs = &v
	}
	if c.IsSet("target-width") {
		v := c.Int("target-width")
		cfg.TargetWidth = &v
	}
	if c.IsSet("target-height") {
		v := c.Int("target-height")
		cfg.TargetHeight = &v
	}
	if c.IsSet("format") {
		cfg.Formats = c.StringSlice("format")
	}
	if c.IsSet("try-harder") {
		v := c.Bool("try-harder")
		cfg.TryHarder = &v
	}
	if c.IsSet("duration") {
		cfg.DurationSec = int(c.Duration("duration").Round(time.Second) / time.Second)
	}

	if c.IsSet("source") {
		cfg.Camera.Source = c.String("source")
	}
	if c.IsSet("dir") {
		cfg.Camera.Dir = c.String("dir")
		if !c.IsSet("source") {
			cfg.Camera.Source = config.SourceDir
		}
	}
	if c.IsSet("fps") {
		cfg.Camera.FPS = c.Float64("fps")
	}
	if c.IsSet("loop") {
		cfg.Camera.Loop = c.Bool("loop")
	}
	if c.IsSet("device") {
		cfg.Camera.DeviceID = c.Int("device")
	}
	if c.IsSet("facing") {
		cfg.Camera.Facing = c.String("facing")
	}
	if c.IsSet("orientation") {
		cfg.Camera.Orientation = c.Int("orientation")
	}
	if c.IsSet("rotation") {
		cfg.Camera.Rotation = c.Int("rotation")
	}

	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("telemetry") {
		cfg.Telemetry.Enabled = c.Bool("telemetry")
	}
	if c.IsSet("otlp-endpoint") {
		cfg.Telemetry.Endpoint = c.String("otlp-endpoint")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runScan(c *cli.Context, out io.Writer) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	// Create logger
	var log ports.Logger
	if c.Bool("quiet") {
		log = logger.NewNoop()
	} else {
		log = logger.NewConsole(ports.ParseLogLevel(cfg.LogLevel))
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	// Create adapters
	fs := osfilesystem.New()
	renderer := ggrenderer.New()

	reader := cfg.ToReaderConfig()
	recOpts, err := reader.RecognizerOptions()
	if err != nil {
		return err
	}
	recognizer, err := zxing.New(recOpts, log)
	if err != nil {
		return fmt.Errorf("create recognizer: %w", err)
	}

	driver, err := newDriver(cfg, fs, renderer, log)
	if err != nil {
		return err
	}

	// Create debug sink
	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		format, _ := config.ParseImageFormat(cfg.DebugFormat)
		sink = filesink.New(cfg.DebugDir, fs, renderer, filesink.WithFormat(format))
	} else {
		sink = nullsink.New()
	}

	rotation := cfg.DisplayRotation()
	display := ports.DisplayFunc(func() vision.Rotation { return rotation })

	var host ports.Host = ports.HostFunc(func(text string) {
		fmt.Fprintln(out, text)
	})

	// Telemetry wraps the host and observes the orchestrator
	var meterSetup func(*orchestrator.Orchestrator) error
	if cfg.Telemetry.Enabled {
		mp, shutdown, err := telemetry.Setup(ctx, telemetry.Options{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: version,
			Endpoint:       cfg.Telemetry.Endpoint,
			Insecure:       cfg.Telemetry.Insecure,
			Interval:       time.Duration(cfg.Telemetry.IntervalMs) * time.Millisecond,
		})
		if err != nil {
			return fmt.Errorf("setup telemetry: %w", err)
		}
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			if err := shutdown(sctx); err != nil {
				log.Warn("Failed to flush metrics: %s", err)
			}
		}()

		meter := mp.Meter(otelmetrics.MeterName)
		attrs := []attribute.KeyValue{attribute.String("qrscan.source", cfg.Camera.Source)}
		counted, err := otelmetrics.NewHost(meter, host, attrs...)
		if err != nil {
			return fmt.Errorf("setup telemetry: %w", err)
		}
		host = counted
		meterSetup = func(o *orchestrator.Orchestrator) error {
			_, err := otelmetrics.Register(meter, o, attrs...)
			return err
		}
	}

	// Create orchestrator
	orch := orchestrator.New(driver, display, recognizer, sink, log, orchestrator.WithHost(host))
	if meterSetup != nil {
		if err := meterSetup(orch); err != nil {
			return fmt.Errorf("setup telemetry: %w", err)
		}
	}

	log.Info("Scanning with the %s preset from %s...", reader.Preset, cfg.Camera.Source)

	result, err := orch.Run(ctx, reader.ToOrchestratorConfig())
	if err != nil {
		return err
	}

	log.Info("Decoded %d distinct payloads in %d ms", len(result.Payloads), result.DurationMs)

	// Write summary if requested
	if path := c.String("summary"); path != "" {
		summary := buildSummary(cfg.Camera.Source, reader, result)
		writer := summarizer.NewWriter(
			summarizer.NewMarkdownFormatter(
				summarizer.WithTranslator(l10n.T),
				summarizer.WithVersion(version),
			),
			fs,
		)
		if err := writer.Write(path, summary); err != nil {
			log.Error("Failed to write summary: %s", err)
			return fmt.Errorf("write summary: %w", err)
		}
		log.Info("Summary saved to %s", path)
	}

	return nil
}

// newDriver creates the configured frame source.
func newDriver(cfg config.Config, fs ports.FileSystem, renderer ports.Renderer, log ports.Logger) (ports.CameraDriver, error) {
	facing, err := config.ParseFacing(cfg.Camera.Facing)
	if err != nil {
		return nil, err
	}

	if cfg.Camera.Source == config.SourceWebcam {
		driver, err := gocvcamera.New(gocvcamera.Options{
			DeviceID:    cfg.Camera.DeviceID,
			Facing:      facing,
			Orientation: cfg.Camera.Orientation,
		}, log)
		if err != nil {
			if errors.Is(err, gocvcamera.ErrUnavailable) {
				return nil, err
			}
			return nil, fmt.Errorf("open webcam: %w", err)
		}
		return driver, nil
	}

	ok, err := fs.Exists(cfg.Camera.Dir)
	if err != nil {
		return nil, fmt.Errorf("check image directory: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("image directory %s does not exist", cfg.Camera.Dir)
	}
	return dircamera.New(dircamera.Options{
		Dir:         cfg.Camera.Dir,
		FPS:         cfg.Camera.FPS,
		Facing:      facing,
		Orientation: cfg.Camera.Orientation,
		Loop:        cfg.Camera.Loop,
	}, fs, renderer, log), nil
}

// buildSummary converts a run result into a summary.
func buildSummary(source string, reader qrreader.Config, result orchestrator.RunResult) *summarizer.Summary {
	b := summarizer.NewBuilder().
		WithSession(summarizer.SessionInfo{
			ID:            result.SessionID,
			CameraID:      result.CameraID,
			PreviewWidth:  result.PreviewSize.Width,
			PreviewHeight: result.PreviewSize.Height,
			DisplayWidth:  result.DisplaySize.Width,
			DisplayHeight: result.DisplaySize.Height,
			Orientation:   result.Orientation,
			FocusMode:     string(result.FocusMode),
		}).
		WithSettings(summarizer.Settings{
			Preset:        string(reader.Preset),
			MinIntervalMs: reader.MinIntervalMs,
			TargetWidth:   reader.TargetWidth,
			TargetHeight:  reader.TargetHeight,
			Formats:       reader.Formats,
			TryHarder:     reader.TryHarder,
			Source:        source,
		}).
		WithResults(summarizer.ResultInfo{
			DurationMs: result.DurationMs,
			StopReason: string(result.StopReason),
			Submitted:  result.Stats.Submitted,
			Admitted:   result.Stats.Admitted,
			Throttled:  result.Stats.Throttled,
			Replaced:   result.Stats.Replaced,
			Detections: result.Stats.Detections,
			Failures:   result.Stats.Failures,
			Decoded:    result.Stats.Decoded,
			Dropped:    result.Stats.Dropped,
		})
	for _, p := range result.Payloads {
		b.WithPayload(p.Text, p.Count, p.FirstSeenMs)
	}
	return b.Build()
}

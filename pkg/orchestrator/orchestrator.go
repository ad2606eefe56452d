// Package orchestrator runs a complete scan: it opens a camera session,
// feeds its frames to the recognizer, collects decoded payloads and stops
// when the run is over.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/user/qrmobilevision/pkg/coordinator"
	"github.com/user/qrmobilevision/pkg/ports"
	"github.com/user/qrmobilevision/pkg/session"
	"github.com/user/qrmobilevision/pkg/vision"
)

// ErrInvalidConfig is returned by Run for a config it cannot honour.
var ErrInvalidConfig = errors.New("invalid scan config")

// Config contains all configuration for a scan run.
type Config struct {
	// Admission
	MinInterval time.Duration

	// Camera
	TargetSize vision.Size // desired preview size in display coordinates

	// Duration bounds the run. Zero runs until the context is cancelled
	// or the camera runs out of frames.
	Duration time.Duration

	// DrainTimeout bounds the wait for the last detection once the camera
	// runs out of frames.
	DrainTimeout time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		MinInterval:  150 * time.Millisecond,
		TargetSize:   vision.Size{Width: 1280, Height: 720},
		DrainTimeout: 5 * time.Second,
	}
}

// Validate reports the first problem with c.
func (c Config) Validate() error {
	if c.MinInterval < 0 {
		return fmt.Errorf("%w: negative min interval %s", ErrInvalidConfig, c.MinInterval)
	}
	if c.TargetSize.Width <= 0 || c.TargetSize.Height <= 0 {
		return fmt.Errorf("%w: target size %s", ErrInvalidConfig, c.TargetSize)
	}
	if c.Duration < 0 {
		return fmt.Errorf("%w: negative duration %s", ErrInvalidConfig, c.Duration)
	}
	return nil
}

// StopReason tells why a run ended.
type StopReason string

const (
	StopCancelled StopReason = "cancelled"
	StopDuration  StopReason = "duration"
	StopExhausted StopReason = "exhausted"
)

// FrameSource is implemented by camera drivers whose frames run out, such
// as a replayed image directory.
type FrameSource interface {
	Done() <-chan struct{}
}

// Drainer is implemented by recognizers that can wait for their
// outstanding detections.
type Drainer interface {
	Wait()
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithHost forwards every decoded payload to host as it arrives.
func WithHost(host ports.Host) Option {
	return func(o *Orchestrator) {
		o.host = host
	}
}

// WithClock replaces the coordinator clock.
func WithClock(clock coordinator.Clock) Option {
	return func(o *Orchestrator) {
		o.clock = clock
	}
}

// Orchestrator wires a camera session to a recognizer.
type Orchestrator struct {
	driver     ports.CameraDriver
	display    ports.Display
	recognizer ports.Recognizer
	sink       ports.DebugSink
	logger     ports.Logger
	host       ports.Host
	clock      coordinator.Clock

	mu    sync.Mutex
	coord *coordinator.Coordinator
}

// New creates a new Orchestrator.
func New(
	driver ports.CameraDriver,
	display ports.Display,
	recognizer ports.Recognizer,
	sink ports.DebugSink,
	logger ports.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		driver:     driver,
		display:    display,
		recognizer: recognizer,
		sink:       sink,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Stats returns the coordinator statistics of the current or last run.
func (o *Orchestrator) Stats() coordinator.Stats {
	o.mu.Lock()
	coord := o.coord
	o.mu.Unlock()
	if coord == nil {
		return coordinator.Stats{}
	}
	return coord.Stats()
}

// Run starts a session and blocks until the context is cancelled, the
// configured duration elapses or the camera runs out of frames. An
// interrupted run is not an error: the result holds everything decoded
// until then.
func (o *Orchestrator) Run(ctx context.Context, config Config) (RunResult, error) {
	if err := config.Validate(); err != nil {
		return RunResult{}, err
	}

	o.logger.Info("Starting scan (min interval %s, target %s)", config.MinInterval, config.TargetSize)

	began := time.Now()
	collector := newCollector(o.host, began)

	opts := []coordinator.Option{coordinator.WithDebugSink(o.sink)}
	if o.clock != nil {
		opts = append(opts, coordinator.WithClock(o.clock))
	}
	coord := coordinator.New(o.recognizer, collector, o.logger,
		coordinator.Config{MinInterval: config.MinInterval}, opts...)

	o.mu.Lock()
	o.coord = coord
	o.mu.Unlock()

	// 1. Open the camera
	sess := session.New(o.driver, o.display, coord, session.Config{TargetSize: config.TargetSize}, o.logger)
	if err := sess.Start(ctx); err != nil {
		sess.Stop()
		return RunResult{}, fmt.Errorf("start session: %w", err)
	}

	// 2. Scan until told to stop
	reason := o.wait(ctx, config, coord)

	// 3. Tear down and let late detections report
	sess.Stop()
	if d, ok := o.recognizer.(Drainer); ok {
		d.Wait()
	}

	stats := coord.Stats()
	if o.sink.Enabled() {
		if data, err := json.MarshalIndent(stats, "", "  "); err == nil {
			if err := o.sink.SaveStatsJSON(data); err != nil {
				o.logger.Warn("Failed to save stats: %s", err)
			}
		}
	}

	result := RunResult{
		SessionID:   sess.ID(),
		CameraID:    sess.CameraID(),
		PreviewSize: sess.PreviewSize(),
		DisplaySize: sess.DisplaySize(),
		Orientation: sess.Orientation(),
		FocusMode:   sess.FocusMode(),
		Payloads:    collector.payloads(),
		Stats:       stats,
		DurationMs:  time.Since(began).Milliseconds(),
		StopReason:  reason,
	}

	o.logger.Info("Scan finished (%s): %d frames admitted, %d distinct payloads",
		reason, stats.Admitted, len(result.Payloads))
	return result, nil
}

func (o *Orchestrator) wait(ctx context.Context, config Config, coord *coordinator.Coordinator) StopReason {
	var deadline <-chan time.Time
	if config.Duration > 0 {
		timer := time.NewTimer(config.Duration)
		defer timer.Stop()
		deadline = timer.C
	}

	var exhausted <-chan struct{}
	if src, ok := o.driver.(FrameSource); ok {
		exhausted = src.Done()
	}

	select {
	case <-ctx.Done():
		return StopCancelled
	case <-deadline:
		return StopDuration
	case <-exhausted:
	}

	o.logger.Debug("Camera exhausted, waiting for the last detection")
	if !o.drain(ctx, coord, config.DrainTimeout) {
		o.logger.Warn("Gave up waiting for the last detection")
	}
	return StopExhausted
}

// drain waits until the coordinator has neither a pending frame nor a
// detection outstanding.
func (o *Orchestrator) drain(ctx context.Context, coord *coordinator.Coordinator, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = DefaultConfig().DrainTimeout
	}
	limit := time.NewTimer(timeout)
	defer limit.Stop()
	tick := time.NewTicker(5 * time.Millisecond)
	defer tick.Stop()

	for {
		switch coord.State() {
		case coordinator.StateIdle, coordinator.StateClosed:
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-limit.C:
			return false
		case <-tick.C:
		}
	}
}

// Payload is one distinct decoded text.
type Payload struct {
	Text        string `json:"text"`
	Count       int    `json:"count"`
	FirstSeenMs int64  `json:"first_seen_ms"`
}

// RunResult contains the results of a scan for summary generation.
type RunResult struct {
	// Session information
	SessionID   string
	CameraID    int
	PreviewSize vision.Size // sensor coordinates
	DisplaySize vision.Size // display coordinates
	Orientation int         // display orientation in degrees
	FocusMode   ports.FocusMode

	// Decoded payloads in order of first appearance
	Payloads []Payload

	// Coordinator statistics
	Stats coordinator.Stats

	DurationMs int64
	StopReason StopReason
}

// collector records payloads and forwards them to the host.
type collector struct {
	host  ports.Host
	began time.Time

	mu    sync.Mutex
	order []string
	seen  map[string]*Payload
}

func newCollector(host ports.Host, began time.Time) *collector {
	return &collector{
		host:  host,
		began: began,
		seen:  make(map[string]*Payload),
	}
}

func (c *collector) OnDecoded(text string) {
	c.mu.Lock()
	if p, ok := c.seen[text]; ok {
		p.Count++
	} else {
		c.seen[text] = &Payload{Text: text, Count: 1, FirstSeenMs: time.Since(c.began).Milliseconds()}
		c.order = append(c.order, text)
	}
	c.mu.Unlock()

	if c.host != nil {
		c.host.OnDecoded(text)
	}
}

func (c *collector) payloads() []Payload {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Payload, 0, len(c.order))
	for _, text := range c.order {
		out = append(out, *c.seen[text])
	}
	return out
}

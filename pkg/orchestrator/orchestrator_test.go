package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/user/qrmobilevision/pkg/adapters/logger"
	"github.com/user/qrmobilevision/pkg/coordinator"
	"github.com/user/qrmobilevision/pkg/mocks"
	"github.com/user/qrmobilevision/pkg/ports"
	"github.com/user/qrmobilevision/pkg/session"
	"github.com/user/qrmobilevision/pkg/vision"
)

// replayDriver is a camera driver whose frames run out when the test
// closes done.
type replayDriver struct {
	*mocks.CameraDriver
	done chan struct{}
}

func (d *replayDriver) Done() <-chan struct{} {
	return d.done
}

func newReplayDriver() (*replayDriver, *mocks.CameraDevice) {
	drv := mocks.NewCameraDriver(ports.CameraInfo{Facing: ports.FacingBack})
	return &replayDriver{CameraDriver: drv, done: make(chan struct{})}, drv.Devices[0]
}

// testConfig selects the 320x240 preview of the mock device.
func testConfig() Config {
	return Config{
		TargetSize:   vision.Size{Width: 300, Height: 200},
		DrainTimeout: time.Second,
	}
}

var previewFrame = vision.FormatNV21.FrameLen(320, 240)

type outcome struct {
	result RunResult
	err    error
}

func runAsync(ctx context.Context, o *Orchestrator, cfg Config) <-chan outcome {
	ch := make(chan outcome, 1)
	go func() {
		result, err := o.Run(ctx, cfg)
		ch <- outcome{result, err}
	}()
	return ch
}

func waitPreviewing(t *testing.T, dev *mocks.CameraDevice) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !dev.IsPreviewing() {
		if time.Now().After(deadline) {
			t.Fatal("preview never started")
		}
		time.Sleep(time.Millisecond)
	}
}

func awaitOutcome(t *testing.T, ch <-chan outcome) outcome {
	t.Helper()
	select {
	case out := <-ch:
		return out
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
		return outcome{}
	}
}

func TestOrchestrator_Run_CollectsPayloads(t *testing.T) {
	driver, dev := newReplayDriver()

	var (
		mu    sync.Mutex
		calls int
	)
	answers := [][]string{{"A"}, {"B", "A"}, {}}
	rec := &mocks.Recognizer{
		DetectFunc: func(img vision.ImageDescriptor, done ports.DetectionCallback) {
			mu.Lock()
			answer := answers[calls%len(answers)]
			calls++
			mu.Unlock()
			done(answer, nil)
		},
	}
	host := &mocks.Host{}

	orch := New(driver, &mocks.Display{}, rec, mocks.NewDebugSink(false), logger.NewNoop(), WithHost(host))
	ch := runAsync(context.Background(), orch, testConfig())

	waitPreviewing(t, dev)
	for i := 0; i < 3; i++ {
		if !dev.Deliver(make([]byte, previewFrame)) {
			t.Fatal("no preview callback installed")
		}
	}
	close(driver.done)

	out := awaitOutcome(t, ch)
	if out.err != nil {
		t.Fatalf("unexpected error: %v", out.err)
	}
	result := out.result

	if result.StopReason != StopExhausted {
		t.Errorf("expected stop reason %q, got %q", StopExhausted, result.StopReason)
	}
	if len(result.Payloads) != 2 {
		t.Fatalf("expected 2 distinct payloads, got %+v", result.Payloads)
	}
	if result.Payloads[0].Text != "A" || result.Payloads[0].Count != 2 {
		t.Errorf("unexpected first payload %+v", result.Payloads[0])
	}
	if result.Payloads[1].Text != "B" || result.Payloads[1].Count != 1 {
		t.Errorf("unexpected second payload %+v", result.Payloads[1])
	}
	if got := host.Payloads(); len(got) != 3 {
		t.Errorf("expected host to receive 3 payloads, got %v", got)
	}
	if result.Stats.Admitted != 3 || result.Stats.Decoded != 3 {
		t.Errorf("unexpected stats %+v", result.Stats)
	}
	if result.SessionID == "" {
		t.Error("expected a session id")
	}
	if result.PreviewSize != (vision.Size{Width: 320, Height: 240}) {
		t.Errorf("unexpected preview size %s", result.PreviewSize)
	}
	if result.FocusMode != ports.FocusAuto {
		t.Errorf("expected auto focus, got %q", result.FocusMode)
	}
	if !dev.IsReleased() {
		t.Error("expected camera to be released")
	}
}

func TestOrchestrator_Run_Duration(t *testing.T) {
	driver := mocks.NewCameraDriver(ports.CameraInfo{Facing: ports.FacingBack})
	orch := New(driver, &mocks.Display{}, &mocks.Recognizer{}, mocks.NewDebugSink(false), logger.NewNoop())

	cfg := testConfig()
	cfg.Duration = 20 * time.Millisecond

	out := awaitOutcome(t, runAsync(context.Background(), orch, cfg))
	if out.err != nil {
		t.Fatalf("unexpected error: %v", out.err)
	}
	if out.result.StopReason != StopDuration {
		t.Errorf("expected stop reason %q, got %q", StopDuration, out.result.StopReason)
	}
	if out.result.DurationMs < 20 {
		t.Errorf("expected run to last at least 20ms, got %d", out.result.DurationMs)
	}
}

func TestOrchestrator_Run_CancelReleasesHeldFrames(t *testing.T) {
	driver := mocks.NewCameraDriver(ports.CameraInfo{Facing: ports.FacingBack})
	dev := driver.Devices[0]
	rec := &mocks.Recognizer{} // holds every detection

	orch := New(driver, &mocks.Display{}, rec, mocks.NewDebugSink(false), logger.NewNoop())

	ctx, cancel := context.WithCancel(context.Background())
	ch := runAsync(ctx, orch, testConfig())

	waitPreviewing(t, dev)
	dev.Deliver(make([]byte, previewFrame)) // in flight
	dev.Deliver(make([]byte, previewFrame)) // pending
	if got := orch.Stats().Admitted; got != 2 {
		t.Errorf("expected 2 admitted frames while running, got %d", got)
	}
	cancel()

	out := awaitOutcome(t, ch)
	if out.err != nil {
		t.Fatalf("unexpected error: %v", out.err)
	}
	if out.result.StopReason != StopCancelled {
		t.Errorf("expected stop reason %q, got %q", StopCancelled, out.result.StopReason)
	}
	if rec.Outstanding() != 1 {
		t.Fatalf("expected the in-flight detection to be outstanding, got %d", rec.Outstanding())
	}

	// The late completion is dropped.
	rec.Complete([]string{"LATE"}, nil)
	if len(out.result.Payloads) != 0 {
		t.Errorf("expected no payloads, got %+v", out.result.Payloads)
	}
	if got := orch.Stats().Decoded; got != 0 {
		t.Errorf("expected late result to be dropped, got %d decoded", got)
	}
}

func TestOrchestrator_Run_StartFailure(t *testing.T) {
	driver := mocks.NewCameraDriver(ports.CameraInfo{Facing: ports.FacingFront})
	orch := New(driver, &mocks.Display{}, &mocks.Recognizer{}, mocks.NewDebugSink(false), logger.NewNoop())

	_, err := orch.Run(context.Background(), testConfig())
	if !errors.Is(err, session.ErrNoBackCamera) {
		t.Errorf("expected ErrNoBackCamera, got %v", err)
	}
}

func TestOrchestrator_Run_InvalidConfig(t *testing.T) {
	orch := New(mocks.NewCameraDriver(), &mocks.Display{}, &mocks.Recognizer{}, mocks.NewDebugSink(false), logger.NewNoop())

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero width", func(c *Config) { c.TargetSize.Width = 0 }},
		{"negative height", func(c *Config) { c.TargetSize.Height = -1 }},
		{"negative interval", func(c *Config) { c.MinInterval = -time.Millisecond }},
		{"negative duration", func(c *Config) { c.Duration = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(&cfg)
			if _, err := orch.Run(context.Background(), cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestOrchestrator_Run_SavesStats(t *testing.T) {
	driver, dev := newReplayDriver()
	rec := &mocks.Recognizer{
		DetectFunc: func(img vision.ImageDescriptor, done ports.DetectionCallback) {
			done([]string{"HELLO"}, nil)
		},
	}
	sink := mocks.NewDebugSink(true)

	orch := New(driver, &mocks.Display{}, rec, sink, logger.NewNoop())
	ch := runAsync(context.Background(), orch, testConfig())

	waitPreviewing(t, dev)
	dev.Deliver(make([]byte, previewFrame))
	close(driver.done)

	out := awaitOutcome(t, ch)
	if out.err != nil {
		t.Fatalf("unexpected error: %v", out.err)
	}

	var stats coordinator.Stats
	if err := json.Unmarshal(sink.StatsJSON, &stats); err != nil {
		t.Fatalf("stats JSON not saved: %v", err)
	}
	if stats.Admitted != 1 || stats.Decoded != 1 {
		t.Errorf("unexpected saved stats %+v", stats)
	}
	if sink.FrameCount() != 1 {
		t.Errorf("expected 1 debug frame, got %d", sink.FrameCount())
	}
}

func TestOrchestrator_Run_ThrottlesWithClock(t *testing.T) {
	driver, dev := newReplayDriver()
	rec := &mocks.Recognizer{
		DetectFunc: func(img vision.ImageDescriptor, done ports.DetectionCallback) {
			done(nil, nil)
		},
	}

	var (
		mu  sync.Mutex
		now time.Duration
	)
	clock := func() time.Duration {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now += d
		mu.Unlock()
	}

	orch := New(driver, &mocks.Display{}, rec, mocks.NewDebugSink(false), logger.NewNoop(), WithClock(clock))
	cfg := testConfig()
	cfg.MinInterval = 100 * time.Millisecond
	ch := runAsync(context.Background(), orch, cfg)

	waitPreviewing(t, dev)
	dev.Deliver(make([]byte, previewFrame)) // t=0, admitted
	advance(50 * time.Millisecond)
	dev.Deliver(make([]byte, previewFrame)) // t=50, throttled
	advance(100 * time.Millisecond)
	dev.Deliver(make([]byte, previewFrame)) // t=150, admitted
	close(driver.done)

	out := awaitOutcome(t, ch)
	if out.err != nil {
		t.Fatalf("unexpected error: %v", out.err)
	}
	if out.result.Stats.Admitted != 2 || out.result.Stats.Throttled != 1 {
		t.Errorf("unexpected stats %+v", out.result.Stats)
	}
}

func TestCollector_ForwardsAndCounts(t *testing.T) {
	host := &mocks.Host{}
	c := newCollector(host, time.Now())

	for _, text := range []string{"x", "y", "x", "x"} {
		c.OnDecoded(text)
	}

	got := c.payloads()
	if len(got) != 2 || got[0].Text != "x" || got[0].Count != 3 || got[1].Text != "y" || got[1].Count != 1 {
		t.Errorf("unexpected payloads %+v", got)
	}
	if len(host.Payloads()) != 4 {
		t.Errorf("expected every payload forwarded, got %v", host.Payloads())
	}
}

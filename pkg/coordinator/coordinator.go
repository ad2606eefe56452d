// Package coordinator paces camera frames into a single-flight recognizer.
//
// The coordinator is a bounded buffer of capacity one with newest-wins
// replacement, fronted by a minimum-interval throttle:
//
//	camera ──Submit──▶ [pending] ──promote──▶ [inFlight] ──Detect──▶ recognizer
//	                       ▲ replaced frames           ◀──done── (any goroutine)
//	                       └ are released
//
// Every frame that enters the coordinator is released exactly once: when it
// is throttled, when a newer frame replaces it in pending, when its
// detection completes, or at Shutdown. The state mutex is never held across
// the recognizer call or the host callback.
package coordinator

import (
	"sync"
	"time"

	"github.com/user/qrmobilevision/pkg/ports"
	"github.com/user/qrmobilevision/pkg/vision"
)

// Config controls admission.
type Config struct {
	// MinInterval is the minimum time between two admitted frames.
	// Zero admits every frame, subject only to single-flight.
	MinInterval time.Duration
}

// Clock returns a monotonic reading. Only differences are meaningful.
type Clock func() time.Duration

// MonotonicClock returns a Clock measuring time since its creation.
func MonotonicClock() Clock {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock replaces the monotonic clock, typically with a fake in tests.
func WithClock(clock Clock) Option {
	return func(c *Coordinator) {
		c.clock = clock
	}
}

// WithDebugSink saves every detected frame to sink when it is enabled.
func WithDebugSink(sink ports.DebugSink) Option {
	return func(c *Coordinator) {
		c.sink = sink
	}
}

// State names the coordinator's position in its state machine.
type State int

const (
	StateIdle       State = iota // nothing pending, nothing in flight
	StateQueued                  // pending only; transient during admission
	StateBusy                    // detection outstanding
	StateBusyQueued              // detection outstanding, newer frame waiting
	StateClosed                  // after Shutdown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateQueued:
		return "queued"
	case StateBusy:
		return "busy"
	case StateBusyQueued:
		return "busy-queued"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Coordinator serializes frames into a recognizer. It is safe for
// concurrent use by the camera producer and the recognizer callback.
type Coordinator struct {
	recognizer  ports.Recognizer
	host        ports.Host
	logger      ports.Logger
	sink        ports.DebugSink
	clock       Clock
	minInterval time.Duration

	mu          sync.Mutex
	cond        *sync.Cond
	pending     *vision.Frame
	inFlight    *vision.Frame
	flightSeq   uint64
	flightDesc  vision.ImageDescriptor
	lastAdmit   time.Duration
	admitted    bool // lastAdmit is valid
	closed      bool
	seq         uint64
	dispatching *vision.Frame // frame whose Detect call has not returned yet
	deferred    func()        // completion that arrived during dispatch
	stats       Stats
}

// New creates a Coordinator that hands frames to recognizer and decoded
// payloads to host.
func New(recognizer ports.Recognizer, host ports.Host, logger ports.Logger, cfg Config, opts ...Option) *Coordinator {
	c := &Coordinator{
		recognizer:  recognizer,
		host:        host,
		logger:      logger.WithComponent("coordinator"),
		minInterval: cfg.MinInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.clock == nil {
		c.clock = MonotonicClock()
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Submit offers a frame from the camera. Ownership of frame passes to the
// coordinator, which releases it when it is no longer needed.
//
// The first frame is always admitted. After that, a frame arriving within
// MinInterval of the last admitted frame is released immediately.
func (c *Coordinator) Submit(frame *vision.Frame) {
	now := c.clock()

	c.mu.Lock()
	c.stats.Submitted++

	if c.closed {
		c.stats.Dropped++
		c.mu.Unlock()
		frame.Release()
		return
	}

	if c.minInterval > 0 && c.admitted && now-c.lastAdmit <= c.minInterval {
		c.stats.Throttled++
		c.mu.Unlock()
		frame.Release()
		return
	}

	c.lastAdmit = now
	c.admitted = true
	c.stats.Admitted++

	replaced := c.pending
	c.pending = frame
	if replaced != nil {
		c.stats.Replaced++
	}
	idle := c.inFlight == nil
	c.mu.Unlock()

	if replaced != nil {
		replaced.Release()
	}

	c.logger.Debug("Admitted frame %dx%d (%s)", frame.Width(), frame.Height(), frame.Rotation())

	if idle {
		c.promote()
	}
}

// OnDetectionComplete completes the in-flight detection. It is the same
// path the callback passed to Recognizer.Detect takes; a recognizer reports
// each detection through one of the two, never both. It is a no-op when
// nothing is in flight.
func (c *Coordinator) OnDetectionComplete(payloads []string, err error) {
	c.mu.Lock()
	frame := c.inFlight
	seq := c.flightSeq
	desc := c.flightDesc
	c.mu.Unlock()

	if frame == nil {
		return
	}
	c.onDone(frame, seq, desc, payloads, err)
}

// Shutdown releases the pending frame and closes the coordinator.
// Subsequent Submit calls release their argument. An outstanding detection
// is not cancelled: its frame is released when it completes and its result
// is dropped. Shutdown waits for a recognizer hand-off already under way, so
// no Detect call starts after it returns. It is safe to call repeatedly.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true

	pending := c.pending
	c.pending = nil
	if pending != nil {
		c.stats.Dropped++
	}

	for c.dispatching != nil {
		c.cond.Wait()
	}
	c.mu.Unlock()

	if pending != nil {
		pending.Release()
	}
	c.logger.Debug("Coordinator shut down")
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
		return StateClosed
	case c.inFlight != nil && c.pending != nil:
		return StateBusyQueued
	case c.inFlight != nil:
		return StateBusy
	case c.pending != nil:
		return StateQueued
	default:
		return StateIdle
	}
}

// promote moves pending into inFlight and hands it to the recognizer while
// the recognizer is free.
func (c *Coordinator) promote() {
	for {
		c.mu.Lock()
		if c.closed || c.pending == nil || c.inFlight != nil {
			c.mu.Unlock()
			return
		}
		frame := c.pending
		c.pending = nil
		c.inFlight = frame
		c.seq++
		seq := c.seq
		c.mu.Unlock()

		desc, err := frame.Descriptor()
		if err != nil {
			// The frame is treated as already released and dropped.
			c.mu.Lock()
			if c.inFlight == frame {
				c.inFlight = nil
			}
			c.stats.MaterializeFailures++
			c.mu.Unlock()

			frame.Release()
			c.logger.Debug("Dropped frame %d: %s", seq, err)
			continue
		}

		c.mu.Lock()
		if c.closed {
			// Shutdown won the race; this frame never reaches the recognizer.
			if c.inFlight == frame {
				c.inFlight = nil
			}
			c.mu.Unlock()
			frame.Release()
			return
		}
		c.dispatching = frame
		c.flightSeq = seq
		c.flightDesc = desc
		c.stats.Detections++
		c.mu.Unlock()

		c.recognizer.Detect(desc, func(payloads []string, err error) {
			c.onDone(frame, seq, desc, payloads, err)
		})

		c.mu.Lock()
		c.dispatching = nil
		deferred := c.deferred
		c.deferred = nil
		c.cond.Broadcast()
		c.mu.Unlock()

		if deferred != nil {
			deferred()
		}
		return
	}
}

// onDone defers a completion that arrives before Detect has returned, so
// host callbacks and the next promotion never run inside the recognizer's
// Detect call.
func (c *Coordinator) onDone(frame *vision.Frame, seq uint64, desc vision.ImageDescriptor, payloads []string, err error) {
	c.mu.Lock()
	if c.dispatching == frame {
		c.deferred = func() {
			c.complete(frame, seq, desc, payloads, err)
		}
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.complete(frame, seq, desc, payloads, err)
}

func (c *Coordinator) complete(frame *vision.Frame, seq uint64, desc vision.ImageDescriptor, payloads []string, err error) {
	c.mu.Lock()
	closed := c.closed
	if err != nil {
		c.stats.Failures++
	} else if !closed {
		c.stats.Decoded += uint64(len(payloads))
	}
	c.mu.Unlock()

	switch {
	case err != nil:
		c.logger.Warn("Barcode reading failure: %s", err)
	case closed:
		c.logger.Debug("Dropped result of frame %d after shutdown", seq)
	default:
		c.saveDebug(seq, desc, payloads)
		for _, p := range payloads {
			c.host.OnDecoded(p)
		}
	}

	c.mu.Lock()
	if c.inFlight == frame {
		c.inFlight = nil
		c.flightDesc = vision.ImageDescriptor{}
	}
	c.mu.Unlock()

	frame.Release()
	c.promote()
}

func (c *Coordinator) saveDebug(seq uint64, desc vision.ImageDescriptor, payloads []string) {
	if c.sink == nil || !c.sink.Enabled() || desc.Data == nil {
		return
	}
	if err := c.sink.SaveFrame(seq, desc); err != nil {
		c.logger.Debug("Failed to save debug frame: %s", err)
	}
	if len(payloads) > 0 {
		if err := c.sink.SaveDecoded(seq, desc, payloads); err != nil {
			c.logger.Debug("Failed to save debug frame: %s", err)
		}
	}
}

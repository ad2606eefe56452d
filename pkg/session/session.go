// Package session binds a rear camera's preview stream to a frame coordinator.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/user/qrmobilevision/pkg/coordinator"
	"github.com/user/qrmobilevision/pkg/orientation"
	"github.com/user/qrmobilevision/pkg/ports"
	"github.com/user/qrmobilevision/pkg/previewsize"
	"github.com/user/qrmobilevision/pkg/vision"
)

var (
	// ErrNoBackCamera is returned by Start when no rear-facing camera exists.
	ErrNoBackCamera = errors.New("no back-facing camera")

	// ErrCameraIO wraps camera driver failures during Start.
	ErrCameraIO = errors.New("camera I/O error")

	// ErrAlreadyStarted is returned by Start on a running session.
	ErrAlreadyStarted = errors.New("session already started")

	// ErrClosed is returned by Start after Stop.
	ErrClosed = errors.New("session closed")
)

// focusPreference lists focus modes in the order they are tried.
var focusPreference = []ports.FocusMode{
	ports.FocusAuto,
	ports.FocusContinuousPicture,
	ports.FocusContinuousVideo,
	ports.FocusEDOF,
}

// Config holds session settings.
type Config struct {
	// TargetSize is the desired preview size in display coordinates.
	TargetSize vision.Size
}

// Session owns an open camera and feeds its preview frames to a
// Coordinator.
type Session struct {
	id       string
	driver   ports.CameraDriver
	display  ports.Display
	coord    *coordinator.Coordinator
	resolver *orientation.Resolver
	logger   ports.Logger
	config   Config

	lifecycle sync.Mutex // serializes Start and Stop

	mu          sync.Mutex
	device      ports.CameraDevice
	cameraID    int
	sensor      int
	previewSize vision.Size
	focusMode   ports.FocusMode
	started     bool
	stopped     bool
}

// New creates a session. Nothing touches the camera until Start.
func New(driver ports.CameraDriver, display ports.Display, coord *coordinator.Coordinator, config Config, logger ports.Logger) *Session {
	id := uuid.NewString()
	log := logger.WithComponent("session")
	return &Session{
		id:       id,
		driver:   driver,
		display:  display,
		coord:    coord,
		resolver: orientation.NewResolver(log),
		logger:   log,
		config:   config,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Start opens the first rear-facing camera, configures focus, preview size
// and format, installs the frame producer and starts the preview.
func (s *Session) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	stopped, started := s.stopped, s.started
	s.mu.Unlock()
	if stopped {
		return ErrClosed
	}
	if started {
		return ErrAlreadyStarted
	}

	if err := s.open(); err != nil {
		s.logger.Error("Failed to start camera: %s", err)
		return err
	}

	s.logger.Info("Session %s started: camera %d, preview %s, sensor %d°",
		s.id, s.cameraID, s.PreviewSize(), s.sensorDegrees())
	return nil
}

func (s *Session) open() error {
	id, info, err := s.findBackCamera()
	if err != nil {
		return err
	}

	device, err := s.driver.Open(id)
	if err != nil {
		return fmt.Errorf("%w: open camera %d: %w", ErrCameraIO, id, err)
	}

	focus, size, err := s.configure(device, info)
	if err != nil {
		device.Release()
		return err
	}

	s.mu.Lock()
	s.device = device
	s.cameraID = id
	s.sensor = info.Orientation
	s.previewSize = size
	s.focusMode = focus
	s.started = true
	s.mu.Unlock()

	device.SetPreviewCallback(s.onPreviewFrame)
	if err := device.StartPreview(); err != nil {
		device.SetPreviewCallback(nil)
		device.Release()
		s.mu.Lock()
		s.device = nil
		s.started = false
		s.mu.Unlock()
		return fmt.Errorf("%w: start preview: %w", ErrCameraIO, err)
	}

	if focus != "" {
		if err := device.AutoFocus(s.onAutoFocus); err != nil {
			s.logger.Warn("Autofocus failed: %s", err)
		}
	}
	return nil
}

func (s *Session) findBackCamera() (int, ports.CameraInfo, error) {
	n := s.driver.NumCameras()
	for id := 0; id < n; id++ {
		info, err := s.driver.CameraInfo(id)
		if err != nil {
			return 0, ports.CameraInfo{}, fmt.Errorf("%w: camera %d info: %w", ErrCameraIO, id, err)
		}
		if info.Facing == ports.FacingBack {
			return id, info, nil
		}
	}
	return 0, ports.CameraInfo{}, ErrNoBackCamera
}

// configure chooses a focus mode and preview size and applies them with
// the NV21 preview format.
func (s *Session) configure(device ports.CameraDevice, info ports.CameraInfo) (ports.FocusMode, vision.Size, error) {
	params := device.Parameters()

	focus := chooseFocusMode(params.FocusModes)
	if focus == "" {
		s.logger.Info("Autofocus off")
	} else {
		params.FocusMode = focus
		s.logger.Debug("Focus mode: %s", focus)
	}

	if len(params.PreviewSizes) == 0 {
		return "", vision.Size{}, fmt.Errorf("%w: camera reports no preview sizes", ErrCameraIO)
	}
	size := previewsize.Select(params.PreviewSizes, s.config.TargetSize, info.Orientation)
	params.PreviewSize = size
	params.PreviewFormat = vision.FormatNV21

	if err := device.SetParameters(params); err != nil {
		return "", vision.Size{}, fmt.Errorf("%w: set parameters: %w", ErrCameraIO, err)
	}
	s.logger.Debug("Preview size %s for target %s", size, s.config.TargetSize)
	return focus, size, nil
}

func chooseFocusMode(supported []ports.FocusMode) ports.FocusMode {
	for _, want := range focusPreference {
		for _, m := range supported {
			if m == want {
				return want
			}
		}
	}
	return ""
}

// onPreviewFrame runs on the driver's goroutine for every preview frame.
func (s *Session) onPreviewFrame(data []byte) {
	if data == nil {
		return
	}

	s.mu.Lock()
	device := s.device
	size := s.previewSize
	sensor := s.sensor
	s.mu.Unlock()

	rotation := s.resolver.Resolve(s.display.Rotation(), sensor)

	var opts []vision.FrameOption
	if pool, ok := device.(ports.CallbackBufferPool); ok {
		opts = append(opts, vision.WithReleaseHook(func() {
			pool.AddCallbackBuffer(data)
		}))
	}
	frame := vision.NewFrame(data, vision.FormatNV21, size.Width, size.Height, rotation, opts...)
	s.coord.Submit(frame)
}

// onAutoFocus re-arms autofocus after every cycle while the session runs.
func (s *Session) onAutoFocus(success bool) {
	s.mu.Lock()
	device := s.device
	running := s.started && !s.stopped
	s.mu.Unlock()

	if !running || device == nil {
		return
	}

	s.logger.Debug("Autofocus cycle finished (success=%t)", success)
	device.CancelAutoFocus()
	if err := device.AutoFocus(s.onAutoFocus); err != nil {
		s.logger.Debug("Autofocus failed: %s", err)
	}
}

// Stop cancels autofocus, stops the preview, detaches the frame producer,
// releases the camera and shuts the coordinator down. It always succeeds,
// is idempotent, and is safe to call before Start.
func (s *Session) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.started = false
	device := s.device
	s.device = nil
	s.mu.Unlock()

	if device != nil {
		device.CancelAutoFocus()
		device.StopPreview()
		device.SetPreviewCallback(nil)
		device.Release()
	}
	s.coord.Shutdown()

	s.logger.Info("Session %s stopped", s.id)
}

// Width returns the preview width in display coordinates.
func (s *Session) Width() int {
	return s.DisplaySize().Width
}

// Height returns the preview height in display coordinates.
func (s *Session) Height() int {
	return s.DisplaySize().Height
}

// DisplaySize returns the preview size swapped into display coordinates
// when the sensor is mounted at 90° or 270°.
func (s *Session) DisplaySize() vision.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sensor%180 != 0 {
		return s.previewSize.Swap()
	}
	return s.previewSize
}

// PreviewSize returns the selected preview size in sensor coordinates.
func (s *Session) PreviewSize() vision.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previewSize
}

// Orientation returns the clockwise angle the preview must be rotated to
// appear upright in the host's display.
func (s *Session) Orientation() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return orientation.DisplayOrientation(s.sensor)
}

func (s *Session) sensorDegrees() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sensor
}

// FocusMode returns the selected focus mode, or "" when autofocus is off.
func (s *Session) FocusMode() ports.FocusMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focusMode
}

// CameraID returns the id of the opened camera.
func (s *Session) CameraID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cameraID
}

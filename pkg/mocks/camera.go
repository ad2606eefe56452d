package mocks

import (
	"fmt"
	"sync"

	"github.com/user/qrmobilevision/pkg/ports"
	"github.com/user/qrmobilevision/pkg/vision"
)

// CameraDriver is a mock implementation of ports.CameraDriver.
type CameraDriver struct {
	Cameras []ports.CameraInfo
	Devices map[int]*CameraDevice

	CameraInfoFunc func(id int) (ports.CameraInfo, error)
	OpenFunc       func(id int) (ports.CameraDevice, error)

	// Recorded calls for verification
	Opened []int
}

// NewCameraDriver creates a driver exposing one device per info.
func NewCameraDriver(infos ...ports.CameraInfo) *CameraDriver {
	d := &CameraDriver{
		Cameras: infos,
		Devices: make(map[int]*CameraDevice),
	}
	for i := range infos {
		d.Devices[i] = NewCameraDevice()
	}
	return d
}

func (m *CameraDriver) NumCameras() int {
	return len(m.Cameras)
}

func (m *CameraDriver) CameraInfo(id int) (ports.CameraInfo, error) {
	if m.CameraInfoFunc != nil {
		return m.CameraInfoFunc(id)
	}
	if id < 0 || id >= len(m.Cameras) {
		return ports.CameraInfo{}, fmt.Errorf("no camera %d", id)
	}
	return m.Cameras[id], nil
}

func (m *CameraDriver) Open(id int) (ports.CameraDevice, error) {
	m.Opened = append(m.Opened, id)
	if m.OpenFunc != nil {
		return m.OpenFunc(id)
	}
	dev, ok := m.Devices[id]
	if !ok {
		return nil, fmt.Errorf("no camera %d", id)
	}
	return dev, nil
}

var _ ports.CameraDriver = (*CameraDriver)(nil)

// CameraDevice is a mock implementation of ports.CameraDevice.
// Preview frames and autofocus completions are delivered by the test
// through Deliver and FinishAutoFocus.
type CameraDevice struct {
	mu sync.Mutex

	Params ports.CameraParameters

	SetParametersFunc func(params ports.CameraParameters) error
	StartPreviewFunc  func() error
	AutoFocusFunc     func(cb ports.AutoFocusCallback) error

	// Recorded state for verification
	Applied         []ports.CameraParameters
	Previewing      bool
	AutoFocusCalls  int
	CancelFocusCall int
	Released        bool
	Calls           []string

	previewCB   ports.PreviewCallback
	autoFocusCB ports.AutoFocusCallback
}

// NewCameraDevice creates a device offering common preview sizes in
// ascending order, with auto and continuous-picture focus modes.
func NewCameraDevice() *CameraDevice {
	return &CameraDevice{
		Params: ports.CameraParameters{
			FocusModes: []ports.FocusMode{ports.FocusFixed, ports.FocusContinuousPicture, ports.FocusAuto},
			PreviewSizes: []vision.Size{
				{Width: 320, Height: 240},
				{Width: 640, Height: 480},
				{Width: 1280, Height: 720},
				{Width: 1920, Height: 1080},
			},
		},
	}
}

func (m *CameraDevice) record(call string) {
	m.Calls = append(m.Calls, call)
}

func (m *CameraDevice) Parameters() ports.CameraParameters {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Params
}

func (m *CameraDevice) SetParameters(params ports.CameraParameters) error {
	m.mu.Lock()
	m.record("SetParameters")
	fn := m.SetParametersFunc
	m.mu.Unlock()

	if fn != nil {
		if err := fn(params); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Params = params
	m.Applied = append(m.Applied, params)
	return nil
}

func (m *CameraDevice) SetPreviewCallback(cb ports.PreviewCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cb == nil {
		m.record("SetPreviewCallback(nil)")
	} else {
		m.record("SetPreviewCallback")
	}
	m.previewCB = cb
}

func (m *CameraDevice) StartPreview() error {
	m.mu.Lock()
	m.record("StartPreview")
	fn := m.StartPreviewFunc
	m.mu.Unlock()

	if fn != nil {
		if err := fn(); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Previewing = true
	m.mu.Unlock()
	return nil
}

func (m *CameraDevice) StopPreview() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("StopPreview")
	m.Previewing = false
}

func (m *CameraDevice) AutoFocus(cb ports.AutoFocusCallback) error {
	m.mu.Lock()
	m.record("AutoFocus")
	m.AutoFocusCalls++
	fn := m.AutoFocusFunc
	if fn == nil {
		m.autoFocusCB = cb
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(cb)
	}
	return nil
}

func (m *CameraDevice) CancelAutoFocus() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("CancelAutoFocus")
	m.CancelFocusCall++
	m.autoFocusCB = nil
}

func (m *CameraDevice) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Release")
	m.Released = true
}

// Deliver invokes the installed preview callback with data. It returns
// false when no callback is installed.
func (m *CameraDevice) Deliver(data []byte) bool {
	m.mu.Lock()
	cb := m.previewCB
	m.mu.Unlock()
	if cb == nil {
		return false
	}
	cb(data)
	return true
}

// FinishAutoFocus completes the pending autofocus cycle. It returns false
// when no cycle is pending.
func (m *CameraDevice) FinishAutoFocus(success bool) bool {
	m.mu.Lock()
	cb := m.autoFocusCB
	m.autoFocusCB = nil
	m.mu.Unlock()
	if cb == nil {
		return false
	}
	cb(success)
	return true
}

// IsPreviewing reports whether StartPreview succeeded and StopPreview has
// not been called since.
func (m *CameraDevice) IsPreviewing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Previewing
}

// IsReleased reports whether Release was called.
func (m *CameraDevice) IsReleased() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Released
}

// CallLog returns a copy of the recorded method calls.
func (m *CameraDevice) CallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Calls...)
}

var _ ports.CameraDevice = (*CameraDevice)(nil)

// Display is a mock implementation of ports.Display.
type Display struct {
	mu       sync.Mutex
	rotation vision.Rotation
}

func (m *Display) Rotation() vision.Rotation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rotation
}

// SetRotation changes the reported rotation.
func (m *Display) SetRotation(r vision.Rotation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotation = r
}

var _ ports.Display = (*Display)(nil)

// Package ports defines interfaces for the camera, recognizer and other
// external dependencies.
package ports

import "github.com/user/qrmobilevision/pkg/vision"

// Facing identifies which side of the device a camera points to.
type Facing int

const (
	FacingBack Facing = iota
	FacingFront
)

// FocusMode is a camera focus mode name.
type FocusMode string

const (
	FocusAuto              FocusMode = "auto"
	FocusContinuousPicture FocusMode = "continuous-picture"
	FocusContinuousVideo   FocusMode = "continuous-video"
	FocusEDOF              FocusMode = "edof"
	FocusFixed             FocusMode = "fixed"
)

// CameraInfo describes a camera before it is opened.
type CameraInfo struct {
	Facing Facing
	// Orientation is the clockwise angle (0, 90, 180 or 270) the sensor
	// image must be rotated to appear upright on the display in its
	// natural orientation.
	Orientation int
}

// CameraParameters is the settable state of an open camera.
type CameraParameters struct {
	FocusModes    []FocusMode   // Supported focus modes
	FocusMode     FocusMode     // Selected focus mode (empty = driver default)
	PreviewSizes  []vision.Size // Supported preview sizes, in driver order
	PreviewSize   vision.Size   // Selected preview size
	PreviewFormat vision.PixelFormat
}

// PreviewCallback receives raw preview bytes in the configured format.
// It is invoked on a driver-owned goroutine.
type PreviewCallback func(data []byte)

// AutoFocusCallback is invoked when an autofocus cycle completes.
type AutoFocusCallback func(success bool)

// CameraDriver enumerates and opens cameras.
type CameraDriver interface {
	// NumCameras returns the number of cameras available.
	NumCameras() int

	// CameraInfo returns static information about camera id.
	CameraInfo(id int) (CameraInfo, error)

	// Open acquires exclusive access to camera id.
	Open(id int) (CameraDevice, error)
}

// CameraDevice is an open camera handle.
type CameraDevice interface {
	// Parameters returns the current parameters.
	Parameters() CameraParameters

	// SetParameters applies the selected focus mode, preview size and format.
	SetParameters(params CameraParameters) error

	// SetPreviewCallback installs cb for every preview frame; nil detaches it.
	SetPreviewCallback(cb PreviewCallback)

	// StartPreview begins delivering preview frames.
	StartPreview() error

	// StopPreview stops frame delivery.
	StopPreview()

	// AutoFocus starts one autofocus cycle and calls cb when it completes.
	AutoFocus(cb AutoFocusCallback) error

	// CancelAutoFocus aborts any autofocus cycle in progress.
	CancelAutoFocus()

	// Release gives up the camera. The device must not be used afterwards.
	Release()
}

// Display reports the current rotation of the device display.
type Display interface {
	Rotation() vision.Rotation
}

// DisplayFunc is a function adapter for the Display interface.
type DisplayFunc func() vision.Rotation

// Rotation implements Display.
func (f DisplayFunc) Rotation() vision.Rotation {
	return f()
}

// CallbackBufferPool is implemented by devices that reuse preview buffers.
// A buffer handed to a PreviewCallback is returned with AddCallbackBuffer
// once the frame built from it has been released.
type CallbackBufferPool interface {
	AddCallbackBuffer(buf []byte)
}

//go:build gocv

package gocvcamera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/user/qrmobilevision/pkg/ports"
	"github.com/user/qrmobilevision/pkg/vision"
)

// Available reports whether the package was built with OpenCV support.
const Available = true

var previewSizes = []vision.Size{
	{Width: 640, Height: 480},
	{Width: 1280, Height: 720},
	{Width: 1920, Height: 1080},
}

// Driver implements ports.CameraDriver over a single OpenCV capture device.
type Driver struct {
	opts   Options
	logger ports.Logger
}

// New creates a webcam driver.
func New(opts Options, logger ports.Logger) (*Driver, error) {
	return &Driver{opts: opts, logger: logger.WithComponent("camera")}, nil
}

// NumCameras returns 1.
func (d *Driver) NumCameras() int {
	return 1
}

// CameraInfo returns the configured facing and orientation.
func (d *Driver) CameraInfo(id int) (ports.CameraInfo, error) {
	if id != 0 {
		return ports.CameraInfo{}, fmt.Errorf("camera %d does not exist", id)
	}
	return ports.CameraInfo{Facing: d.opts.Facing, Orientation: d.opts.Orientation}, nil
}

// Open opens the capture device.
func (d *Driver) Open(id int) (ports.CameraDevice, error) {
	if id != 0 {
		return nil, fmt.Errorf("camera %d does not exist", id)
	}
	webcam, err := gocv.OpenVideoCapture(d.opts.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to OpenVideoCapture: %w", err)
	}
	return &Device{
		webcam: webcam,
		logger: d.logger,
		params: ports.CameraParameters{
			FocusModes:    []ports.FocusMode{ports.FocusContinuousVideo},
			PreviewSizes:  previewSizes,
			PreviewSize:   previewSizes[0],
			PreviewFormat: vision.FormatNV21,
		},
	}, nil
}

// Device is an open webcam.
type Device struct {
	webcam *gocv.VideoCapture
	logger ports.Logger

	mu       sync.Mutex
	params   ports.CameraParameters
	callback ports.PreviewCallback
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	released bool
}

// Parameters returns the current parameters.
func (dev *Device) Parameters() ports.CameraParameters {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.params
}

// SetParameters requests the preview size from the capture device.
func (dev *Device) SetParameters(params ports.CameraParameters) error {
	if params.PreviewFormat != vision.FormatNV21 {
		return fmt.Errorf("unsupported preview format %s", params.PreviewFormat)
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.webcam.Set(gocv.VideoCaptureFrameWidth, float64(params.PreviewSize.Width))
	dev.webcam.Set(gocv.VideoCaptureFrameHeight, float64(params.PreviewSize.Height))
	dev.params = params
	return nil
}

// SetPreviewCallback installs cb; nil detaches it.
func (dev *Device) SetPreviewCallback(cb ports.PreviewCallback) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.callback = cb
}

// StartPreview starts reading frames on a background goroutine.
func (dev *Device) StartPreview() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.released {
		return errors.New("camera released")
	}
	if dev.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	dev.cancel = cancel
	dev.wg.Add(1)
	go dev.run(ctx)
	return nil
}

func (dev *Device) run(ctx context.Context) {
	defer dev.wg.Done()

	mat := gocv.NewMat()
	defer mat.Close()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if ok := dev.webcam.Read(&mat); !ok || mat.Empty() {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		dev.mu.Lock()
		cb := dev.callback
		size := dev.params.PreviewSize
		dev.mu.Unlock()
		if cb == nil {
			continue
		}

		data, err := dev.toNV21(mat, size)
		if err != nil {
			dev.logger.Debug("Dropped webcam frame: %s", err)
			continue
		}
		cb(data)
	}
}

// toNV21 scales mat to size when the device ignored the requested size and
// converts it to NV21.
func (dev *Device) toNV21(mat gocv.Mat, size vision.Size) ([]byte, error) {
	src := mat
	if mat.Cols() != size.Width || mat.Rows() != size.Height {
		scaled := gocv.NewMat()
		defer scaled.Close()
		gocv.Resize(mat, &scaled, image.Pt(size.Width, size.Height), 0, 0, gocv.InterpolationLinear)
		src = scaled
	}
	img, err := src.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to get image object: %w", err)
	}
	data, _ := vision.EncodeNV21(img)
	return data, nil
}

// StopPreview stops frame delivery.
func (dev *Device) StopPreview() {
	dev.mu.Lock()
	cancel := dev.cancel
	dev.cancel = nil
	dev.mu.Unlock()
	if cancel != nil {
		cancel()
		dev.wg.Wait()
	}
}

// AutoFocus does nothing; webcams focus continuously and never report a
// completed cycle.
func (dev *Device) AutoFocus(cb ports.AutoFocusCallback) error {
	return nil
}

// CancelAutoFocus does nothing.
func (dev *Device) CancelAutoFocus() {}

// Release stops the preview and closes the capture device.
func (dev *Device) Release() {
	dev.StopPreview()
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if !dev.released {
		dev.released = true
		dev.webcam.Close()
	}
}

// Ensure the webcam types implement the camera ports
var (
	_ ports.CameraDriver = (*Driver)(nil)
	_ ports.CameraDevice = (*Device)(nil)
)

// Package dircamera provides a simulated camera that replays still images
// from a directory as NV21 preview frames.
package dircamera

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/user/qrmobilevision/pkg/ports"
	"github.com/user/qrmobilevision/pkg/vision"
)

// ErrNoImages is returned by StartPreview when the directory holds no
// PNG or JPEG files.
var ErrNoImages = errors.New("no images found")

// DefaultPreviewSizes are offered in ascending order, like most drivers.
var DefaultPreviewSizes = []vision.Size{
	{Width: 320, Height: 240},
	{Width: 640, Height: 480},
	{Width: 1280, Height: 720},
	{Width: 1920, Height: 1080},
}

// Options configures the simulated camera.
type Options struct {
	Dir         string
	FPS         float64       // frames per second; 0 means 15
	Facing      ports.Facing  // reported facing
	Orientation int           // reported sensor orientation in degrees
	Loop        bool          // restart from the first image after the last
	FocusDelay  time.Duration // simulated autofocus cycle; 0 means 500ms
}

// Driver implements ports.CameraDriver with a single simulated camera.
type Driver struct {
	opts     Options
	fs       ports.FileSystem
	renderer ports.Renderer
	logger   ports.Logger

	mu     sync.Mutex
	device *Device
}

// New creates a driver replaying images from opts.Dir.
func New(opts Options, fs ports.FileSystem, renderer ports.Renderer, logger ports.Logger) *Driver {
	if opts.FPS <= 0 {
		opts.FPS = 15
	}
	if opts.FocusDelay <= 0 {
		opts.FocusDelay = 500 * time.Millisecond
	}
	return &Driver{
		opts:     opts,
		fs:       fs,
		renderer: renderer,
		logger:   logger.WithComponent("camera"),
	}
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

// Open returns the simulated device. It fails while the device is open.
func (d *Driver) Open(id int) (ports.CameraDevice, error) {
	if id != 0 {
		return nil, fmt.Errorf("camera %d does not exist", id)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device != nil && !d.device.isReleased() {
		return nil, fmt.Errorf("camera %d is in use", id)
	}
	d.device = newDevice(d)
	return d.device, nil
}

// Done returns a channel closed when a non-looping replay has delivered
// every image. It returns nil before Open.
func (d *Driver) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return nil
	}
	return d.device.done
}

// Ensure Driver implements ports.CameraDriver
var _ ports.CameraDriver = (*Driver)(nil)

// Device is an open simulated camera.
type Device struct {
	driver *Driver

	mu        sync.Mutex
	params    ports.CameraParameters
	callback  ports.PreviewCallback
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	focus     *time.Timer
	released  bool
	done      chan struct{}
	doneOnce  sync.Once
	free      [][]byte
	delivered int
}

func newDevice(d *Driver) *Device {
	return &Device{
		driver: d,
		params: ports.CameraParameters{
			FocusModes:    []ports.FocusMode{ports.FocusFixed, ports.FocusAuto},
			PreviewSizes:  append([]vision.Size(nil), DefaultPreviewSizes...),
			PreviewSize:   DefaultPreviewSizes[1],
			PreviewFormat: vision.FormatNV21,
		},
		done: make(chan struct{}),
	}
}

func (dev *Device) isReleased() bool {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.released
}

// Parameters returns the current parameters.
func (dev *Device) Parameters() ports.CameraParameters {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	p := dev.params
	p.FocusModes = append([]ports.FocusMode(nil), p.FocusModes...)
	p.PreviewSizes = append([]vision.Size(nil), p.PreviewSizes...)
	return p
}

// SetParameters accepts any offered preview size in NV21.
func (dev *Device) SetParameters(params ports.CameraParameters) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	if params.PreviewFormat != vision.FormatNV21 {
		return fmt.Errorf("unsupported preview format %s", params.PreviewFormat)
	}
	offered := false
	for _, s := range dev.params.PreviewSizes {
		if s == params.PreviewSize {
			offered = true
			break
		}
	}
	if !offered {
		return fmt.Errorf("unsupported preview size %s", params.PreviewSize)
	}
	dev.params.PreviewSize = params.PreviewSize
	dev.params.PreviewFormat = params.PreviewFormat
	dev.params.FocusMode = params.FocusMode
	return nil
}

// SetPreviewCallback installs cb; nil detaches it.
func (dev *Device) SetPreviewCallback(cb ports.PreviewCallback) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.callback = cb
}

// StartPreview loads and converts every image, then delivers them at the
// configured rate on a background goroutine.
func (dev *Device) StartPreview() error {
	dev.mu.Lock()
	if dev.cancel != nil {
		dev.mu.Unlock()
		return nil
	}
	size := dev.params.PreviewSize
	dev.mu.Unlock()

	frames, err := dev.driver.load(size)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	dev.mu.Lock()
	dev.cancel = cancel
	dev.mu.Unlock()

	dev.wg.Add(1)
	go dev.run(ctx, frames)
	return nil
}

func (dev *Device) run(ctx context.Context, frames [][]byte) {
	defer dev.wg.Done()

	interval := time.Duration(float64(time.Second) / dev.driver.opts.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		if i == len(frames) {
			if !dev.driver.opts.Loop {
				dev.doneOnce.Do(func() { close(dev.done) })
				return
			}
			i = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		dev.deliver(frames[i])
	}
}

func (dev *Device) deliver(frame []byte) {
	dev.mu.Lock()
	cb := dev.callback
	var buf []byte
	if n := len(dev.free); n > 0 {
		buf = dev.free[n-1]
		dev.free = dev.free[:n-1]
	}
	dev.delivered++
	dev.mu.Unlock()

	if cb == nil {
		return
	}
	if len(buf) != len(frame) {
		buf = make([]byte, len(frame))
	}
	copy(buf, frame)
	cb(buf)
}

// AddCallbackBuffer returns a delivered buffer for reuse.
func (dev *Device) AddCallbackBuffer(buf []byte) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if len(dev.free) < 4 {
		dev.free = append(dev.free, buf)
	}
}

// StopPreview stops delivery and waits for the delivery goroutine.
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

// AutoFocus reports a successful cycle after the configured delay.
func (dev *Device) AutoFocus(cb ports.AutoFocusCallback) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.released {
		return errors.New("camera released")
	}
	if dev.focus != nil {
		dev.focus.Stop()
	}
	dev.focus = time.AfterFunc(dev.driver.opts.FocusDelay, func() { cb(true) })
	return nil
}

// CancelAutoFocus aborts a pending cycle.
func (dev *Device) CancelAutoFocus() {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.focus != nil {
		dev.focus.Stop()
		dev.focus = nil
	}
}

// Release stops the preview and frees the device.
func (dev *Device) Release() {
	dev.CancelAutoFocus()
	dev.StopPreview()
	dev.mu.Lock()
	dev.released = true
	dev.callback = nil
	dev.mu.Unlock()
}

// Delivered returns the number of frames produced so far.
func (dev *Device) Delivered() int {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.delivered
}

// Ensure Device implements ports.CameraDevice and ports.CallbackBufferPool
var (
	_ ports.CameraDevice       = (*Device)(nil)
	_ ports.CallbackBufferPool = (*Device)(nil)
)

// load decodes every image in the directory, scales it to size and
// converts it to NV21.
func (d *Driver) load(size vision.Size) ([][]byte, error) {
	names, err := d.fs.ReadDir(d.opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", d.opts.Dir, err)
	}

	var frames [][]byte
	for _, name := range names {
		switch strings.ToLower(filepath.Ext(name)) {
		case ".png", ".jpg", ".jpeg":
		default:
			continue
		}
		path := filepath.Join(d.opts.Dir, name)
		data, err := d.fs.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		img, err := d.renderer.DecodeImage(data)
		if err != nil {
			d.logger.Warn("Skipping %s: %s", path, err)
			continue
		}
		if b := img.Bounds(); b.Dx() != size.Width || b.Dy() != size.Height {
			img = d.renderer.ResizeImage(img, size.Width, size.Height)
		}
		nv21, _ := vision.EncodeNV21(img)
		frames = append(frames, nv21)
	}

	if len(frames) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, d.opts.Dir)
	}
	d.logger.Debug("Loaded %d images at %s", len(frames), size)
	return frames, nil
}

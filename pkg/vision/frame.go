package vision

import (
	"errors"
	"sync"
)

var (
	// ErrFrameReleased is returned when a released frame is materialized.
	ErrFrameReleased = errors.New("frame already released")
	// ErrInvalidFrame is returned when frame bytes do not match its metadata.
	ErrInvalidFrame = errors.New("invalid frame")
)

// Frame holds one captured preview image.
//
// A Frame is immutable after construction. Ownership moves from the camera
// producer to the coordinator; whoever holds it last calls Release exactly
// once. Release is idempotent so a second call has no effect.
type Frame struct {
	data     []byte
	format   PixelFormat
	width    int
	height   int
	rotation Rotation

	mu        sync.Mutex
	released  bool
	once      sync.Once
	onRelease func()
}

// FrameOption configures a Frame at construction time.
type FrameOption func(*Frame)

// WithReleaseHook registers fn to run once when the frame is released.
// Camera adapters use it to recycle preview buffers.
func WithReleaseHook(fn func()) FrameOption {
	return func(f *Frame) {
		f.onRelease = fn
	}
}

// NewFrame wraps raw preview bytes.
func NewFrame(data []byte, format PixelFormat, width, height int, rotation Rotation, opts ...FrameOption) *Frame {
	f := &Frame{
		data:     data,
		format:   format,
		width:    width,
		height:   height,
		rotation: rotation,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.width }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.height }

// Format returns the pixel format tag.
func (f *Frame) Format() PixelFormat { return f.format }

// Rotation returns the rotation hint captured with the frame.
func (f *Frame) Rotation() Rotation { return f.rotation }

// Released reports whether Release has been called.
func (f *Frame) Released() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released
}

// Descriptor materializes the frame for detection.
// It fails without side effects once the frame has been released.
func (f *Frame) Descriptor() (ImageDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.released {
		return ImageDescriptor{}, ErrFrameReleased
	}
	want := f.format.FrameLen(f.width, f.height)
	if want == 0 || len(f.data) < want {
		return ImageDescriptor{}, ErrInvalidFrame
	}

	return ImageDescriptor{
		Data:     f.data,
		Width:    f.width,
		Height:   f.height,
		Format:   f.format,
		Rotation: f.rotation,
	}, nil
}

// Release drops the frame's reference to its bytes.
func (f *Frame) Release() {
	f.once.Do(func() {
		f.mu.Lock()
		f.released = true
		f.data = nil
		f.mu.Unlock()

		if f.onRelease != nil {
			f.onRelease()
		}
	})
}

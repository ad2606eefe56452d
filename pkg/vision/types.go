// Package vision defines the frame and geometry types shared by the camera,
// the coordinator and the recognizer.
package vision

import "fmt"

// =============================================================================
// Geometry
// =============================================================================

// Size represents width and height in pixels.
type Size struct {
	Width  int
	Height int
}

// Swap returns the size with width and height exchanged.
func (s Size) Swap() Size {
	return Size{Width: s.Height, Height: s.Width}
}

// Exceeds reports whether s is strictly larger than t in both dimensions.
func (s Size) Exceeds(t Size) bool {
	return s.Width > t.Width && s.Height > t.Height
}

// Covers reports whether s is at least as large as t in both dimensions.
func (s Size) Covers(t Size) bool {
	return s.Width >= t.Width && s.Height >= t.Height
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// =============================================================================
// Rotation
// =============================================================================

// Rotation is the canonical rotation hint handed to the recognizer.
type Rotation int

const (
	R0 Rotation = iota
	R90
	R180
	R270
)

// Degrees returns the rotation in degrees.
func (r Rotation) Degrees() int {
	switch r {
	case R90:
		return 90
	case R180:
		return 180
	case R270:
		return 270
	default:
		return 0
	}
}

func (r Rotation) String() string {
	switch r {
	case R0:
		return "R0"
	case R90:
		return "R90"
	case R180:
		return "R180"
	case R270:
		return "R270"
	default:
		return fmt.Sprintf("Rotation(%d)", int(r))
	}
}

// RotationFromDegrees maps 0, 90, 180 and 270 to a Rotation.
// ok is false for any other value.
func RotationFromDegrees(deg int) (r Rotation, ok bool) {
	switch deg {
	case 0:
		return R0, true
	case 90:
		return R90, true
	case 180:
		return R180, true
	case 270:
		return R270, true
	default:
		return R0, false
	}
}

// =============================================================================
// Pixel formats
// =============================================================================

// PixelFormat tags the layout of raw frame bytes.
// Values match the platform image format constants.
type PixelFormat int

const (
	FormatUnknown PixelFormat = 0
	// FormatNV21 is semi-planar YCbCr 4:2:0: a full-resolution Y plane
	// followed by interleaved V/U samples at quarter resolution.
	FormatNV21 PixelFormat = 17
)

func (f PixelFormat) String() string {
	switch f {
	case FormatNV21:
		return "NV21"
	default:
		return fmt.Sprintf("PixelFormat(%d)", int(f))
	}
}

// FrameLen returns the byte length of a width x height image in format f,
// or 0 if the format is not supported.
func (f PixelFormat) FrameLen(width, height int) int {
	switch f {
	case FormatNV21:
		return width*height + 2*((width+1)/2)*((height+1)/2)
	default:
		return 0
	}
}

// ImageDescriptor is what the recognizer receives for one detection.
type ImageDescriptor struct {
	Data     []byte
	Width    int
	Height   int
	Format   PixelFormat
	Rotation Rotation
}

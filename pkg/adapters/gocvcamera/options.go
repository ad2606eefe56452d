// Package gocvcamera provides a webcam-backed camera driver using OpenCV.
// Build with -tags gocv to enable it.
package gocvcamera

import (
	"errors"

	"github.com/user/qrmobilevision/pkg/ports"
)

// ErrUnavailable is returned by New when built without the gocv tag.
var ErrUnavailable = errors.New("webcam support not built in (rebuild with -tags gocv)")

// Options configures the webcam driver.
type Options struct {
	DeviceID    int          // OpenCV capture index
	Facing      ports.Facing // reported facing
	Orientation int          // reported sensor orientation in degrees
}

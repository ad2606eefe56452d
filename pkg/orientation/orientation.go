// Package orientation derives the recognizer rotation hint from the device
// rotation and the camera sensor orientation.
package orientation

import (
	"errors"
	"fmt"

	"github.com/user/qrmobilevision/pkg/ports"
	"github.com/user/qrmobilevision/pkg/vision"
)

// ErrBadRotation reports a compensation angle that is not a right angle.
// It can only occur when the sensor orientation is not 0, 90, 180 or 270.
var ErrBadRotation = errors.New("bad rotation value")

// Compensation returns the sensor-to-display delta for a device rotation,
// as observed on rear cameras of the dominant handset family.
func Compensation(device vision.Rotation) int {
	switch device {
	case vision.R90:
		return 0
	case vision.R180:
		return 270
	case vision.R270:
		return 180
	default:
		return 90
	}
}

// Resolve maps a device rotation and sensor orientation to a rotation hint.
// On a non-right-angle result it returns R0 and an error wrapping
// ErrBadRotation.
func Resolve(device vision.Rotation, sensorDegrees int) (vision.Rotation, error) {
	// +270 corrects the rear camera mirror convention.
	deg := (Compensation(device) + sensorDegrees + 270) % 360
	if deg < 0 {
		deg += 360
	}
	r, ok := vision.RotationFromDegrees(deg)
	if !ok {
		return vision.R0, fmt.Errorf("%w: %d", ErrBadRotation, deg)
	}
	return r, nil
}

// DisplayOrientation returns the preview orientation reported to the host.
func DisplayOrientation(sensorDegrees int) int {
	return ((sensorDegrees+270)%360 + 360) % 360
}

// Resolver wraps Resolve and logs the diagnostic instead of returning it.
type Resolver struct {
	logger ports.Logger
}

// NewResolver creates a Resolver that reports bad values to logger.
func NewResolver(logger ports.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve returns the rotation hint, defaulting to R0 on a bad value.
func (r *Resolver) Resolve(device vision.Rotation, sensorDegrees int) vision.Rotation {
	rot, err := Resolve(device, sensorDegrees)
	if err != nil {
		r.logger.Error("Bad rotation value: %s", err)
	}
	return rot
}

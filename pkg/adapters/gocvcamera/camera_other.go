//go:build !gocv

package gocvcamera

import "github.com/user/qrmobilevision/pkg/ports"

// Available reports whether the package was built with OpenCV support.
const Available = false

// Driver is unavailable in this build.
type Driver struct{ ports.CameraDriver }

// New always fails in this build.
func New(opts Options, logger ports.Logger) (*Driver, error) {
	return nil, ErrUnavailable
}

package mocks

import (
	"sync/atomic"

	"github.com/user/qrmobilevision/pkg/vision"
)

// TrackedFrame is a frame whose releases are counted.
type TrackedFrame struct {
	*vision.Frame
	ID       byte
	releases atomic.Int32
}

// NewTrackedFrame creates a 4x4 NV21 frame whose bytes are all id.
// Descriptors handed to a recognizer can be matched back with DescriptorID.
func NewTrackedFrame(id byte) *TrackedFrame {
	tf := &TrackedFrame{ID: id}
	data := make([]byte, vision.FormatNV21.FrameLen(4, 4))
	for i := range data {
		data[i] = id
	}
	tf.Frame = vision.NewFrame(data, vision.FormatNV21, 4, 4, vision.R0,
		vision.WithReleaseHook(func() { tf.releases.Add(1) }))
	return tf
}

// Releases returns how many times the release hook ran.
func (tf *TrackedFrame) Releases() int {
	return int(tf.releases.Load())
}

// DescriptorID returns the id of the tracked frame desc was built from.
func DescriptorID(desc vision.ImageDescriptor) byte {
	if len(desc.Data) == 0 {
		return 0
	}
	return desc.Data[0]
}

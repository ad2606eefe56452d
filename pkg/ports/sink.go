package ports

import "github.com/user/qrmobilevision/pkg/vision"

// DebugSink abstracts debug output for frames seen by the recognizer.
// Implementations must copy whatever they keep from img: its bytes are
// released after the call returns.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveFrame saves the luma plane of a frame handed to the recognizer.
	SaveFrame(seq uint64, img vision.ImageDescriptor) error

	// SaveDecoded saves an annotated snapshot of a frame that produced payloads.
	SaveDecoded(seq uint64, img vision.ImageDescriptor, payloads []string) error

	// SaveStatsJSON saves the coordinator statistics at shutdown.
	SaveStatsJSON(data []byte) error
}

package ports

import "github.com/user/qrmobilevision/pkg/vision"

// DetectionCallback receives the outcome of one detection.
// payloads may be empty on success; err is non-nil on failure.
type DetectionCallback func(payloads []string, err error)

// Recognizer abstracts an asynchronous barcode recognizer.
type Recognizer interface {
	// Detect starts detection on img and returns without waiting.
	// done is called exactly once, possibly on another goroutine.
	// img.Data is only valid until done returns.
	Detect(img vision.ImageDescriptor, done DetectionCallback)
}

// Host receives decoded payloads.
type Host interface {
	// OnDecoded is called once per decoded payload.
	OnDecoded(text string)
}

// HostFunc is a function adapter for the Host interface.
type HostFunc func(text string)

// OnDecoded implements Host.
func (f HostFunc) OnDecoded(text string) {
	f(text)
}

// Package mocks provides mock implementations for testing.
package mocks

import (
	"sync"

	"github.com/user/qrmobilevision/pkg/ports"
	"github.com/user/qrmobilevision/pkg/vision"
)

// Recognizer is a mock implementation of ports.Recognizer.
// Without DetectFunc it holds every detection until Complete is called.
type Recognizer struct {
	mu sync.Mutex

	DetectFunc func(img vision.ImageDescriptor, done ports.DetectionCallback)

	// Recorded calls for verification
	Calls []vision.ImageDescriptor

	outstanding []ports.DetectionCallback
}

func (m *Recognizer) Detect(img vision.ImageDescriptor, done ports.DetectionCallback) {
	m.mu.Lock()
	m.Calls = append(m.Calls, img)
	fn := m.DetectFunc
	if fn == nil {
		m.outstanding = append(m.outstanding, done)
	}
	m.mu.Unlock()

	if fn != nil {
		fn(img, done)
	}
}

// Complete resolves the oldest held detection. It returns false if none
// is outstanding.
func (m *Recognizer) Complete(payloads []string, err error) bool {
	m.mu.Lock()
	if len(m.outstanding) == 0 {
		m.mu.Unlock()
		return false
	}
	done := m.outstanding[0]
	m.outstanding = m.outstanding[1:]
	m.mu.Unlock()

	done(payloads, err)
	return true
}

// Outstanding returns the number of held detections.
func (m *Recognizer) Outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.outstanding)
}

// CallCount returns the number of Detect calls.
func (m *Recognizer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent Detect argument.
func (m *Recognizer) LastCall() (vision.ImageDescriptor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return vision.ImageDescriptor{}, false
	}
	return m.Calls[len(m.Calls)-1], true
}

var _ ports.Recognizer = (*Recognizer)(nil)

// Host is a mock implementation of ports.Host.
type Host struct {
	mu      sync.Mutex
	Decoded []string

	OnDecodedFunc func(text string)
}

func (m *Host) OnDecoded(text string) {
	m.mu.Lock()
	m.Decoded = append(m.Decoded, text)
	fn := m.OnDecodedFunc
	m.mu.Unlock()

	if fn != nil {
		fn(text)
	}
}

// Payloads returns a copy of the decoded payloads.
func (m *Host) Payloads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Decoded...)
}

var _ ports.Host = (*Host)(nil)

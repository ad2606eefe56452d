package mocks

import (
	"sync"

	"github.com/user/qrmobilevision/pkg/ports"
	"github.com/user/qrmobilevision/pkg/vision"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	Frames    map[uint64][]byte
	Decoded   map[uint64][]string
	StatsJSON []byte

	SaveFrameFunc func(seq uint64, img vision.ImageDescriptor) error
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled: enabled,
		Frames:  make(map[uint64][]byte),
		Decoded: make(map[uint64][]string),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveFrame(seq uint64, img vision.ImageDescriptor) error {
	if m.SaveFrameFunc != nil {
		return m.SaveFrameFunc(seq, img)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Frames[seq] = append([]byte(nil), img.Data...)
	return nil
}

func (m *DebugSink) SaveDecoded(seq uint64, img vision.ImageDescriptor, payloads []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Decoded[seq] = append([]string(nil), payloads...)
	return nil
}

func (m *DebugSink) SaveStatsJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatsJSON = data
	return nil
}

// FrameCount returns the number of saved frames.
func (m *DebugSink) FrameCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Frames)
}

var _ ports.DebugSink = (*DebugSink)(nil)

// NullSink is a no-op implementation of ports.DebugSink.
type NullSink struct{}

func (m *NullSink) Enabled() bool                                             { return false }
func (m *NullSink) SaveFrame(seq uint64, img vision.ImageDescriptor) error    { return nil }
func (m *NullSink) SaveDecoded(uint64, vision.ImageDescriptor, []string) error { return nil }
func (m *NullSink) SaveStatsJSON(data []byte) error                           { return nil }

var _ ports.DebugSink = (*NullSink)(nil)

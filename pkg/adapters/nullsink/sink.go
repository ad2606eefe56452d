// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"github.com/user/qrmobilevision/pkg/ports"
	"github.com/user/qrmobilevision/pkg/vision"
)

// Sink is a no-op implementation of ports.DebugSink.
// It discards all debug output.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false; the coordinator skips debug output entirely.
func (s *Sink) Enabled() bool {
	return false
}

// SaveFrame does nothing.
func (s *Sink) SaveFrame(seq uint64, img vision.ImageDescriptor) error {
	return nil
}

// SaveDecoded does nothing.
func (s *Sink) SaveDecoded(seq uint64, img vision.ImageDescriptor, payloads []string) error {
	return nil
}

// SaveStatsJSON does nothing.
func (s *Sink) SaveStatsJSON(data []byte) error {
	return nil
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)

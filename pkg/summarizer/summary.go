// Package summarizer provides summary generation for scan results.
package summarizer

import "time"

// Summary contains all data collected during a scan session.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Camera session
	Session SessionInfo

	// Scan settings
	Settings Settings

	// Outcome and coordinator counters
	Results ResultInfo

	// Distinct payloads in order of first appearance
	Payloads []PayloadInfo
}

// SessionInfo describes the camera session.
type SessionInfo struct {
	ID            string
	CameraID      int
	PreviewWidth  int // sensor coordinates
	PreviewHeight int
	DisplayWidth  int // display coordinates
	DisplayHeight int
	Orientation   int    // degrees
	FocusMode     string // empty when autofocus is off
}

// Settings contains the scan configuration.
type Settings struct {
	Preset        string
	MinIntervalMs int
	TargetWidth   int
	TargetHeight  int
	Formats       []string
	TryHarder     bool
	Source        string
}

// ResultInfo contains the outcome of the scan.
type ResultInfo struct {
	DurationMs int64
	StopReason string

	Submitted  uint64
	Admitted   uint64
	Throttled  uint64
	Replaced   uint64
	Detections uint64
	Failures   uint64
	Decoded    uint64
	Dropped    uint64
}

// PayloadInfo describes one distinct decoded payload.
type PayloadInfo struct {
	Text        string
	Count       int
	FirstSeenMs int64
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSession sets camera session information.
func (b *Builder) WithSession(session SessionInfo) *Builder {
	b.summary.Session = session
	return b
}

// WithSettings sets scan settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	settings.Formats = append([]string(nil), settings.Formats...)
	b.summary.Settings = settings
	return b
}

// WithResults sets the outcome and counters.
func (b *Builder) WithResults(results ResultInfo) *Builder {
	b.summary.Results = results
	return b
}

// WithPayload appends a decoded payload.
func (b *Builder) WithPayload(text string, count int, firstSeenMs int64) *Builder {
	b.summary.Payloads = append(b.summary.Payloads, PayloadInfo{
		Text:        text,
		Count:       count,
		FirstSeenMs: firstSeenMs,
	})
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}

package coordinator

// Stats is a snapshot of coordinator counters.
type Stats struct {
	// Submitted counts every frame offered by the camera.
	Submitted uint64 `json:"submitted"`

	// Admitted counts frames accepted into the pending slot.
	Admitted uint64 `json:"admitted"`

	// Throttled counts frames released because they arrived within the
	// minimum interval of the previous admission.
	Throttled uint64 `json:"throttled"`

	// Replaced counts pending frames superseded by a newer frame before
	// reaching the recognizer. A high ratio to Admitted means the
	// recognizer is the bottleneck.
	Replaced uint64 `json:"replaced"`

	// Detections counts frames handed to the recognizer.
	Detections uint64 `json:"detections"`

	// Failures counts detections that completed with an error.
	Failures uint64 `json:"failures"`

	// MaterializeFailures counts frames that could not be turned into an
	// image descriptor and were dropped.
	MaterializeFailures uint64 `json:"materialize_failures"`

	// Decoded counts payloads delivered to the host.
	Decoded uint64 `json:"decoded"`

	// Dropped counts frames released because the coordinator was closed.
	Dropped uint64 `json:"dropped"`
}

// Stats returns a snapshot of the counters.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

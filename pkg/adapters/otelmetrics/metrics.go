// Package otelmetrics exports coordinator counters as OpenTelemetry
// observable counters.
package otelmetrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/user/qrmobilevision/pkg/coordinator"
	"github.com/user/qrmobilevision/pkg/ports"
)

// MeterName is the instrumentation scope used by the CLI.
const MeterName = "github.com/user/qrmobilevision"

// StatsSource provides a snapshot of coordinator counters.
type StatsSource interface {
	Stats() coordinator.Stats
}

type counter struct {
	name  string
	desc  string
	unit  string
	value func(coordinator.Stats) uint64
}

var counters = []counter{
	{"qrscan.frames.submitted", "Frames offered by the camera", "{frames}", func(s coordinator.Stats) uint64 { return s.Submitted }},
	{"qrscan.frames.admitted", "Frames accepted for detection", "{frames}", func(s coordinator.Stats) uint64 { return s.Admitted }},
	{"qrscan.frames.throttled", "Frames released by the minimum interval", "{frames}", func(s coordinator.Stats) uint64 { return s.Throttled }},
	{"qrscan.frames.replaced", "Waiting frames superseded by a newer one", "{frames}", func(s coordinator.Stats) uint64 { return s.Replaced }},
	{"qrscan.frames.dropped", "Frames released after shutdown", "{frames}", func(s coordinator.Stats) uint64 { return s.Dropped }},
	{"qrscan.frames.invalid", "Frames that could not be read", "{frames}", func(s coordinator.Stats) uint64 { return s.MaterializeFailures }},
	{"qrscan.detections", "Frames handed to the recognizer", "{detections}", func(s coordinator.Stats) uint64 { return s.Detections }},
	{"qrscan.detections.failed", "Detections that completed with an error", "{detections}", func(s coordinator.Stats) uint64 { return s.Failures }},
	{"qrscan.payloads.decoded", "Payloads delivered to the host", "{payloads}", func(s coordinator.Stats) uint64 { return s.Decoded }},
}

// Register creates one observable counter per coordinator statistic and
// reports src on every collection. Unregister the returned registration
// when src goes away.
func Register(meter metric.Meter, src StatsSource, attrs ...attribute.KeyValue) (metric.Registration, error) {
	instruments := make([]metric.Int64ObservableCounter, len(counters))
	observables := make([]metric.Observable, len(counters))
	for i, c := range counters {
		inst, err := meter.Int64ObservableCounter(c.name,
			metric.WithDescription(c.desc),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", c.name, err)
		}
		instruments[i] = inst
		observables[i] = inst
	}

	set := metric.WithAttributeSet(attribute.NewSet(attrs...))
	reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := src.Stats()
		for i, c := range counters {
			o.ObserveInt64(instruments[i], int64(c.value(stats)), set)
		}
		return nil
	}, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return reg, nil
}

// Host counts payloads per host delivery and forwards them to the next
// host, if any.
type Host struct {
	next    ports.Host
	payload metric.Int64Counter
	attrs   metric.MeasurementOption
}

// NewHost creates a counting host in front of next.
func NewHost(meter metric.Meter, next ports.Host, attrs ...attribute.KeyValue) (*Host, error) {
	c, err := meter.Int64Counter("qrscan.payloads.received",
		metric.WithDescription("Payloads received by the host"),
		metric.WithUnit("{payloads}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create qrscan.payloads.received: %w", err)
	}
	return &Host{
		next:    next,
		payload: c,
		attrs:   metric.WithAttributeSet(attribute.NewSet(attrs...)),
	}, nil
}

// OnDecoded implements ports.Host.
func (h *Host) OnDecoded(text string) {
	h.payload.Add(context.Background(), 1, h.attrs)
	if h.next != nil {
		h.next.OnDecoded(text)
	}
}

// Ensure Host implements ports.Host
var _ ports.Host = (*Host)(nil)

package otelmetrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/user/qrmobilevision/pkg/coordinator"
	"github.com/user/qrmobilevision/pkg/mocks"
)

type fixedStats struct {
	stats coordinator.Stats
}

func (f *fixedStats) Stats() coordinator.Stats {
	return f.stats
}

func newReader() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Sum[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	sums := make(map[string]metricdata.Sum[int64])
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				sums[m.Name] = sum
			}
		}
	}
	return sums
}

func value(t *testing.T, sums map[string]metricdata.Sum[int64], name string) int64 {
	t.Helper()
	sum, ok := sums[name]
	if !ok {
		t.Fatalf("metric %s not collected", name)
	}
	if len(sum.DataPoints) != 1 {
		t.Fatalf("metric %s: expected 1 data point, got %d", name, len(sum.DataPoints))
	}
	return sum.DataPoints[0].Value
}

func TestRegister_ObservesStats(t *testing.T) {
	reader, provider := newReader()
	src := &fixedStats{stats: coordinator.Stats{
		Submitted:  10,
		Admitted:   4,
		Throttled:  5,
		Replaced:   1,
		Detections: 3,
		Failures:   1,
		Decoded:    2,
	}}

	reg, err := Register(provider.Meter(MeterName), src, attribute.String("session.id", "abc"))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	defer reg.Unregister()

	sums := collect(t, reader)
	want := map[string]int64{
		"qrscan.frames.submitted":  10,
		"qrscan.frames.admitted":   4,
		"qrscan.frames.throttled":  5,
		"qrscan.frames.replaced":   1,
		"qrscan.frames.dropped":    0,
		"qrscan.detections":        3,
		"qrscan.detections.failed": 1,
		"qrscan.payloads.decoded":  2,
	}
	for name, v := range want {
		if got := value(t, sums, name); got != v {
			t.Errorf("%s = %d, want %d", name, got, v)
		}
	}

	sum := sums["qrscan.frames.submitted"]
	if !sum.IsMonotonic || sum.Temporality != metricdata.CumulativeTemporality {
		t.Errorf("expected a cumulative monotonic sum, got %+v", sum)
	}
	if v, ok := sum.DataPoints[0].Attributes.Value("session.id"); !ok || v.AsString() != "abc" {
		t.Errorf("expected session.id attribute, got %v", sum.DataPoints[0].Attributes)
	}
}

func TestRegister_FollowsSource(t *testing.T) {
	reader, provider := newReader()
	src := &fixedStats{}

	reg, err := Register(provider.Meter(MeterName), src)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	src.stats.Admitted = 7
	if got := value(t, collect(t, reader), "qrscan.frames.admitted"); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}

	if err := reg.Unregister(); err != nil {
		t.Fatalf("Unregister failed: %v", err)
	}
	src.stats.Admitted = 9
	sums := collect(t, reader)
	if sum, ok := sums["qrscan.frames.admitted"]; ok && len(sum.DataPoints) > 0 && sum.DataPoints[0].Value == 9 {
		t.Error("unregistered source must not be observed")
	}
}

func TestHost_CountsAndForwards(t *testing.T) {
	reader, provider := newReader()
	next := &mocks.Host{}

	host, err := NewHost(provider.Meter(MeterName), next)
	if err != nil {
		t.Fatalf("NewHost failed: %v", err)
	}
	host.OnDecoded("a")
	host.OnDecoded("b")

	if got := value(t, collect(t, reader), "qrscan.payloads.received"); got != 2 {
		t.Errorf("expected 2 payloads counted, got %d", got)
	}
	if got := next.Payloads(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("expected payloads forwarded in order, got %v", got)
	}
}

func TestHost_NilNext(t *testing.T) {
	_, provider := newReader()
	host, err := NewHost(provider.Meter(MeterName), nil)
	if err != nil {
		t.Fatalf("NewHost failed: %v", err)
	}
	host.OnDecoded("x") // must not panic
}

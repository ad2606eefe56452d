package telemetry

import (
	"testing"
	"time"
)

func TestOptions_WithDefaults(t *testing.T) {
	got := Options{}.withDefaults()

	if got.ServiceName != "qrscan" {
		t.Errorf("expected service name qrscan, got %q", got.ServiceName)
	}
	if got.Endpoint != "localhost:4317" {
		t.Errorf("expected default endpoint, got %q", got.Endpoint)
	}
	if got.Interval != 10*time.Second {
		t.Errorf("expected 10s interval, got %s", got.Interval)
	}
}

func TestOptions_WithDefaultsKeepsValues(t *testing.T) {
	in := Options{
		ServiceName: "scanner",
		Endpoint:    "collector:4317",
		Insecure:    true,
		Interval:    time.Second,
	}
	got := in.withDefaults()

	if got != in {
		t.Errorf("expected %+v unchanged, got %+v", in, got)
	}
}

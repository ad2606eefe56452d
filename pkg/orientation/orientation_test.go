package orientation

import (
	"errors"
	"testing"

	"github.com/user/qrmobilevision/pkg/adapters/logger"
	"github.com/user/qrmobilevision/pkg/vision"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		device vision.Rotation
		sensor int
		want   vision.Rotation
	}{
		{"R90 with sensor 90", vision.R90, 90, vision.R0},
		{"R0 with sensor 90", vision.R0, 90, vision.R90},
		{"R180 with sensor 90", vision.R180, 90, vision.R270},
		{"R270 with sensor 90", vision.R270, 90, vision.R180},
		{"R0 with sensor 0", vision.R0, 0, vision.R0},
		{"R0 with sensor 270", vision.R0, 270, vision.R270},
		{"R90 with sensor 270", vision.R90, 270, vision.R180},
		{"R180 with sensor 180", vision.R180, 180, vision.R0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.device, tt.sensor)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%s, %d) = %s, want %s", tt.device, tt.sensor, got, tt.want)
			}
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	first, _ := Resolve(vision.R270, 90)
	for i := 0; i < 100; i++ {
		got, _ := Resolve(vision.R270, 90)
		if got != first {
			t.Fatalf("call %d: got %s, want %s", i, got, first)
		}
	}
}

func TestResolve_BadValue(t *testing.T) {
	got, err := Resolve(vision.R0, 45)
	if !errors.Is(err, ErrBadRotation) {
		t.Fatalf("expected ErrBadRotation, got %v", err)
	}
	if got != vision.R0 {
		t.Errorf("expected R0 default, got %s", got)
	}
}

func TestResolver_DefaultsToR0(t *testing.T) {
	r := NewResolver(logger.NewNoop())
	if got := r.Resolve(vision.R0, 10); got != vision.R0 {
		t.Errorf("expected R0, got %s", got)
	}
	if got := r.Resolve(vision.R0, 90); got != vision.R90 {
		t.Errorf("expected R90, got %s", got)
	}
}

func TestDisplayOrientation(t *testing.T) {
	tests := map[int]int{0: 270, 90: 0, 180: 90, 270: 180}
	for sensor, want := range tests {
		if got := DisplayOrientation(sensor); got != want {
			t.Errorf("DisplayOrientation(%d) = %d, want %d", sensor, got, want)
		}
	}
}

package previewsize

import (
	"testing"

	"github.com/user/qrmobilevision/pkg/vision"
)

func sizes(dims ...int) []vision.Size {
	out := make([]vision.Size, 0, len(dims)/2)
	for i := 0; i+1 < len(dims); i += 2 {
		out = append(out, vision.Size{Width: dims[i], Height: dims[i+1]})
	}
	return out
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name    string
		offered []vision.Size
		target  vision.Size
		sensor  int
		want    vision.Size
	}{
		{
			name:    "single element",
			offered: sizes(640, 480),
			target:  vision.Size{Width: 1920, Height: 1080},
			sensor:  90,
			want:    vision.Size{Width: 640, Height: 480},
		},
		{
			name:    "ascending axis-aligned",
			offered: sizes(320, 240, 640, 480, 1280, 720),
			target:  vision.Size{Width: 800, Height: 600},
			sensor:  0,
			want:    vision.Size{Width: 1280, Height: 720},
		},
		{
			name:    "descending rotated",
			offered: sizes(1280, 720, 640, 480, 320, 240),
			target:  vision.Size{Width: 480, Height: 640},
			sensor:  90,
			want:    vision.Size{Width: 640, Height: 480},
		},
		{
			name:    "ascending rotated swaps target",
			offered: sizes(320, 240, 640, 480, 1280, 720),
			target:  vision.Size{Width: 400, Height: 600},
			sensor:  270,
			want:    vision.Size{Width: 640, Height: 480},
		},
		{
			name:    "ascending all smaller returns largest",
			offered: sizes(320, 240, 640, 480),
			target:  vision.Size{Width: 1920, Height: 1080},
			sensor:  0,
			want:    vision.Size{Width: 640, Height: 480},
		},
		{
			name:    "ascending all larger returns smallest",
			offered: sizes(320, 240, 640, 480),
			target:  vision.Size{Width: 100, Height: 100},
			sensor:  0,
			want:    vision.Size{Width: 320, Height: 240},
		},
		{
			name:    "ascending equal dimensions do not exceed",
			offered: sizes(320, 240, 640, 480, 1280, 720),
			target:  vision.Size{Width: 640, Height: 480},
			sensor:  0,
			want:    vision.Size{Width: 1280, Height: 720},
		},
		{
			name:    "descending all smaller returns largest",
			offered: sizes(640, 480, 320, 240),
			target:  vision.Size{Width: 1920, Height: 1080},
			sensor:  0,
			want:    vision.Size{Width: 640, Height: 480},
		},
		{
			name:    "descending all larger returns smallest",
			offered: sizes(1280, 720, 640, 480),
			target:  vision.Size{Width: 100, Height: 100},
			sensor:  180,
			want:    vision.Size{Width: 640, Height: 480},
		},
		{
			name:    "descending equal dimensions cover",
			offered: sizes(1280, 720, 640, 480, 320, 240),
			target:  vision.Size{Width: 640, Height: 480},
			sensor:  0,
			want:    vision.Size{Width: 640, Height: 480},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(tt.offered, tt.target, tt.sensor)
			if got != tt.want {
				t.Errorf("Select() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSelect_Idempotent(t *testing.T) {
	offered := sizes(176, 144, 320, 240, 640, 480, 1280, 720, 1920, 1080)
	target := vision.Size{Width: 720, Height: 1280}

	first := Select(offered, target, 90)
	second := Select(offered, target, 90)
	if first != second {
		t.Errorf("expected identical results, got %s and %s", first, second)
	}
	if offered[0] != (vision.Size{Width: 176, Height: 144}) {
		t.Error("Select must not reorder its input")
	}
}

func TestSelect_EmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on empty list")
		}
	}()
	Select(nil, vision.Size{Width: 1, Height: 1}, 0)
}

package summarizer

import (
	"reflect"
	"testing"
	"time"
)

func TestNewSummary(t *testing.T) {
	before := time.Now()
	summary := NewSummary()
	after := time.Now()

	if summary.GeneratedAt.Before(before) || summary.GeneratedAt.After(after) {
		t.Errorf("GeneratedAt should be between %v and %v, got %v",
			before, after, summary.GeneratedAt)
	}
}

func TestBuilder_WithSession(t *testing.T) {
	summary := NewBuilder().
		WithSession(SessionInfo{
			ID:            "abc",
			CameraID:      1,
			PreviewWidth:  1280,
			PreviewHeight: 720,
			DisplayWidth:  720,
			DisplayHeight: 1280,
			Orientation:   90,
			FocusMode:     "auto",
		}).
		Build()

	if summary.Session.ID != "abc" || summary.Session.CameraID != 1 {
		t.Errorf("unexpected session %+v", summary.Session)
	}
	if summary.Session.DisplayWidth != 720 || summary.Session.Orientation != 90 {
		t.Errorf("unexpected session %+v", summary.Session)
	}
}

func TestBuilder_WithSettingsCopiesFormats(t *testing.T) {
	formats := []string{"qr_code"}
	summary := NewBuilder().
		WithSettings(Settings{Preset: "balanced", Formats: formats}).
		Build()

	formats[0] = "changed"
	if !reflect.DeepEqual(summary.Settings.Formats, []string{"qr_code"}) {
		t.Errorf("settings must not share the caller's slice, got %v", summary.Settings.Formats)
	}
}

func TestBuilder_WithResults(t *testing.T) {
	summary := NewBuilder().
		WithResults(ResultInfo{DurationMs: 1500, StopReason: "duration", Admitted: 3, Decoded: 2}).
		Build()

	if summary.Results.DurationMs != 1500 || summary.Results.StopReason != "duration" {
		t.Errorf("unexpected results %+v", summary.Results)
	}
	if summary.Results.Admitted != 3 || summary.Results.Decoded != 2 {
		t.Errorf("unexpected counters %+v", summary.Results)
	}
}

func TestBuilder_WithPayload(t *testing.T) {
	summary := NewBuilder().
		WithPayload("first", 3, 10).
		WithPayload("second", 1, 250).
		Build()

	want := []PayloadInfo{
		{Text: "first", Count: 3, FirstSeenMs: 10},
		{Text: "second", Count: 1, FirstSeenMs: 250},
	}
	if !reflect.DeepEqual(summary.Payloads, want) {
		t.Errorf("expected %+v, got %+v", want, summary.Payloads)
	}
}

func TestFormatFunc(t *testing.T) {
	var f Formatter = FormatFunc(func(s *Summary) string {
		return s.Session.ID
	})
	if got := f.Format(&Summary{Session: SessionInfo{ID: "x"}}); got != "x" {
		t.Errorf("expected %q, got %q", "x", got)
	}
}

package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/user/qrmobilevision/pkg/ports"
)

func TestConsoleLogger_Streams(t *testing.T) {
	var out, errOut bytes.Buffer
	log := NewConsoleWriters(ports.LevelDebug, &out, &errOut)

	log.Debug("trace %d", 1)
	log.Info("progress %d", 2)
	log.Warn("problem %d", 3)
	log.Error("failure %d", 4)

	if got := out.String(); got != "trace 1\nprogress 2\n" {
		t.Errorf("unexpected stdout %q", got)
	}
	if got := errOut.String(); got != "problem 3\nfailure 4\n" {
		t.Errorf("unexpected stderr %q", got)
	}
}

func TestConsoleLogger_Level(t *testing.T) {
	tests := []struct {
		level ports.LogLevel
		want  int
	}{
		{ports.LevelDebug, 4},
		{ports.LevelInfo, 3},
		{ports.LevelWarn, 2},
		{ports.LevelError, 1},
		{ports.LevelQuiet, 0},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			log := NewConsoleWriters(tt.level, &buf, &buf)
			log.Debug("d")
			log.Info("i")
			log.Warn("w")
			log.Error("e")

			lines := strings.Count(buf.String(), "\n")
			if lines != tt.want {
				t.Errorf("expected %d lines, got %d: %q", tt.want, lines, buf.String())
			}
		})
	}
}

func TestConsoleLogger_WithComponent(t *testing.T) {
	var out, errOut bytes.Buffer
	log := NewConsoleWriters(ports.LevelInfo, &out, &errOut).WithComponent("zxing")

	log.Info("ready")
	log.Debug("hidden")

	if got := out.String(); got != "[zxing] ready\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestNoopLogger(t *testing.T) {
	log := NewNoop()
	log.Error("nothing %s", "happens")
	if log.WithComponent("x") != ports.Logger(log) {
		t.Error("expected the same logger")
	}
}

package zaplogger

import (
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestLogger_SatisfiesLevels(t *testing.T) {
	z := zaptest.NewLogger(t)
	l := New(z)

	// These must not panic; zaptest routes output through t.Log.
	l.Debug("debug message", "k", "v")
	l.Info("info message", "k", 1)
	l.Warn("warn message")
	l.Error("error message", "err", "boom")
}

package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DEBUG},
		{"DEBUG", DEBUG},
		{" warn ", WARN},
		{"warning", WARN},
		{"error", ERROR},
		{"fatal", FATAL},
		{"info", INFO},
		{"", INFO},
		{"verbose", INFO},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "level %q", tt.in)
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(WARN, &buf, true)

	log.Info("hidden %d", 1)
	log.Debugw("hidden too")
	log.Warnw("payment status check failed", "pid", "abc123")
	_ = log.Sync()

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "payment status check failed")
	assert.Contains(t, out, `"pid":"abc123"`)
}

func TestNamedAndWith(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(DEBUG, &buf, true).Named("status").With("pid", "p-1")

	log.Debug("tick %d", 3)
	_ = log.Sync()

	out := buf.String()
	assert.Contains(t, out, `"logger":"status"`)
	assert.Contains(t, out, `"pid":"p-1"`)
	assert.Contains(t, out, "tick 3")
	assert.Equal(t, DEBUG, log.Level(), "children keep the parent level")
}

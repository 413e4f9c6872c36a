package auth

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefLoggerRendersKeyValuePairs(t *testing.T) {
	buf := &bytes.Buffer{}
	prev := defLogOutput
	defLogOutput = buf
	t.Cleanup(func() { defLogOutput = prev })

	defLogger{}.Info("user registered", "email", "admin@example.com")

	out := buf.String()
	assert.Contains(t, out, "[INF] AUTH user registered")
	assert.Contains(t, out, "email")
	assert.Contains(t, out, "admin@example.com")
	assert.NotContains(t, out, "EXTRA")
}

func TestDefLoggerLevels(t *testing.T) {
	buf := &bytes.Buffer{}
	prev := defLogOutput
	defLogOutput = buf
	t.Cleanup(func() { defLogOutput = prev })

	l := defLogger{}
	l.Debug("d")
	l.Warn("w")
	l.Error("e")

	out := buf.String()
	assert.Contains(t, out, "[DBG] AUTH d")
	assert.Contains(t, out, "[WRN] AUTH w")
	assert.Contains(t, out, "[ERR] AUTH e")
}

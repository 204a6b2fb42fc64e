package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn")

	l.Debug("debug %d", 1)
	l.Info("info %d", 2)
	l.Warn("warn %d", 3)
	l.Error("error %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "debug 1")
	assert.NotContains(t, out, "info 2")
	assert.Contains(t, out, "[WARN]")
	assert.Contains(t, out, "warn 3")
	assert.Contains(t, out, "[ERROR]")
	assert.Contains(t, out, "error 4")
}

func TestUnknownLevelLogsEverything(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "chatty")

	l.Debug("hello")
	assert.Contains(t, buf.String(), "hello")
}

func TestRequestLine(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info")

	l.Request("req-1", "GET", "/Token", 500, 1500*time.Microsecond)

	line := buf.String()
	assert.Contains(t, line, "GET /Token -> 500")
	assert.Contains(t, line, "[req-1]")
	assert.True(t, strings.Contains(line, "❌"))
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "proxy.log")

	l, err := NewLogger(path, "info", false)
	require.NoError(t, err)
	l.Info("written to file")
	l.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestGlobalHelpersWithoutLogger(t *testing.T) {
	SetGlobal(nil)
	// без глобального логгера вызовы молча игнорируются
	Info("nothing")
	Error("nothing")

	var buf bytes.Buffer
	InitWriter(&buf, "debug")
	t.Cleanup(func() { SetGlobal(nil) })

	Debug("visible %s", "now")
	assert.Contains(t, buf.String(), "visible now")
}

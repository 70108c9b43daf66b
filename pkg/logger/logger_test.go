package logger

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	l := newLogger(t.TempDir(), io.Discard, "", "")
	require.NotNil(t, l)

	// Logger methods must not panic
	l.Info("Test info message", "TEST")
	l.Warn("Test warning message", "TEST")
	l.Debug("Test debug message", "TEST")
	l.System("Test system message", "TEST")
	l.Success("Test success message", "TEST")

	l.Close()
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelCritical, "CRITICAL"},
		{LevelError, "ERROR"},
		{LevelWarn, "WARN"},
		{LevelSuccess, "SUCCESS"},
		{LevelInfo, "INFO"},
		{LevelDebug, "DEBUG"},
		{LevelSystem, "SYSTEM"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.String())
			assert.NotEmpty(t, tt.level.Color())
		})
	}
}

func TestLogLevelDiscordColor(t *testing.T) {
	tests := []struct {
		level LogLevel
		color int
	}{
		{LevelCritical, 0xFF0000},
		{LevelError, 0xFF0000},
		{LevelWarn, 0xFFFF00},
		{LevelSuccess, 0x00FF00},
		{LevelInfo, 0x0000FF},
		{LevelDebug, 0x800080},
		{LevelSystem, 0x808080},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			assert.Equal(t, tt.color, tt.level.DiscordColor())
		})
	}
}

func TestLogFileOutput(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	l := newLogger(dir, &console, "", "")
	l.Info("sweep started", "Sweep")
	l.Error("lookup failed for 42", "Verification")
	l.Close()

	combined, err := os.ReadFile(filepath.Join(dir, "combined.log"))
	require.NoError(t, err)
	assert.Contains(t, string(combined), "prefix=Sweep")
	assert.Contains(t, string(combined), "sweep started")
	assert.Contains(t, string(combined), "lookup failed for 42")

	errorLog, err := os.ReadFile(filepath.Join(dir, "error.log"))
	require.NoError(t, err)
	assert.Contains(t, string(errorLog), "prefix=Verification")
	assert.NotContains(t, string(errorLog), "sweep started")

	assert.Contains(t, console.String(), "[Sweep]: sweep started")
}

func TestWebhookDelivery(t *testing.T) {
	received := make(chan webhookPayload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p webhookPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err == nil {
			received <- p
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	l := newLogger(t.TempDir(), io.Discard, srv.URL, "")
	defer l.Close()

	l.Error("boom", "Warnings")

	select {
	case p := <-received:
		require.Len(t, p.Embeds, 1)
		assert.Equal(t, "[ERROR] Warnings", p.Embeds[0].Title)
		assert.Equal(t, 0xFF0000, p.Embeds[0].Color)
	case <-time.After(3 * time.Second):
		t.Fatal("webhook was not called")
	}
}

func TestGlobalLoggerInit(t *testing.T) {
	logger = nil
	once = sync.Once{}

	l := Init("", "")
	require.NotNil(t, l)

	assert.Same(t, l, Init("different", "different"), "Init should return the same logger on subsequent calls")
	assert.Same(t, l, Get())

	l.Close()
}

package logging

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestLoggerCapturesOutput(t *testing.T) {
	logger, buf := NewTestLogger()

	logger.Info("tool called", "tool", "scan_contract_risks")
	logger.Debug("details", "bytes", 42)

	out := buf.String()
	assert.Contains(t, out, "tool called")
	assert.Contains(t, out, "scan_contract_risks")
	assert.Contains(t, out, "bytes=42")
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "json", Writer: &buf})
	require.NoError(t, err)

	logger.Warn("slow request", "path", "/api/scan")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "slow request", entry["msg"])
	assert.Equal(t, "/api/scan", entry["path"])
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Writer: &buf})
	require.NoError(t, err)

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Error("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)

	_, err = New(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestWithAddsFields(t *testing.T) {
	logger, buf := NewTestLogger()
	logger.With("request_id", "abc").Info("done")
	assert.Contains(t, buf.String(), "request_id=abc")
}

func TestSetDefault(t *testing.T) {
	prev := GetDefault()
	t.Cleanup(func() { SetDefault(prev) })

	logger, buf := NewTestLogger()
	SetDefault(logger)
	Info("through package helper")
	logger.LogPerformance("scan", time.Now())
	assert.Contains(t, buf.String(), "through package helper")
	assert.Contains(t, buf.String(), "Performance")
}

package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseLogLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithField("component", "gateway").Info("session verified")

	entry := parseLogLine(t, &buf)
	assert.Equal(t, "session verified", entry["msg"])
	assert.Equal(t, "gateway", entry["component"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WarnLevel, &buf)

	logger.Info("should not appear")
	assert.Zero(t, buf.Len())

	logger.Warn("should appear")
	assert.NotZero(t, buf.Len())
}

func TestLogger_WithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithError(errors.New("connection refused")).Error("store lookup failed")

	entry := parseLogLine(t, &buf)
	assert.Equal(t, "connection refused", entry["error"])
}

func TestLogger_WithErrorNil(t *testing.T) {
	logger := NewLogger(InfoLevel, nil)
	assert.Same(t, logger, logger.WithError(nil))
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	ctx := WithLogger(context.Background(), logger)
	ctx = WithRequestID(ctx, "req-123")
	ctx = WithAdminEmail(ctx, "admin@example.com")

	FromContext(ctx).Info("checked")

	entry := parseLogLine(t, &buf)
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, "admin@example.com", entry["admin_email"])
}

func TestGetAdminEmail_Missing(t *testing.T) {
	assert.Empty(t, GetAdminEmail(context.Background()))
}

package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestRequestContext_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "debug", "json")

	rc := NewRequestContext(logger, "add_event", "42")
	rc.Info("event added", slog.String(LogFieldEventID, "abc"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "event added", record["msg"])
	assert.Equal(t, "add_event", record[LogFieldOperation])
	assert.Equal(t, "42", record[LogFieldUserID])
	assert.Equal(t, "abc", record[LogFieldEventID])
	assert.NotEmpty(t, record[LogFieldRequestID])
}

func TestRequestContext_RoundTripThroughContext(t *testing.T) {
	rc := NewRequestContext(nil, "sweep", "")
	ctx := WithRequestContext(context.Background(), rc)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, rc, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}

package ctxlogger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(ContextHandler{Handler: slog.NewJSONHandler(&buf, nil)})

	parent := AppendCtx(context.Background(), slog.String("request_id", "r1"))
	child := AppendCtx(parent, slog.String("room_id", "room"))

	logger.InfoContext(child, "hello")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "r1", record["request_id"])
	assert.Equal(t, "room", record["room_id"])

	buf.Reset()
	logger.InfoContext(parent, "parent")

	record = map[string]any{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "r1", record["request_id"])
	assert.NotContains(t, record, "room_id", "appending to a child leaves the parent untouched")
}

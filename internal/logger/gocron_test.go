package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGocronLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewGocronLogger(New(&buf, "debug", true))

	log.Info("job scheduled", "name", "store_maintenance")
	log.Error("job failed", "name", "store_maintenance", "oops")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &second))

	assert.Equal(t, "INFO", first["level"])
	assert.Equal(t, "gocron: job scheduled", first["msg"])
	assert.Equal(t, "gocron", first["component"])
	assert.Equal(t, "store_maintenance", first["name"])

	assert.Equal(t, "ERROR", second["level"])
	assert.Equal(t, "oops", second["extra"])
}

func TestGocronLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewGocronLogger(New(&buf, "warn", false))

	log.Debug("tick")
	log.Info("scheduled")
	assert.Empty(t, buf.String())

	log.Warn("slow job")
	assert.Contains(t, buf.String(), "gocron: slow job")
}

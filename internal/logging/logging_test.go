package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/boosterpack/internal/logging"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.New("debug", "json", &buf)
	require.NoError(t, err)

	log.Info().Str("pack", "p1").Msg("pack opened")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "p1", line["pack"])
	assert.Equal(t, "pack opened", line["message"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.New("warn", "json", &buf)
	require.NoError(t, err)

	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.New("info", "console", &buf)
	require.NoError(t, err)

	log.Info().Str("session", "s1").Msg("session closed")
	assert.Contains(t, buf.String(), "session closed")
	assert.Contains(t, buf.String(), "session=s1")
}

func TestNew_BadLevel(t *testing.T) {
	_, err := logging.New("shouting", "json", &bytes.Buffer{})
	assert.Error(t, err)
}

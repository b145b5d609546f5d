package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jroosing/herald/internal/logging"
)

func TestConfigureDefaults(t *testing.T) {
	logger := logging.Configure(logging.Config{})
	require.NotNil(t, logger, "Configure should return a logger")
}

func TestConfigureAllLevels(t *testing.T) {
	levels := []string{"DEBUG", "INFO", "WARN", "WARNING", "ERROR", "debug", "DeBuG", "INVALID", ""}

	for _, level := range levels {
		t.Run(level, func(t *testing.T) {
			logger := logging.Configure(logging.Config{Level: level})
			assert.NotNil(t, logger)
		})
	}
}

func TestLevelFiltersOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.ConfigureWriter(logging.Config{Level: "WARN"}, &buf)

	logger.Info("quiet")
	logger.Warn("loud")

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "loud")
}

func TestJSONFormatEmitsValidJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.ConfigureWriter(logging.Config{Level: "INFO", Format: "json"}, &buf)

	logger.Info("hello", "answer", 42)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, float64(42), entry["answer"])
}

func TestTextFormatIsKeyValue(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.ConfigureWriter(logging.Config{Level: "INFO", Format: "text"}, &buf)

	logger.Info("hello", "answer", 42)

	out := buf.String()
	assert.Contains(t, out, "msg=hello")
	assert.Contains(t, out, "answer=42")
}

func TestIncludePID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.ConfigureWriter(logging.Config{Level: "INFO", Format: "json", IncludePID: true}, &buf)

	logger.Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, float64(os.Getpid()), entry["pid"])
}

func TestConfigureSetsDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	logging.ConfigureWriter(logging.Config{Level: "INFO"}, &buf)

	slog.Info("through the default")

	assert.Contains(t, buf.String(), "through the default")
}

package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleHandler(t *testing.T) {
	t.Parallel()
	buf := new(bytes.Buffer)
	logger, err := New(buf, Options{Level: "debug", NoColor: true})
	require.NoError(t, err)

	logger.Debug("mt19937 created", "id", 1, "seed", 5489)
	assert.Contains(t, buf.String(), "DEBUG mt19937 created id: 1 seed: 5489\n")

	buf.Reset()
	logger.With("file", "main.js").WithGroup("vm").Warn("slow", "ms", 20)
	assert.Contains(t, buf.String(), "WARN slow file: main.js vm.ms: 20\n")

	buf.Reset()
	logger.Error("failed")
	assert.Regexp(t, `^\[\d{2}:\d{2}:\d{2}\.\d{3}\] ERROR failed\n$`, buf.String())
}

func TestConsoleHandlerLevel(t *testing.T) {
	t.Parallel()
	buf := new(bytes.Buffer)
	logger, err := New(buf, Options{NoColor: true})
	require.NoError(t, err)

	logger.Debug("hidden")
	assert.Empty(t, buf.String())
	assert.True(t, logger.Enabled(t.Context(), slog.LevelInfo))

	_, err = New(buf, Options{Level: "verbose"})
	assert.Error(t, err)
}

func TestConsoleHandlerColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	buf := new(bytes.Buffer)
	logger, err := New(buf, Options{Level: "info"})
	require.NoError(t, err)

	logger.Error("failed")
	assert.Contains(t, buf.String(), "\x1b[31mERROR\x1b[0m failed")
}

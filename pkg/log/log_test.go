package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level Level, formatter Formatter) (*bytes.Buffer, Logger) {
	buf := &bytes.Buffer{}
	out := NewConsoleOutput(WithCustomWriter(buf), WithCustomErrorWriter(buf))
	return buf, NewLogger(WithLevel(level), WithFormatter(formatter), WithOutput(out))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"fatal", FatalLevel},
		{"garbage", InfoLevel},
		{"", InfoLevel},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseLevel(tc.input))
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	buf, logger := newBufferLogger(WarnLevel, &TextFormatter{DisableColors: true})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestWithFields(t *testing.T) {
	buf, logger := newBufferLogger(InfoLevel, &TextFormatter{DisableColors: true})

	logger.With(Str("repository", "acme/api"), Int("attempt", 2)).Info("uploading")

	out := buf.String()
	assert.Contains(t, out, "repository=acme/api")
	assert.Contains(t, out, "attempt=2")
	assert.Contains(t, out, "uploading")
}

func TestWithComponentDoesNotMutateParent(t *testing.T) {
	buf, logger := newBufferLogger(InfoLevel, &TextFormatter{DisableColors: true})

	child := logger.WithComponent("backup")
	child.Info("from child")
	logger.Info("from parent")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "component=backup")
	assert.NotContains(t, string(lines[1]), "component=backup")
}

func TestJSONFormatter(t *testing.T) {
	buf, logger := newBufferLogger(InfoLevel, &JSONFormatter{})

	logger.With(Str("bucket", "org-backups")).Error("upload failed")

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, "ERROR", data["level"])
	assert.Equal(t, "upload failed", data["message"])
	assert.Equal(t, "org-backups", data["bucket"])
	assert.NotEmpty(t, data["timestamp"])
}

func TestErrField(t *testing.T) {
	f := Err(assert.AnError)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, assert.AnError.Error(), f.Value)

	f = Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Nil(t, f.Value)
}

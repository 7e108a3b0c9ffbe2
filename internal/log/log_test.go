package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info", "text")
	l.Debug("hidden")
	l.Info("registered module", "module", "vector")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "module=vector")
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "debug", "json")
	l.Debug("sealed", "types", 7)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "sealed", rec["msg"])
	assert.Equal(t, float64(7), rec["types"])
}

func TestDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))
	l := Discard()
	assert.Same(t, l, OrDiscard(l))
	l.Error("dropped")
}

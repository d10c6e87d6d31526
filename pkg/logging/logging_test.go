package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"dEbUg", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"Warning", LevelWarn},
		{" error ", LevelError},
		{"", LevelInfo},
		{"trace", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestValidLevel(t *testing.T) {
	assert.True(t, ValidLevel(""))
	assert.True(t, ValidLevel("WARN"))
	assert.False(t, ValidLevel("trace"))
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatJSON, ParseFormat("Json"))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatText, ParseFormat(""))
	assert.Equal(t, FormatText, ParseFormat("yaml"))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelWarn, Format: FormatJSON, Output: &buf})

	log.Info("dropped")
	log.Warn("kept", "table", "persons")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, "persons", rec["table"])
}

func TestFromStrings(t *testing.T) {
	cfg := FromStrings("debug", "json")
	assert.Equal(t, LevelDebug, cfg.Level)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.NotNil(t, cfg.Output)
}

func TestNop(t *testing.T) {
	log := Nop()
	require.NotNil(t, log)
	log.Error("nothing happens")
}

func TestTee(t *testing.T) {
	var console, file bytes.Buffer
	log := Tee(
		Config{Level: LevelInfo, Format: FormatText, Output: &console},
		Config{Level: LevelDebug, Format: FormatJSON, Output: &file},
	)

	log.Debug("only in file")
	log.With("resource", "people").Info("both")

	assert.NotContains(t, console.String(), "only in file")
	assert.Contains(t, console.String(), "resource=people")
	assert.Contains(t, file.String(), `"msg":"only in file"`)
	assert.Contains(t, file.String(), `"resource":"people"`)
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestMultiHandler_ContinuesAfterFailure(t *testing.T) {
	var buf bytes.Buffer
	text := slog.NewTextHandler(&buf, nil)
	h := NewMultiHandler(failingHandler{text}, nil, text)

	err := slog.New(h).Handler().Handle(context.Background(), slog.NewRecord(time.Time{}, LevelInfo, "hello", 0))
	assert.EqualError(t, err, "disk full")
	assert.Contains(t, buf.String(), "hello")
	assert.False(t, h.Enabled(context.Background(), LevelDebug))
	assert.Same(t, h, h.WithGroup(""))
}

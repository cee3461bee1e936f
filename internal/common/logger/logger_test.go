package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapWrapper_FieldsAreCarried(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).With(map[string]interface{}{"taskType": "parse-query"})

	log.Info("parsed", map[string]interface{}{"kind": "price_filter"})
	log.WithError(errors.New("boom")).Error("failed", nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "parse-query", entries[0].ContextMap()["taskType"])
	assert.Equal(t, "price_filter", entries[0].ContextMap()["kind"])
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestZapWrapper_NilErrorAndEmptyFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := NewZapAdapter(zap.New(core))

	assert.Same(t, base, base.WithError(nil))
	assert.Same(t, base, base.With(nil))

	base.Info("plain", nil)
	require.Len(t, logs.All(), 1)
	assert.Empty(t, logs.All()[0].ContextMap())
}

func TestToZapFields(t *testing.T) {
	fields := toZapFields(map[string]interface{}{"cause": errors.New("x")})
	require.Len(t, fields, 1)
	assert.Equal(t, zapcore.ErrorType, fields[0].Type)
	assert.Nil(t, toZapFields(nil))
}

func TestToZapFields_RedactsCredentials(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	log.Info("extractor configured", map[string]interface{}{
		"apiKey": "gsk_live_secret",
		"model":  "llama-3.1-8b-instant",
	})

	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "[REDACTED]", ctx["apiKey"])
	assert.Equal(t, "llama-3.1-8b-instant", ctx["model"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{" error ", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestNew_LevelSelection(t *testing.T) {
	assert.True(t, New("debug", "console").Core().Enabled(zapcore.DebugLevel))
	assert.False(t, New("warn", "json").Core().Enabled(zapcore.InfoLevel))
	assert.True(t, New("", "json").Core().Enabled(zapcore.InfoLevel))
}

// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSONLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(WithOutput(&buf))

	logger.Debug("catalog cache hit", "path", "vehicles.xosc")
	assert.Empty(t, buf.String(), "DEBUG is filtered at the default INFO level")

	logger.Info("catalog resolved", "key", "vehicle:VehicleCatalog:car")
	entry := decodeJSONLine(t, &buf)

	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "catalog resolved", entry["msg"])
	assert.Equal(t, "vehicle:VehicleCatalog:car", entry["key"])

	ts, ok := entry["time"].(string)
	require.True(t, ok, "time field should be a string")
	_, err := time.Parse(time.RFC3339, ts)
	assert.NoError(t, err, "timestamp should be valid RFC3339")
}

func TestNew_Options(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		opts     []Option
		log      func(*slog.Logger)
		contains []string
		empty    bool
	}{
		{
			name:     "text format",
			opts:     []Option{WithFormat(FormatText)},
			log:      func(l *slog.Logger) { l.Info("discovered catalog files", "count", 3) },
			contains: []string{"level=INFO", `msg="discovered catalog files"`, "count=3"},
		},
		{
			name:     "debug level lets debug through",
			opts:     []Option{WithLevel(slog.LevelDebug)},
			log:      func(l *slog.Logger) { l.Debug("parse reused", "digest", "sha256:abc") },
			contains: []string{`"level":"DEBUG"`, `"digest":"sha256:abc"`},
		},
		{
			name:  "error level drops warnings",
			opts:  []Option{WithLevel(slog.LevelError)},
			log:   func(l *slog.Logger) { l.Warn("duplicate entry") },
			empty: true,
		},
		{
			name:     "later options win",
			opts:     []Option{WithFormat(FormatText), WithFormat(FormatJSON)},
			log:      func(l *slog.Logger) { l.Info("cache cleared") },
			contains: []string{`"msg":"cache cleared"`},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			tc.log(New(append(tc.opts, WithOutput(&buf))...))

			if tc.empty {
				assert.Empty(t, buf.String())
				return
			}
			for _, want := range tc.contains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestNew_DynamicLevel(t *testing.T) {
	t.Parallel()

	var (
		buf bytes.Buffer
		lvl slog.LevelVar
	)
	logger := New(WithOutput(&buf), WithLevel(&lvl))

	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	lvl.Set(slog.LevelDebug)
	logger.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewHandler(t *testing.T) {
	t.Parallel()

	var fromNew, fromHandler bytes.Buffer
	New(WithOutput(&fromNew)).Info("catalog resolved", "entry", "car")
	slog.New(NewHandler(WithOutput(&fromHandler))).Info("catalog resolved", "entry", "car")

	a, b := decodeJSONLine(t, &fromNew), decodeJSONLine(t, &fromHandler)
	delete(a, "time")
	delete(b, "time")
	assert.Equal(t, a, b)

	var text bytes.Buffer
	h := NewHandler(WithOutput(&text), WithFormat(FormatText))
	slog.New(h.WithAttrs([]slog.Attr{slog.String("component", "loader")})).Info("scan")
	assert.True(t, strings.Contains(text.String(), "component=loader"), text.String())
}

func TestReplaceAttr(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 17, 10, 30, 0, 0, time.UTC)
	result := replaceAttr(nil, slog.Time(slog.TimeKey, now))
	assert.Equal(t, slog.TimeKey, result.Key)
	assert.Equal(t, "2026-02-17T10:30:00Z", result.Value.String())

	attr := slog.String("key", "value")
	assert.Equal(t, attr, replaceAttr(nil, attr))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "debug", want: slog.LevelDebug},
		{in: "WARN", want: slog.LevelWarn},
		{in: " error ", want: slog.LevelError},
		{in: "info+2", want: slog.LevelInfo + 2},
		{in: "verbose", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLevel(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatJSON},
		{in: "json", want: FormatJSON},
		{in: "Text", want: FormatText},
		{in: "yaml", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseFormat(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, strings.ToLower(strings.TrimSpace(tc.in)) == "text", got.String() == "text")
		})
	}
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	logger := Discard()
	require.NotNil(t, logger)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
	logger.Error("dropped")
}

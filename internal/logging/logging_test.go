package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"fatal", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "warn", "json")
	require.NoError(t, err)

	l.Info("dropped")
	l.Warn("kept", "child", "c1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, "c1", rec["child"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "debug", "text")
	require.NoError(t, err)

	l.Debug("hello", "n", 3)
	assert.Contains(t, buf.String(), "msg=hello n=3")

	_, err = New(&buf, "info", "xml")
	assert.Error(t, err)
}

func TestSetup_InstallsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	_, err := Setup(&buf, "info", "text")
	require.NoError(t, err)

	slog.Info("via default")
	assert.Contains(t, buf.String(), "via default")
}

func TestContext(t *testing.T) {
	ctx := context.Background()
	assert.Same(t, slog.Default(), FromContext(ctx))

	var buf bytes.Buffer
	l, err := New(&buf, "info", "text")
	require.NoError(t, err)
	assert.Same(t, l, FromContext(WithLogger(ctx, l)))
}

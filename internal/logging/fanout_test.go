package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFanout(t *testing.T) {
	var info, warn bytes.Buffer

	logger := slog.New(NewFanout(
		slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&warn, &slog.HandlerOptions{Level: slog.LevelWarn}),
	))

	logger.With("reservation_id", 7).WithGroup("payment").Info("reservation paid", "total", "23.13")
	logger.Warn("reservation commit failed")

	assert.Contains(t, info.String(), "reservation_id=7")
	assert.Contains(t, info.String(), "payment.total=23.13")
	assert.Equal(t, 2, strings.Count(info.String(), "\n"))

	assert.NotContains(t, warn.String(), "reservation paid")
	assert.Contains(t, warn.String(), "reservation commit failed")
}

func TestFanoutEnabled(t *testing.T) {
	f := NewFanout(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))

	assert.False(t, f.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, f.Enabled(context.Background(), slog.LevelError))
}

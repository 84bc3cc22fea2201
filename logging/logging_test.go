package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, ParseLevel("DEBUG"), slog.LevelDebug)
	assert.Equal(t, ParseLevel("warning"), slog.LevelWarn)
	assert.Equal(t, ParseLevel("error"), slog.LevelError)
	assert.Equal(t, ParseLevel(""), slog.LevelInfo)
	assert.Equal(t, ParseLevel("chatty"), slog.LevelInfo)
}

func TestSetupConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	log, closeFn := Setup("warn", "", &buf)
	defer closeFn()

	log.Info("hidden")
	log.Warn("dataset reloaded", "name", "nba_scores_clienti.csv")
	out := buf.String()
	assert.Assert(t, !bytes.Contains(buf.Bytes(), []byte("hidden")))
	assert.Assert(t, is.Contains(out, "dataset reloaded"))
	assert.Assert(t, is.Contains(out, "name=nba_scores_clienti.csv"))
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	}}
	assert.Assert(t, h.Enabled(context.Background(), slog.LevelDebug))

	log := slog.New(h).With("page", "contatti")
	log.Info("rendered")
	log.Error("copilot failed")

	assert.Assert(t, is.Contains(a.String(), "rendered"))
	assert.Assert(t, is.Contains(a.String(), "page=contatti"))
	assert.Assert(t, !bytes.Contains(b.Bytes(), []byte("rendered")))
	assert.Assert(t, is.Contains(b.String(), "copilot failed"))
}

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDualHandlerMirrorsErrorsToSecondary(t *testing.T) {
	t.Cleanup(EnableErrorMirroring)
	EnableErrorMirroring()

	var primaryBuf, secondaryBuf bytes.Buffer
	primary := slog.NewTextHandler(&primaryBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	secondary := slog.NewTextHandler(&secondaryBuf, &slog.HandlerOptions{Level: slog.LevelError})
	logger := slog.New(NewDualHandler(primary, secondary))

	logger.Error("boom", slog.String("foo", "bar"))
	logger.Info("still going")

	assert.Contains(t, primaryBuf.String(), "boom")
	assert.Contains(t, primaryBuf.String(), "still going")
	assert.Contains(t, secondaryBuf.String(), "boom")
	assert.NotContains(t, secondaryBuf.String(), "still going")
}

func TestDualHandlerCanDisableMirroring(t *testing.T) {
	t.Cleanup(EnableErrorMirroring)
	DisableErrorMirroring()

	var primaryBuf, secondaryBuf bytes.Buffer
	primary := slog.NewTextHandler(&primaryBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	secondary := slog.NewTextHandler(&secondaryBuf, &slog.HandlerOptions{Level: slog.LevelError})
	logger := slog.New(NewDualHandler(primary, secondary))

	logger.Error("boom")

	assert.Contains(t, primaryBuf.String(), "boom")
	assert.Empty(t, secondaryBuf.String())
}

func TestFriendlyHandlerRendersFieldErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewFriendlyErrorHandler(&buf))

	logger.Error("validation failed",
		slog.String("hint", "fix the fields and retry"),
		slog.String("entity", "voucher"),
		FieldErrors(map[string]string{
			"amount": "must be >= 0",
			"date":   "is required",
		}, []string{"date", "amount"}),
	)

	want := "Error: validation failed\n" +
		"  hint: fix the fields and retry\n" +
		"  date: is required\n" +
		"  amount: must be >= 0\n" +
		"  entity: voucher\n"
	assert.Equal(t, want, buf.String())
}

func TestFriendlyHandlerFallsBackToErrorAttr(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewFriendlyErrorHandler(&buf))

	logger.Info("ignored")
	logger.Error("", slog.String("error", "record not found"))

	assert.Equal(t, "Error: record not found\n", buf.String())
}

func TestContextHandlerAddsCommandAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil)))

	ctx := WithCommandContext(context.Background(), CommandContext{Verb: "delete", Entity: "color"})
	ctx = WithCommandContext(ctx, CommandContext{RecordID: " abc "})
	logger.InfoContext(ctx, "deleting")

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "delete", got["command_verb"])
	assert.Equal(t, "color", got["entity"])
	assert.Equal(t, "abc", got["record_id"])
	assert.NotContains(t, got, "command_path")
}

func TestNewWritesJSONToFile(t *testing.T) {
	t.Cleanup(EnableErrorMirroring)
	path := filepath.Join(t.TempDir(), "logs", "dealerctl.log")
	var stderr bytes.Buffer

	logger, closer, err := New(Options{Level: "trace", File: path, Stderr: &stderr})
	require.NoError(t, err)

	logger.Log(context.Background(), LevelTrace, "tracing")
	logger.Error("failed", slog.String("error", "boom"))
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"level":"TRACE"`)
	assert.Contains(t, string(data), `"msg":"failed"`)
	assert.Equal(t, "Error: failed\n", stderr.String())
}

func TestFromContextWithoutLogger(t *testing.T) {
	logger := FromContext(context.Background())
	require.NotNil(t, logger)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestConfigLevelStringToSlogLevel(t *testing.T) {
	assert.Equal(t, LevelTrace, ConfigLevelStringToSlogLevel("TRACE"))
	assert.Equal(t, slog.LevelWarn, ConfigLevelStringToSlogLevel("warn"))
	assert.Equal(t, slog.LevelError, ConfigLevelStringToSlogLevel("bogus"))
}

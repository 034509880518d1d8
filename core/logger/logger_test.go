package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cookiejar/core/logger"
)

type ctxKey struct{}

func TestNew(t *testing.T) {
	t.Run("text output at info level by default", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf))

		log.Debug("hidden")
		log.Info("visible", logger.Component("cookie"))

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "msg=visible")
		assert.Contains(t, out, "component=cookie")
	})

	t.Run("json output", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf), logger.WithJSONFormatter(), logger.WithLevel(slog.LevelDebug))

		log.Debug("made", logger.Alias("cart"))

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "made", record["msg"])
		assert.Equal(t, "cart", record["cookie_alias"])
	})

	t.Run("development preset", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.New(logger.WithDevelopment("demo"), logger.WithOutput(&buf))

		log.Debug("debugging")

		out := buf.String()
		assert.Contains(t, out, "debugging")
		assert.Contains(t, out, "service=demo")
		assert.Contains(t, out, "env=development")
	})

	t.Run("production preset", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.New(logger.WithProduction("demo"), logger.WithOutput(&buf))

		log.Debug("hidden")
		log.Info("shown")

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "shown", record["msg"])
		assert.Equal(t, "production", record["env"])
	})

	t.Run("static attributes", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf), logger.WithAttr(slog.String("version", "1.2.3")))

		log.Info("hello")
		assert.Contains(t, buf.String(), "version=1.2.3")
	})

	t.Run("context values", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf), logger.WithContextValue("request_id", ctxKey{}))

		ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
		log.InfoContext(ctx, "with id")
		log.With("k", "v").InfoContext(context.Background(), "without id")

		out := buf.String()
		assert.Contains(t, out, "request_id=req-1")
		assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("request_id")))
	})
}

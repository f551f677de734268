package logger_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/apikit/core/logger"
)

func TestAttrHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.String("component", "dispatch"), logger.Component("dispatch"))
	assert.Equal(t, slog.String("method", "GET"), logger.Method("GET"))
	assert.Equal(t, slog.Int("status_code", 200), logger.StatusCode(200))
	assert.Equal(t, slog.String("handler", "getUser"), logger.Handler("getUser"))

	// Nil and empty inputs collapse to the empty attr.
	assert.Equal(t, slog.Attr{}, logger.Error(nil))
	assert.Equal(t, slog.Attr{}, logger.RequestID(""))
	assert.Equal(t, slog.Attr{}, logger.Query(""))
	assert.Equal(t, slog.Attr{}, logger.Handler(""))
}

func TestHandlers(t *testing.T) {
	t.Parallel()

	t.Run("json logger emits structured output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.NewJSONLogger(&buf, slog.LevelInfo)
		log.Info("served", logger.Error(errors.New("partial failure")))

		assert.Contains(t, buf.String(), `"msg":"served"`)
		assert.Contains(t, buf.String(), "partial failure")
	})

	t.Run("dev logger respects level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.NewDevLogger(&buf, slog.LevelWarn)
		log.Info("hidden")
		log.Warn("visible")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "visible")
	})

	t.Run("discard drops everything", func(t *testing.T) {
		t.Parallel()

		log := logger.Discard()
		assert.NotNil(t, log)
		log.Error("dropped")
	})
}

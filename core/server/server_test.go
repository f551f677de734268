package server_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/apikit/core/server"
)

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("creates server from default config", func(t *testing.T) {
		t.Parallel()

		srv, err := server.NewFromConfig(server.DefaultConfig())
		require.NoError(t, err)
		assert.NotNil(t, srv)
	})

	t.Run("requires an address", func(t *testing.T) {
		t.Parallel()

		_, err := server.NewFromConfig(server.Config{})
		assert.ErrorIs(t, err, server.ErrMissingAddress)
	})

	t.Run("options override config values", func(t *testing.T) {
		t.Parallel()

		srv, err := server.NewFromConfig(
			server.Config{Addr: ":8080", ShutdownTimeout: 30 * time.Second},
			server.WithShutdownTimeout(10*time.Second),
		)
		require.NoError(t, err)
		assert.NotNil(t, srv)
	})
}

func TestServerLifecycle(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("start returns when context is canceled", func(t *testing.T) {
		t.Parallel()

		srv := server.New("127.0.0.1:0", server.WithShutdownTimeout(time.Second))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- srv.Start(ctx, handler)
		}()

		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(2 * time.Second):
			t.Fatal("server did not stop after context cancellation")
		}

		require.NoError(t, srv.Stop())
	})

	t.Run("double start is rejected", func(t *testing.T) {
		t.Parallel()

		srv := server.New("127.0.0.1:0")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = srv.Start(ctx, handler) }()
		time.Sleep(50 * time.Millisecond)

		err := srv.Start(ctx, handler)
		assert.ErrorIs(t, err, server.ErrServerAlreadyRunning)

		require.NoError(t, srv.Stop())
	})

	t.Run("stop without start is a no-op", func(t *testing.T) {
		t.Parallel()

		srv := server.New(":0")
		assert.NoError(t, srv.Stop())
	})

	t.Run("run returns nil on graceful shutdown", func(t *testing.T) {
		t.Parallel()

		srv := server.New("127.0.0.1:0", server.WithShutdownTimeout(time.Second))
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			done <- srv.Run(ctx, handler)()
		}()

		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("run did not return after context cancellation")
		}
	})
}

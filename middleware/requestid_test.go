package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/apikit/core/dispatch"
	"github.com/dmitrymomot/apikit/middleware"
)

func buildRouter(t *testing.T, stage dispatch.Stage, handler dispatch.Handler) *chi.Mux {
	t.Helper()
	d := dispatch.New(dispatch.WithBeforeAuth(stage))
	r := chi.NewRouter()
	require.NoError(t, d.Build(dispatch.Routes{"GET /test": handler}, r))
	return r
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates an id and echoes it in the response", func(t *testing.T) {
		t.Parallel()

		var seen string
		r := buildRouter(t, middleware.RequestID(), func(c *dispatch.Context) error {
			id, ok := middleware.GetRequestID(c)
			require.True(t, ok)
			seen = id
			return c.NoContent()
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		require.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
	})

	t.Run("reuses an incoming id by default", func(t *testing.T) {
		t.Parallel()

		r := buildRouter(t, middleware.RequestID(), func(c *dispatch.Context) error {
			id, _ := middleware.GetRequestID(c)
			assert.Equal(t, "upstream-id", id)
			return c.NoContent()
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Request-ID", "upstream-id")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "upstream-id", w.Header().Get("X-Request-ID"))
	})

	t.Run("ignores incoming id when disabled", func(t *testing.T) {
		t.Parallel()

		r := buildRouter(t, middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			UseExisting: false,
		}), func(c *dispatch.Context) error {
			return c.NoContent()
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Request-ID", "upstream-id")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.NotEqual(t, "upstream-id", w.Header().Get("X-Request-ID"))
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("custom generator and header", func(t *testing.T) {
		t.Parallel()

		r := buildRouter(t, middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			HeaderName: "X-Trace-ID",
			Generator:  func() string { return "fixed-id" },
		}), func(c *dispatch.Context) error {
			return c.NoContent()
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, "fixed-id", w.Header().Get("X-Trace-ID"))
	})

	t.Run("id set before a mount is visible in mounted handlers", func(t *testing.T) {
		t.Parallel()

		d := dispatch.New(dispatch.WithBeforeAuth(middleware.RequestID()))
		r := chi.NewRouter()
		require.NoError(t, d.Build(dispatch.Routes{
			"MOUNT /api": dispatch.MountFunc(func(sub *dispatch.Dispatcher) dispatch.Routes {
				return dispatch.Routes{
					"GET /ping": func(c *dispatch.Context) error {
						id, ok := middleware.GetRequestID(c)
						require.True(t, ok)
						return c.String(http.StatusOK, id)
					},
				}
			}),
		}, r))

		req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
		req.Header.Set("X-Request-ID", "upstream-id")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "upstream-id", w.Body.String())
	})

	t.Run("skip leaves the request untouched", func(t *testing.T) {
		t.Parallel()

		r := buildRouter(t, middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			Skip: func(c *dispatch.Context) bool { return true },
		}), func(c *dispatch.Context) error {
			_, ok := middleware.GetRequestID(c)
			assert.False(t, ok)
			return c.NoContent()
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Empty(t, w.Header().Get("X-Request-ID"))
	})
}

package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/apikit/core/response"
)

func render(t *testing.T, resp response.Response) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, resp(w, r))
	return w
}

func TestString(t *testing.T) {
	t.Parallel()

	w := render(t, response.String("hello"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "hello", w.Body.String())

	w = render(t, response.StringWithStatus("made", http.StatusCreated))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = render(t, response.StringWithStatus("", http.StatusAccepted))
	assert.Empty(t, w.Body.String())
}

func TestJSON(t *testing.T) {
	t.Parallel()

	t.Run("encodes the value", func(t *testing.T) {
		t.Parallel()

		w := render(t, response.JSON(map[string]string{"k": "v"}))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "v", body["k"])
	})

	t.Run("no body for 204 and 304", func(t *testing.T) {
		t.Parallel()

		w := render(t, response.JSONWithStatus(map[string]string{"k": "v"}, http.StatusNoContent))
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())

		w = render(t, response.JSONWithStatus(nil, http.StatusNotModified))
		assert.Empty(t, w.Body.String())
	})

	t.Run("zero status defaults by payload", func(t *testing.T) {
		t.Parallel()

		w := render(t, response.JSONWithStatus(map[string]int{"n": 1}, 0))
		assert.Equal(t, http.StatusOK, w.Code)

		w = render(t, response.JSONWithStatus(nil, 0))
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestNoContentAndStatus(t *testing.T) {
	t.Parallel()

	w := render(t, response.NoContent())
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = render(t, response.Status(http.StatusTeapot))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestHTTPError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusNotFound, response.ErrNotFound.StatusCode())
	assert.Equal(t, http.StatusText(http.StatusNotFound), response.ErrNotFound.Error())

	custom := response.ErrNotFound.WithMessage("no such order")
	assert.Equal(t, "no such order", custom.Error())
	// The original is untouched.
	assert.Equal(t, http.StatusText(http.StatusNotFound), response.ErrNotFound.Message)

	detailed := response.ErrBadRequest.WithDetails(map[string]any{"field": "email"})
	assert.Equal(t, "email", detailed.Details["field"])
	assert.Nil(t, response.ErrBadRequest.Details)
}

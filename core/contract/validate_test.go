package contract_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/apikit/core/contract"
	"github.com/dmitrymomot/apikit/core/schema"
)

func TestNewSnapshot(t *testing.T) {
	t.Parallel()

	t.Run("captures all request parts", func(t *testing.T) {
		t.Parallel()

		op := contract.MustNew(contract.Contract{
			Request: &contract.RequestContract{
				Body: schema.Object(schema.Fields{"name": schema.String()}),
			},
			Response: okResponse(),
		})

		r := httptest.NewRequest("POST", "/users?page=2&tag=a&tag=b", strings.NewReader(`{"name":"alice"}`))
		r.Header.Set("Content-Type", "application/json")
		r.Header.Set("X-Token", "secret")

		snap, err := op.NewSnapshot(r, map[string]string{"id": "42"})
		require.NoError(t, err)

		assert.Equal(t, map[string]any{"name": "alice"}, snap.Body)
		assert.Equal(t, "42", snap.Params["id"])
		assert.Equal(t, []string{"2"}, snap.Query["page"])
		assert.Equal(t, []string{"a", "b"}, snap.Query["tag"])
		assert.Equal(t, "secret", snap.Headers["x-token"])
	})

	t.Run("no body schema skips body decode", func(t *testing.T) {
		t.Parallel()

		op := contract.MustNew(contract.Contract{Response: okResponse()})

		r := httptest.NewRequest("POST", "/things", strings.NewReader("not json at all"))
		snap, err := op.NewSnapshot(r, nil)
		require.NoError(t, err)
		assert.Nil(t, snap.Body)
		assert.NotNil(t, snap.Params)
	})

	t.Run("content type gate runs before body decode", func(t *testing.T) {
		t.Parallel()

		op := contract.MustNew(contract.Contract{
			Request:  &contract.RequestContract{Body: schema.Any()},
			Response: okResponse(),
		})

		r := httptest.NewRequest("POST", "/things", strings.NewReader(`{"ok":true}`))
		r.Header.Set("Content-Type", "text/plain")

		_, err := op.NewSnapshot(r, nil)
		var verr *contract.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Len(t, verr.Issues, 1)
		assert.Equal(t, []string{"headers", "content-type"}, verr.Issues[0].Path)
		assert.Equal(t, "invalid_content_type", verr.Issues[0].Code)
	})

	t.Run("missing content type with declared body", func(t *testing.T) {
		t.Parallel()

		op := contract.MustNew(contract.Contract{
			Request:  &contract.RequestContract{Body: schema.Any()},
			Response: okResponse(),
		})

		r := httptest.NewRequest("POST", "/things", strings.NewReader(`{}`))

		_, err := op.NewSnapshot(r, nil)
		var verr *contract.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("custom media types with parameters", func(t *testing.T) {
		t.Parallel()

		op := contract.MustNew(contract.Contract{
			Request: &contract.RequestContract{
				Body:        schema.Any(),
				ContentType: []string{"application/vnd.api+json"},
			},
			Response: okResponse(),
		})

		r := httptest.NewRequest("POST", "/things", strings.NewReader(`{}`))
		r.Header.Set("Content-Type", "application/vnd.api+json; charset=utf-8")

		_, err := op.NewSnapshot(r, nil)
		assert.NoError(t, err)
	})

	t.Run("malformed json body", func(t *testing.T) {
		t.Parallel()

		op := contract.MustNew(contract.Contract{
			Request:  &contract.RequestContract{Body: schema.Any()},
			Response: okResponse(),
		})

		r := httptest.NewRequest("POST", "/things", strings.NewReader(`{"broken`))
		r.Header.Set("Content-Type", "application/json")

		_, err := op.NewSnapshot(r, nil)
		var verr *contract.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Len(t, verr.Issues, 1)
		assert.Equal(t, "invalid_json", verr.Issues[0].Code)
	})

	t.Run("oversized body", func(t *testing.T) {
		t.Parallel()

		op := contract.MustNew(contract.Contract{
			Request:  &contract.RequestContract{Body: schema.Any()},
			Response: okResponse(),
		})

		huge := `{"pad":"` + strings.Repeat("x", contract.DefaultMaxBodySize) + `"}`
		r := httptest.NewRequest("POST", "/things", strings.NewReader(huge))
		r.Header.Set("Content-Type", "application/json")

		_, err := op.NewSnapshot(r, nil)
		var verr *contract.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Len(t, verr.Issues, 1)
		assert.Equal(t, "too_big", verr.Issues[0].Code)
	})

	t.Run("empty body is nil", func(t *testing.T) {
		t.Parallel()

		op := contract.MustNew(contract.Contract{
			Request:  &contract.RequestContract{Body: schema.Any()},
			Response: okResponse(),
		})

		r := httptest.NewRequest("POST", "/things", nil)
		r.Header.Set("Content-Type", "application/json")

		snap, err := op.NewSnapshot(r, nil)
		require.NoError(t, err)
		assert.Nil(t, snap.Body)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("declared parts are coerced, undeclared pass through raw", func(t *testing.T) {
		t.Parallel()

		op := contract.MustNew(contract.Contract{
			Request: &contract.RequestContract{
				Params: schema.Object(schema.Fields{"id": schema.Int().Positive()}),
				Query:  schema.Object(schema.Fields{"limit": schema.Default(schema.Int(), int64(20))}),
			},
			Response: okResponse(),
		})

		snap := &contract.Snapshot{
			Params:  map[string]string{"id": "42"},
			Query:   map[string][]string{},
			Headers: map[string]string{"x-raw": "untouched"},
		}

		v, err := op.Validate(ctx, snap)
		require.NoError(t, err)

		params := v.Params.(map[string]any)
		assert.EqualValues(t, 42, params["id"])

		query := v.Query.(map[string]any)
		assert.EqualValues(t, 20, query["limit"])

		// Headers were not declared, so the raw snapshot map passes through.
		headers := v.Headers.(map[string]string)
		assert.Equal(t, "untouched", headers["x-raw"])
	})

	t.Run("issues aggregate across parts with part-prefixed paths", func(t *testing.T) {
		t.Parallel()

		op := contract.MustNew(contract.Contract{
			Request: &contract.RequestContract{
				Body:   schema.Object(schema.Fields{"name": schema.String()}),
				Params: schema.Object(schema.Fields{"id": schema.Int()}),
			},
			Response: okResponse(),
		})

		snap := &contract.Snapshot{
			Body:   map[string]any{},
			Params: map[string]string{"id": "abc"},
		}

		_, err := op.Validate(ctx, snap)
		var verr *contract.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Len(t, verr.Issues, 2)

		paths := [][]string{verr.Issues[0].Path, verr.Issues[1].Path}
		assert.Contains(t, paths, []string{"body", "name"})
		assert.Contains(t, paths, []string{"params", "id"})
	})

	t.Run("no declared request validates everything through", func(t *testing.T) {
		t.Parallel()

		op := contract.MustNew(contract.Contract{Response: okResponse()})

		snap := &contract.Snapshot{Body: map[string]any{"free": "form"}}
		v, err := op.Validate(ctx, snap)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"free": "form"}, v.Body)
	})

	t.Run("multi-value query addressed by array schema", func(t *testing.T) {
		t.Parallel()

		op := contract.MustNew(contract.Contract{
			Request: &contract.RequestContract{
				Query: schema.Object(schema.Fields{
					"tag": schema.Array(schema.String()),
				}),
			},
			Response: okResponse(),
		})

		snap := &contract.Snapshot{
			Query: map[string][]string{"tag": {"a", "b"}},
		}
		v, err := op.Validate(ctx, snap)
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "b"}, v.Query.(map[string]any)["tag"])

		snap = &contract.Snapshot{
			Query: map[string][]string{"tag": {"solo"}},
		}
		v, err = op.Validate(ctx, snap)
		require.NoError(t, err)
		assert.Equal(t, []any{"solo"}, v.Query.(map[string]any)["tag"])
	})

	t.Run("unknown body fields are stripped", func(t *testing.T) {
		t.Parallel()

		op := contract.MustNew(contract.Contract{
			Request: &contract.RequestContract{
				Body: schema.Object(schema.Fields{"name": schema.String()}),
			},
			Response: okResponse(),
		})

		snap := &contract.Snapshot{
			Body: map[string]any{"name": "alice", "role": "admin"},
		}
		v, err := op.Validate(ctx, snap)
		require.NoError(t, err)

		body := v.Body.(map[string]any)
		assert.Equal(t, "alice", body["name"])
		assert.NotContains(t, body, "role")
	})
}

func TestValidationErrorStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 400, (&contract.ValidationError{}).StatusCode())
	assert.Equal(t, 422, (&contract.ValidationError{Status: 422}).StatusCode())
	assert.Equal(t, 500, (&contract.SerializationError{}).StatusCode())
}

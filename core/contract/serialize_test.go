package contract_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/apikit/core/contract"
	"github.com/dmitrymomot/apikit/core/schema"
)

func userResponseOp(t *testing.T) *contract.Operation {
	t.Helper()
	return contract.MustNew(contract.Contract{
		Response: contract.ResponseContract{
			Content: map[int]contract.ResponseEntry{
				200: {Schema: schema.Object(schema.Fields{
					"id":   schema.Int(),
					"name": schema.String(),
				})},
				204: {},
			},
		},
	})
}

func TestWriteTyped(t *testing.T) {
	t.Parallel()

	t.Run("writes data as-is without schema checks", func(t *testing.T) {
		t.Parallel()

		op := userResponseOp(t)
		w := httptest.NewRecorder()

		err := op.WriteTyped(w, 200, map[string]any{"id": 1, "name": "alice", "secret": "kept"})
		require.NoError(t, err)

		assert.Equal(t, 200, w.Code)
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		// The fast path trusts the caller: no stripping happens.
		assert.Equal(t, "kept", body["secret"])
	})

	t.Run("no-body status writes only the status line", func(t *testing.T) {
		t.Parallel()

		op := userResponseOp(t)
		w := httptest.NewRecorder()

		err := op.WriteTyped(w, 204, map[string]any{"ignored": true})
		require.NoError(t, err)
		assert.Equal(t, 204, w.Code)
		assert.Empty(t, w.Body.Bytes())
	})

	t.Run("undeclared status writes no body", func(t *testing.T) {
		t.Parallel()

		op := userResponseOp(t)
		w := httptest.NewRecorder()

		err := op.WriteTyped(w, 418, map[string]any{"ignored": true})
		require.NoError(t, err)
		assert.Equal(t, 418, w.Code)
		assert.Empty(t, w.Body.Bytes())
	})

	t.Run("nil data writes no body", func(t *testing.T) {
		t.Parallel()

		op := userResponseOp(t)
		w := httptest.NewRecorder()

		require.NoError(t, op.WriteTyped(w, 200, nil))
		assert.Empty(t, w.Body.Bytes())
	})
}

func TestWriteValidated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("strips undeclared fields", func(t *testing.T) {
		t.Parallel()

		op := userResponseOp(t)
		w := httptest.NewRecorder()

		err := op.WriteValidated(ctx, w, 200, map[string]any{
			"id":     float64(1),
			"name":   "alice",
			"secret": "stripped",
		})
		require.NoError(t, err)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "alice", body["name"])
		assert.NotContains(t, body, "secret")
	})

	t.Run("applies declared defaults", func(t *testing.T) {
		t.Parallel()

		op := contract.MustNew(contract.Contract{
			Response: contract.ResponseContract{
				Content: map[int]contract.ResponseEntry{
					200: {Schema: schema.Object(schema.Fields{
						"name": schema.String(),
						"role": schema.Default(schema.String(), "member"),
					})},
				},
			},
		})
		w := httptest.NewRecorder()

		err := op.WriteValidated(ctx, w, 200, map[string]any{"name": "bob"})
		require.NoError(t, err)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "member", body["role"])
	})

	t.Run("schema violation fails before any bytes are written", func(t *testing.T) {
		t.Parallel()

		op := userResponseOp(t)
		w := httptest.NewRecorder()

		err := op.WriteValidated(ctx, w, 200, map[string]any{"id": "not-an-int"})
		var serr *contract.SerializationError
		require.ErrorAs(t, err, &serr)
		assert.NotEmpty(t, serr.Issues)

		// Nothing reached the response.
		assert.Empty(t, w.Body.Bytes())
		assert.Empty(t, w.Header().Get("Content-Type"))
	})

	t.Run("no-body status writes only the status line", func(t *testing.T) {
		t.Parallel()

		op := userResponseOp(t)
		w := httptest.NewRecorder()

		require.NoError(t, op.WriteValidated(ctx, w, 204, map[string]any{"ignored": true}))
		assert.Equal(t, 204, w.Code)
		assert.Empty(t, w.Body.Bytes())
	})

	t.Run("custom response content type", func(t *testing.T) {
		t.Parallel()

		op := contract.MustNew(contract.Contract{
			Response: contract.ResponseContract{
				ContentType: "application/problem+json",
				Content: map[int]contract.ResponseEntry{
					200: {Schema: schema.Any()},
				},
			},
		})
		w := httptest.NewRecorder()

		require.NoError(t, op.WriteValidated(ctx, w, 200, map[string]any{"ok": true}))
		assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	})
}

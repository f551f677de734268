package contract

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"slices"
	"strings"

	"github.com/dmitrymomot/apikit/core/schema"
)

// DefaultMaxBodySize caps the request body read during snapshotting (1MB).
const DefaultMaxBodySize = 1 << 20

// Snapshot is the point-in-time view of the request parts taken before
// validation. The body is consumed from the request exactly once; the
// snapshot can then be validated any number of times.
type Snapshot struct {
	Body    any
	Params  map[string]string
	Query   map[string][]string
	Headers map[string]string
}

// NewSnapshot captures the request parts this operation validates. With a
// declared body schema the content-type gate runs first: a mismatched media
// type is a ValidationError raised before any body bytes are decoded.
func (op *Operation) NewSnapshot(r *http.Request, params map[string]string) (*Snapshot, error) {
	snap := &Snapshot{
		Params:  params,
		Query:   r.URL.Query(),
		Headers: flattenHeaders(r.Header),
	}
	if snap.Params == nil {
		snap.Params = map[string]string{}
	}

	if op.contract.Request == nil || op.contract.Request.Body == nil {
		return snap, nil
	}

	if err := op.checkContentType(r.Header.Get("Content-Type")); err != nil {
		return nil, err
	}

	body, err := decodeJSONBody(r.Body)
	if err != nil {
		return nil, err
	}
	snap.Body = body
	return snap, nil
}

func (op *Operation) checkContentType(header string) error {
	if header == "" {
		return newValidationError(
			"missing content type",
			schema.Issue{
				Path:    []string{"headers", "content-type"},
				Code:    "invalid_content_type",
				Message: fmt.Sprintf("expected one of %s", strings.Join(op.mediaset, ", ")),
			},
		)
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil || !slices.Contains(op.mediaset, mediaType) {
		return newValidationError(
			"unsupported content type",
			schema.Issue{
				Path:    []string{"headers", "content-type"},
				Code:    "invalid_content_type",
				Message: fmt.Sprintf("got %q, expected one of %s", header, strings.Join(op.mediaset, ", ")),
			},
		)
	}
	return nil
}

func decodeJSONBody(rc io.ReadCloser) (any, error) {
	if rc == nil {
		return nil, nil
	}
	// Read one extra byte so oversized bodies are detected without buffering
	// the whole stream.
	raw, err := io.ReadAll(io.LimitReader(rc, DefaultMaxBodySize+1))
	if err != nil {
		return nil, newValidationError(
			"failed to read request body",
			schema.Issue{Path: []string{"body"}, Code: "invalid_json", Message: err.Error()},
		)
	}
	if len(raw) > DefaultMaxBodySize {
		return nil, newValidationError(
			"request body too large",
			schema.Issue{
				Path:    []string{"body"},
				Code:    "too_big",
				Message: fmt.Sprintf("body exceeds %d bytes", DefaultMaxBodySize),
			},
		)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, newValidationError(
			"malformed JSON body",
			schema.Issue{Path: []string{"body"}, Code: "invalid_json", Message: err.Error()},
		)
	}
	return body, nil
}

// flattenHeaders lowercases header names and keeps the first value, matching
// how clients address headers in schemas.
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		if len(values) > 0 {
			out[strings.ToLower(name)] = values[0]
		}
	}
	return out
}

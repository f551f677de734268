// Package response provides small composable response writers and the shared
// HTTP error taxonomy used by the dispatcher's error handling.
package response

import (
	"encoding/json"
	"net/http"
)

// Response is a function that renders an HTTP response: it sets headers and
// status and writes the body. Rendering errors propagate to the caller's
// error handling.
type Response func(w http.ResponseWriter, r *http.Request) error

// String creates a text/plain response with 200 OK status.
func String(content string) Response {
	return StringWithStatus(content, http.StatusOK)
}

// StringWithStatus creates a text/plain response with a custom status code.
func StringWithStatus(content string, status int) Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if content != "" {
			_, err := w.Write([]byte(content))
			return err
		}
		return nil
	}
}

// JSON creates an application/json response with 200 OK status. Encoding
// streams directly to the response writer.
func JSON(v any) Response {
	return JSONWithStatus(v, http.StatusOK)
}

// JSONWithStatus creates an application/json response with a custom status.
func JSONWithStatus(v any, status int) Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if status == 0 {
			if v == nil {
				status = http.StatusNoContent
			} else {
				status = http.StatusOK
			}
		}
		w.WriteHeader(status)

		// No body for statuses that must not carry one.
		switch status {
		case http.StatusNoContent, http.StatusNotModified:
			return nil
		}
		return json.NewEncoder(w).Encode(v)
	}
}

// NoContent creates a 204 No Content response.
func NoContent() Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
}

// Status creates an empty response with the given status code.
func Status(code int) Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		if code == 0 {
			code = http.StatusOK
		}
		w.WriteHeader(code)
		return nil
	}
}

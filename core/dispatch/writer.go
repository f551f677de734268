package dispatch

import (
	"net/http"
)

// ResponseWriter wraps http.ResponseWriter and tracks whether a response has
// been committed, so error handling never writes over an in-flight body.
type ResponseWriter struct {
	http.ResponseWriter
	status  int
	bytes   int64
	written bool
}

// NewResponseWriter wraps w for commit tracking.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w}
}

func (w *ResponseWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
		w.ResponseWriter.WriteHeader(status)
	}
}

func (w *ResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// Written reports whether the status line has been committed.
func (w *ResponseWriter) Written() bool { return w.written }

// Status returns the committed status code, or zero before commit.
func (w *ResponseWriter) Status() int { return w.status }

// BytesWritten returns the number of body bytes written so far.
func (w *ResponseWriter) BytesWritten() int64 { return w.bytes }

// Flush implements http.Flusher when the underlying writer supports it.
func (w *ResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

package handler

import "net/http"

// ResponseWriter records whether the response header has been sent.
type ResponseWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

// NewResponseWriter wraps w. Wrapping an existing *ResponseWriter returns it unchanged.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	if rw, ok := w.(*ResponseWriter); ok {
		return rw
	}
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
	return w.ResponseWriter.Write(b)
}

// Written reports whether the header has been sent.
func (w *ResponseWriter) Written() bool {
	return w.written
}

// Status returns the sent status code, 0 before the header is written.
func (w *ResponseWriter) Status() int {
	return w.status
}

func (w *ResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		if !w.written {
			w.WriteHeader(http.StatusOK)
		}
		f.Flush()
	}
}

// Unwrap returns the underlying writer for http.ResponseController.
func (w *ResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// HeaderWritten reports whether w is known to have sent its header.
// Writers that don't track this are assumed unsent.
func HeaderWritten(w http.ResponseWriter) bool {
	if t, ok := w.(interface{ Written() bool }); ok {
		return t.Written()
	}
	return false
}

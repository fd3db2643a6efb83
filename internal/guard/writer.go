package guard

import (
	"net/http"

	"github.com/lucifer-699/EduCourseFrontend/internal/session"
	"github.com/lucifer-699/EduCourseFrontend/pkg/httputil"
)

// forcedLogoutWriter replaces the handler's response with a redirect once
// the session of the request has been torn down. The check happens at the
// first header write, so a teardown that precedes it always wins.
type forcedLogoutWriter struct {
	http.ResponseWriter
	r        *http.Request
	sig      *session.Signal
	location string

	wroteHeader bool
	redirected  bool
}

func (w *forcedLogoutWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	if w.sig.Fired() {
		w.redirect()
		return
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *forcedLogoutWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if w.redirected {
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *forcedLogoutWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// finish covers handlers that return without writing anything.
func (w *forcedLogoutWriter) finish() {
	if !w.wroteHeader && w.sig.Fired() {
		w.wroteHeader = true
		w.redirect()
	}
}

func (w *forcedLogoutWriter) redirect() {
	w.redirected = true
	h := w.ResponseWriter.Header()
	h.Del("Content-Type")
	h.Del("Content-Length")
	httputil.Redirect(w.ResponseWriter, w.r, w.location)
}

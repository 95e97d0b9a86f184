package middleware

import (
	"context"
	"net/http"
	"time"
)

type infoLogger interface {
	Info(msg string, args ...any)
}

// Filled while request is served, logged when it is done
type accessEntry struct {
	status int
	size   int
	userID string
}

type accessEntryKey struct{}

// Handlers down the chain get derived requests, so they report into the entry kept in context
func accessEntryFrom(ctx context.Context) *accessEntry {
	e, _ := ctx.Value(accessEntryKey{}).(*accessEntry)
	return e
}

func recordUser(ctx context.Context, id string) {
	if e := accessEntryFrom(ctx); e != nil {
		e.userID = id
	}
}

type accessWriter struct {
	http.ResponseWriter
	entry       *accessEntry
	wroteHeader bool
}

func (w *accessWriter) Write(p []byte) (int, error) {
	w.wroteHeader = true
	size, err := w.ResponseWriter.Write(p)
	w.entry.size += size
	return size, err
}

func (w *accessWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.entry.status = statusCode
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

// LoggerMiddleware writes access log line per request
// The line carries matched route pattern and authenticated user id when there is one
func LoggerMiddleware(l infoLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			entry := &accessEntry{status: http.StatusOK}
			// ServeMux sets Pattern on this very request
			req := r.WithContext(context.WithValue(r.Context(), accessEntryKey{}, entry))

			next.ServeHTTP(&accessWriter{ResponseWriter: w, entry: entry}, req)

			l.Info(
				"got HTTP request",
				"method", r.Method,
				"uri", r.RequestURI,
				"pattern", req.Pattern,
				"status", entry.status,
				"size", entry.size,
				"duration", time.Since(start),
				"user_id", entry.userID,
				"request_id", RequestIDFromContext(r.Context()),
			)
		})
	}
}

package httpserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yndnr/storefront-go/internal/core/domain"
	"github.com/yndnr/storefront-go/internal/server/httpserver/handler"
	"github.com/yndnr/storefront-go/internal/telemetry/logger"
	"github.com/yndnr/storefront-go/internal/telemetry/metric"
)

// Context keys for request-scoped values.
type contextKey string

const (
	// ContextKeyStartTime is the context key for request start time.
	ContextKeyStartTime contextKey = "start_time"

	// contextKeyRoute holds the *routeLabel set by the dispatcher.
	contextKeyRoute contextKey = "route"
)

// maxRequestIDLength bounds client supplied request IDs.
const maxRequestIDLength = 128

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain chains multiple middlewares together. The first middleware is the
// outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// Recover recovers from panics and funnels them into the error envelope.
// It is the outermost middleware and owns the response writer wrapper.
func Recover(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := wrapResponseWriter(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.ErrorContext(r.Context(), "panic recovered",
					"request_id", rw.Header().Get("X-Request-ID"),
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
				)
				writeError(rw, r, domain.ErrInternalServer.WithCause(fmt.Errorf("panic: %v", rec)), log)
			}()
			next.ServeHTTP(rw, r)
		})
	}
}

// RequestID adds a request ID to each request, reusing a sane
// X-Request-ID header from the client.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if !validRequestID(requestID) {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)

			ctx := logger.WithRequestID(r.Context(), requestID)
			ctx = context.WithValue(ctx, ContextKeyStartTime, time.Now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if c := id[i]; c <= ' ' || c > '~' {
			return false
		}
	}
	return true
}

// routeLabel names the pipeline stage that answered a request.
type routeLabel struct {
	name string
}

// setRoute records which stage handled the request, for logs and metrics.
func setRoute(r *http.Request, name string) {
	if l, ok := r.Context().Value(contextKeyRoute).(*routeLabel); ok {
		l.name = name
	}
}

// AccessLog logs every request and records the HTTP metrics.
func AccessLog(log *slog.Logger, reg *metric.Registry, trustProxy bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := wrapResponseWriter(w)
			label := &routeLabel{name: "none"}
			r = r.WithContext(context.WithValue(r.Context(), contextKeyRoute, label))

			reg.HTTPInFlight.Inc()
			defer reg.HTTPInFlight.Dec()

			start, ok := r.Context().Value(ContextKeyStartTime).(time.Time)
			if !ok {
				start = time.Now()
			}

			completed := false
			defer func() {
				status := rw.Status()
				if !completed && !rw.Started() {
					// Panicking; Recover further out writes the 500.
					status = http.StatusInternalServerError
				}
				logAccess(log, reg, r, rw, label.name, status, time.Since(start), trustProxy)
			}()

			next.ServeHTTP(rw, r)
			completed = true
		})
	}
}

func logAccess(log *slog.Logger, reg *metric.Registry, r *http.Request, rw *responseWriter, route string, status int, duration time.Duration, trustProxy bool) {
	reg.ObserveHTTP(route, r.Method, fmt.Sprint(status), duration.Seconds())

	attrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"route", route,
		"status", status,
		"bytes", rw.written,
		"duration_ms", duration.Milliseconds(),
		"client_ip", clientIP(r, trustProxy),
	}
	switch {
	case status >= 500:
		log.ErrorContext(r.Context(), "request completed with error", attrs...)
	case status >= 400:
		log.WarnContext(r.Context(), "request completed with client error", attrs...)
	default:
		log.InfoContext(r.Context(), "request completed", attrs...)
	}
}

// APIMetrics counts every request under the API prefix exactly once and
// always continues.
func APIMetrics(reg *metric.Registry, apiPrefix string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := matchPrefix(r.URL.Path, apiPrefix); ok {
				reg.IncAPIRequest()
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MetricsEndpoint answers GET and HEAD requests for exactly path with the
// Prometheus exposition.
func MetricsEndpoint(path string, metrics http.Handler) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == path {
				setRoute(r, "metrics")
				metrics.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ============================================================================
// Response writer
// ============================================================================

// responseWriter wraps http.ResponseWriter to capture the status code and
// whether the response has started.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	written     int64
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (w *responseWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.statusCode = code
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

// Status returns the response status, 200 if nothing was written.
func (w *responseWriter) Status() int {
	return w.statusCode
}

// Started reports whether the header has been sent.
func (w *responseWriter) Started() bool {
	return w.wroteHeader
}

// Unwrap supports http.ResponseController.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Flush implements http.Flusher.
func (w *responseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		if !w.wroteHeader {
			w.WriteHeader(http.StatusOK)
		}
		f.Flush()
	}
}

// Hijack implements http.Hijacker.
func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return h.Hijack()
}

// writeError is the global error terminator. Once the response has started
// the error can only be logged.
func writeError(w http.ResponseWriter, r *http.Request, err error, log *slog.Logger) {
	if rw, ok := w.(*responseWriter); ok && rw.Started() {
		log.ErrorContext(r.Context(), "error after response started",
			"path", r.URL.Path,
			"error", err,
		)
		return
	}
	handler.WriteError(w, r, err, log)
}

// clientIP extracts the client IP. Forwarding headers are honored only
// behind a trusted proxy.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	// net.SplitHostPort handles IPv6 addresses like [::1]:8080.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

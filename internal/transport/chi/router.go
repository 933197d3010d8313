package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	logpkg "github.com/kailas-cloud/techsearch/internal/logger"
	"github.com/kailas-cloud/techsearch/internal/metrics"
	"github.com/kailas-cloud/techsearch/internal/transport/dto"
)

// compressLevel trades CPU for the size of export responses, which embed
// up to tens of thousands of CSV lines.
const compressLevel = 5

// NewRouter wires the middleware stack and the API routes. Order matters:
// the request id exists before anything logs, panics are caught inside the
// access log so they are logged with a status, and compression is innermost
// so metrics see bytes on the wire.
func NewRouter(s *Server, apiKeys []string, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(accessLog(logger))
	r.Use(jsonRecoverer(logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())
	r.Use(chiMiddleware.Compress(compressLevel, "application/json", "text/csv"))
	s.Routes(r)
	return r
}

// jsonRecoverer turns a handler panic into a 500 JSON error.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func jsonRecoverer(fallback *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity
					panic(rvr)
				}
				logpkg.FromContextOr(r.Context(), fallback).Error("panic recovered",
					zap.Any("panic", rvr),
					zap.String("route", routePattern(r)),
					zap.Stack("stacktrace"),
				)
				writeError(w, http.StatusInternalServerError, dto.ErrorCodeInternalError, "internal error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog emits one canonical "http_request" line per request, attaches a
// request-scoped logger to the context and echoes X-Request-ID.
func accessLog(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := zapcore.InfoLevel
			if status >= http.StatusInternalServerError {
				level = zapcore.WarnLevel
			}
			reqLogger.Log(level, "http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", routePattern(r)),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}

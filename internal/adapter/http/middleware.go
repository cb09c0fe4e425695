package http

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/rs/xid"
)

const headerTraceID = "X-Trace-Id"

type ctxKey int

const (
	ctxKeyTraceID ctxKey = iota
	ctxKeyLogger
)

// traceID tags each request with an ID, reusing the caller's X-Trace-Id when
// present, and stores a request-scoped logger carrying it.
func traceID(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(headerTraceID)
			if id == "" {
				id = xid.New().String()
			}
			w.Header().Set(headerTraceID, id)

			logger := base.With(
				"trace_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)
			ctx := context.WithValue(r.Context(), ctxKeyTraceID, id)
			ctx = context.WithValue(ctx, ctxKeyLogger, logger)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// recovery turns a handler panic into a 500 response.
func recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				ctx := r.Context()
				loggerFrom(ctx).Error("panic in handler",
					"error", rec,
					"stack", string(debug.Stack()),
				)
				writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
					Code:      codeInternal,
					Message:   "internal server error",
					SupportID: supportID(ctx),
				})
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func loggerFrom(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKeyLogger).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

func supportID(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKeyTraceID).(string); ok {
		return id
	}
	return "unsupported"
}

package controller

import (
	"context"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"covidexport/pkg/logger"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-Id"

type ctxKey struct{}

// RequestID returns the ID WithLogger assigned to the request, or an empty
// string outside of it.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)

	return id
}

// GetClientIP returns the originating client address. The first entry of
// X-Forwarded-For wins over X-Real-IP, which wins over the connection address.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")

		return strings.TrimSpace(first)
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}

// WithLogger returns a middleware that tags the request context with a request
// ID and a request-scoped logger, echoes the ID back in RequestIDHeader and
// writes one access log line per request. Requests whose path starts with one
// of the quiet prefixes (metrics scrapes, pprof) are logged at debug level.
// Server errors are logged as warnings.
func WithLogger(next http.Handler, quiet ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), ctxKey{}, requestID)
		ctx = logger.WithFields(ctx, zap.String("request_id", requestID))

		start := time.Now()
		rec := newResponseRecorder(w)

		next.ServeHTTP(rec, r.WithContext(ctx))

		fields := []zapcore.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status_code", rec.status),
			zap.Int64("bytes", rec.bytes),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", GetClientIP(r)),
			zap.String("user_agent", r.UserAgent()),
		}
		if path.Ext(r.URL.Path) == ".json" {
			fields = append(fields, zap.String("artifact", path.Base(r.URL.Path)))
		}

		switch {
		case rec.status >= http.StatusInternalServerError:
			logger.Warn(ctx, "Access log", fields...)
		case isQuiet(r.URL.Path, quiet):
			logger.Debug(ctx, "Access log", fields...)
		default:
			logger.Info(ctx, "Access log", fields...)
		}
	})
}

func isQuiet(p string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(p, prefix) {
			return true
		}
	}

	return false
}

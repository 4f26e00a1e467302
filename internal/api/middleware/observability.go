package middleware

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/zatekoja/notefhir/internal/infrastructure/observability"
)

// ObservabilityMiddleware adds OpenTelemetry tracing and metrics to HTTP requests
func ObservabilityMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()

			ctx, span := observability.StartSpan(r.Context(), "HTTP "+r.Method)
			defer span.End()

			next.ServeHTTP(rw, r.WithContext(ctx))

			// r.Pattern is only set once the mux has matched, so read it from the inner request
			route := rw.pattern
			if route == "" {
				route = r.URL.Path
			}
			span.SetName(fmt.Sprintf("%s %s", r.Method, route))
			observability.SetSpanAttributes(span,
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.user_agent", r.UserAgent()),
				attribute.Int("http.status_code", rw.statusCode),
			)
			if rw.statusCode >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rw.statusCode))
			}

			observability.RecordRequestMetric(ctx, metrics, r.Method, route, rw.statusCode, time.Since(start))
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code and matched route
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	pattern    string
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// RoutePattern records the matched ServeMux pattern for the enclosing observability wrapper.
func RoutePattern(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		if r.Pattern == "" {
			return
		}
		for cur := w; cur != nil; {
			switch v := cur.(type) {
			case *responseWriter:
				v.pattern = r.Pattern
				return
			case interface{ Unwrap() http.ResponseWriter }:
				cur = v.Unwrap()
			default:
				return
			}
		}
	})
}

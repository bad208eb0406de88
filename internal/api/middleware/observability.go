package middleware

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/observability"
)

const unmatchedRoute = "unmatched"

// routeOf returns the mux pattern that served r. Paths carry sender ids, so
// unmatched requests share one label instead of falling back to the path.
func routeOf(r *http.Request) string {
	if r.Pattern == "" {
		return unmatchedRoute
	}
	return r.Pattern
}

// ObservabilityMiddleware traces each request and records request metrics.
// The route is only known after the mux has matched, so the span is renamed
// once the handler returns.
func ObservabilityMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := observability.StartSpan(r.Context(), "http.request")
			defer span.End()

			req := r.WithContext(ctx)
			rec := newStatusRecorder(w)
			start := time.Now()

			next.ServeHTTP(rec, req)

			route := routeOf(req)
			span.SetName(route)
			observability.SetSpanAttributes(span,
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.Int("http.status_code", rec.status),
				attribute.Int("http.response_size", rec.bytes),
			)
			if rec.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rec.status))
			}

			observability.RecordRequestMetric(ctx, metrics, r.Method, route, rec.status, time.Since(start))
		})
	}
}

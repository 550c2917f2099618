package obs

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type routePatternKey struct{}

// responseTap captures the status code and body size flowing to the client.
type responseTap struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func newResponseTap(w http.ResponseWriter) *responseTap {
	return &responseTap{ResponseWriter: w, status: http.StatusOK}
}

func (t *responseTap) WriteHeader(code int) {
	t.status = code
	t.ResponseWriter.WriteHeader(code)
}

func (t *responseTap) Write(p []byte) (int, error) {
	n, err := t.ResponseWriter.Write(p)
	t.bytes += int64(n)
	return n, err
}

// RoutePatternMiddleware stores the matched chi pattern on the context so
// later middleware can label by route template instead of raw path.
func RoutePatternMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if rc := chi.RouteContext(ctx); rc != nil {
			if pattern := rc.RoutePattern(); pattern != "" {
				ctx = context.WithValue(ctx, routePatternKey{}, pattern)
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// matchedRoute resolves the route template for a request, falling back to the
// given default when chi has not matched yet.
func matchedRoute(r *http.Request, fallback string) string {
	if pattern, ok := r.Context().Value(routePatternKey{}).(string); ok && pattern != "" {
		return pattern
	}
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return fallback
}

// HTTPObs feeds request counters and latency histograms.
type HTTPObs struct {
	Metrics *HTTPMetrics
}

func (o HTTPObs) Middleware(next http.Handler) http.Handler {
	if o.Metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tap := newResponseTap(w)
		o.Metrics.InFlight.Inc()
		start := time.Now()
		next.ServeHTTP(tap, r)
		o.Metrics.InFlight.Dec()

		route := matchedRoute(r, "unknown")
		o.Metrics.ReqTotal.WithLabelValues(r.Method, route, strconv.Itoa(tap.status)).Inc()
		o.Metrics.ReqDur.WithLabelValues(r.Method, route).Observe(DurationMillis(time.Since(start)))
	})
}

// TracingMiddleware opens a server span around each request.
func TracingMiddleware(next http.Handler) http.Handler {
	tracer := otel.Tracer("http.server")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := matchedRoute(r, r.URL.Path)
		ctx, span := tracer.Start(r.Context(), r.Method+" "+route)
		defer span.End()

		tap := newResponseTap(w)
		next.ServeHTTP(tap, r.WithContext(ctx))

		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
			attribute.String("http.target", r.URL.Path),
			attribute.Int("http.status_code", tap.status),
		)
		if tap.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(tap.status))
		}
	})
}

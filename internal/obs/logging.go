package obs

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// NewLogger builds the process root logger. format is "json" (default) or
// "console"; unknown levels fall back to info.
func NewLogger(format, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "console", "text":
		out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(out).With().Timestamp().Logger()
	default:
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}

// RequestLogger writes one structured line per request, correlated with the
// chi request id and the active trace when there is one.
type RequestLogger struct {
	Logger zerolog.Logger
}

func (l RequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tap := newResponseTap(w)
		start := time.Now()
		next.ServeHTTP(tap, r)

		evt := l.Logger.Info().
			Str("method", r.Method).
			Str("route", matchedRoute(r, r.URL.Path)).
			Str("path", r.URL.Path).
			Int("status", tap.status).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Int64("bytes", tap.bytes).
			Str("request_id", middleware.GetReqID(r.Context()))
		if span := trace.SpanContextFromContext(r.Context()); span.IsValid() {
			evt = evt.
				Str("trace_id", span.TraceID().String()).
				Str("span_id", span.SpanID().String())
		}
		if r.Host != "" {
			evt = evt.Str("host", r.Host)
		}
		if r.RemoteAddr != "" {
			evt = evt.Str("remote_addr", r.RemoteAddr)
		}
		evt.Msg("http_request")
	})
}

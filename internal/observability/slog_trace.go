package observability

import (
	"context"
	"log/slog"

	"github.com/geocoder89/todohub/internal/actorctx"
	"go.opentelemetry.io/otel/trace"
)

// TraceHandler stamps request-scoped identifiers found on the context onto
// every record: trace/span ids from the active span, the request id, and
// the authorized user id. Attributes the caller already set win.
type TraceHandler struct {
	next slog.Handler
}

func NewTraceHandler(next slog.Handler) *TraceHandler {
	return &TraceHandler{next: next}
}

func (h *TraceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx == nil {
		return h.next.Handle(ctx, r)
	}

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	present := recordKeys(r)

	if id, ok := actorctx.RequestIDFrom(ctx); ok && !present["request_id"] {
		r.AddAttrs(slog.String("request_id", id))
	}
	if uid, ok := actorctx.UserIDFrom(ctx); ok && !present["user_id"] {
		r.AddAttrs(slog.Int64("user_id", uid))
	}

	return h.next.Handle(ctx, r)
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{next: h.next.WithAttrs(attrs)}
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{next: h.next.WithGroup(name)}
}

func recordKeys(r slog.Record) map[string]bool {
	keys := make(map[string]bool, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		keys[a.Key] = true
		return true
	})
	return keys
}

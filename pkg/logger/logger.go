// Package logger enriches slog records with request-scoped identifiers.
package logger

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
)

// ContextHandler decorates an slog.Handler so every record carries the
// trace ID and request ID found in the context, when present.
type ContextHandler struct {
	slog.Handler
}

// NewContextHandler wraps the given handler.
func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: handler}
}

// Handle stamps the record with trace_id and request_id before passing
// it on.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		r.AddAttrs(slog.String("trace_id", span.SpanContext().TraceID().String()))
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		r.AddAttrs(slog.String("request_id", reqID))
	}
	return h.Handler.Handle(ctx, r)
}

// WithAttrs keeps the decoration on derived handlers.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

// WithGroup keeps the decoration on derived handlers.
func (h *ContextHandler) WithGroup(group string) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithGroup(group)}
}

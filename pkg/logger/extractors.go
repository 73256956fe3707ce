package logger

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	tenantSlugKey
)

// WithRequestID stores the request ID for later extraction into log records.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithTenantSlug stores the tenant slug for later extraction into log records.
func WithTenantSlug(ctx context.Context, slug string) context.Context {
	return context.WithValue(ctx, tenantSlugKey, slug)
}

// RequestIDExtractor adds the request ID from context, when present.
func RequestIDExtractor(ctx context.Context) (slog.Attr, bool) {
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		return slog.String("request_id", id), true
	}
	return slog.Attr{}, false
}

// TenantSlugExtractor adds the tenant slug from context, when present.
func TenantSlugExtractor(ctx context.Context) (slog.Attr, bool) {
	if slug, ok := ctx.Value(tenantSlugKey).(string); ok && slug != "" {
		return slog.String("tenant", slug), true
	}
	return slog.Attr{}, false
}

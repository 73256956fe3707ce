// Package logger provides structured logging with context extraction and Sentry integration.
//
// This package extends the standard library's log/slog with two capabilities:
// automatic context-based attribute injection and optional Sentry error
// reporting. Every service log line carries the current request ID and tenant
// slug without per-call boilerplate.
//
// # Basic Usage
//
// Create a logger from config with the built-in extractors:
//
//	log := logger.New(cfg.Log, logger.RequestIDExtractor, logger.TenantSlugExtractor)
//
//	// Middleware stores the values once per request:
//	ctx = logger.WithRequestID(ctx, requestID)
//	ctx = logger.WithTenantSlug(ctx, tenant.Slug)
//
//	// Context-aware calls pick them up automatically:
//	log.InfoContext(ctx, "photo resolved", slog.Int64("photo_id", photo.ID))
//	// Output: {"level":"INFO","msg":"photo resolved","photo_id":42,"request_id":"abc-123","tenant":"acme"}
//
// # Sentry Integration
//
// For production error tracking, use NewWithSentry:
//
//	log := logger.NewWithSentry(cfg.Log, cfg.Sentry, logger.RequestIDExtractor)
//
// Errors create Issues in Sentry; warnings are stored for context. If
// SENTRY_DSN is empty, the logger falls back to stdout-only logging, so the
// same code path is safe in development and production.
//
// # Context Extractors
//
// A ContextExtractor is a function that extracts a log attribute from context:
//
//	type ContextExtractor func(ctx context.Context) (slog.Attr, bool)
//
// Extractors run on every log call, so request-scoped values stay fresh.
// Return false to skip the attribute for that entry. Custom extractors can be
// passed alongside the built-in ones.
//
// # Handler Decoration
//
// LogHandlerDecorator wraps any slog.Handler to add context extraction:
//
//	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
//	decorated := logger.NewLogHandlerDecorator(jsonHandler, extractors...)
//	log := slog.New(decorated)
//
// An internal multi-handler forwards records to several destinations, which
// is how stdout and Sentry receive the same decorated stream.
package logger

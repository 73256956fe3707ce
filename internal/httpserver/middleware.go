package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"strings"

	"github.com/google/uuid"

	"github.com/photolib/photolib/internal/metadata"
	"github.com/photolib/photolib/pkg/logger"
	"github.com/photolib/photolib/pkg/storage"
)

// requestIDHeaders are checked in order for an existing request ID, so
// upstream tracing IDs are preserved.
var requestIDHeaders = []string{"X-Request-ID", "X-Request-Id", "X-Correlation-ID"}

// tenantHeader carries an explicit tenant slug; the first host label is the
// fallback for subdomain-per-tenant deployments.
const tenantHeader = "X-Tenant"

type tenantCtxKey struct{}

// RequestID assigns a unique ID to each request, stores it in the context
// for log extraction, and echoes it in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqID string
		for _, header := range requestIDHeaders {
			if v := r.Header.Get(header); v != "" {
				reqID = v
				break
			}
		}
		if reqID == "" {
			reqID = uuid.NewString()
		}

		w.Header().Set("X-Request-ID", reqID)
		ctx := logger.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Recover turns panics into 500 responses with a logged stack trace.
func Recover(log *slog.Logger) func(http.Handler) http.Handler {
	const stackSize = 4096
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					stack := make([]byte, stackSize)
					stack = stack[:runtime.Stack(stack, false)]
					log.ErrorContext(r.Context(), "panic recovered",
						slog.Any("panic", rec),
						slog.String("stack", string(stack)))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// TenantResolver supplies tenants by slug; satisfied by metadata.Repository.
type TenantResolver interface {
	TenantBySlug(ctx context.Context, slug string) (metadata.Tenant, error)
}

// ResolveTenant loads the request's tenant from the X-Tenant header or the
// first host label and stores it in the context. Requests without a
// resolvable tenant are rejected.
func ResolveTenant(resolver TenantResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slug := tenantSlugFromRequest(r)
			if err := storage.ValidateTenantSlug(slug); err != nil {
				respondError(w, http.StatusBadRequest, "invalid tenant")
				return
			}

			tenant, err := resolver.TenantBySlug(r.Context(), slug)
			if err != nil {
				writeError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), tenantCtxKey{}, tenant)
			ctx = logger.WithTenantSlug(ctx, tenant.Slug)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantFromContext returns the tenant set by ResolveTenant.
func TenantFromContext(ctx context.Context) (metadata.Tenant, bool) {
	tenant, ok := ctx.Value(tenantCtxKey{}).(metadata.Tenant)
	return tenant, ok
}

func tenantSlugFromRequest(r *http.Request) string {
	if slug := strings.TrimSpace(r.Header.Get(tenantHeader)); slug != "" {
		return strings.ToLower(slug)
	}
	host := r.Host
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	label, _, _ := strings.Cut(host, ".")
	return strings.ToLower(label)
}

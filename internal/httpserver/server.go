package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/photolib/photolib/internal/config"
	"github.com/photolib/photolib/internal/metadata"
	"github.com/photolib/photolib/pkg/delivery"
	"github.com/photolib/photolib/pkg/storage"
)

// Catalog is the slice of the metadata repository the handlers use.
type Catalog interface {
	TenantResolver
	PhotoByID(ctx context.Context, tenantID, photoID int64) (metadata.Photo, error)
	AlbumByID(ctx context.Context, tenantID, albumID int64) (metadata.Album, error)
	GalleryByID(ctx context.Context, tenantID, galleryID int64) (metadata.Gallery, error)
	GalleryByShareToken(ctx context.Context, token string) (metadata.Gallery, metadata.Tenant, error)
	PhotosInGallery(ctx context.Context, tenantID, galleryID int64) ([]metadata.Photo, error)
	CreatePhoto(ctx context.Context, photo *metadata.Photo, galleryID int64) error
	DeletePhoto(ctx context.Context, tenantID, photoID int64) (bool, error)
	CountTenantPhotos(ctx context.Context, tenantID int64) (int64, error)
	CreateShareToken(ctx context.Context, token metadata.ShareToken) error
}

// Server wires the delivery pipeline to HTTP routes.
type Server struct {
	catalog  Catalog
	backend  storage.Backend
	signer   storage.Signer // nil when the backend cannot presign
	resolver *delivery.Resolver
	archiver *delivery.Archiver
	health   func(ctx context.Context) error
	log      *slog.Logger
}

// NewServer assembles the HTTP surface. signer may be nil; the signed-URL
// manifest route then responds 404.
func NewServer(
	catalog Catalog,
	backend storage.Backend,
	signer storage.Signer,
	resolver *delivery.Resolver,
	archiver *delivery.Archiver,
	health func(ctx context.Context) error,
	log *slog.Logger,
) *Server {
	return &Server{
		catalog:  catalog,
		backend:  backend,
		signer:   signer,
		resolver: resolver,
		archiver: archiver,
		health:   health,
		log:      log,
	}
}

// Router builds the chi route tree with middleware applied.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Recover(s.log))

	r.Get("/health", s.handleHealth)

	// Public share links resolve their tenant from the token itself.
	r.Get("/g/{token}", s.handleShareManifest)

	r.Group(func(r chi.Router) {
		r.Use(ResolveTenant(s.catalog))

		r.Get("/photos/{photoID}/image", s.handlePhotoImage)
		r.Get("/photos/{photoID}/download", s.handlePhotoDownload)
		r.Post("/photos", s.handlePhotoUpload)
		r.Delete("/photos/{photoID}", s.handlePhotoDelete)

		r.Get("/albums/{albumID}/download.zip", s.handleAlbumZip)
		r.Get("/galleries/{galleryID}/download.zip", s.handleGalleryZip)
		r.Post("/galleries/{galleryID}/share", s.handleCreateShareToken)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			respondError(w, http.StatusServiceUnavailable, "unhealthy")
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NewHTTPServer wraps the router in an http.Server with the configured
// timeouts.
func NewHTTPServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

package httpserver

import (
	"log/slog"
	"mime"
	"net/http"

	"github.com/photolib/photolib/internal/metadata"
	"github.com/photolib/photolib/pkg/delivery"
)

// handleAlbumZip streams a ZIP of every distinct photo in the album's
// galleries. The archive is written straight to the response; an error after
// the first byte can only truncate the stream.
func (s *Server) handleAlbumZip(w http.ResponseWriter, r *http.Request) {
	tenant, ok := TenantFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid tenant")
		return
	}
	albumID, err := pathID(r, "albumID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid album id")
		return
	}

	album, err := s.catalog.AlbumByID(r.Context(), tenant.ID, albumID)
	if err != nil {
		writeError(w, err)
		return
	}

	variant := delivery.ParseVariant(r.URL.Query().Get("variant"))
	s.streamZip(w, r, delivery.BuildAlbumZipFileName(album.Name, variant), func() error {
		return s.archiver.WriteAlbumZip(r.Context(), w, metadata.DeliveryTenant(tenant),
			metadata.DeliveryAlbum(album), variant)
	})
}

// handleGalleryZip streams a single gallery's photos in their manual order.
func (s *Server) handleGalleryZip(w http.ResponseWriter, r *http.Request) {
	tenant, ok := TenantFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid tenant")
		return
	}
	galleryID, err := pathID(r, "galleryID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid gallery id")
		return
	}

	gallery, err := s.catalog.GalleryByID(r.Context(), tenant.ID, galleryID)
	if err != nil {
		writeError(w, err)
		return
	}

	variant := delivery.ParseVariant(r.URL.Query().Get("variant"))
	s.streamZip(w, r, delivery.BuildGalleryZipFileName(gallery.Title, variant), func() error {
		return s.archiver.WriteGalleryZip(r.Context(), w, metadata.DeliveryTenant(tenant),
			metadata.DeliveryGallery(gallery), variant)
	})
}

func (s *Server) streamZip(w http.ResponseWriter, r *http.Request, fileName string, write func() error) {
	noCacheHeaders(w)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))

	if err := write(); err != nil {
		// Too late for a status change once zip bytes are out.
		s.log.ErrorContext(r.Context(), "zip export aborted",
			slog.String("file", fileName),
			slog.String("error", err.Error()))
	}
}

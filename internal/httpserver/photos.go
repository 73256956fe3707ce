package httpserver

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/photolib/photolib/internal/metadata"
	"github.com/photolib/photolib/pkg/delivery"
	"github.com/photolib/photolib/pkg/storage"
)

// maxUploadBytes caps a single upload at 100 MiB.
const maxUploadBytes = 100 << 20

// allowedUploadExts is the image extension allow-list for uploads.
var allowedUploadExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
	".bmp":  {},
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// handlePhotoImage serves a photo for in-page display. Inline-safe media
// types render in the browser; everything else is forced to attachment.
func (s *Server) handlePhotoImage(w http.ResponseWriter, r *http.Request) {
	s.servePhoto(w, r, false)
}

// handlePhotoDownload serves a photo as an attachment regardless of type.
func (s *Server) handlePhotoDownload(w http.ResponseWriter, r *http.Request) {
	s.servePhoto(w, r, true)
}

func (s *Server) servePhoto(w http.ResponseWriter, r *http.Request, forceAttachment bool) {
	tenant, ok := TenantFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid tenant")
		return
	}
	photoID, err := pathID(r, "photoID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid photo id")
		return
	}

	photo, err := s.catalog.PhotoByID(r.Context(), tenant.ID, photoID)
	if err != nil {
		writeError(w, err)
		return
	}

	variant := delivery.ParseVariant(r.URL.Query().Get("variant"))
	file, err := s.resolver.Resolve(r.Context(), metadata.DeliveryTenant(tenant), metadata.DeliveryPhoto(photo), variant)
	if err != nil {
		writeError(w, err)
		return
	}
	defer file.Body.Close()

	disposition := "attachment"
	if !forceAttachment && delivery.IsInlineSafe(file.MediaType) {
		disposition = "inline"
	}

	noCacheHeaders(w)
	w.Header().Set("Content-Type", file.MediaType)
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType(disposition, map[string]string{"filename": file.FileName}))

	if _, err := io.Copy(w, file.Body); err != nil {
		// Headers are gone; log and let the connection drop.
		s.log.WarnContext(r.Context(), "photo stream interrupted",
			slog.Int64("photo_id", photo.ID),
			slog.String("error", err.Error()))
	}
}

type uploadResponse struct {
	ID         int64  `json:"id"`
	StorageKey string `json:"storage_key"`
	SizeBytes  int64  `json:"size_bytes"`
}

// handlePhotoUpload accepts a multipart "file" part, stores the original
// under a fresh uuid-based key, and records the photo. An optional
// "gallery_id" field appends it to that gallery.
func (s *Server) handlePhotoUpload(w http.ResponseWriter, r *http.Request) {
	tenant, ok := TenantFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid tenant")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := allowedUploadExts[ext]; !ok {
		respondError(w, http.StatusUnsupportedMediaType, "unsupported file type")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unreadable upload")
		return
	}

	var galleryID int64
	if raw := r.FormValue("gallery_id"); raw != "" {
		galleryID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid gallery id")
			return
		}
		if _, err := s.catalog.GalleryByID(r.Context(), tenant.ID, galleryID); err != nil {
			writeError(w, err)
			return
		}
	}

	contentType := header.Header.Get("Content-Type")
	key := tenant.Slug + "/" + uuid.NewString() + ext
	storedKey, err := s.backend.Store(r.Context(), key, data, contentType)
	if err != nil {
		writeError(w, err)
		return
	}

	photo := metadata.Photo{
		TenantID:     tenant.ID,
		StorageKey:   storedKey,
		OriginalName: header.Filename,
		ContentType:  contentType,
		SizeBytes:    int64(len(data)),
	}
	if err := s.catalog.CreatePhoto(r.Context(), &photo, galleryID); err != nil {
		// Roll back the stored object so the backend does not leak orphans.
		if _, delErr := s.backend.Delete(r.Context(), storedKey); delErr != nil {
			s.log.ErrorContext(r.Context(), "orphaned upload after failed insert",
				slog.String("key", storedKey),
				slog.String("error", delErr.Error()))
		}
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, uploadResponse{
		ID:         photo.ID,
		StorageKey: photo.StorageKey,
		SizeBytes:  photo.SizeBytes,
	})
}

// handlePhotoDelete removes the photo row, its backing object, and its web
// derivative. When it was the tenant's last photo the tenant directory is
// cleaned up as well.
func (s *Server) handlePhotoDelete(w http.ResponseWriter, r *http.Request) {
	tenant, ok := TenantFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid tenant")
		return
	}
	photoID, err := pathID(r, "photoID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid photo id")
		return
	}

	photo, err := s.catalog.PhotoByID(r.Context(), tenant.ID, photoID)
	if err != nil {
		writeError(w, err)
		return
	}
	deleted, err := s.catalog.DeletePhoto(r.Context(), tenant.ID, photoID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	if _, err := s.backend.Delete(r.Context(), photo.StorageKey); err != nil {
		s.log.WarnContext(r.Context(), "failed to delete backing object",
			slog.String("key", photo.StorageKey),
			slog.String("error", err.Error()))
	}
	if derivKey, err := storage.DerivativeKey(photo.StorageKey, photo.ID); err == nil {
		if _, err := s.backend.Delete(r.Context(), derivKey); err != nil {
			s.log.WarnContext(r.Context(), "failed to delete web derivative",
				slog.String("key", derivKey),
				slog.String("error", err.Error()))
		}
	}

	remaining, err := s.catalog.CountTenantPhotos(r.Context(), tenant.ID)
	if err == nil && remaining == 0 {
		if err := s.backend.CleanupTenantDir(r.Context(), tenant.Slug); err != nil &&
			!errors.Is(err, storage.ErrNotFound) {
			s.log.WarnContext(r.Context(), "tenant dir cleanup failed",
				slog.String("tenant", tenant.Slug),
				slog.String("error", err.Error()))
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

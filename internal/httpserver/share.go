package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/photolib/photolib/internal/metadata"
	"github.com/photolib/photolib/pkg/delivery"
	"github.com/photolib/photolib/pkg/storage"
)

type shareAsset struct {
	PhotoID     int64  `json:"photo_id"`
	FileName    string `json:"file_name"`
	WebURL      string `json:"web_url,omitempty"`
	DownloadURL string `json:"download_url"`
}

type shareManifest struct {
	Gallery string       `json:"gallery"`
	Assets  []shareAsset `json:"assets"`
}

// handleShareManifest resolves a public share token to a signed-URL manifest
// for the gallery. Web URLs are inline-viewable for 15 minutes and may go
// through the CDN; download URLs last 5 minutes and bypass it so the
// attachment disposition survives.
func (s *Server) handleShareManifest(w http.ResponseWriter, r *http.Request) {
	if s.signer == nil {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	token := chi.URLParam(r, "token")
	gallery, tenant, err := s.catalog.GalleryByShareToken(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}

	photos, err := s.catalog.PhotosInGallery(r.Context(), tenant.ID, gallery.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	manifest := shareManifest{Gallery: gallery.Title, Assets: make([]shareAsset, 0, len(photos))}
	for _, photo := range photos {
		asset := shareAsset{PhotoID: photo.ID}

		downloadURL, err := s.signer.SignedURL(r.Context(), photo.StorageKey, storage.TTLAttachment, false)
		if err != nil {
			writeError(w, err)
			return
		}
		asset.DownloadURL = downloadURL

		// The web URL points at the cached derivative, so make sure it
		// exists before signing. Photos that cannot be rendered fall back to
		// the download URL only.
		if webKey := s.ensureWebDerivative(r, tenant, photo); webKey != "" {
			webURL, err := s.signer.SignedURL(r.Context(), webKey, storage.TTLInline, true)
			if err != nil {
				writeError(w, err)
				return
			}
			asset.WebURL = webURL
		}

		asset.FileName = delivery.DownloadName(metadata.DeliveryPhoto(photo), delivery.VariantOriginal)
		manifest.Assets = append(manifest.Assets, asset)
	}

	respondJSON(w, http.StatusOK, manifest)
}

// ensureWebDerivative generates the web rendering if it is not cached yet
// and returns its key, or "" when the photo has no web rendering.
func (s *Server) ensureWebDerivative(r *http.Request, tenant metadata.Tenant, photo metadata.Photo) string {
	file, err := s.resolver.Resolve(r.Context(), metadata.DeliveryTenant(tenant), metadata.DeliveryPhoto(photo), delivery.VariantWeb)
	if err != nil {
		s.log.WarnContext(r.Context(), "web derivative unavailable for manifest",
			slog.Int64("photo_id", photo.ID),
			slog.String("error", err.Error()))
		return ""
	}
	file.Body.Close()
	if file.MediaType != delivery.MediaTypeJPEG {
		// Degraded to the original; there is no derivative to sign.
		return ""
	}
	key, err := storage.DerivativeKey(photo.StorageKey, photo.ID)
	if err != nil {
		return ""
	}
	return key
}

type shareTokenResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// handleCreateShareToken mints a share token for a gallery the tenant owns.
func (s *Server) handleCreateShareToken(w http.ResponseWriter, r *http.Request) {
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

	token := metadata.ShareToken{
		Token:     uuid.NewString(),
		GalleryID: gallery.ID,
		TenantID:  tenant.ID,
	}
	if err := s.catalog.CreateShareToken(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, shareTokenResponse{
		Token: token.Token,
		URL:   "/g/" + token.Token,
	})
}

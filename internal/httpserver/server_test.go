package httpserver

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photolib/photolib/internal/metadata"
	"github.com/photolib/photolib/pkg/delivery"
	"github.com/photolib/photolib/pkg/storage"
)

type fakeCatalog struct {
	tenants     map[string]metadata.Tenant
	photos      map[int64]metadata.Photo
	albums      map[int64]metadata.Album
	galleries   map[int64]metadata.Gallery
	memberships map[int64][]int64 // gallery id -> photo ids, in order
	tokens      map[string]int64  // token -> gallery id
	nextPhotoID int64
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		tenants:     make(map[string]metadata.Tenant),
		photos:      make(map[int64]metadata.Photo),
		albums:      make(map[int64]metadata.Album),
		galleries:   make(map[int64]metadata.Gallery),
		memberships: make(map[int64][]int64),
		tokens:      make(map[string]int64),
		nextPhotoID: 100,
	}
}

func (f *fakeCatalog) TenantBySlug(_ context.Context, slug string) (metadata.Tenant, error) {
	t, ok := f.tenants[slug]
	if !ok {
		return metadata.Tenant{}, fmt.Errorf("%w: tenant %s", metadata.ErrNotFound, slug)
	}
	return t, nil
}

func (f *fakeCatalog) PhotoByID(_ context.Context, tenantID, photoID int64) (metadata.Photo, error) {
	p, ok := f.photos[photoID]
	if !ok || p.TenantID != tenantID {
		return metadata.Photo{}, fmt.Errorf("%w: photo %d", metadata.ErrNotFound, photoID)
	}
	return p, nil
}

func (f *fakeCatalog) AlbumByID(_ context.Context, tenantID, albumID int64) (metadata.Album, error) {
	a, ok := f.albums[albumID]
	if !ok || a.TenantID != tenantID {
		return metadata.Album{}, fmt.Errorf("%w: album %d", metadata.ErrNotFound, albumID)
	}
	return a, nil
}

func (f *fakeCatalog) GalleryByID(_ context.Context, tenantID, galleryID int64) (metadata.Gallery, error) {
	g, ok := f.galleries[galleryID]
	if !ok || g.TenantID != tenantID {
		return metadata.Gallery{}, fmt.Errorf("%w: gallery %d", metadata.ErrNotFound, galleryID)
	}
	return g, nil
}

func (f *fakeCatalog) GalleryByShareToken(_ context.Context, token string) (metadata.Gallery, metadata.Tenant, error) {
	galleryID, ok := f.tokens[token]
	if !ok {
		return metadata.Gallery{}, metadata.Tenant{}, fmt.Errorf("%w: token", metadata.ErrNotFound)
	}
	g := f.galleries[galleryID]
	for _, t := range f.tenants {
		if t.ID == g.TenantID {
			return g, t, nil
		}
	}
	return metadata.Gallery{}, metadata.Tenant{}, fmt.Errorf("%w: tenant", metadata.ErrNotFound)
}

func (f *fakeCatalog) PhotosInGallery(_ context.Context, tenantID, galleryID int64) ([]metadata.Photo, error) {
	var out []metadata.Photo
	for _, id := range f.memberships[galleryID] {
		if p, ok := f.photos[id]; ok && p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) CreatePhoto(_ context.Context, photo *metadata.Photo, galleryID int64) error {
	f.nextPhotoID++
	photo.ID = f.nextPhotoID
	f.photos[photo.ID] = *photo
	if galleryID != 0 {
		f.memberships[galleryID] = append(f.memberships[galleryID], photo.ID)
	}
	return nil
}

func (f *fakeCatalog) DeletePhoto(_ context.Context, tenantID, photoID int64) (bool, error) {
	p, ok := f.photos[photoID]
	if !ok || p.TenantID != tenantID {
		return false, nil
	}
	delete(f.photos, photoID)
	return true, nil
}

func (f *fakeCatalog) CountTenantPhotos(_ context.Context, tenantID int64) (int64, error) {
	var n int64
	for _, p := range f.photos {
		if p.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func (f *fakeCatalog) CreateShareToken(_ context.Context, token metadata.ShareToken) error {
	f.tokens[token.Token] = token.GalleryID
	return nil
}

type testServer struct {
	*Server
	catalog *fakeCatalog
	backend *storage.Local
}

func newTestServer(t *testing.T, signer storage.Signer) *testServer {
	t.Helper()

	backend, err := storage.NewLocal(storage.LocalConfig{Root: t.TempDir()})
	require.NoError(t, err)

	catalog := newFakeCatalog()
	catalog.tenants["acme"] = metadata.Tenant{ID: 1, Slug: "acme"}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := delivery.NewResolver(backend, log)
	archiver := delivery.NewArchiver(resolver, &catalogLibrary{catalog}, log)

	srv := NewServer(catalog, backend, signer, resolver, archiver, nil, log)
	return &testServer{Server: srv, catalog: catalog, backend: backend}
}

// catalogLibrary adapts the fake catalog to the delivery metadata interface,
// the same shape metadata.Library gives the real repository.
type catalogLibrary struct {
	catalog *fakeCatalog
}

func (l *catalogLibrary) GalleriesInAlbum(ctx context.Context, tenantID, albumID int64) ([]delivery.Gallery, error) {
	var out []delivery.Gallery
	for _, g := range l.catalog.galleries {
		if g.TenantID == tenantID && g.AlbumID == albumID {
			out = append(out, metadata.DeliveryGallery(g))
		}
	}
	return out, nil
}

func (l *catalogLibrary) PhotosInGallery(ctx context.Context, tenantID, galleryID int64) ([]delivery.PhotoRef, error) {
	photos, err := l.catalog.PhotosInGallery(ctx, tenantID, galleryID)
	if err != nil {
		return nil, err
	}
	out := make([]delivery.PhotoRef, len(photos))
	for i, p := range photos {
		out[i] = metadata.DeliveryPhoto(p)
	}
	return out, nil
}

func (ts *testServer) addPhoto(t *testing.T, key, name, contentType string, data []byte) metadata.Photo {
	t.Helper()
	_, err := ts.backend.Store(context.Background(), key, data, contentType)
	require.NoError(t, err)

	photo := metadata.Photo{TenantID: 1, StorageKey: key, OriginalName: name, ContentType: contentType, SizeBytes: int64(len(data))}
	require.NoError(t, ts.catalog.CreatePhoto(context.Background(), &photo, 0))
	return photo
}

func doRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	req.Header.Set("X-Tenant", "acme")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_PhotoImage(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	photo := ts.addPhoto(t, "acme/a.jpg", "holiday.jpg", "image/jpeg", []byte("jpeg-bytes"))
	router := ts.Router()

	t.Run("inline for browser-safe types", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/photos/%d/image", photo.ID), nil)
		rec := doRequest(router, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
		assert.Equal(t, `inline; filename=holiday.jpg`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "jpeg-bytes", rec.Body.String())
	})

	t.Run("attachment for unsafe types", func(t *testing.T) {
		pdf := ts.addPhoto(t, "acme/doc.pdf", "contract.pdf", "application/pdf", []byte("%PDF"))
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/photos/%d/image", pdf.ID), nil)
		rec := doRequest(router, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `attachment; filename=contract.pdf`, rec.Header().Get("Content-Disposition"))
	})

	t.Run("download always attaches", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/photos/%d/download", photo.ID), nil)
		rec := doRequest(router, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `attachment; filename=holiday.jpg`, rec.Header().Get("Content-Disposition"))
	})

	t.Run("unknown photo is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/photos/9999/image", nil)
		rec := doRequest(router, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/photos/abc/image", nil)
		rec := doRequest(router, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func multipartUpload(t *testing.T, fileName, contentType string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName)}
	hdr["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestServer_Upload(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	router := ts.Router()

	t.Run("stores under a tenant-prefixed uuid key", func(t *testing.T) {
		body, contentType := multipartUpload(t, "shoot.jpg", "image/jpeg", []byte("jpeg-data"), nil)
		req := httptest.NewRequest(http.MethodPost, "/photos", body)
		req.Header.Set("Content-Type", contentType)
		rec := doRequest(router, req)

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp uploadResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotZero(t, resp.ID)
		assert.Regexp(t, `^acme/[0-9a-f-]{36}\.jpg$`, resp.StorageKey)
		assert.Equal(t, int64(len("jpeg-data")), resp.SizeBytes)

		size, err := ts.backend.Size(context.Background(), resp.StorageKey)
		require.NoError(t, err)
		assert.Equal(t, resp.SizeBytes, size)
	})

	t.Run("rejects non-image extensions", func(t *testing.T) {
		body, contentType := multipartUpload(t, "malware.exe", "application/octet-stream", []byte("MZ"), nil)
		req := httptest.NewRequest(http.MethodPost, "/photos", body)
		req.Header.Set("Content-Type", contentType)
		rec := doRequest(router, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	t.Run("rejects missing file part", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/photos", bytes.NewReader(nil))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
		rec := doRequest(router, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects unknown gallery", func(t *testing.T) {
		body, contentType := multipartUpload(t, "a.png", "image/png", []byte("png"), map[string]string{"gallery_id": "404"})
		req := httptest.NewRequest(http.MethodPost, "/photos", body)
		req.Header.Set("Content-Type", contentType)
		rec := doRequest(router, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_Delete(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	photo := ts.addPhoto(t, "acme/del.jpg", "del.jpg", "image/jpeg", []byte("bytes"))
	router := ts.Router()

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/photos/%d", photo.ID), nil)
	rec := doRequest(router, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	_, err := ts.backend.Size(context.Background(), photo.StorageKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	rec = doRequest(router, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/photos/%d", photo.ID), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_GalleryZip(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	ts.catalog.galleries[10] = metadata.Gallery{ID: 10, TenantID: 1, AlbumID: 7, Title: "Day One"}

	p1 := ts.addPhoto(t, "acme/1.jpg", "first.jpg", "image/jpeg", []byte("one"))
	p2 := ts.addPhoto(t, "acme/2.jpg", "second.jpg", "image/jpeg", []byte("two"))
	ts.catalog.memberships[10] = []int64{p1.ID, p2.ID}

	req := httptest.NewRequest(http.MethodGet, "/galleries/10/download.zip", nil)
	rec := doRequest(ts.Router(), req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Day One-")

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "0001_first.jpg", zr.File[0].Name)
	assert.Equal(t, "0002_second.jpg", zr.File[1].Name)
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	t.Run("ok without probe", func(t *testing.T) {
		ts := newTestServer(t, nil)
		rec := httptest.NewRecorder()
		ts.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unavailable when probe fails", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.health = func(context.Context) error { return fmt.Errorf("db down") }
		rec := httptest.NewRecorder()
		ts.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

package delivery

import (
	"context"
	"time"
)

// PhotoRef is the pipeline's read-only view of a stored photo. It is owned
// by the metadata layer; delivery only consumes it.
type PhotoRef struct {
	ID           int64
	TenantID     int64
	StorageKey   string
	OriginalName string
	ContentType  string
	SizeBytes    int64
}

// Tenant identifies the namespace a request operates in. Every operation
// takes it explicitly; there is no ambient tenant state.
type Tenant struct {
	ID   int64
	Slug string
}

// Album is the unit of archive export.
type Album struct {
	ID       int64
	TenantID int64
	Name     string
}

// Gallery carries the ordering fields the dedup traversal needs: galleries
// are visited oldest-created-first with the id as tie-break.
type Gallery struct {
	ID        int64
	Title     string
	CreatedAt time.Time
}

// Library is the metadata collaborator the archive walk reads from.
// PhotosInGallery must return entries ordered by manual sort position and
// then insertion time; the archiver re-sorts galleries itself.
type Library interface {
	// GalleriesInAlbum lists the galleries of a tenant's album.
	GalleriesInAlbum(ctx context.Context, tenantID, albumID int64) ([]Gallery, error)

	// PhotosInGallery lists a gallery's photos in dedup-traversal order.
	PhotosInGallery(ctx context.Context, tenantID, galleryID int64) ([]PhotoRef, error)
}

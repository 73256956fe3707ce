package metadata

import (
	"context"

	"github.com/photolib/photolib/pkg/delivery"
)

// Library adapts the Repository to the delivery pipeline's metadata
// interface.
type Library struct {
	repo *Repository
}

func NewLibrary(repo *Repository) *Library {
	return &Library{repo: repo}
}

var _ delivery.Library = (*Library)(nil)

func (l *Library) GalleriesInAlbum(ctx context.Context, tenantID, albumID int64) ([]delivery.Gallery, error) {
	galleries, err := l.repo.GalleriesInAlbum(ctx, tenantID, albumID)
	if err != nil {
		return nil, err
	}
	out := make([]delivery.Gallery, len(galleries))
	for i, g := range galleries {
		out[i] = DeliveryGallery(g)
	}
	return out, nil
}

func (l *Library) PhotosInGallery(ctx context.Context, tenantID, galleryID int64) ([]delivery.PhotoRef, error) {
	photos, err := l.repo.PhotosInGallery(ctx, tenantID, galleryID)
	if err != nil {
		return nil, err
	}
	out := make([]delivery.PhotoRef, len(photos))
	for i, p := range photos {
		out[i] = DeliveryPhoto(p)
	}
	return out, nil
}

// DeliveryTenant converts a catalog tenant to its delivery representation.
func DeliveryTenant(t Tenant) delivery.Tenant {
	return delivery.Tenant{ID: t.ID, Slug: t.Slug}
}

// DeliveryAlbum converts a catalog album to its delivery representation.
func DeliveryAlbum(a Album) delivery.Album {
	return delivery.Album{ID: a.ID, TenantID: a.TenantID, Name: a.Name}
}

// DeliveryGallery converts a catalog gallery to its delivery representation.
func DeliveryGallery(g Gallery) delivery.Gallery {
	return delivery.Gallery{ID: g.ID, Title: g.Title, CreatedAt: g.CreatedAt}
}

// DeliveryPhoto converts a catalog photo to its delivery representation.
func DeliveryPhoto(p Photo) delivery.PhotoRef {
	return delivery.PhotoRef{
		ID:           p.ID,
		TenantID:     p.TenantID,
		StorageKey:   p.StorageKey,
		OriginalName: p.OriginalName,
		ContentType:  p.ContentType,
		SizeBytes:    p.SizeBytes,
	}
}

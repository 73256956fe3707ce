package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/photolib/photolib/pkg/db"
)

// Repository exposes the catalog queries over a pgx pool.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func wrapQueryErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, op)
	}
	return fmt.Errorf("%w: %s: %v", ErrQueryFailed, op, err)
}

// TenantBySlug looks a tenant up by its URL slug.
func (r *Repository) TenantBySlug(ctx context.Context, slug string) (Tenant, error) {
	const query = `SELECT id, slug, name, created_at FROM tenants WHERE slug = $1`

	var t Tenant
	err := r.pool.QueryRow(ctx, query, slug).Scan(&t.ID, &t.Slug, &t.Name, &t.CreatedAt)
	if err != nil {
		return Tenant{}, wrapQueryErr("tenant by slug", err)
	}
	return t, nil
}

// PhotoByID fetches one photo, scoped to the tenant.
func (r *Repository) PhotoByID(ctx context.Context, tenantID, photoID int64) (Photo, error) {
	const query = `
		SELECT id, tenant_id, storage_key, original_name, content_type, size_bytes, created_at
		FROM photos WHERE tenant_id = $1 AND id = $2`

	var p Photo
	err := r.pool.QueryRow(ctx, query, tenantID, photoID).Scan(
		&p.ID, &p.TenantID, &p.StorageKey, &p.OriginalName, &p.ContentType, &p.SizeBytes, &p.CreatedAt,
	)
	if err != nil {
		return Photo{}, wrapQueryErr("photo by id", err)
	}
	return p, nil
}

// AlbumByID fetches one album, scoped to the tenant.
func (r *Repository) AlbumByID(ctx context.Context, tenantID, albumID int64) (Album, error) {
	const query = `SELECT id, tenant_id, name, created_at FROM albums WHERE tenant_id = $1 AND id = $2`

	var a Album
	err := r.pool.QueryRow(ctx, query, tenantID, albumID).Scan(&a.ID, &a.TenantID, &a.Name, &a.CreatedAt)
	if err != nil {
		return Album{}, wrapQueryErr("album by id", err)
	}
	return a, nil
}

// GalleryByID fetches one gallery, scoped to the tenant.
func (r *Repository) GalleryByID(ctx context.Context, tenantID, galleryID int64) (Gallery, error) {
	const query = `
		SELECT id, tenant_id, album_id, title, created_at
		FROM galleries WHERE tenant_id = $1 AND id = $2`

	var g Gallery
	err := r.pool.QueryRow(ctx, query, tenantID, galleryID).Scan(
		&g.ID, &g.TenantID, &g.AlbumID, &g.Title, &g.CreatedAt,
	)
	if err != nil {
		return Gallery{}, wrapQueryErr("gallery by id", err)
	}
	return g, nil
}

// GalleryByShareToken resolves a public share token to its gallery and
// tenant. Unknown tokens surface as ErrNotFound.
func (r *Repository) GalleryByShareToken(ctx context.Context, token string) (Gallery, Tenant, error) {
	const query = `
		SELECT g.id, g.tenant_id, g.album_id, g.title, g.created_at,
		       t.id, t.slug, t.name, t.created_at
		FROM share_tokens st
		JOIN galleries g ON g.id = st.gallery_id
		JOIN tenants t ON t.id = st.tenant_id
		WHERE st.token = $1`

	var (
		g Gallery
		t Tenant
	)
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&g.ID, &g.TenantID, &g.AlbumID, &g.Title, &g.CreatedAt,
		&t.ID, &t.Slug, &t.Name, &t.CreatedAt,
	)
	if err != nil {
		return Gallery{}, Tenant{}, wrapQueryErr("gallery by share token", err)
	}
	return g, t, nil
}

// GalleriesInAlbum lists the album's galleries, oldest-created first with id
// as the tie-break. The order is part of the export contract.
func (r *Repository) GalleriesInAlbum(ctx context.Context, tenantID, albumID int64) ([]Gallery, error) {
	const query = `
		SELECT id, tenant_id, album_id, title, created_at
		FROM galleries
		WHERE tenant_id = $1 AND album_id = $2
		ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, tenantID, albumID)
	if err != nil {
		return nil, wrapQueryErr("galleries in album", err)
	}
	defer rows.Close()

	var galleries []Gallery
	for rows.Next() {
		var g Gallery
		if err := rows.Scan(&g.ID, &g.TenantID, &g.AlbumID, &g.Title, &g.CreatedAt); err != nil {
			return nil, wrapQueryErr("scan gallery", err)
		}
		galleries = append(galleries, g)
	}
	return galleries, rows.Err()
}

// PhotosInGallery lists the gallery's photos in their manual order, with the
// membership timestamp as the tie-break.
func (r *Repository) PhotosInGallery(ctx context.Context, tenantID, galleryID int64) ([]Photo, error) {
	const query = `
		SELECT p.id, p.tenant_id, p.storage_key, p.original_name, p.content_type, p.size_bytes, p.created_at
		FROM gallery_photos gp
		JOIN photos p ON p.id = gp.photo_id
		WHERE p.tenant_id = $1 AND gp.gallery_id = $2
		ORDER BY gp.sort_order, gp.added_at`

	rows, err := r.pool.Query(ctx, query, tenantID, galleryID)
	if err != nil {
		return nil, wrapQueryErr("photos in gallery", err)
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		var p Photo
		if err := rows.Scan(&p.ID, &p.TenantID, &p.StorageKey, &p.OriginalName, &p.ContentType, &p.SizeBytes, &p.CreatedAt); err != nil {
			return nil, wrapQueryErr("scan photo", err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// CreatePhoto inserts a photo row and fills in its generated id and
// timestamp. When galleryID is non-zero the membership row is written in the
// same transaction, appended after the gallery's current last position.
func (r *Repository) CreatePhoto(ctx context.Context, photo *Photo, galleryID int64) error {
	const insertPhoto = `
		INSERT INTO photos (tenant_id, storage_key, original_name, content_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	const insertMembership = `
		INSERT INTO gallery_photos (gallery_id, photo_id, sort_order)
		SELECT $1, $2, COALESCE(MAX(sort_order) + 1, 0)
		FROM gallery_photos WHERE gallery_id = $1`

	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, insertPhoto,
			photo.TenantID, photo.StorageKey, photo.OriginalName, photo.ContentType, photo.SizeBytes,
		).Scan(&photo.ID, &photo.CreatedAt)
		if err != nil {
			return wrapQueryErr("insert photo", err)
		}
		if galleryID == 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, insertMembership, galleryID, photo.ID); err != nil {
			return wrapQueryErr("insert gallery membership", err)
		}
		return nil
	})
}

// DeletePhoto removes a photo row, scoped to the tenant. Membership rows go
// with it via cascade. Returns false when no row matched.
func (r *Repository) DeletePhoto(ctx context.Context, tenantID, photoID int64) (bool, error) {
	const query = `DELETE FROM photos WHERE tenant_id = $1 AND id = $2`

	ct, err := r.pool.Exec(ctx, query, tenantID, photoID)
	if err != nil {
		return false, wrapQueryErr("delete photo", err)
	}
	return ct.RowsAffected() > 0, nil
}

// CountTenantPhotos reports how many photos the tenant still owns, used to
// decide whether the tenant's storage directory can be cleaned up.
func (r *Repository) CountTenantPhotos(ctx context.Context, tenantID int64) (int64, error) {
	const query = `SELECT count(*) FROM photos WHERE tenant_id = $1`

	var n int64
	if err := r.pool.QueryRow(ctx, query, tenantID).Scan(&n); err != nil {
		return 0, wrapQueryErr("count tenant photos", err)
	}
	return n, nil
}

// CreateShareToken stores a share token for a gallery.
func (r *Repository) CreateShareToken(ctx context.Context, token ShareToken) error {
	const query = `INSERT INTO share_tokens (token, gallery_id, tenant_id) VALUES ($1, $2, $3)`

	if _, err := r.pool.Exec(ctx, query, token.Token, token.GalleryID, token.TenantID); err != nil {
		return wrapQueryErr("insert share token", err)
	}
	return nil
}

package metadata

import "time"

// Tenant is a photographer account. Slug doubles as the storage key prefix.
type Tenant struct {
	ID        int64
	Slug      string
	Name      string
	CreatedAt time.Time
}

// Album groups galleries, typically one per client or event.
type Album struct {
	ID        int64
	TenantID  int64
	Name      string
	CreatedAt time.Time
}

// Gallery is an ordered photo collection within an album.
type Gallery struct {
	ID        int64
	TenantID  int64
	AlbumID   int64
	Title     string
	CreatedAt time.Time
}

// Photo is an uploaded original plus its descriptive metadata. StorageKey
// locates the backing object; derivatives are addressed from it.
type Photo struct {
	ID           int64
	TenantID     int64
	StorageKey   string
	OriginalName string
	ContentType  string
	SizeBytes    int64
	CreatedAt    time.Time
}

// GalleryPhoto is a gallery membership row carrying the manual sort position.
type GalleryPhoto struct {
	GalleryID int64
	PhotoID   int64
	SortOrder int
	AddedAt   time.Time
}

// ShareToken grants public read access to one gallery through an unguessable
// URL segment.
type ShareToken struct {
	Token     string
	GalleryID int64
	TenantID  int64
	CreatedAt time.Time
}

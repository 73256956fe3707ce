package delivery

import (
	"archive/zip"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/photolib/photolib/pkg/logger"
	"github.com/photolib/photolib/pkg/storage"
)

// Archiver streams ZIP exports of albums and galleries. Entries are written
// as each source stream is read; the full archive is never held in memory or
// on disk.
type Archiver struct {
	resolver *Resolver
	library  Library
	log      *slog.Logger
}

// NewArchiver creates an Archiver over the given resolver and metadata
// layer. A nil log disables logging.
func NewArchiver(resolver *Resolver, library Library, log *slog.Logger) *Archiver {
	if log == nil {
		log = logger.NewNope()
	}
	return &Archiver{resolver: resolver, library: library, log: log}
}

// WriteAlbumZip streams a ZIP of every distinct photo in the album's
// galleries to w. Galleries are visited oldest-created-first (id as
// tie-break), photos within a gallery in their manual order, and a photo
// appearing in several galleries is exported once, from its first occurrence.
// A photo whose backing file is missing is skipped, and the sequence numbers
// of written entries stay gapless.
func (a *Archiver) WriteAlbumZip(ctx context.Context, w io.Writer, tenant Tenant, album Album, variant Variant) error {
	galleries, err := a.library.GalleriesInAlbum(ctx, tenant.ID, album.ID)
	if err != nil {
		return err
	}
	slices.SortStableFunc(galleries, func(x, y Gallery) int {
		if c := x.CreatedAt.Compare(y.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})

	seen := make(map[int64]struct{})
	var photos []PhotoRef
	for _, gallery := range galleries {
		entries, err := a.library.PhotosInGallery(ctx, tenant.ID, gallery.ID)
		if err != nil {
			return err
		}
		for _, photo := range entries {
			if _, dup := seen[photo.ID]; dup {
				continue
			}
			seen[photo.ID] = struct{}{}
			photos = append(photos, photo)
		}
	}

	return a.writeZip(ctx, w, tenant, photos, variant)
}

// WriteGalleryZip streams a ZIP of a single gallery's photos, in their
// manual order.
func (a *Archiver) WriteGalleryZip(ctx context.Context, w io.Writer, tenant Tenant, gallery Gallery, variant Variant) error {
	photos, err := a.library.PhotosInGallery(ctx, tenant.ID, gallery.ID)
	if err != nil {
		return err
	}
	return a.writeZip(ctx, w, tenant, photos, variant)
}

func (a *Archiver) writeZip(ctx context.Context, w io.Writer, tenant Tenant, photos []PhotoRef, variant Variant) error {
	zw := zip.NewWriter(w)
	seq := 1
	for _, photo := range photos {
		file, err := a.resolver.Resolve(ctx, tenant, photo, variant)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// Deliberate leniency: one missing file must not abort an
				// otherwise-good export. Logged, never surfaced.
				a.log.WarnContext(ctx, "skipping photo with missing backing file",
					slog.Int64("photo_id", photo.ID),
					slog.String("tenant", tenant.Slug))
				continue
			}
			zw.Close()
			return err
		}

		if err := a.writeEntry(zw, seq, file); err != nil {
			zw.Close()
			return err
		}
		seq++
	}
	return zw.Close()
}

// writeEntry copies one resolved stream into the archive, releasing the
// source before the next entry is opened.
func (a *Archiver) writeEntry(zw *zip.Writer, seq int, file *ResolvedFile) error {
	defer file.Body.Close()

	entry, err := zw.Create(zipEntryName(seq, file.FileName))
	if err != nil {
		return fmt.Errorf("delivery: create zip entry: %w", err)
	}
	if _, err := io.Copy(entry, file.Body); err != nil {
		return fmt.Errorf("delivery: write zip entry: %w", err)
	}
	return nil
}

// zipEntryName prefixes the sanitized display name with a four-digit
// sequence, starting at 0001.
func zipEntryName(seq int, fileName string) string {
	return fmt.Sprintf("%04d_%s", seq, SanitizeFileName(fileName))
}

// BuildAlbumZipFileName names a whole-album export:
// "<sanitized-album-name>-<ISO date>-<web|original>.zip".
func BuildAlbumZipFileName(albumName string, variant Variant) string {
	return buildZipFileName(albumName, "album", variant)
}

// BuildGalleryZipFileName names a single-gallery export.
func BuildGalleryZipFileName(galleryTitle string, variant Variant) string {
	return buildZipFileName(galleryTitle, "gallery", variant)
}

func buildZipFileName(base, fallback string, variant Variant) string {
	if base == "" {
		base = fallback
	}
	date := time.Now().Format(time.DateOnly)
	return SanitizeFileName(base) + "-" + date + "-" + variant.String() + ".zip"
}

// Package delivery resolves logical photos to deliverable byte streams.
//
// It is the pipeline between the metadata layer and a storage backend: a
// request names a photo and a variant, and delivery produces a readable
// stream, a media type, and a display file name. The web variant is a
// downsized JPEG rendering generated lazily on first request and cached in
// the backend's derivative area; generation failures degrade to serving the
// original rather than failing the request.
//
// The Archiver walks an album's galleries in creation order, deduplicates
// photos that appear in several galleries (first occurrence wins), and
// streams a ZIP archive entry by entry without ever materializing the whole
// archive, so memory stays bounded by a single photo.
//
// Display and archive-entry file names pass through SanitizeFileName, which
// strips path separators and anything unsafe for a Content-Disposition
// header.
package delivery

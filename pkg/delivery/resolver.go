package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strings"

	"github.com/photolib/photolib/pkg/imaging"
	"github.com/photolib/photolib/pkg/logger"
	"github.com/photolib/photolib/pkg/storage"
)

// MediaTypeJPEG is the media type of every web rendering.
const MediaTypeJPEG = "image/jpeg"

// mediaTypeOctetStream is the fallback for absent or unparseable declared types.
const mediaTypeOctetStream = "application/octet-stream"

// inlineSafeTypes is the fixed allow-list of media types a browser may render
// inline; everything else defaults to attachment disposition.
var inlineSafeTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// IsInlineSafe reports whether a media type may be rendered directly in a
// browser. Pure function of the media type, exposed for the HTTP boundary.
func IsInlineSafe(mediaType string) bool {
	mt, _, err := mime.ParseMediaType(strings.TrimSpace(mediaType))
	if err != nil {
		return false
	}
	_, ok := inlineSafeTypes[mt]
	return ok
}

// ResolvedFile is a deliverable photo stream. The caller owns Body and must
// close it.
type ResolvedFile struct {
	Body      io.ReadCloser
	MediaType string
	FileName  string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithWebMaxDimension bounds the longer side of web renderings.
// Values below the 200px floor are clamped up.
func WithWebMaxDimension(d int) ResolverOption {
	return func(r *Resolver) {
		r.webMaxDim = imaging.ClampMaxDimension(d)
	}
}

// WithWebJPEGQuality sets the web rendering's JPEG quality fraction,
// clamped to [0.1, 1.0].
func WithWebJPEGQuality(q float64) ResolverOption {
	return func(r *Resolver) {
		r.webQuality = imaging.ClampQuality(q)
	}
}

// Resolver turns (photo, variant) into a byte stream, generating and caching
// web renderings on first request.
type Resolver struct {
	backend    storage.Backend
	log        *slog.Logger
	webMaxDim  int
	webQuality float64
}

// NewResolver creates a Resolver over the given backend. A nil log disables
// logging.
func NewResolver(backend storage.Backend, log *slog.Logger, opts ...ResolverOption) *Resolver {
	if log == nil {
		log = logger.NewNope()
	}
	r := &Resolver{
		backend:    backend,
		log:        log,
		webMaxDim:  imaging.DefaultMaxDimension,
		webQuality: imaging.DefaultJPEGQuality,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve opens the requested variant of a photo. For the web variant it
// serves the cached derivative when present, otherwise decodes the original,
// scales it, writes the derivative, and serves it; originals that cannot be
// decoded are served unchanged instead of failing the request. A missing
// backing object surfaces as storage.ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, tenant Tenant, photo PhotoRef, variant Variant) (*ResolvedFile, error) {
	if variant == VariantWeb {
		return r.resolveWeb(ctx, tenant, photo)
	}
	return r.resolveOriginal(ctx, photo)
}

func (r *Resolver) resolveOriginal(ctx context.Context, photo PhotoRef) (*ResolvedFile, error) {
	body, err := r.backend.Open(ctx, photo.StorageKey)
	if err != nil {
		return nil, err
	}
	return &ResolvedFile{
		Body:      body,
		MediaType: resolveMediaType(photo),
		FileName:  originalDownloadName(photo),
	}, nil
}

func (r *Resolver) resolveWeb(ctx context.Context, tenant Tenant, photo PhotoRef) (*ResolvedFile, error) {
	derivKey, err := storage.DerivativeKey(photo.StorageKey, photo.ID)
	if err != nil {
		return nil, err
	}

	// Cache hit: the derivative is immutable once written, serve it as-is.
	cached, err := r.backend.Open(ctx, derivKey)
	if err == nil {
		return &ResolvedFile{
			Body:      cached,
			MediaType: MediaTypeJPEG,
			FileName:  webDownloadName(photo),
		}, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	// Cache miss: buffer the original once so a failed decode can still be
	// served without reopening the stream.
	source, err := r.backend.Open(ctx, photo.StorageKey)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(source)
	source.Close()
	if err != nil {
		return nil, fmt.Errorf("delivery: read original %s: %w", photo.StorageKey, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		// Non-image or unsupported format: degrade to the original.
		r.log.InfoContext(ctx, "web variant unavailable, serving original",
			slog.Int64("photo_id", photo.ID),
			slog.String("tenant", tenant.Slug))
		return &ResolvedFile{
			Body:      io.NopCloser(bytes.NewReader(data)),
			MediaType: resolveMediaType(photo),
			FileName:  originalDownloadName(photo),
		}, nil
	}

	var buf bytes.Buffer
	scaled := imaging.ScaleToFit(img, r.webMaxDim)
	if err := imaging.EncodeJPEG(&buf, scaled, r.webQuality); err != nil {
		return nil, err
	}

	// Concurrent first requests may race here; the output is deterministic
	// for fixed scaler parameters, so losing the race costs only the
	// redundant work. The local backend reports the loss as ErrAlreadyExists.
	if _, err := r.backend.Store(ctx, derivKey, buf.Bytes(), MediaTypeJPEG); err != nil &&
		!errors.Is(err, storage.ErrAlreadyExists) {
		r.log.WarnContext(ctx, "failed to cache web variant",
			slog.Int64("photo_id", photo.ID),
			slog.String("tenant", tenant.Slug),
			slog.String("error", err.Error()))
	}

	return &ResolvedFile{
		Body:      io.NopCloser(bytes.NewReader(buf.Bytes())),
		MediaType: MediaTypeJPEG,
		FileName:  webDownloadName(photo),
	}, nil
}

// resolveMediaType parses the photo's declared content type, falling back to
// a generic octet stream when absent or unparseable.
func resolveMediaType(photo PhotoRef) string {
	declared := strings.TrimSpace(photo.ContentType)
	if declared == "" {
		return mediaTypeOctetStream
	}
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return mediaTypeOctetStream
	}
	return mt
}

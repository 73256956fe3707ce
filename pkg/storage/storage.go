package storage

import (
	"context"
	"io"
	"time"
)

// Backend is the uniform contract over the tenant-scoped key namespace,
// implemented by the local filesystem store and the S3-compatible store.
// Every key argument is validated against the storage-key grammar before any
// filesystem or network call.
type Backend interface {
	// Store writes data exactly once under key and returns the key.
	// It fails with ErrEmptyFile for empty data and ErrInvalidKey for a
	// malformed key. The local backend refuses to overwrite an existing
	// object (ErrAlreadyExists); the remote backend overwrites, since its
	// keys already contain a caller-chosen random photo id.
	Store(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Open returns a readable stream for the object at key.
	// The caller is responsible for closing it.
	// Fails with ErrNotFound when the object is absent.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Size returns the object's byte size, with the same failure modes as Open.
	Size(ctx context.Context, key string) (int64, error)

	// Delete removes the object at key, reporting whether anything was
	// deleted. An already-absent key yields (false, nil), not an error.
	Delete(ctx context.Context, key string) (bool, error)

	// CleanupTenantDir removes the tenant's directory if it holds zero
	// entries. Best effort: a no-op for a missing or non-empty directory,
	// and always a no-op on flat-namespace backends.
	CleanupTenantDir(ctx context.Context, tenantSlug string) error
}

// Signer issues time-boxed download URLs. Only the S3 backend implements it;
// local deployments serve bytes directly and have no signer.
type Signer interface {
	// SignedURL produces a presigned GET URL for key, valid for ttl.
	// useCDN routes the URL through the configured CDN base instead of
	// signing, when one is configured; it is a caller-supplied hint only.
	// Fails with ErrInvalidKey / ErrInvalidTTL before any network call.
	SignedURL(ctx context.Context, key string, ttl time.Duration, useCDN bool) (string, error)
}

// TTL policy for signed URLs by use case.
const (
	// TTLAttachment is for attachment-style downloads.
	TTLAttachment = 5 * time.Minute

	// TTLInline is for inline, thumbnail, and web viewing.
	TTLInline = 15 * time.Minute
)

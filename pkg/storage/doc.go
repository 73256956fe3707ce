// Package storage provides tenant-scoped object storage for photo assets.
//
// It defines a single Backend contract implemented by a local filesystem
// store and an S3-compatible remote store, and enforces a strict storage-key
// grammar so that no key can escape its tenant namespace.
//
// # Storage keys
//
// A storage key is either a bare leaf ("uuid.jpg", legacy layout) or a
// tenant-segmented "tenant-slug/uuid.jpg". Tenant slugs are lowercase
// alphanumeric with hyphens, at most 64 characters. Leaves may not contain
// path separators, "..", backslashes, or NUL bytes. Every backend validates
// keys before touching the filesystem or the network; a malformed key is
// always a hard rejection, never a fallback.
//
// Cached web derivatives live in a reserved area next to the originals:
//
//	[tenant-slug/]_derivatives/web/<photo-id>.jpg
//
// DerivativeKey computes that location from an original key, and ValidateKey
// accepts both forms.
//
// # Choosing a backend
//
// Wire Local when only an upload directory is configured, S3 when bucket
// credentials are present:
//
//	local, err := storage.NewLocal(storage.LocalConfig{Root: "uploads"})
//
//	remote, err := storage.NewS3(storage.S3Config{
//		Bucket:    "photos",
//		AccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
//		SecretKey: os.Getenv("STORAGE_SECRET_KEY"),
//		Endpoint:  "https://s3.eu-central-003.backblazeb2.com",
//	})
//
// The S3 backend additionally issues presigned download URLs with a
// per-variant TTL policy (TTLAttachment, TTLInline) and an optional CDN
// base-URL bypass.
package storage

package storage

import (
	"fmt"
	"regexp"
	"strings"
)

// derivativePrefix is the reserved area for generated renderings, placed next
// to the originals of the same tenant. The leading underscore keeps it out of
// the tenant-slug namespace, which never starts with one.
const derivativePrefix = "_derivatives/web"

// tenantSlugRe matches a valid tenant path segment.
var tenantSlugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,63}$`)

// Key holds the parsed segments of a valid storage key. TenantSlug is empty
// for legacy keys without a tenant segment.
type Key struct {
	TenantSlug string
	Leaf       string
	derivative bool
}

// IsDerivative reports whether the key points into the derivative area.
func (k Key) IsDerivative() bool { return k.derivative }

// String reassembles the segments into the canonical key form.
func (k Key) String() string {
	var b strings.Builder
	if k.TenantSlug != "" {
		b.WriteString(k.TenantSlug)
		b.WriteByte('/')
	}
	if k.derivative {
		b.WriteString(derivativePrefix)
		b.WriteByte('/')
	}
	b.WriteString(k.Leaf)
	return b.String()
}

// ValidateKey checks a raw key against the storage-key grammar and returns an
// error naming the violation. It accepts original keys ("leaf" or
// "tenant/leaf") and derivative keys ("[tenant/]_derivatives/web/leaf").
func ValidateKey(raw string) error {
	_, err := ParseKey(raw)
	return err
}

// ParseKey validates a raw key and splits it into segments.
func ParseKey(raw string) (Key, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Key{}, fmt.Errorf("%w: blank key", ErrInvalidKey)
	}
	if strings.ContainsAny(trimmed, "\\\x00") || strings.Contains(trimmed, "..") {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, raw)
	}

	segs := strings.Split(trimmed, "/")
	switch len(segs) {
	case 1:
		if err := validateLeaf(segs[0]); err != nil {
			return Key{}, err
		}
		return Key{Leaf: segs[0]}, nil
	case 2:
		if !tenantSlugRe.MatchString(segs[0]) {
			return Key{}, fmt.Errorf("%w: bad tenant segment %q", ErrInvalidKey, segs[0])
		}
		if err := validateLeaf(segs[1]); err != nil {
			return Key{}, err
		}
		return Key{TenantSlug: segs[0], Leaf: segs[1]}, nil
	case 3:
		// _derivatives/web/<leaf>
		if segs[0]+"/"+segs[1] != derivativePrefix {
			return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, raw)
		}
		if err := validateLeaf(segs[2]); err != nil {
			return Key{}, err
		}
		return Key{Leaf: segs[2], derivative: true}, nil
	case 4:
		// <tenant>/_derivatives/web/<leaf>
		if !tenantSlugRe.MatchString(segs[0]) {
			return Key{}, fmt.Errorf("%w: bad tenant segment %q", ErrInvalidKey, segs[0])
		}
		if segs[1]+"/"+segs[2] != derivativePrefix {
			return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, raw)
		}
		if err := validateLeaf(segs[3]); err != nil {
			return Key{}, err
		}
		return Key{TenantSlug: segs[0], Leaf: segs[3], derivative: true}, nil
	default:
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, raw)
	}
}

// DerivativeKey computes the deterministic cache location for the web
// rendering of a photo, mirroring the tenant segmentation of the original key.
func DerivativeKey(originalKey string, photoID int64) (string, error) {
	k, err := ParseKey(originalKey)
	if err != nil {
		return "", err
	}
	if k.IsDerivative() {
		return "", fmt.Errorf("%w: %q is already a derivative key", ErrInvalidKey, originalKey)
	}
	leaf := fmt.Sprintf("%d.jpg", photoID)
	if k.TenantSlug != "" {
		return k.TenantSlug + "/" + derivativePrefix + "/" + leaf, nil
	}
	return derivativePrefix + "/" + leaf, nil
}

// ValidateTenantSlug checks a bare tenant segment, used by tenant directory
// cleanup where no leaf is involved.
func ValidateTenantSlug(slug string) error {
	if !tenantSlugRe.MatchString(strings.TrimSpace(slug)) {
		return fmt.Errorf("%w: bad tenant segment %q", ErrInvalidKey, slug)
	}
	return nil
}

func validateLeaf(leaf string) error {
	if strings.TrimSpace(leaf) == "" {
		return fmt.Errorf("%w: blank leaf", ErrInvalidKey)
	}
	if strings.ContainsAny(leaf, "/\\\x00") || strings.Contains(leaf, "..") {
		return fmt.Errorf("%w: bad leaf %q", ErrInvalidKey, leaf)
	}
	return nil
}

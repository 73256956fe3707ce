package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalConfig holds local filesystem storage configuration.
type LocalConfig struct {
	// Root is the upload directory; created on startup if absent.
	Root string `env:"STORAGE_LOCAL_ROOT" envDefault:"uploads"`
}

// Local implements Backend on the local filesystem.
//
// Layout under the root: "[tenant-slug/]leaf" for originals and
// "[tenant-slug/]_derivatives/web/photo-id.jpg" for cached web renderings.
type Local struct {
	root string
}

// NewLocal creates a Local backend rooted at cfg.Root, creating the
// directory when needed.
func NewLocal(cfg LocalConfig) (*Local, error) {
	if strings.TrimSpace(cfg.Root) == "" {
		return nil, ErrInvalidConfig
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &Local{root: root}, nil
}

// Root returns the absolute upload root directory.
func (l *Local) Root() string { return l.root }

// Store writes data under key with create-new semantics: an existing target
// is never silently overwritten.
func (l *Local) Store(_ context.Context, key string, data []byte, _ string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	path, err := l.resolve(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrAlreadyExists, key)
		}
		return "", fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	return key, nil
}

// Open returns a stream over the file at key.
func (l *Local) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	return f, nil
}

// Size returns the byte size of the file at key.
func (l *Local) Size(_ context.Context, key string) (int64, error) {
	path, err := l.resolve(key)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return 0, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	return info.Size(), nil
}

// Delete removes the file at key, reporting whether it existed.
func (l *Local) Delete(_ context.Context, key string) (bool, error) {
	path, err := l.resolve(key)
	if err != nil {
		return false, err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return true, nil
}

// CleanupTenantDir removes the tenant's directory only when it contains zero
// entries. Missing or non-empty directories are left alone.
func (l *Local) CleanupTenantDir(_ context.Context, tenantSlug string) error {
	if err := ValidateTenantSlug(tenantSlug); err != nil {
		return err
	}
	dir := filepath.Join(l.root, strings.TrimSpace(tenantSlug))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	if len(entries) > 0 {
		return nil
	}
	if err := os.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

// Ensure Local implements the Backend contract.
var _ Backend = (*Local)(nil)

// resolve validates key and maps it to an absolute path under the root.
// The containment check after joining is a second line of defense behind the
// key grammar.
func (l *Local) resolve(key string) (string, error) {
	k, err := ParseKey(key)
	if err != nil {
		return "", err
	}
	path := filepath.Join(l.root, filepath.FromSlash(k.String()))
	if path != l.root && !strings.HasPrefix(path, l.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrPathEscapes, key)
	}
	return path, nil
}

package photos

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"
)

// DiskStore writes photos to a local directory that the HTTP server exposes
// at URLPrefix.
type DiskStore struct {
	dir       string
	urlPrefix string
	maxBytes  int64
	now       func() time.Time
}

// NewDiskStore creates the directory if needed. maxBytes <= 0 disables the
// size check.
func NewDiskStore(dir, urlPrefix string, maxBytes int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if urlPrefix == "" {
		urlPrefix = "/uploads"
	}
	return &DiskStore{dir: dir, urlPrefix: urlPrefix, maxBytes: maxBytes, now: time.Now}, nil
}

// Dir returns the directory photos are written to.
func (s *DiskStore) Dir() string { return s.dir }

// Save writes r to "<unix millis>-<name>" and returns its URL.
func (s *DiskStore) Save(_ context.Context, filename string, r io.Reader) (string, error) {
	name := cleanName(filename)
	if name == "" {
		return "", ErrEmpty
	}
	stored := fmt.Sprintf("%d-%s", s.now().UnixMilli(), name)
	full := filepath.Join(s.dir, stored)

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create photo file: %w", err)
	}

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	switch {
	case err != nil:
		os.Remove(full) //nolint:errcheck
		return "", fmt.Errorf("write photo: %w", err)
	case n == 0:
		os.Remove(full) //nolint:errcheck
		return "", ErrEmpty
	case s.maxBytes > 0 && n > s.maxBytes:
		os.Remove(full) //nolint:errcheck
		return "", fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, s.maxBytes)
	}
	return path.Join(s.urlPrefix, stored), nil
}

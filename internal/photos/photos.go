// Package photos stores profile photos and returns the URL they are served
// from. The disk store serves files under /uploads; the Cloudinary store
// hands them to a remote media host.
package photos

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// ErrEmpty is returned when an upload has no content or no usable name.
var ErrEmpty = errors.New("no photo uploaded")

// ErrTooLarge is returned when an upload exceeds the store's size limit.
var ErrTooLarge = errors.New("photo too large")

// Store persists an uploaded photo and returns its public URL.
type Store interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
}

// cleanName strips directories and characters that do not belong in a file
// name, keeping the extension.
func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	return strings.TrimLeft(b.String(), ".")
}

package photos_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmerrifield20/SkillSwap/internal/photos"
)

func TestDiskStore_SaveWritesFileAndReturnsURL(t *testing.T) {
	dir := t.TempDir()
	s, err := photos.NewDiskStore(dir, "/uploads", 0)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	url, err := s.Save(context.Background(), "my photo.png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/") || !strings.HasSuffix(url, "-my_photo.png") {
		t.Errorf("url = %q, want /uploads/<millis>-my_photo.png", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/")))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("stored content = %q", data)
	}
}

func TestDiskStore_StripsDirectories(t *testing.T) {
	s, err := photos.NewDiskStore(t.TempDir(), "", 0)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	url, err := s.Save(context.Background(), "../../etc/passwd", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if strings.Contains(strings.TrimPrefix(url, "/uploads/"), "/") {
		t.Errorf("url %q escapes the upload dir", url)
	}
}

func TestDiskStore_RejectsEmptyUpload(t *testing.T) {
	dir := t.TempDir()
	s, _ := photos.NewDiskStore(dir, "/uploads", 0)

	_, err := s.Save(context.Background(), "a.png", strings.NewReader(""))
	if !errors.Is(err, photos.ErrEmpty) {
		t.Fatalf("err = %v, want ErrEmpty", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("empty upload left %d files behind", len(entries))
	}
}

func TestDiskStore_RejectsOversizedUpload(t *testing.T) {
	dir := t.TempDir()
	s, _ := photos.NewDiskStore(dir, "/uploads", 4)

	if _, err := s.Save(context.Background(), "a.png", strings.NewReader("12345")); !errors.Is(err, photos.ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("oversized upload left %d files behind", len(entries))
	}
}

// Package upload stores product images on local disk.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// MaxGallery caps the number of files one gallery upload may carry.
const MaxGallery = 10

var (
	ErrInvalidType  = errors.New("invalid image type")
	ErrTooManyFiles = fmt.Errorf("at most %d gallery images are allowed", MaxGallery)
)

// fileTypes maps accepted Content-Types to the extension written to disk.
var fileTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpeg",
	"image/jpg":  "jpg",
}

type Store struct {
	dir string
	now func() time.Time
}

func New(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

func (s *Store) Dir() string { return s.dir }

// Ext returns the extension for a declared Content-Type, or ErrInvalidType.
func Ext(contentType string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok := fileTypes[ct]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, contentType)
	}
	return ext, nil
}

// Check rejects the batch if any file is not an accepted image. Nothing is written.
func Check(files ...*multipart.FileHeader) error {
	for _, fh := range files {
		if fh == nil {
			continue
		}
		if _, err := Ext(fh.Header.Get("Content-Type")); err != nil {
			return err
		}
	}
	return nil
}

// Filename builds `<original with spaces as dashes>-<epoch millis>.<ext>`.
func Filename(original, ext string, at time.Time) string {
	return fmt.Sprintf("%s-%d.%s", sanitize(original), at.UnixMilli(), ext)
}

func sanitize(name string) string {
	clean := filepath.Base(filepath.Clean(name))
	clean = strings.ReplaceAll(clean, "\\", "_")
	clean = strings.Join(strings.Fields(clean), "-")
	if clean == "." || clean == ".." || clean == "" || clean == "/" {
		return "unnamed"
	}
	return clean
}

// Save writes fh under the upload directory and returns the stored file name.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	ext, err := Ext(fh.Header.Get("Content-Type"))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	at := s.now()
	for attempt := 0; attempt < 5; attempt++ {
		name := Filename(fh.Filename, ext, at)
		dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			at = at.Add(time.Millisecond)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create upload: %w", err)
		}
		if _, err := io.Copy(dst, src); err != nil {
			dst.Close()
			_ = os.Remove(dst.Name())
			return "", fmt.Errorf("write upload: %w", err)
		}
		if err := dst.Close(); err != nil {
			return "", fmt.Errorf("close upload: %w", err)
		}
		return name, nil
	}
	return "", fmt.Errorf("create upload: name collision for %q", fh.Filename)
}

// SaveAll checks the whole batch first, then writes each file in order.
func (s *Store) SaveAll(files []*multipart.FileHeader) ([]string, error) {
	if len(files) > MaxGallery {
		return nil, ErrTooManyFiles
	}
	if err := Check(files...); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for _, fh := range files {
		name, err := s.Save(fh)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// List returns the names of the stored files, sorted. A missing directory is an empty list.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read upload dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// URL is the public address of a stored file.
func URL(baseURL, name string) string {
	return strings.TrimRight(baseURL, "/") + "/public/uploads/" + name
}

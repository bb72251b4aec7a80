package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	maxImageCount     = 5
	defaultMaxImageMB = 5

	imagesField = "images"
)

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

var errTooManyImages = errors.New("too many images")

// UploadStore writes complaint images to local disk. Stored names carry a
// millisecond timestamp and the uploader id, so they are unique and never
// contain spaces (the store keeps image lists space-delimited).
type UploadStore struct {
	Dir      string
	MaxBytes int64
}

func NewUploadStore(dir string, maxBytes int64) (*UploadStore, error) {
	if maxBytes <= 0 {
		maxBytes = defaultMaxImageMB << 20
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &UploadStore{Dir: dir, MaxBytes: maxBytes}, nil
}

// SaveImages persists up to maxImageCount files from the request's multipart
// form and returns the stored filenames.
func (u *UploadStore) SaveImages(r *http.Request, userID string) ([]string, error) {
	if r.MultipartForm == nil || r.MultipartForm.File == nil {
		return nil, nil
	}

	headers := r.MultipartForm.File[imagesField]
	if len(headers) == 0 {
		return nil, nil
	}
	if len(headers) > maxImageCount {
		return nil, fmt.Errorf("%w: at most %d images per complaint", errTooManyImages, maxImageCount)
	}

	var stored []string
	for _, hdr := range headers {
		name, err := u.saveOne(hdr, userID)
		if err != nil {
			// Clean up anything already written for this request.
			u.Remove(stored)
			return nil, err
		}
		stored = append(stored, name)
	}
	return stored, nil
}

// Remove deletes stored files by name, ignoring ones already gone. Callers
// use it to roll back a batch when the complaint they belong to was never
// persisted.
func (u *UploadStore) Remove(names []string) {
	for _, n := range names {
		_ = os.Remove(filepath.Join(u.Dir, n))
	}
}

func (u *UploadStore) saveOne(hdr *multipart.FileHeader, userID string) (string, error) {
	if hdr.Size > u.MaxBytes {
		return "", fmt.Errorf("image %q exceeds the %d byte limit", hdr.Filename, u.MaxBytes)
	}

	ext := strings.ToLower(filepath.Ext(hdr.Filename))
	if !allowedImageExts[ext] {
		return "", fmt.Errorf("image type %q is not allowed", ext)
	}

	name := fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), userID, sanitizeFilename(hdr.Filename))

	src, err := hdr.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(u.Dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(src, u.MaxBytes)); err != nil {
		return "", err
	}
	return name, nil
}

// sanitizeFilename strips directories and reduces the base name to a safe
// character set with no spaces.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// Package upload accepts product image files from multipart requests and
// keeps the uploads directory consistent with what handlers commit.
package upload

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shop-admin/internal/model"
)

const (
	// FieldName is the only multipart field files may arrive under.
	FieldName = "images"

	MaxFileSize  = 5 << 20 // per file
	MaxFileCount = 3

	maxFormMemory = 32 << 20

	publicBasePath = "/uploads/products"
)

// Cause-specific intake failures. The messages are returned to clients
// verbatim.
var (
	ErrFileTooLarge    = errors.New("File too large. Maximum size is 5MB per image.")
	ErrTooManyFiles    = errors.New("Too many files. Maximum 3 images allowed.")
	ErrUnexpectedField = errors.New(`Unexpected field name. Use "images" as field name.`)
	ErrInvalidFileType = errors.New("Only image files are allowed (jpeg, jpg, png, gif, webp)")
	ErrMalformedForm   = errors.New("Invalid multipart form data")
)

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var allowedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Store writes accepted images into a single uploads directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

// SaveProductImages parses the request's multipart form and stores every
// file from the images field. All headers are validated before anything
// is written, so a rejected request leaves no files behind; a failure
// midway through writing cleans up the files already saved.
func (s *Store) SaveProductImages(r *http.Request) ([]model.ProductImage, error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedForm, err)
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File) == 0 {
		return []model.ProductImage{}, nil
	}

	for field := range r.MultipartForm.File {
		if field != FieldName {
			return nil, ErrUnexpectedField
		}
	}

	headers := r.MultipartForm.File[FieldName]
	if len(headers) > MaxFileCount {
		return nil, ErrTooManyFiles
	}
	for _, header := range headers {
		if header.Size > MaxFileSize {
			return nil, ErrFileTooLarge
		}
		ext := strings.ToLower(filepath.Ext(header.Filename))
		if !allowedExtensions[ext] || !allowedMIMETypes[header.Header.Get("Content-Type")] {
			return nil, ErrInvalidFileType
		}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	images := make([]model.ProductImage, 0, len(headers))
	for _, header := range headers {
		image, err := s.saveFile(header)
		if err != nil {
			Cleanup(model.ImageList(images).Paths())
			return nil, err
		}
		images = append(images, image)
	}

	return images, nil
}

func (s *Store) saveFile(header *multipart.FileHeader) (model.ProductImage, error) {
	src, err := header.Open()
	if err != nil {
		return model.ProductImage{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	filename := fmt.Sprintf("product-%d-%s%s", time.Now().UnixMilli(), uuid.New().String(), ext)
	path := filepath.Join(s.dir, filename)

	dst, err := os.Create(path)
	if err != nil {
		return model.ProductImage{}, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(path)
		return model.ProductImage{}, fmt.Errorf("failed to write file: %w", err)
	}

	return model.ProductImage{
		Filename:     filename,
		OriginalName: header.Filename,
		Path:         path,
		Size:         size,
		URL:          publicBasePath + "/" + filename,
	}, nil
}

// Cleanup deletes each path that still exists. Best effort: an absent
// path is fine and a failed unlink is only logged.
func Cleanup(paths []string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := os.Remove(path); err != nil {
			log.Printf("Warning: failed to delete file %s: %v", path, err)
		}
	}
}

// IsIntakeError reports whether err is one of the client-caused intake
// failures (as opposed to a server-side storage problem).
func IsIntakeError(err error) bool {
	return errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrTooManyFiles) ||
		errors.Is(err, ErrUnexpectedField) ||
		errors.Is(err, ErrInvalidFileType) ||
		errors.Is(err, ErrMalformedForm)
}

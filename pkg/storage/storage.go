// Package storage saves restaurant photos to disk or to an S3 bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Kind is the role of an uploaded image
type Kind string

const (
	KindProfile Kind = "profile"
	KindLogo    Kind = "logo"
	KindGallery Kind = "gallery"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds the maximum upload size")
	ErrUnsupportedType = errors.New("only .jpg, .jpeg, .png and .gif files are allowed")
	ErrEmptyFile       = errors.New("file is empty")
)

var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// Store persists uploads and returns their public URL
type Store interface {
	Save(ctx context.Context, restaurantID uint, kind Kind, ext string, r io.Reader) (string, error)
	// Delete removes the file behind a URL returned by Save. Missing files are not an error.
	Delete(ctx context.Context, url string) error
}

// ValidateUpload checks size and extension and returns the lower-cased extension
func ValidateUpload(filename string, size, maxBytes int64) (string, error) {
	if size <= 0 {
		return "", ErrEmptyFile
	}
	if size > maxBytes {
		return "", ErrFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", ErrUnsupportedType
	}
	return ext, nil
}

// ContentType returns the MIME type for an allowed extension
func ContentType(ext string) string {
	if ct, ok := allowedExtensions[strings.ToLower(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ObjectKey lays files out as Restaurant/{id}/{Profile|Logo|Gallery}/{kind}_{nanos}{ext}
func ObjectKey(restaurantID uint, kind Kind, ext string, now time.Time) string {
	dir := strings.ToUpper(string(kind[:1])) + string(kind[1:])
	return path.Join("Restaurant", fmt.Sprint(restaurantID), dir, fmt.Sprintf("%s_%d%s", kind, now.UnixNano(), ext))
}

// internal/app/system/filestore/filestore.go
//
// Package filestore keeps uploaded media (videos and thumbnails) on local
// disk or in S3 behind one interface.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for paths that do not exist in the store.
var ErrNotFound = errors.New("file not found")

// Store is a flat object store addressed by slash-separated paths.
type Store interface {
	// Put writes r under folder and returns the generated path.
	Put(ctx context.Context, folder, filename string, r io.Reader) (string, error)
	Open(ctx context.Context, p string) (io.ReadCloser, error)
	Size(ctx context.Context, p string) (int64, error)
	Delete(ctx context.Context, p string) error
}

// objectPath builds folder/YYYY/MM/uuid8-filename.
func objectPath(folder, filename string) string {
	now := time.Now().UTC()
	name := fmt.Sprintf("%s-%s", uuid.New().String()[:8], sanitizeFilename(filename))
	return path.Join(folder, fmt.Sprintf("%04d/%02d", now.Year(), now.Month()), name)
}

// sanitizeFilename keeps [A-Za-z0-9._-], replaces everything else with '_'
// and caps the length at 100 while keeping a short extension.
func sanitizeFilename(filename string) string {
	filename = filepath.Base(filepath.ToSlash(filename))
	if filename == "." || filename == "/" {
		filename = ""
	}

	result := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		if isAllowedFilenameChar(c) {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}

	if len(result) == 0 {
		return "file"
	}
	if len(result) > 100 {
		ext := filepath.Ext(string(result))
		if len(ext) > 0 && len(ext) < 10 {
			result = append(result[:100-len(ext)], ext...)
		} else {
			result = result[:100]
		}
	}
	return string(result)
}

func isAllowedFilenameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.'
}

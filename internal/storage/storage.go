// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package storage persists uploaded cover images, either in a local
// directory or in an S3 bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/tomtom215/bookshelf/internal/config"
)

// ErrNotImage is returned by DetectImage for content that is not an image.
var ErrNotImage = errors.New("uploaded file is not an image")

// CoverStore saves and removes cover files by name.
type CoverStore interface {
	Save(ctx context.Context, name, contentType string, data []byte) error
	Delete(ctx context.Context, name string) error
	// URL returns the address browsers load the cover from.
	URL(name string) string
}

// New builds the configured store.
func New(ctx context.Context, cfg *config.StorageConfig) (CoverStore, error) {
	switch cfg.Backend {
	case config.StorageLocal:
		return NewLocalStore(cfg.ImageDir, "/images/"), nil
	case config.StorageS3:
		return NewS3Store(ctx, S3Options{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicURL:       cfg.S3PublicURL,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFileName reduces an uploaded file name to a safe base name:
// directories are dropped, whitespace becomes underscores, other characters
// outside [A-Za-z0-9._-] are removed and leading dots are stripped.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFileChars.ReplaceAllString(name, "")
	name = strings.TrimLeft(name, "._")
	if name == "" {
		return "cover"
	}
	return name
}

// DetectImage sniffs the MIME type from the content and rejects non-images.
func DetectImage(data []byte) (string, error) {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}
	return mt.String(), nil
}

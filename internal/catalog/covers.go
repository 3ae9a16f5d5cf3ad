// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package catalog

import (
	"context"
	"crypto/md5" //nolint:gosec // content address, not a security boundary
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/tomtom215/bookshelf/internal/database"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/metrics"
	"github.com/tomtom215/bookshelf/internal/models"
	"github.com/tomtom215/bookshelf/internal/storage"
)

// hashPrefixLength is how much of the hash prefixes stored file names.
const hashPrefixLength = 12

// CoverUpload is an uploaded cover image.
type CoverUpload struct {
	FileName string
	Data     []byte
}

// HashCover returns the hex MD5 of the raw bytes.
func HashCover(data []byte) string {
	sum := md5.Sum(data) //nolint:gosec // see import
	return hex.EncodeToString(sum[:])
}

// CoverFileName is the stored name for an upload: a hash prefix keeps two
// different images with the same original name from overwriting each other.
func CoverFileName(hash, original string) string {
	return hash[:hashPrefixLength] + "-" + storage.SanitizeFileName(original)
}

// resolveCover returns the cover id for an upload, reusing an existing row
// with the same hash. stored is the file name written, or "" when reused.
func (s *Service) resolveCover(ctx context.Context, q *database.Queries, upload *CoverUpload) (id int64, stored string, err error) {
	hash := HashCover(upload.Data)

	existing, err := s.findCover(ctx, q, hash)
	if err == nil {
		metrics.RecordCoverUpload(metrics.CoverReused)
		logging.Ctx(ctx).Debug().Int64("cover_id", existing.ID).Msg("Reusing existing cover")
		return existing.ID, "", nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return 0, "", err
	}

	mimeType, err := storage.DetectImage(upload.Data)
	if err != nil {
		metrics.RecordCoverUpload(metrics.CoverRejected)
		return 0, "", err
	}

	name := CoverFileName(hash, upload.FileName)
	if err := s.covers.Save(ctx, name, mimeType, upload.Data); err != nil {
		return 0, "", fmt.Errorf("save cover file: %w", err)
	}

	id, err = q.InsertCover(ctx, models.Cover{FileName: name, MIMEType: mimeType, MD5Hash: hash})
	if errors.Is(err, database.ErrDuplicate) {
		// A concurrent upload of the same bytes committed first. Its file has
		// the same content, and possibly the same path, so the file stays.
		winner, lookupErr := q.LockCoverByHash(ctx, hash)
		if lookupErr != nil {
			return 0, "", fmt.Errorf("reload concurrently stored cover: %w", lookupErr)
		}
		metrics.RecordCoverUpload(metrics.CoverReused)
		logging.Ctx(ctx).Debug().Int64("cover_id", winner.ID).Msg("Reusing concurrently stored cover")
		return winner.ID, "", nil
	}
	if err != nil {
		s.removeCoverFile(ctx, q, name)
		return 0, "", err
	}

	metrics.RecordCoverUpload(metrics.CoverStored)
	return id, name, nil
}

// removeCoverFile deletes a file written by a failed upload unless a
// committed Covers row points at the same path.
func (s *Service) removeCoverFile(ctx context.Context, q *database.Queries, name string) {
	referenced, err := q.CoverFileReferenced(ctx, name)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("file", name).Msg("Keeping cover file: reference check failed")
		return
	}
	if referenced {
		return
	}
	if err := s.covers.Delete(ctx, name); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("file", name).Msg("Failed to remove cover file")
	}
}

// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package database

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/tomtom215/bookshelf/internal/models"
)

var coverColumns = []string{"id", "file_name", "mime_type", "md5_hash"}

func (q *Queries) getCover(ctx context.Context, pred sq.Eq, suffix string) (models.Cover, error) {
	sel := sq.Select(coverColumns...).From("Covers").Where(pred)
	if suffix != "" {
		sel = sel.Suffix(suffix)
	}
	query, args, err := sel.ToSql()
	if err != nil {
		return models.Cover{}, err
	}
	var c models.Cover
	if err := q.q.QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.FileName, &c.MIMEType, &c.MD5Hash); err != nil {
		return models.Cover{}, translate(err)
	}
	return c, nil
}

// GetCover loads a cover by id or returns ErrNotFound.
func (q *Queries) GetCover(ctx context.Context, id int64) (models.Cover, error) {
	return q.getCover(ctx, sq.Eq{"id": id}, "")
}

// FindCoverByHash returns the cover whose content has the given md5 hex digest.
func (q *Queries) FindCoverByHash(ctx context.Context, md5Hash string) (models.Cover, error) {
	defer observe("find_cover")()
	return q.getCover(ctx, sq.Eq{"md5_hash": md5Hash}, "")
}

// LockCoverByHash is FindCoverByHash as a locking read. Inside a MySQL
// transaction it sees rows committed after the transaction's snapshot, which
// a plain read under REPEATABLE READ does not. SQLite serializes writers, so
// the plain read already is current there.
func (q *Queries) LockCoverByHash(ctx context.Context, md5Hash string) (models.Cover, error) {
	defer observe("lock_cover")()
	suffix := ""
	if q.dialect == MySQL {
		suffix = "LOCK IN SHARE MODE"
	}
	return q.getCover(ctx, sq.Eq{"md5_hash": md5Hash}, suffix)
}

// InsertCover records a stored cover image and returns its id. A second
// insert of the same hash fails with ErrDuplicate.
func (q *Queries) InsertCover(ctx context.Context, c models.Cover) (int64, error) {
	defer observe("insert_cover")()

	query, args, err := sq.Insert("Covers").
		Columns("file_name", "mime_type", "md5_hash").
		Values(c.FileName, c.MIMEType, c.MD5Hash).
		ToSql()
	if err != nil {
		return 0, err
	}
	return q.insert(ctx, "cover", query, args)
}

// DeleteCover removes a Covers row or returns ErrNotFound.
func (q *Queries) DeleteCover(ctx context.Context, id int64) error {
	return q.deleteWhere(ctx, "Covers", sq.Eq{"id": id}, true)
}

// CountCoverReferences counts books other than excludeBookID that use the cover.
func (q *Queries) CountCoverReferences(ctx context.Context, coverID, excludeBookID int64) (int, error) {
	query, args, err := sq.Select("COUNT(*)").From("Books").
		Where(sq.Eq{"cover_id": coverID}).
		Where(sq.NotEq{"id": excludeBookID}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := q.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cover references: %w", err)
	}
	return n, nil
}

// CoverFileReferenced reports whether any Covers row stores name.
func (q *Queries) CoverFileReferenced(ctx context.Context, name string) (bool, error) {
	query, args, err := sq.Select("COUNT(*)").From("Covers").Where(sq.Eq{"file_name": name}).ToSql()
	if err != nil {
		return false, err
	}
	var n int
	if err := q.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("count cover file references: %w", err)
	}
	return n > 0, nil
}

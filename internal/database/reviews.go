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

// ListReviews returns a book's reviews with the reviewer login, newest first.
func (q *Queries) ListReviews(ctx context.Context, bookID int64) ([]models.Review, error) {
	defer observe("list_reviews")()

	query, args, err := sq.Select("r.id", "r.book_id", "r.user_id", "u.login", "r.rating", "r.review_text", "r.created_at").
		From("Reviews r").
		Join("Users u ON u.id = r.user_id").
		Where(sq.Eq{"r.book_id": bookID}).
		OrderBy("r.created_at DESC", "r.id DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var reviews []models.Review
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.BookID, &r.UserID, &r.UserLogin, &r.Rating, &r.ReviewText, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// HasReviewed reports whether the user already reviewed the book.
func (q *Queries) HasReviewed(ctx context.Context, bookID, userID int64) (bool, error) {
	query, args, err := sq.Select("COUNT(*)").From("Reviews").
		Where(sq.Eq{"book_id": bookID, "user_id": userID}).
		ToSql()
	if err != nil {
		return false, err
	}
	var n int
	if err := q.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("check review: %w", err)
	}
	return n > 0, nil
}

// InsertReview stores a review. A second review of the same book by the
// same user fails with ErrDuplicate.
func (q *Queries) InsertReview(ctx context.Context, r models.Review) (int64, error) {
	defer observe("insert_review")()

	query, args, err := sq.Insert("Reviews").
		Columns("book_id", "user_id", "rating", "review_text").
		Values(r.BookID, r.UserID, r.Rating, r.ReviewText).
		ToSql()
	if err != nil {
		return 0, err
	}
	return q.insert(ctx, "review", query, args)
}

// DeleteReviewsByBook removes every review of a book.
func (q *Queries) DeleteReviewsByBook(ctx context.Context, bookID int64) error {
	return q.deleteWhere(ctx, "Reviews", sq.Eq{"book_id": bookID}, false)
}

// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/tomtom215/bookshelf/internal/database"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/models"
	"github.com/tomtom215/bookshelf/internal/storage"
	"github.com/tomtom215/bookshelf/internal/validation"
)

// Workflow errors.
var (
	ErrAlreadyReviewed = errors.New("book already reviewed by this user")
	ErrUnknownGenre    = errors.New("unknown genre")
	ErrEmptyReview     = errors.New("review text is empty after sanitizing")
)

// Service runs the catalog workflows.
type Service struct {
	covers    storage.CoverStore
	sanitizer *bluemonday.Policy

	// findCover is the dedup lookup; tests replace it to interleave uploads.
	findCover func(ctx context.Context, q *database.Queries, md5Hash string) (models.Cover, error)
}

// NewService creates a Service storing cover files in covers.
func NewService(covers storage.CoverStore) *Service {
	return &Service{
		covers:    covers,
		sanitizer: bluemonday.UGCPolicy(),
		findCover: func(ctx context.Context, q *database.Queries, md5Hash string) (models.Cover, error) {
			return q.FindCoverByHash(ctx, md5Hash)
		},
	}
}

// CoverURL returns the address of a cover file.
func (s *Service) CoverURL(c *models.Cover) string {
	if c == nil {
		return ""
	}
	return s.covers.URL(c.FileName)
}

// List returns one listing page, newest books first. Pages past the end are
// empty rather than an error.
func (s *Service) List(ctx context.Context, conn *database.Conn, page int) (models.BookPage, error) {
	if page < 1 {
		page = 1
	}
	q := conn.Queries()

	total, err := q.CountBooks(ctx)
	if err != nil {
		return models.BookPage{}, err
	}

	result := models.BookPage{
		Page:       page,
		TotalPages: (total + models.PageSize - 1) / models.PageSize,
	}
	// Past the last page the offset is never computed, so huge page numbers
	// cannot overflow it.
	if page > result.TotalPages {
		return result, nil
	}

	if result.Books, err = q.ListBooks(ctx, models.PageSize, (page-1)*models.PageSize); err != nil {
		return models.BookPage{}, err
	}
	return result, nil
}

// View loads a book with its genres, cover and reviews. Reviewed is set when
// actor has already reviewed it.
func (s *Service) View(ctx context.Context, conn *database.Conn, id int64, actor *models.User) (models.BookDetail, error) {
	q := conn.Queries()

	book, err := q.GetBook(ctx, id)
	if err != nil {
		return models.BookDetail{}, err
	}
	detail := models.BookDetail{Book: book}

	if detail.Genres, err = q.BookGenreNames(ctx, id); err != nil {
		return models.BookDetail{}, err
	}

	if book.CoverID.Valid {
		cover, err := q.GetCover(ctx, book.CoverID.Int64)
		switch {
		case err == nil:
			detail.Cover = &cover
		case !errors.Is(err, database.ErrNotFound):
			return models.BookDetail{}, err
		}
	}

	if detail.Reviews, err = q.ListReviews(ctx, id); err != nil {
		return models.BookDetail{}, err
	}

	if actor != nil {
		if detail.Reviewed, err = q.HasReviewed(ctx, id, actor.ID); err != nil {
			return models.BookDetail{}, err
		}
	}
	return detail, nil
}

// Genres lists every genre.
func (s *Service) Genres(ctx context.Context, conn *database.Conn) ([]models.Genre, error) {
	return conn.Queries().ListGenres(ctx)
}

// Load returns a book and its genre ids for the edit form.
func (s *Service) Load(ctx context.Context, conn *database.Conn, id int64) (validation.BookForm, error) {
	q := conn.Queries()

	book, err := q.GetBook(ctx, id)
	if err != nil {
		return validation.BookForm{}, err
	}
	genreIDs, err := q.BookGenreIDs(ctx, id)
	if err != nil {
		return validation.BookForm{}, err
	}

	return validation.BookForm{
		Title:            book.Title,
		ShortDescription: book.ShortDescription,
		Year:             book.Year,
		Publisher:        book.Publisher,
		Author:           book.Author,
		Pages:            book.Pages,
		GenreIDs:         genreIDs,
	}, nil
}

// Create inserts a book, its genre links and optionally its cover in one
// transaction and returns the new book id.
func (s *Service) Create(ctx context.Context, conn *database.Conn, form validation.BookForm, cover *CoverUpload) (int64, error) {
	var (
		bookID   int64
		newCover string
	)

	err := conn.WithTx(ctx, func(q *database.Queries) error {
		if err := checkGenres(ctx, q, form.GenreIDs); err != nil {
			return err
		}

		book := bookFromForm(form)
		if cover != nil {
			coverID, stored, err := s.resolveCover(ctx, q, cover)
			if err != nil {
				return err
			}
			newCover = stored
			book.CoverID.Int64, book.CoverID.Valid = coverID, true
		}

		id, err := q.InsertBook(ctx, book)
		if err != nil {
			return err
		}
		bookID = id
		return q.ReplaceBookGenres(ctx, id, form.GenreIDs)
	})
	if err != nil {
		if newCover != "" {
			s.removeCoverFile(ctx, conn.Queries(), newCover)
		}
		return 0, err
	}

	logging.Ctx(ctx).Info().Int64("book_id", bookID).Str("title", form.Title).Msg("Book created")
	return bookID, nil
}

// Update replaces the scalar fields and the full genre set of a book.
func (s *Service) Update(ctx context.Context, conn *database.Conn, id int64, form validation.BookForm) error {
	if _, err := conn.Queries().GetBook(ctx, id); err != nil {
		return err
	}

	err := conn.WithTx(ctx, func(q *database.Queries) error {
		if err := checkGenres(ctx, q, form.GenreIDs); err != nil {
			return err
		}
		book := bookFromForm(form)
		book.ID = id
		if err := q.UpdateBook(ctx, book); err != nil {
			return err
		}
		return q.ReplaceBookGenres(ctx, id, form.GenreIDs)
	})
	if err != nil {
		return err
	}

	logging.Ctx(ctx).Info().Int64("book_id", id).Msg("Book updated")
	return nil
}

// Delete removes a book with its reviews and genre links, and its cover when
// no other book shares it.
func (s *Service) Delete(ctx context.Context, conn *database.Conn, id int64) error {
	book, err := conn.Queries().GetBook(ctx, id)
	if err != nil {
		return err
	}

	var orphan *models.Cover
	err = conn.WithoutForeignKeys(ctx, func() error {
		return conn.WithTx(ctx, func(q *database.Queries) error {
			if book.CoverID.Valid {
				c, err := orphanedCover(ctx, q, book)
				if err != nil {
					return err
				}
				if c != nil {
					if err := q.DeleteCover(ctx, c.ID); err != nil {
						return err
					}
					orphan = c
				}
			}
			if err := q.DeleteReviewsByBook(ctx, id); err != nil {
				return err
			}
			if err := q.DeleteBookGenres(ctx, id); err != nil {
				return err
			}
			return q.DeleteBook(ctx, id)
		})
	})
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}

	if orphan != nil {
		s.removeCoverFile(ctx, conn.Queries(), orphan.FileName)
	}
	logging.Ctx(ctx).Info().Int64("book_id", id).Bool("cover_removed", orphan != nil).Msg("Book deleted")
	return nil
}

// orphanedCover returns the book's cover if no other book references it.
func orphanedCover(ctx context.Context, q *database.Queries, book models.Book) (*models.Cover, error) {
	refs, err := q.CountCoverReferences(ctx, book.CoverID.Int64, book.ID)
	if err != nil || refs > 0 {
		return nil, err
	}
	cover, err := q.GetCover(ctx, book.CoverID.Int64)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cover, nil
}

// Review stores a sanitized review by actor.
func (s *Service) Review(ctx context.Context, conn *database.Conn, bookID int64, actor *models.User, form validation.ReviewForm) error {
	q := conn.Queries()

	if _, err := q.GetBook(ctx, bookID); err != nil {
		return err
	}

	text := s.Sanitize(form.Text)
	if text == "" {
		return ErrEmptyReview
	}

	_, err := q.InsertReview(ctx, models.Review{
		BookID:     bookID,
		UserID:     actor.ID,
		Rating:     form.Rating,
		ReviewText: text,
	})
	if errors.Is(err, database.ErrDuplicate) {
		return ErrAlreadyReviewed
	}
	if err != nil {
		return err
	}

	logging.Ctx(ctx).Info().Int64("book_id", bookID).Int("rating", form.Rating).Msg("Review added")
	return nil
}

// Sanitize strips markup outside the user-content allowlist.
func (s *Service) Sanitize(text string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(text))
}

func bookFromForm(form validation.BookForm) models.Book {
	return models.Book{
		Title:            form.Title,
		ShortDescription: form.ShortDescription,
		Year:             form.Year,
		Publisher:        form.Publisher,
		Author:           form.Author,
		Pages:            form.Pages,
	}
}

// checkGenres fails with ErrUnknownGenre if any id is not a genre.
func checkGenres(ctx context.Context, q *database.Queries, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	unique := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	n, err := q.CountGenres(ctx, ids)
	if err != nil {
		return err
	}
	if n != len(unique) {
		return ErrUnknownGenre
	}
	return nil
}

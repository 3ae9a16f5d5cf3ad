// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/bookshelf/internal/catalog"
	"github.com/tomtom215/bookshelf/internal/database"
	"github.com/tomtom215/bookshelf/internal/models"
	"github.com/tomtom215/bookshelf/internal/storage"
	"github.com/tomtom215/bookshelf/internal/validation"
)

// Flash messages for the catalog pages.
const (
	msgBookCreated     = "Book added."
	msgBookUpdated     = "Book updated."
	msgBookDeleted     = "Book and related records deleted."
	msgBookNotFound    = "Book not found."
	msgBookSaveFailed  = "An error occurred while saving the book."
	msgBookDeleteError = "An error occurred while deleting the book."
	msgReviewAdded     = "Review added."
	msgReviewFailed    = "An error occurred while adding the review."
	msgAlreadyReviewed = "You have already reviewed this book."
	msgLoadFailed      = "An error occurred while loading the page."

	msgUnknownGenre = "Unknown genre selected."
	msgNotImage     = "The cover must be an image file."
	msgEmptyReview  = "The review is empty once markup is removed."
)

// coverField is the multipart field of the cover upload.
const coverField = "cover"

// bookFormView is the data of book_form.html.
type bookFormView struct {
	Action string
	Form   validation.BookForm
	Genres []models.Genre
	IsEdit bool
}

// bookView is the data of book.html.
type bookView struct {
	Book     models.BookDetail
	CoverURL string
}

// reviewFormView is the data of review_form.html.
type reviewFormView struct {
	Book models.Book
	Form validation.ReviewForm
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func bookPath(id int64) string {
	return fmt.Sprintf("/books/%d", id)
}

// index lists one page of books, newest first.
func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	pageNum := 1
	if raw := chi.URLParam(r, "page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.notFound(w, r)
			return
		}
		pageNum = n
	}

	sc := scope(r)
	books, err := s.catalog.List(r.Context(), sc.Conn, pageNum)
	if err != nil {
		s.fail(w, r, err, msgLoadFailed, "/")
		return
	}
	s.render(w, r, http.StatusOK, "index.html", "Books", books, nil)
}

func (s *Server) viewBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "book_id")
	if !ok {
		s.notFound(w, r)
		return
	}

	sc := scope(r)
	detail, err := s.catalog.View(r.Context(), sc.Conn, id, sc.Actor)
	if errors.Is(err, database.ErrNotFound) {
		s.notFound(w, r)
		return
	}
	if err != nil {
		s.fail(w, r, err, msgLoadFailed, "/")
		return
	}

	s.render(w, r, http.StatusOK, "book.html", detail.Title, bookView{
		Book:     detail,
		CoverURL: s.catalog.CoverURL(detail.Cover),
	}, nil)
}

func (s *Server) newBook(w http.ResponseWriter, r *http.Request) {
	s.renderBookForm(w, r, http.StatusOK, bookFormView{Action: "/books/new"}, nil)
}

func (s *Server) createBook(w http.ResponseWriter, r *http.Request) {
	view := bookFormView{Action: "/books/new"}

	form, errs := validation.ParseBookForm(r)
	view.Form = form
	if errs != nil {
		s.renderBookForm(w, r, http.StatusUnprocessableEntity, view, errs)
		return
	}

	cover, err := readCover(r)
	if err != nil {
		s.fail(w, r, err, msgBookSaveFailed, view.Action)
		return
	}

	id, err := s.catalog.Create(r.Context(), scope(r).Conn, form, cover)
	if fe := bookFormErrors(err); fe != nil {
		s.renderBookForm(w, r, http.StatusUnprocessableEntity, view, fe)
		return
	}
	if err != nil {
		s.fail(w, r, err, msgBookSaveFailed, view.Action)
		return
	}

	s.redirect(w, r, "success", msgBookCreated, bookPath(id))
}

func (s *Server) editBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "book_id")
	if !ok {
		s.notFound(w, r)
		return
	}

	form, err := s.catalog.Load(r.Context(), scope(r).Conn, id)
	if errors.Is(err, database.ErrNotFound) {
		s.notFound(w, r)
		return
	}
	if err != nil {
		s.fail(w, r, err, msgLoadFailed, bookPath(id))
		return
	}

	s.renderBookForm(w, r, http.StatusOK, bookFormView{
		Action: bookPath(id) + "/edit",
		Form:   form,
		IsEdit: true,
	}, nil)
}

func (s *Server) updateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "book_id")
	if !ok {
		s.notFound(w, r)
		return
	}
	view := bookFormView{Action: bookPath(id) + "/edit", IsEdit: true}

	form, errs := validation.ParseBookForm(r)
	view.Form = form
	if errs != nil {
		s.renderBookForm(w, r, http.StatusUnprocessableEntity, view, errs)
		return
	}

	err := s.catalog.Update(r.Context(), scope(r).Conn, id, form)
	if errors.Is(err, database.ErrNotFound) {
		s.notFound(w, r)
		return
	}
	if fe := bookFormErrors(err); fe != nil {
		s.renderBookForm(w, r, http.StatusUnprocessableEntity, view, fe)
		return
	}
	if err != nil {
		s.fail(w, r, err, msgBookSaveFailed, view.Action)
		return
	}

	s.redirect(w, r, "success", msgBookUpdated, bookPath(id))
}

func (s *Server) deleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "book_id")
	if !ok {
		s.notFound(w, r)
		return
	}

	err := s.catalog.Delete(r.Context(), scope(r).Conn, id)
	switch {
	case errors.Is(err, database.ErrNotFound):
		s.redirect(w, r, "danger", msgBookNotFound, "/")
	case err != nil:
		s.fail(w, r, err, msgBookDeleteError, "/")
	default:
		s.redirect(w, r, "success", msgBookDeleted, "/")
	}
}

func (s *Server) reviewForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "book_id")
	if !ok {
		s.notFound(w, r)
		return
	}

	sc := scope(r)
	detail, err := s.catalog.View(r.Context(), sc.Conn, id, sc.Actor)
	if errors.Is(err, database.ErrNotFound) {
		s.notFound(w, r)
		return
	}
	if err != nil {
		s.fail(w, r, err, msgLoadFailed, bookPath(id))
		return
	}
	if detail.Reviewed {
		s.redirect(w, r, "warning", msgAlreadyReviewed, bookPath(id))
		return
	}

	s.render(w, r, http.StatusOK, "review_form.html", "Review", reviewFormView{
		Book: detail.Book,
		Form: validation.ReviewForm{Rating: 5},
	}, nil)
}

func (s *Server) createReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "book_id")
	if !ok {
		s.notFound(w, r)
		return
	}
	sc := scope(r)

	form, errs := validation.ParseReviewForm(r)
	if errs == nil {
		err := s.catalog.Review(r.Context(), sc.Conn, id, sc.Actor, form)
		switch {
		case err == nil:
			s.redirect(w, r, "success", msgReviewAdded, bookPath(id))
			return
		case errors.Is(err, database.ErrNotFound):
			s.notFound(w, r)
			return
		case errors.Is(err, catalog.ErrAlreadyReviewed):
			s.redirect(w, r, "warning", msgAlreadyReviewed, bookPath(id))
			return
		case errors.Is(err, catalog.ErrEmptyReview):
			errs = validation.FormErrors{"text": {msgEmptyReview}}
		default:
			s.fail(w, r, err, msgReviewFailed, bookPath(id))
			return
		}
	}

	book, err := sc.Conn.Queries().GetBook(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		s.notFound(w, r)
		return
	}
	if err != nil {
		s.fail(w, r, err, msgLoadFailed, bookPath(id))
		return
	}
	s.render(w, r, http.StatusUnprocessableEntity, "review_form.html", "Review", reviewFormView{Book: book, Form: form}, errs)
}

func (s *Server) renderBookForm(w http.ResponseWriter, r *http.Request, status int, view bookFormView, errs validation.FormErrors) {
	genres, err := s.catalog.Genres(r.Context(), scope(r).Conn)
	if err != nil {
		s.fail(w, r, err, msgLoadFailed, "/")
		return
	}
	view.Genres = genres

	title := "New book"
	if view.IsEdit {
		title = "Edit book"
	}
	s.render(w, r, status, "book_form.html", title, view, errs)
}

// readCover returns the uploaded cover, or nil when none was sent.
func readCover(r *http.Request) (*catalog.CoverUpload, error) {
	file, header, err := r.FormFile(coverField)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cover upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read cover upload: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &catalog.CoverUpload{FileName: header.Filename, Data: data}, nil
}

// bookFormErrors maps workflow errors the user can fix onto form fields.
func bookFormErrors(err error) validation.FormErrors {
	switch {
	case errors.Is(err, catalog.ErrUnknownGenre):
		return validation.FormErrors{"genres": {msgUnknownGenre}}
	case errors.Is(err, storage.ErrNotImage):
		return validation.FormErrors{coverField: {msgNotImage}}
	}
	return nil
}

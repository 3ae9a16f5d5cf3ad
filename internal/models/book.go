// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
book.go - Catalog Models

Key Structures:
  - Book: one Books row; CoverID is nullable
  - BookSummary: a listing row with aggregate rating, review count and genre names
  - BookDetail: everything the detail page shows
  - Cover: content-addressed image metadata (md5 of the raw bytes is unique)
  - Review: one review per (book, user)
*/

package models

import (
	"database/sql"
	"time"
)

// PageSize is the fixed number of books per listing page.
const PageSize = 10

// Book is a catalog entry.
type Book struct {
	ID               int64         `json:"id"`
	Title            string        `json:"title"`
	ShortDescription string        `json:"short_description"`
	Year             int           `json:"year"`
	Publisher        string        `json:"publisher"`
	Author           string        `json:"author"`
	Pages            int           `json:"pages"`
	CoverID          sql.NullInt64 `json:"cover_id"`
}

// BookSummary is one row of the paginated listing.
type BookSummary struct {
	Book
	AvgRating   float64 `json:"avg_rating"`
	ReviewCount int     `json:"review_count"`
	Genres      string  `json:"genres"`
}

// BookPage is one page of the listing. Books is empty when Page > TotalPages.
type BookPage struct {
	Books      []BookSummary `json:"books"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
}

// HasPrev reports whether a previous listing page exists.
func (p BookPage) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following listing page exists.
func (p BookPage) HasNext() bool { return p.Page < p.TotalPages }

// BookDetail is a book with its genres, cover and reviews.
type BookDetail struct {
	Book
	Genres   []string `json:"genres"`
	Cover    *Cover   `json:"cover,omitempty"`
	Reviews  []Review `json:"reviews"`
	Reviewed bool     `json:"reviewed"`
}

// Genre is a catalog genre.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Cover is stored once per distinct image content.
type Cover struct {
	ID       int64  `json:"id"`
	FileName string `json:"file_name"`
	MIMEType string `json:"mime_type"`
	MD5Hash  string `json:"md5_hash"`
}

// Review is a rating with sanitized text.
type Review struct {
	ID         int64     `json:"id"`
	BookID     int64     `json:"book_id"`
	UserID     int64     `json:"user_id"`
	UserLogin  string    `json:"user_login"`
	Rating     int       `json:"rating"`
	ReviewText string    `json:"review_text"`
	CreatedAt  time.Time `json:"created_at"`
}

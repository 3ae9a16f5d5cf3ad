// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package database

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/tomtom215/bookshelf/internal/models"
)

var bookColumns = []string{
	"b.id", "b.title", "b.short_description", "b.year", "b.publisher", "b.author", "b.pages", "b.cover_id",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner, extra ...any) (models.Book, error) {
	var b models.Book
	dest := append([]any{&b.ID, &b.Title, &b.ShortDescription, &b.Year, &b.Publisher, &b.Author, &b.Pages, &b.CoverID}, extra...)
	err := row.Scan(dest...)
	return b, err
}

// CountBooks returns the number of books in the catalog.
func (q *Queries) CountBooks(ctx context.Context) (int, error) {
	defer observe("count_books")()

	query, args, err := sq.Select("COUNT(*)").From("Books").ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := q.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

// ListBooks returns one page of books ordered by year descending, with the
// average rating, review count and comma-joined genre names of each book.
// Aggregates come from correlated subqueries so genre links cannot inflate them.
func (q *Queries) ListBooks(ctx context.Context, limit, offset int) ([]models.BookSummary, error) {
	defer observe("list_books")()

	columns := append(append([]string{}, bookColumns...),
		"COALESCE((SELECT AVG(r.rating) FROM Reviews r WHERE r.book_id = b.id), 0)",
		"(SELECT COUNT(*) FROM Reviews r WHERE r.book_id = b.id)",
	)
	query, args, err := sq.Select(columns...).
		From("Books b").
		OrderBy("b.year DESC", "b.id").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer closeWithLog(rows, "rows")

	books := make([]models.BookSummary, 0, limit)
	ids := make([]int64, 0, limit)
	for rows.Next() {
		var s models.BookSummary
		b, err := scanBook(rows, &s.AvgRating, &s.ReviewCount)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		s.Book = b
		books = append(books, s)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	genres, err := q.genreNamesByBook(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range books {
		books[i].Genres = strings.Join(genres[books[i].ID], ", ")
	}
	return books, nil
}

func (q *Queries) genreNamesByBook(ctx context.Context, bookIDs []int64) (map[int64][]string, error) {
	names := make(map[int64][]string, len(bookIDs))
	if len(bookIDs) == 0 {
		return names, nil
	}

	query, args, err := sq.Select("bg.book_id", "g.name").
		From("Book_genre bg").
		Join("Genres g ON g.id = bg.genre_id").
		Where(sq.Eq{"bg.book_id": bookIDs}).
		OrderBy("g.name").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list book genres: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = append(names[id], name)
	}
	return names, rows.Err()
}

// GetBook loads one book or returns ErrNotFound.
func (q *Queries) GetBook(ctx context.Context, id int64) (models.Book, error) {
	defer observe("get_book")()

	query, args, err := sq.Select(bookColumns...).From("Books b").Where(sq.Eq{"b.id": id}).ToSql()
	if err != nil {
		return models.Book{}, err
	}
	b, err := scanBook(q.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return models.Book{}, translate(err)
	}
	return b, nil
}

// BookGenreNames returns the sorted genre names linked to a book.
func (q *Queries) BookGenreNames(ctx context.Context, bookID int64) ([]string, error) {
	names, err := q.genreNamesByBook(ctx, []int64{bookID})
	if err != nil {
		return nil, err
	}
	return names[bookID], nil
}

// BookGenreIDs returns the ids of the genres linked to a book.
func (q *Queries) BookGenreIDs(ctx context.Context, bookID int64) ([]int64, error) {
	query, args, err := sq.Select("genre_id").From("Book_genre").
		Where(sq.Eq{"book_id": bookID}).OrderBy("genre_id").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list book genre ids: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// InsertBook creates a book and returns its id.
func (q *Queries) InsertBook(ctx context.Context, b models.Book) (int64, error) {
	defer observe("insert_book")()

	query, args, err := sq.Insert("Books").
		Columns("title", "short_description", "year", "publisher", "author", "pages", "cover_id").
		Values(b.Title, b.ShortDescription, b.Year, b.Publisher, b.Author, b.Pages, b.CoverID).
		ToSql()
	if err != nil {
		return 0, err
	}
	return q.insert(ctx, "book", query, args)
}

// UpdateBook overwrites the scalar fields of a book. The cover is kept.
func (q *Queries) UpdateBook(ctx context.Context, b models.Book) error {
	defer observe("update_book")()

	query, args, err := sq.Update("Books").
		Set("title", b.Title).
		Set("short_description", b.ShortDescription).
		Set("year", b.Year).
		Set("publisher", b.Publisher).
		Set("author", b.Author).
		Set("pages", b.Pages).
		Where(sq.Eq{"id": b.ID}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := q.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update book: %w", translate(err))
	}
	return nil
}

// DeleteBook removes the Books row or returns ErrNotFound.
func (q *Queries) DeleteBook(ctx context.Context, id int64) error {
	defer observe("delete_book")()
	return q.deleteWhere(ctx, "Books", sq.Eq{"id": id}, true)
}

// ReplaceBookGenres deletes every genre link of a book and inserts genreIDs.
func (q *Queries) ReplaceBookGenres(ctx context.Context, bookID int64, genreIDs []int64) error {
	defer observe("replace_book_genres")()

	if err := q.deleteWhere(ctx, "Book_genre", sq.Eq{"book_id": bookID}, false); err != nil {
		return err
	}
	if len(genreIDs) == 0 {
		return nil
	}

	insert := sq.Insert("Book_genre").Columns("book_id", "genre_id")
	seen := make(map[int64]bool, len(genreIDs))
	for _, gid := range genreIDs {
		if seen[gid] {
			continue
		}
		seen[gid] = true
		insert = insert.Values(bookID, gid)
	}
	query, args, err := insert.ToSql()
	if err != nil {
		return err
	}
	if _, err := q.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert book genres: %w", translate(err))
	}
	return nil
}

// DeleteBookGenres removes every genre link of a book.
func (q *Queries) DeleteBookGenres(ctx context.Context, bookID int64) error {
	return q.deleteWhere(ctx, "Book_genre", sq.Eq{"book_id": bookID}, false)
}

// ListGenres returns every genre ordered by name.
func (q *Queries) ListGenres(ctx context.Context) ([]models.Genre, error) {
	query, args, err := sq.Select("id", "name").From("Genres").OrderBy("name").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var genres []models.Genre
	for rows.Next() {
		var g models.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

// CountGenres returns how many of ids exist in Genres.
func (q *Queries) CountGenres(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sq.Select("COUNT(*)").From("Genres").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := q.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count genres: %w", err)
	}
	return n, nil
}

// deleteWhere returns ErrNotFound when mustExist is set and no row matched.
func (q *Queries) deleteWhere(ctx context.Context, table string, pred sq.Eq, mustExist bool) error {
	query, args, err := sq.Delete(table).Where(pred).ToSql()
	if err != nil {
		return err
	}
	res, err := q.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, translate(err))
	}
	if !mustExist {
		return nil
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *Queries) insert(ctx context.Context, entity, query string, args []any) (int64, error) {
	res, err := q.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", entity, translate(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", entity, err)
	}
	return id, nil
}

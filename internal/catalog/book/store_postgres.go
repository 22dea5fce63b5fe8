// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
PostgreSQL implementation for the catalogue's data access.

It utilizes Postgres features to keep reads cheap and writes atomic:
  - Window Functions: COUNT(*) OVER() avoids a second count query on lists.
  - Batch Pipeline: Chapter rows are written through pgx.Batch in one round-trip.
  - ACID Transactions: A book and its chapter set always change together.

Chapters are value objects of the book aggregate; every update replaces the
full chapter set instead of diffing it.
*/

package book

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taibuivan/chaptra/internal/platform/apperr"
	"github.com/taibuivan/chaptra/internal/platform/database/schema"
	"github.com/taibuivan/chaptra/internal/platform/dberr"
)

// # PostgreSQL Repository

// bookRepository implements the [BookRepository] interface using pgx.
type bookRepository struct {
	pool *pgxpool.Pool
}

// NewBookRepository constructs a PostgreSQL backed book store.
func NewBookRepository(pool *pgxpool.Pool) BookRepository {
	return &bookRepository{pool: pool}
}

/*
List returns a filtered, paginated slice of books and the total count.

Description: Uses COUNT(*) OVER() to retrieve the total record count
without a second query. Chapters are intentionally not joined here; list
views only need metadata and the derived price.

Parameters:
  - context: context.Context
  - filter: Filter (Search, subject, tag, sorting)
  - limit: int
  - offset: int

Returns:
  - []*Book: Slice of hydrated book entities (no chapters)
  - int: Total count matching filters
  - error: Database execution errors
*/
func (repository *bookRepository) List(context context.Context, filter Filter, limit, offset int) ([]*Book, int, error) {

	// Query build initialization
	var queryBuilder strings.Builder
	var args []any
	argID := 1

	queryBuilder.WriteString(fmt.Sprintf(`
		SELECT
			b.%s, b.%s, b.%s, b.%s, b.%s, b.%s,
			b.%s, b.%s, b.%s, b.%s, b.%s,
			COUNT(*) OVER() AS total_count
		FROM %s b
		WHERE TRUE
	`,
		schema.CoreBook.ID,
		schema.CoreBook.Name,
		schema.CoreBook.Slug,
		schema.CoreBook.Subject,
		schema.CoreBook.Tags,
		schema.CoreBook.Contents,
		schema.CoreBook.CoverKey,
		schema.CoreBook.PDFKey,
		schema.CoreBook.Price,
		schema.CoreBook.CreatedAt,
		schema.CoreBook.UpdatedAt,
		schema.CoreBook.Table,
	))

	// Apply Filters (Dynamic WHERE clause construction)
	if filter.Query != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND (b.%s ILIKE $%d OR b.%s ILIKE $%d)",
			schema.CoreBook.Name, argID, schema.CoreBook.Subject, argID))
		args = append(args, "%"+filter.Query+"%")
		argID++
	}

	// Subject Filtering
	if filter.Subject != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND b.%s = $%d", schema.CoreBook.Subject, argID))
		args = append(args, filter.Subject)
		argID++
	}

	// Tag Filtering (text[] membership)
	if filter.Tag != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND $%d = ANY(b.%s)", argID, schema.CoreBook.Tags))
		args = append(args, filter.Tag)
		argID++
	}

	// Apply Sorting Logic
	sort := fmt.Sprintf("b.%s", schema.CoreBook.CreatedAt) // default
	switch filter.Sort {
	case "az", "za":
		sort = fmt.Sprintf("b.%s", schema.CoreBook.Name)
	case "price":
		sort = fmt.Sprintf("b.%s", schema.CoreBook.Price)
	case "latest":
		sort = fmt.Sprintf("b.%s", schema.CoreBook.CreatedAt)
	}

	// Apply Sorting Direction
	sortDir := "DESC"
	if strings.ToLower(filter.SortDir) == "asc" || filter.Sort == "az" {
		sortDir = "ASC"
	}
	if filter.Sort == "za" {
		sortDir = "DESC"
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY %s %s, b.%s DESC", sort, sortDir, schema.CoreBook.ID))

	// Pagination injection
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	// Query Execution
	rows, err := repository.pool.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to list books: %w", err)
	}
	defer rows.Close()

	var books []*Book
	var totalCount int

	for rows.Next() {
		book := &Book{}
		err := rows.Scan(
			&book.ID,
			&book.Name,
			&book.Slug,
			&book.Subject,
			&book.Tags,
			&book.Contents,
			&book.CoverKey,
			&book.PDFKey,
			&book.Price,
			&book.CreatedAt,
			&book.UpdatedAt,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan book row: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres: book rows iteration failed: %w", err)
	}

	return books, totalCount, nil
}

/*
FindByID returns the book with the given ID, chapters included.

Parameters:
  - context: context.Context
  - id: string (UUID)

Returns:
  - *Book: The hydrated domain entity
  - error: apperr.NotFound if missing
*/
func (repository *bookRepository) FindByID(context context.Context, id string) (*Book, error) {
	return repository.findBy(context, schema.CoreBook.ID, id)
}

/*
FindBySlug returns the book matching the unique SEO identifier.

Parameters:
  - context: context.Context
  - slug: string

Returns:
  - *Book: The hydrated domain entity
  - error: apperr.NotFound if missing
*/
func (repository *bookRepository) FindBySlug(context context.Context, slug string) (*Book, error) {
	return repository.findBy(context, schema.CoreBook.Slug, slug)
}

// findBy loads one book plus its ordered chapters by an exact column match.
func (repository *bookRepository) findBy(context context.Context, column, value string) (*Book, error) {

	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
	`,
		schema.CoreBook.ID,
		schema.CoreBook.Name,
		schema.CoreBook.Slug,
		schema.CoreBook.Subject,
		schema.CoreBook.Tags,
		schema.CoreBook.Contents,
		schema.CoreBook.CoverKey,
		schema.CoreBook.PDFKey,
		schema.CoreBook.Price,
		schema.CoreBook.CreatedAt,
		schema.CoreBook.UpdatedAt,
		schema.CoreBook.Table,
		column,
	)

	book := &Book{}
	err := repository.pool.QueryRow(context, query, value).Scan(
		&book.ID,
		&book.Name,
		&book.Slug,
		&book.Subject,
		&book.Tags,
		&book.Contents,
		&book.CoverKey,
		&book.PDFKey,
		&book.Price,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Book")
		}
		return nil, fmt.Errorf("postgres: failed to find book: %w", err)
	}

	chapters, err := repository.chaptersForBook(context, book.ID)
	if err != nil {
		return nil, err
	}
	book.Chapters = chapters

	return book, nil
}

// chaptersForBook loads the chapter set for one book, sorted by order index.
func (repository *bookRepository) chaptersForBook(context context.Context, bookID string) ([]Chapter, error) {

	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
		ORDER BY %s ASC, %s ASC
	`,
		schema.CoreChapter.ID,
		schema.CoreChapter.BookID,
		schema.CoreChapter.Name,
		schema.CoreChapter.Description,
		schema.CoreChapter.PageFrom,
		schema.CoreChapter.PageTo,
		schema.CoreChapter.Price,
		schema.CoreChapter.OrderIndex,
		schema.CoreChapter.CreatedAt,
		schema.CoreChapter.UpdatedAt,
		schema.CoreChapter.Table,
		schema.CoreChapter.BookID,
		schema.CoreChapter.OrderIndex,
		schema.CoreChapter.ID,
	)

	rows, err := repository.pool.Query(context, query, bookID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list chapters: %w", err)
	}
	defer rows.Close()

	var chapters []Chapter
	for rows.Next() {
		var chapter Chapter
		err := rows.Scan(
			&chapter.ID,
			&chapter.BookID,
			&chapter.Name,
			&chapter.Description,
			&chapter.PageFrom,
			&chapter.PageTo,
			&chapter.Price,
			&chapter.OrderIndex,
			&chapter.CreatedAt,
			&chapter.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan chapter row: %w", err)
		}
		chapters = append(chapters, chapter)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: chapter rows iteration failed: %w", err)
	}

	return chapters, nil
}

/*
Create persists a new book and its chapters atomically.

Parameters:
  - context: context.Context
  - book: *Book

Returns:
  - error: apperr.Conflict on a duplicate slug, storage failures otherwise
*/
func (repository *bookRepository) Create(context context.Context, book *Book) error {

	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer transaction.Rollback(context)

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		schema.CoreBook.Table,
		schema.CoreBook.ID,
		schema.CoreBook.Name,
		schema.CoreBook.Slug,
		schema.CoreBook.Subject,
		schema.CoreBook.Tags,
		schema.CoreBook.Contents,
		schema.CoreBook.CoverKey,
		schema.CoreBook.PDFKey,
		schema.CoreBook.Price,
	)

	_, err = transaction.Exec(context, query,
		book.ID,
		book.Name,
		book.Slug,
		book.Subject,
		book.Tags,
		book.Contents,
		book.CoverKey,
		book.PDFKey,
		book.Price,
	)
	if err != nil {
		// Duplicate slug violations surface as Conflict
		return dberr.Wrap(err, "create book")
	}

	if err := repository.insertChapters(context, transaction, book); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit create transaction: %w", err)
	}

	return nil
}

/*
Update persists changes to a book and reconciles its chapter set atomically.

Description: Diffs the incoming chapters against the stored rows inside
one transaction. Surviving chapters are updated in place so rows that
reference them by ID are untouched; only new chapters are inserted and
only removed ones are deleted. The derived book price commits in the
same transaction, so price and chapter rows can never drift apart.

Parameters:
  - context: context.Context
  - book: *Book (Target ID, modified attributes, full chapter list)

Returns:
  - error: apperr.NotFound if missing, storage failures otherwise
*/
func (repository *bookRepository) Update(context context.Context, book *Book) error {

	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer transaction.Rollback(context)

	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $1, %s = $2, %s = $3, %s = $4, %s = $5,
			%s = $6, %s = $7, %s = $8, %s = NOW()
		WHERE %s = $9
	`,
		schema.CoreBook.Table,
		schema.CoreBook.Name,
		schema.CoreBook.Slug,
		schema.CoreBook.Subject,
		schema.CoreBook.Tags,
		schema.CoreBook.Contents,
		schema.CoreBook.CoverKey,
		schema.CoreBook.PDFKey,
		schema.CoreBook.Price,
		schema.CoreBook.UpdatedAt,
		schema.CoreBook.ID,
	)

	result, err := transaction.Exec(context, query,
		book.Name,
		book.Slug,
		book.Subject,
		book.Tags,
		book.Contents,
		book.CoverKey,
		book.PDFKey,
		book.Price,
		book.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to update book: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("Book")
	}

	if err := repository.syncChapters(context, transaction, book); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit update transaction: %w", err)
	}

	return nil
}

// insertChapters writes the book's chapter rows through a single batch pipeline.
func (repository *bookRepository) insertChapters(context context.Context, transaction pgx.Tx, book *Book) error {
	if len(book.Chapters) == 0 {
		return nil
	}

	insQuery := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		schema.CoreChapter.Table,
		schema.CoreChapter.ID,
		schema.CoreChapter.BookID,
		schema.CoreChapter.Name,
		schema.CoreChapter.Description,
		schema.CoreChapter.PageFrom,
		schema.CoreChapter.PageTo,
		schema.CoreChapter.Price,
		schema.CoreChapter.OrderIndex,
	)

	batch := &pgx.Batch{}
	for _, chapter := range book.Chapters {
		batch.Queue(insQuery,
			chapter.ID,
			book.ID,
			chapter.Name,
			chapter.Description,
			chapter.PageFrom,
			chapter.PageTo,
			chapter.Price,
			chapter.OrderIndex,
		)
	}

	response := transaction.SendBatch(context, batch)
	if err := response.Close(); err != nil {
		return fmt.Errorf("postgres: failed to batch insert chapters: %w", err)
	}

	return nil
}

// syncChapters reconciles the stored chapter rows with the book's set.
// Rows whose IDs survive are updated in place; identity must be stable
// across edits because access and activity rows key on the chapter ID.
func (repository *bookRepository) syncChapters(context context.Context, transaction pgx.Tx, book *Book) error {

	existingQuery := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		schema.CoreChapter.ID, schema.CoreChapter.Table, schema.CoreChapter.BookID)

	rows, err := transaction.Query(context, existingQuery, book.ID)
	if err != nil {
		return fmt.Errorf("postgres: failed to list existing chapters: %w", err)
	}

	existing := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("postgres: failed to scan chapter id: %w", err)
		}
		existing[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres: chapter id rows iteration failed: %w", err)
	}

	insQuery := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		schema.CoreChapter.Table,
		schema.CoreChapter.ID,
		schema.CoreChapter.BookID,
		schema.CoreChapter.Name,
		schema.CoreChapter.Description,
		schema.CoreChapter.PageFrom,
		schema.CoreChapter.PageTo,
		schema.CoreChapter.Price,
		schema.CoreChapter.OrderIndex,
	)

	updQuery := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = NOW()
		WHERE %s = $1
	`,
		schema.CoreChapter.Table,
		schema.CoreChapter.Name,
		schema.CoreChapter.Description,
		schema.CoreChapter.PageFrom,
		schema.CoreChapter.PageTo,
		schema.CoreChapter.Price,
		schema.CoreChapter.OrderIndex,
		schema.CoreChapter.UpdatedAt,
		schema.CoreChapter.ID,
	)

	batch := &pgx.Batch{}
	kept := make([]string, 0, len(book.Chapters))
	for _, chapter := range book.Chapters {
		kept = append(kept, chapter.ID)
		if existing[chapter.ID] {
			batch.Queue(updQuery,
				chapter.ID,
				chapter.Name,
				chapter.Description,
				chapter.PageFrom,
				chapter.PageTo,
				chapter.Price,
				chapter.OrderIndex,
			)
		} else {
			batch.Queue(insQuery,
				chapter.ID,
				book.ID,
				chapter.Name,
				chapter.Description,
				chapter.PageFrom,
				chapter.PageTo,
				chapter.Price,
				chapter.OrderIndex,
			)
		}
	}

	if batch.Len() > 0 {
		response := transaction.SendBatch(context, batch)
		if err := response.Close(); err != nil {
			return fmt.Errorf("postgres: failed to batch sync chapters: %w", err)
		}
	}

	deleteQuery := fmt.Sprintf("DELETE FROM %s WHERE %s = $1 AND NOT (%s = ANY($2))",
		schema.CoreChapter.Table, schema.CoreChapter.BookID, schema.CoreChapter.ID)
	if _, err := transaction.Exec(context, deleteQuery, book.ID, kept); err != nil {
		return fmt.Errorf("postgres: failed to delete removed chapters: %w", err)
	}

	return nil
}

/*
Delete removes a book; chapter rows go with it via ON DELETE CASCADE.

Parameters:
  - context: context.Context
  - id: string (UUID)

Returns:
  - error: apperr.NotFound if missing
*/
func (repository *bookRepository) Delete(context context.Context, id string) error {

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1",
		schema.CoreBook.Table, schema.CoreBook.ID)

	result, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete book: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("Book")
	}

	return nil
}

/*
FindChapter returns a single chapter by its ID.

Parameters:
  - context: context.Context
  - chapterID: string (UUID)

Returns:
  - *Chapter: The hydrated value object
  - error: apperr.NotFound if missing
*/
func (repository *bookRepository) FindChapter(context context.Context, chapterID string) (*Chapter, error) {

	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
	`,
		schema.CoreChapter.ID,
		schema.CoreChapter.BookID,
		schema.CoreChapter.Name,
		schema.CoreChapter.Description,
		schema.CoreChapter.PageFrom,
		schema.CoreChapter.PageTo,
		schema.CoreChapter.Price,
		schema.CoreChapter.OrderIndex,
		schema.CoreChapter.CreatedAt,
		schema.CoreChapter.UpdatedAt,
		schema.CoreChapter.Table,
		schema.CoreChapter.ID,
	)

	var chapter Chapter
	err := repository.pool.QueryRow(context, query, chapterID).Scan(
		&chapter.ID,
		&chapter.BookID,
		&chapter.Name,
		&chapter.Description,
		&chapter.PageFrom,
		&chapter.PageTo,
		&chapter.Price,
		&chapter.OrderIndex,
		&chapter.CreatedAt,
		&chapter.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Chapter")
		}
		return nil, fmt.Errorf("postgres: failed to find chapter: %w", err)
	}

	return &chapter, nil
}

/*
FindChapters returns the chapters matching the given IDs.

Parameters:
  - context: context.Context
  - chapterIDs: []string (UUIDs)

Returns:
  - []*Chapter: Matching value objects (missing IDs are absent)
  - error: Database retrieval failures
*/
func (repository *bookRepository) FindChapters(context context.Context, chapterIDs []string) ([]*Chapter, error) {
	if len(chapterIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = ANY($1)
	`,
		schema.CoreChapter.ID,
		schema.CoreChapter.BookID,
		schema.CoreChapter.Name,
		schema.CoreChapter.Description,
		schema.CoreChapter.PageFrom,
		schema.CoreChapter.PageTo,
		schema.CoreChapter.Price,
		schema.CoreChapter.OrderIndex,
		schema.CoreChapter.CreatedAt,
		schema.CoreChapter.UpdatedAt,
		schema.CoreChapter.Table,
		schema.CoreChapter.ID,
	)

	rows, err := repository.pool.Query(context, query, chapterIDs)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to find chapters: %w", err)
	}
	defer rows.Close()

	var chapters []*Chapter
	for rows.Next() {
		chapter := &Chapter{}
		err := rows.Scan(
			&chapter.ID,
			&chapter.BookID,
			&chapter.Name,
			&chapter.Description,
			&chapter.PageFrom,
			&chapter.PageTo,
			&chapter.Price,
			&chapter.OrderIndex,
			&chapter.CreatedAt,
			&chapter.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan chapter row: %w", err)
		}
		chapters = append(chapters, chapter)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: chapter rows iteration failed: %w", err)
	}

	return chapters, nil
}

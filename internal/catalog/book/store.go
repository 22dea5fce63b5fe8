// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package book

import "context"

// # Book Data Access

// BookRepository defines the data access contract for the catalogue domain.
type BookRepository interface {

	/*
		List returns a filtered, paginated slice of books and the total count.
		Listed books are returned without chapters.

		Parameters:
		  - context: context.Context
		  - filter: Filter (Search, subject, tag, sorting)
		  - limit: int
		  - offset: int

		Returns:
		  - []*Book: Slice of matching publication records
		  - int: Total count of records matching the filter
		  - error: Database retrieval failures
	*/
	List(context context.Context, filter Filter, limit, offset int) ([]*Book, int, error)

	/*
		FindByID returns the book with the given ID, chapters included
		and sorted by order index.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *Book: The hydrated domain entity
		  - error: ErrNotFound if missing
	*/
	FindByID(context context.Context, id string) (*Book, error)

	/*
		FindBySlug returns the book matching the unique SEO identifier.

		Parameters:
		  - context: context.Context
		  - slug: string

		Returns:
		  - *Book: The hydrated domain entity
		  - error: ErrNotFound if missing
	*/
	FindBySlug(context context.Context, slug string) (*Book, error)

	/*
		Create persists a new book and its chapters atomically.

		Parameters:
		  - context: context.Context
		  - book: *Book (Metadata, blob keys, and chapter list)

		Returns:
		  - error: Storage or constraint failures
	*/
	Create(context context.Context, book *Book) error

	/*
		Update persists changes to a book and replaces its chapter set
		atomically.

		Parameters:
		  - context: context.Context
		  - book: *Book (Target ID, modified attributes, full chapter list)

		Returns:
		  - error: ErrNotFound if missing, storage failures otherwise
	*/
	Update(context context.Context, book *Book) error

	/*
		Delete removes a book and (via cascade) its chapters.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - error: ErrNotFound if missing
	*/
	Delete(context context.Context, id string) error

	/*
		FindChapter returns a single chapter by its ID.

		Parameters:
		  - context: context.Context
		  - chapterID: string (UUID)

		Returns:
		  - *Chapter: The hydrated value object
		  - error: ErrNotFound if missing
	*/
	FindChapter(context context.Context, chapterID string) (*Chapter, error)

	/*
		FindChapters returns the chapters matching the given IDs. Missing
		IDs are simply absent from the result; callers compare lengths.

		Parameters:
		  - context: context.Context
		  - chapterIDs: []string (UUIDs)

		Returns:
		  - []*Chapter: Matching value objects
		  - error: Database retrieval failures
	*/
	FindChapters(context context.Context, chapterIDs []string) ([]*Chapter, error)
}

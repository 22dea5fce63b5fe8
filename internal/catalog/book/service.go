// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package book

import (
	"context"
	"io"
	"log/slog"
	"path"

	"github.com/taibuivan/chaptra/internal/platform/constants"
	"github.com/taibuivan/chaptra/internal/platform/storage"
	"github.com/taibuivan/chaptra/internal/platform/validate"
	"github.com/taibuivan/chaptra/pkg/slug"
	"github.com/taibuivan/chaptra/pkg/uuidv7"
)

// # Service Layer

// Service orchestrates the business logic for the book catalogue.
// It owns metadata persistence, derived pricing, and media uploads.
type Service struct {
	bookRepo  BookRepository
	blobStore storage.ObjectStore
	logger    *slog.Logger
}

// NewService constructs a new [Service] with its required dependencies.
func NewService(bookRepo BookRepository, blobStore storage.ObjectStore, logger *slog.Logger) *Service {
	return &Service{
		bookRepo:  bookRepo,
		blobStore: blobStore,
		logger:    logger,
	}
}

// # Inputs

// Upload carries one multipart file on its way to the object store.
type Upload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
	Filename    string
}

// ChapterInput describes one chapter in a create or update payload.
// ID is optional. On update it pins the input to a stored chapter so
// access and activity rows keyed on the chapter survive the edit.
type ChapterInput struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PageFrom    int    `json:"page_from"`
	PageTo      int    `json:"page_to"`
	Price       int64  `json:"price"`
	OrderIndex  int    `json:"order_index"`
}

// SaveBookInput holds the full payload for creating or updating a book.
// Cover and PDF are optional on update; the stored keys persist.
type SaveBookInput struct {
	Name     string
	Subject  string
	Tags     []string
	Contents string
	Chapters []ChapterInput
	Cover    *Upload
	PDF      *Upload
}

// # Book Lookups

/*
ListBooks retrieves a paginated and filtered collection of books.

Description: Passes filter criteria directly to the repository layer for
database-level filtering, then decorates every result with a presigned
cover URL.

Parameters:
  - context: context.Context
  - filter: Filter (Criteria for search, subject, tag)
  - limit: int (Max records to return)
  - offset: int (Pagination cursor)

Returns:
  - []*Book: Slice of matching publication records
  - int: Total count of records matching the filter (for pagination metadata)
  - error: System or repository level errors
*/
func (service *Service) ListBooks(context context.Context, filter Filter, limit, offset int) ([]*Book, int, error) {
	books, total, err := service.bookRepo.List(context, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	for _, book := range books {
		service.presign(context, book, false)
	}

	return books, total, nil
}

/*
GetBook fetches a single publication record by UUID or SEO Slug.

Description: If the identifier matches the UUID format, it performs a
primary key lookup; otherwise, it resolves via the unique URL slug. The
result carries presigned cover and PDF URLs.

Parameters:
  - context: context.Context
  - identifier: string (UUID or Slug)

Returns:
  - *Book: The hydrated domain entity with chapters
  - error: ErrNotFound if no match is found
*/
func (service *Service) GetBook(context context.Context, identifier string) (*Book, error) {
	var book *Book
	var err error

	// Identity format detection
	if isUUID(identifier) {
		book, err = service.bookRepo.FindByID(context, identifier)
	} else {
		book, err = service.bookRepo.FindBySlug(context, identifier)
	}
	if err != nil {
		return nil, err
	}

	service.presign(context, book, true)

	return book, nil
}

/*
GetChapter fetches a single chapter value object.

Parameters:
  - context: context.Context
  - chapterID: string (UUID)

Returns:
  - *Chapter: The hydrated value object
  - error: ErrNotFound if missing
*/
func (service *Service) GetChapter(context context.Context, chapterID string) (*Chapter, error) {
	return service.bookRepo.FindChapter(context, chapterID)
}

/*
GetChapters fetches the chapters matching the given IDs.

Parameters:
  - context: context.Context
  - chapterIDs: []string (UUIDs)

Returns:
  - []*Chapter: Matching value objects (missing IDs are absent)
  - error: Repository level errors
*/
func (service *Service) GetChapters(context context.Context, chapterIDs []string) ([]*Chapter, error) {
	return service.bookRepo.FindChapters(context, chapterIDs)
}

// # Book Management

/*
CreateBook initialises a new publication with its chapter set and media.

Description: Validates the metadata and chapter payload, uploads the
cover and PDF to the object store, derives the book price from the
chapter prices, and persists everything atomically.

Parameters:
  - context: context.Context
  - input: SaveBookInput (Cover and PDF required)

Returns:
  - *Book: The persisted entity
  - error: Validation, upload, or persistence errors
*/
func (service *Service) CreateBook(context context.Context, input SaveBookInput) (*Book, error) {

	// ── 1. Validation ────────────────────────────────────────────────────

	if err := validateSaveInput(input, true); err != nil {
		return nil, err
	}

	// ── 2. Entity Assembly ───────────────────────────────────────────────

	book := &Book{
		ID:       uuidv7.New(),
		Name:     input.Name,
		Slug:     slug.From(input.Name),
		Subject:  input.Subject,
		Tags:     input.Tags,
		Contents: input.Contents,
		Chapters: buildChapters(input.Chapters),
	}
	book.RecomputePrice()

	// Duplicate order indexes are legal but usually an admin mistake
	if duplicates := book.DuplicateOrderIndexes(); len(duplicates) > 0 {
		service.logger.Warn("book_duplicate_order_index",
			slog.String("book_id", book.ID),
			slog.Any("order_indexes", duplicates),
		)
	}

	// ── 3. Media Upload ──────────────────────────────────────────────────

	coverKey, err := service.upload(context, constants.BlobPrefixCover, book.ID, input.Cover)
	if err != nil {
		return nil, err
	}
	book.CoverKey = coverKey

	pdfKey, err := service.upload(context, constants.BlobPrefixPDF, book.ID, input.PDF)
	if err != nil {
		return nil, err
	}
	book.PDFKey = pdfKey

	// ── 4. Persistence ───────────────────────────────────────────────────

	if err := service.bookRepo.Create(context, book); err != nil {
		return nil, err
	}

	service.logger.Info("book_created",
		slog.String("book_id", book.ID),
		slog.String("name", book.Name),
		slog.Int("chapters", len(book.Chapters)),
		slog.Int64("price", book.Price),
	)

	service.presign(context, book, true)

	return book, nil
}

/*
UpdateBook applies modifications to an existing publication.

Description: Merges the incoming chapter set against the stored one and
re-derives the book price. Stored chapters keep their IDs across the
edit; only chapters absent from the payload are removed and only
unmatched inputs become new rows. New cover or PDF uploads replace the
stored objects; absent uploads keep the existing keys.

Parameters:
  - context: context.Context
  - id: string (UUID)
  - input: SaveBookInput (Cover and PDF optional)

Returns:
  - *Book: The updated entity
  - error: Validation, upload, or persistence errors
*/
func (service *Service) UpdateBook(context context.Context, id string, input SaveBookInput) (*Book, error) {

	// ── 1. Validation & Load ─────────────────────────────────────────────

	if err := validateSaveInput(input, false); err != nil {
		return nil, err
	}

	book, err := service.bookRepo.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	// ── 2. Apply Changes ─────────────────────────────────────────────────

	book.Name = input.Name
	book.Slug = slug.From(input.Name)
	book.Subject = input.Subject
	book.Tags = input.Tags
	book.Contents = input.Contents
	book.Chapters = mergeChapters(book.Chapters, input.Chapters)
	book.RecomputePrice()

	if duplicates := book.DuplicateOrderIndexes(); len(duplicates) > 0 {
		service.logger.Warn("book_duplicate_order_index",
			slog.String("book_id", book.ID),
			slog.Any("order_indexes", duplicates),
		)
	}

	// ── 3. Media Replacement ─────────────────────────────────────────────

	if input.Cover != nil {
		previousKey := book.CoverKey
		newKey, err := service.upload(context, constants.BlobPrefixCover, book.ID, input.Cover)
		if err != nil {
			return nil, err
		}
		book.CoverKey = newKey
		service.discard(context, previousKey, newKey)
	}

	if input.PDF != nil {
		previousKey := book.PDFKey
		newKey, err := service.upload(context, constants.BlobPrefixPDF, book.ID, input.PDF)
		if err != nil {
			return nil, err
		}
		book.PDFKey = newKey
		service.discard(context, previousKey, newKey)
	}

	// ── 4. Persistence ───────────────────────────────────────────────────

	if err := service.bookRepo.Update(context, book); err != nil {
		return nil, err
	}

	service.logger.Info("book_updated",
		slog.String("book_id", book.ID),
		slog.Int("chapters", len(book.Chapters)),
		slog.Int64("price", book.Price),
	)

	service.presign(context, book, true)

	return book, nil
}

/*
DeleteBook removes a book from the catalogue.

Description: Chapter rows cascade with the book. Stored blobs are kept;
assignments and requests may still reference the book for history.

Parameters:
  - context: context.Context
  - id: string (UUID)

Returns:
  - error: Persistence error if removal fails
*/
func (service *Service) DeleteBook(context context.Context, id string) error {
	if err := service.bookRepo.Delete(context, id); err != nil {
		return err
	}

	service.logger.Warn("book_deleted", slog.String("book_id", id))

	return nil
}

// # Internal Helpers

// upload stores one file under a prefixed, book-scoped key.
func (service *Service) upload(context context.Context, prefix, bookID string, file *Upload) (string, error) {
	key := prefix + bookID + path.Ext(file.Filename)
	if err := service.blobStore.Put(context, key, file.Reader, file.Size, file.ContentType); err != nil {
		return "", err
	}
	return key, nil
}

// discard removes a replaced blob. Best effort; a leaked object is
// preferable to failing the save after the new upload already landed.
func (service *Service) discard(context context.Context, previousKey, newKey string) {
	if previousKey == "" || previousKey == newKey {
		return
	}
	if err := service.blobStore.Delete(context, previousKey); err != nil {
		service.logger.Warn("blob_discard_failed",
			slog.String("key", previousKey),
			slog.String("error", err.Error()),
		)
	}
}

// presign decorates a book with short-lived media URLs.
func (service *Service) presign(context context.Context, book *Book, includePDF bool) {
	if book.CoverKey != "" {
		if url, err := service.blobStore.PresignGet(context, book.CoverKey, constants.PresignedURLTTL); err == nil {
			book.CoverURL = url
		}
	}

	if includePDF && book.PDFKey != "" {
		if url, err := service.blobStore.PresignGet(context, book.PDFKey, constants.PresignedURLTTL); err == nil {
			book.PDFURL = url
		}
	}
}

// buildChapters converts input payloads into identified chapter value objects.
func buildChapters(inputs []ChapterInput) []Chapter {
	chapters := make([]Chapter, 0, len(inputs))
	for _, input := range inputs {
		chapters = append(chapters, Chapter{
			ID:          uuidv7.New(),
			Name:        input.Name,
			Description: input.Description,
			PageFrom:    input.PageFrom,
			PageTo:      input.PageTo,
			Price:       input.Price,
			OrderIndex:  input.OrderIndex,
		})
	}
	return chapters
}

// mergeChapters carries stored chapter identity through an update.
// Inputs claim a stored chapter by explicit ID first, then by order
// index; unmatched inputs become new chapters. Access and activity
// rows reference chapters by ID, so an edit must not re-key chapters
// that are still present.
func mergeChapters(stored []Chapter, inputs []ChapterInput) []Chapter {
	byID := make(map[string]Chapter, len(stored))
	byOrder := make(map[int]Chapter, len(stored))
	for _, chapter := range stored {
		byID[chapter.ID] = chapter
		byOrder[chapter.OrderIndex] = chapter
	}

	claimed := make(map[string]bool, len(stored))
	chapters := make([]Chapter, 0, len(inputs))
	for _, input := range inputs {
		id := ""
		if existing, ok := byID[input.ID]; ok && !claimed[existing.ID] {
			id = existing.ID
		} else if existing, ok := byOrder[input.OrderIndex]; ok && !claimed[existing.ID] {
			id = existing.ID
		}
		if id == "" {
			id = uuidv7.New()
		}
		claimed[id] = true

		chapters = append(chapters, Chapter{
			ID:          id,
			Name:        input.Name,
			Description: input.Description,
			PageFrom:    input.PageFrom,
			PageTo:      input.PageTo,
			Price:       input.Price,
			OrderIndex:  input.OrderIndex,
		})
	}
	return chapters
}

// validateSaveInput enforces the shared create/update constraints.
func validateSaveInput(input SaveBookInput, requireMedia bool) error {
	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).MaxLen(FieldName, input.Name, 500)
	validator.Required(FieldSubject, input.Subject).MaxLen(FieldSubject, input.Subject, 200)

	for _, chapter := range input.Chapters {
		validator.Required(FieldChapterName, chapter.Name).
			Custom(FieldPrice, chapter.Price < 0, "Must not be negative").
			Custom(FieldPageTo, chapter.PageTo < chapter.PageFrom, "Must not precede page_from")
	}

	if requireMedia {
		validator.Custom(FieldCover, input.Cover == nil, "Cover image is required").
			Custom(FieldPDF, input.PDF == nil, "PDF file is required")
	}

	return validator.Err()
}

// isUUID returns true if the string matches the standard UUID length.
func isUUID(s string) bool {
	return len(s) == 36
}

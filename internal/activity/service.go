// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package activity

import (
	"context"
	"log/slog"

	"github.com/taibuivan/chaptra/internal/catalog/book"
	"github.com/taibuivan/chaptra/internal/platform/apperr"
	"github.com/taibuivan/chaptra/internal/platform/validate"
	"github.com/taibuivan/chaptra/pkg/uuidv7"
)

// # Contracts & Types

// CatalogSource resolves books and chapters for record validation.
type CatalogSource interface {
	// GetBook returns one book by UUID or slug.
	GetBook(ctx context.Context, identifier string) (*book.Book, error)

	// GetChapter returns one chapter by UUID.
	GetChapter(ctx context.Context, chapterID string) (*book.Chapter, error)
}

// RecordInput carries one reading increment from the reader client.
type RecordInput struct {
	BookID      string `json:"book_id"`
	ChapterID   string `json:"chapter_id"`
	LastPage    int    `json:"last_page"`
	PagesViewed int    `json:"pages_viewed"`
	SecondsRead int64  `json:"seconds_read"`
}

// Service orchestrates reading-progress recording and reporting.
type Service struct {
	activityRepo ActivityRepository
	catalog      CatalogSource
	logger       *slog.Logger
}

// NewService constructs a new [Service] with its required dependencies.
func NewService(activityRepo ActivityRepository, catalog CatalogSource, logger *slog.Logger) *Service {
	return &Service{
		activityRepo: activityRepo,
		catalog:      catalog,
		logger:       logger,
	}
}

// # Recording

/*
Record folds one reading increment into the per-chapter row.

Description: Validates the increment and confirms the chapter belongs to
the named book before the upsert. Pages and seconds accumulate; the last
page overwrites.

Parameters:
  - context: context.Context
  - userID: string (Reader UUID)
  - input: RecordInput

Returns:
  - *Entry: The accumulated row after the write
  - error: Validation, NotFound, or persistence errors
*/
func (service *Service) Record(context context.Context, userID string, input RecordInput) (*Entry, error) {

	// ── 1. Validation ────────────────────────────────────────────────────

	validator := &validate.Validator{}
	validator.Required(FieldBookID, input.BookID).
		Required(FieldChapterID, input.ChapterID).
		Custom(FieldLastPage, input.LastPage < 0, "Must not be negative").
		Custom(FieldPagesViewed, input.PagesViewed < 0, "Must not be negative").
		Custom(FieldSecondsRead, input.SecondsRead < 0, "Must not be negative")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	read, err := service.catalog.GetBook(context, input.BookID)
	if err != nil {
		return nil, err
	}
	chapter, err := service.catalog.GetChapter(context, input.ChapterID)
	if err != nil {
		return nil, err
	}
	if chapter.BookID != read.ID {
		return nil, apperr.Unprocessable("Chapter does not belong to the named book")
	}

	// ── 2. Persistence ───────────────────────────────────────────────────

	accumulated, err := service.activityRepo.Record(context, &Entry{
		ID:          uuidv7.New(),
		UserID:      userID,
		BookID:      read.ID,
		ChapterID:   input.ChapterID,
		LastPage:    input.LastPage,
		PagesViewed: input.PagesViewed,
		SecondsRead: input.SecondsRead,
	})
	if err != nil {
		return nil, err
	}

	service.logger.Debug("activity_recorded",
		slog.String("user_id", userID),
		slog.String("chapter_id", input.ChapterID),
		slog.Int("pages_viewed", accumulated.PagesViewed),
		slog.Int64("seconds_read", accumulated.SecondsRead),
	)

	return accumulated, nil
}

// # Reporting

/*
ContinueReading returns the caller's shelf, most recently read first.

Parameters:
  - context: context.Context
  - userID: string (UUID)
  - limit: int

Returns:
  - []*Progress: Records with book and chapter display names
  - error: Repository level errors
*/
func (service *Service) ContinueReading(context context.Context, userID string, limit int) ([]*Progress, error) {
	return service.activityRepo.ContinueReading(context, userID, limit)
}

/*
Report returns the admin usage view across every reader.

Parameters:
  - context: context.Context
  - limit: int
  - offset: int

Returns:
  - []*ReportRow: Records joined with reader and book display fields
  - int: Total record count
  - error: Repository level errors
*/
func (service *Service) Report(context context.Context, limit, offset int) ([]*ReportRow, int, error) {
	return service.activityRepo.Report(context, limit, offset)
}

// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package assignment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/chaptra/internal/catalog/book"
	"github.com/taibuivan/chaptra/internal/notify"
	"github.com/taibuivan/chaptra/internal/platform/apperr"
	"github.com/taibuivan/chaptra/internal/platform/validate"
	"github.com/taibuivan/chaptra/pkg/slice"
	"github.com/taibuivan/chaptra/pkg/uuidv7"
)

// # Contracts & Types

// CatalogSource resolves books and chapters for grant validation.
type CatalogSource interface {
	// GetBook returns one book by UUID or slug.
	GetBook(ctx context.Context, identifier string) (*book.Book, error)

	// GetChapters returns the chapters matching the given IDs; missing
	// IDs are absent from the result.
	GetChapters(ctx context.Context, chapterIDs []string) ([]*book.Chapter, error)
}

// Notifier delivers grant lifecycle notifications.
type Notifier interface {
	// NotifyUser persists and pushes one user-facing notification.
	NotifyUser(ctx context.Context, userID string, notificationType notify.Type, message string) (*notify.Notification, error)
}

// AssignInput carries the admin grant form.
type AssignInput struct {
	UserID       string   `json:"user_id"`
	BookID       string   `json:"book_id"`
	ChapterIDs   []string `json:"chapter_ids"`
	DurationDays int      `json:"duration_days"`
}

// Service orchestrates direct chapter grants and their revocation.
type Service struct {
	assignmentRepo AssignmentRepository
	catalog        CatalogSource
	notifier       Notifier
	logger         *slog.Logger
}

// NewService constructs a new [Service] with its required dependencies.
func NewService(assignmentRepo AssignmentRepository, catalog CatalogSource, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		assignmentRepo: assignmentRepo,
		catalog:        catalog,
		notifier:       notifier,
		logger:         logger,
	}
}

// # Granting

/*
Assign grants a user time-limited access to chapters of one book.

Description: Validates the input, confirms every chapter belongs to the
named book, and upserts one grant per chapter expiring durationDays from
now. Re-assigning an already-granted chapter replaces its window, so the
operation also serves as an extension. The user receives one
notification covering the whole grant.

Parameters:
  - context: context.Context
  - input: AssignInput

Returns:
  - []*Assignment: The persisted grants
  - error: Validation, NotFound, or persistence errors
*/
func (service *Service) Assign(context context.Context, input AssignInput) ([]*Assignment, error) {

	// ── 1. Validation ────────────────────────────────────────────────────

	validator := &validate.Validator{}
	validator.Required(FieldUserID, input.UserID).
		Required(FieldBookID, input.BookID).
		Custom(FieldChapterIDs, len(input.ChapterIDs) == 0, "At least one chapter is required").
		Custom(FieldDurationDays, input.DurationDays <= 0, "Must be a positive number of days")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	granted, err := service.catalog.GetBook(context, input.BookID)
	if err != nil {
		return nil, err
	}

	chapters, err := service.catalog.GetChapters(context, input.ChapterIDs)
	if err != nil {
		return nil, err
	}
	if len(chapters) != len(input.ChapterIDs) {
		return nil, apperr.NotFound("Chapter")
	}
	for _, chapter := range chapters {
		if chapter.BookID != granted.ID {
			return nil, apperr.Unprocessable("Chapter does not belong to the assigned book")
		}
	}

	// ── 2. Grant Assembly ────────────────────────────────────────────────

	now := time.Now().UTC()
	expiresAt := now.Add(time.Duration(input.DurationDays) * 24 * time.Hour)

	assignments := slice.Map(input.ChapterIDs, func(chapterID string) *Assignment {
		return &Assignment{
			ID:         uuidv7.New(),
			UserID:     input.UserID,
			BookID:     granted.ID,
			ChapterID:  chapterID,
			AssignedAt: now,
			ExpiresAt:  expiresAt,
		}
	})

	// ── 3. Persistence ───────────────────────────────────────────────────

	if err := service.assignmentRepo.UpsertAll(context, assignments); err != nil {
		return nil, err
	}

	service.logger.Info("access_assigned",
		slog.String("user_id", input.UserID),
		slog.String("book_id", granted.ID),
		slog.Int("chapters", len(assignments)),
		slog.Int("duration_days", input.DurationDays),
	)

	// ── 4. Notification ──────────────────────────────────────────────────

	service.notifyUser(context, input.UserID, notify.TypeAssigned,
		fmt.Sprintf("You were granted access to %d chapter(s) of %q for %d day(s).",
			len(assignments), granted.Name, input.DurationDays))

	return assignments, nil
}

// # Revocation

/*
Revoke removes one grant by ID and notifies the affected user.

Parameters:
  - context: context.Context
  - id: string (Assignment UUID)

Returns:
  - error: apperr.NotFound if the grant does not exist
*/
func (service *Service) Revoke(context context.Context, id string) error {
	assignment, err := service.assignmentRepo.FindByID(context, id)
	if err != nil {
		return err
	}
	return service.revoke(context, assignment)
}

/*
RevokeByKey removes the grant for one (user, book, chapter) triple.

Parameters:
  - context: context.Context
  - userID, bookID, chapterID: string (UUIDs)

Returns:
  - error: apperr.NotFound if no such grant exists
*/
func (service *Service) RevokeByKey(context context.Context, userID, bookID, chapterID string) error {
	assignment, err := service.assignmentRepo.FindByKey(context, userID, bookID, chapterID)
	if err != nil {
		return err
	}
	return service.revoke(context, assignment)
}

// revoke deletes a loaded grant and notifies its holder.
func (service *Service) revoke(context context.Context, assignment *Assignment) error {
	if err := service.assignmentRepo.Delete(context, assignment.ID); err != nil {
		return err
	}

	service.logger.Info("access_revoked",
		slog.String("assignment_id", assignment.ID),
		slog.String("user_id", assignment.UserID),
		slog.String("chapter_id", assignment.ChapterID),
	)

	service.notifyUser(context, assignment.UserID, notify.TypeRevoked,
		"Your assigned chapter access was revoked.")

	return nil
}

// # Visibility

/*
ListForUser returns the caller's active grants grouped by book.

Parameters:
  - context: context.Context
  - userID: string (UUID)

Returns:
  - []*BookGrants: Countdown view, expired grants excluded
  - error: Repository level errors
*/
func (service *Service) ListForUser(context context.Context, userID string) ([]*BookGrants, error) {
	return service.assignmentRepo.ListActiveForUser(context, userID, time.Now().UTC())
}

/*
Overview returns the merged admin access-management view.

Parameters:
  - context: context.Context
  - limit: int
  - offset: int

Returns:
  - []*OverviewRow: Approved requests and direct grants merged
  - int: Total row count
  - error: Repository level errors
*/
func (service *Service) Overview(context context.Context, limit, offset int) ([]*OverviewRow, int, error) {
	return service.assignmentRepo.Overview(context, limit, offset)
}

// # Internal Helpers

// notifyUser sends a best-effort user notification. Grant writes already
// committed; a lost notification is logged, not propagated.
func (service *Service) notifyUser(context context.Context, userID string, notificationType notify.Type, message string) {
	if _, err := service.notifier.NotifyUser(context, userID, notificationType, message); err != nil {
		service.logger.Error("assignment_notify_user_failed",
			slog.String("user_id", userID),
			slog.String("type", string(notificationType)),
			slog.String("error", err.Error()),
		)
	}
}

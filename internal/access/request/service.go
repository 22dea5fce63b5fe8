// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package request

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/chaptra/internal/catalog/book"
	"github.com/taibuivan/chaptra/internal/notify"
	"github.com/taibuivan/chaptra/internal/platform/apperr"
	"github.com/taibuivan/chaptra/internal/platform/validate"
	"github.com/taibuivan/chaptra/pkg/pointer"
	"github.com/taibuivan/chaptra/pkg/slice"
	"github.com/taibuivan/chaptra/pkg/uuidv7"
)

// # Contracts & Types

// CatalogSource resolves books and chapters for submission validation.
type CatalogSource interface {
	// GetBook returns one book by UUID or slug.
	GetBook(ctx context.Context, identifier string) (*book.Book, error)

	// GetChapters returns the chapters matching the given IDs; missing
	// IDs are absent from the result.
	GetChapters(ctx context.Context, chapterIDs []string) ([]*book.Chapter, error)
}

// Notifier delivers workflow notifications to users and admins.
type Notifier interface {
	// NotifyUser persists and pushes one user-facing notification.
	NotifyUser(ctx context.Context, userID string, notificationType notify.Type, message string) (*notify.Notification, error)

	// NotifyAdmin persists one admin-facing notification.
	NotifyAdmin(ctx context.Context, notificationType notify.Type, message string) (*notify.Notification, error)
}

// Service orchestrates the access request workflow.
type Service struct {
	requestRepo RequestRepository
	catalog     CatalogSource
	notifier    Notifier
	logger      *slog.Logger
}

// NewService constructs a new [Service] with its required dependencies.
func NewService(requestRepo RequestRepository, catalog CatalogSource, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		requestRepo: requestRepo,
		catalog:     catalog,
		notifier:    notifier,
		logger:      logger,
	}
}

// # Submission

/*
Submit files a new access request for chapters of one book.

Description: Validates that the chapter set is non-empty and that every
chapter belongs to the named book, persists the request with all rows
pending, and notifies both the requester and the admin review queue.

Parameters:
  - context: context.Context
  - userID: string (Requester UUID)
  - bookID: string (UUID)
  - chapterIDs: []string (Non-empty)

Returns:
  - *Request: The persisted aggregate
  - error: Validation, NotFound, or persistence errors
*/
func (service *Service) Submit(context context.Context, userID, bookID string, chapterIDs []string) (*Request, error) {

	// ── 1. Validation ────────────────────────────────────────────────────

	validator := &validate.Validator{}
	validator.Required(FieldBookID, bookID).
		Custom(FieldChapterIDs, len(chapterIDs) == 0, "At least one chapter is required")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	requested, err := service.catalog.GetBook(context, bookID)
	if err != nil {
		return nil, err
	}

	chapters, err := service.catalog.GetChapters(context, chapterIDs)
	if err != nil {
		return nil, err
	}
	if len(chapters) != len(chapterIDs) {
		return nil, apperr.NotFound("Chapter")
	}
	for _, chapter := range chapters {
		if chapter.BookID != requested.ID {
			return nil, apperr.Unprocessable("Chapter does not belong to the requested book")
		}
	}

	// ── 2. Aggregate Assembly ────────────────────────────────────────────

	request := &Request{
		ID:     uuidv7.New(),
		UserID: userID,
		BookID: requested.ID,
		Status: StatusPending,
	}
	request.Chapters = slice.Map(chapterIDs, func(chapterID string) ChapterDecision {
		return ChapterDecision{
			ID:        uuidv7.New(),
			RequestID: request.ID,
			ChapterID: chapterID,
			Status:    StatusPending,
		}
	})

	// ── 3. Persistence ───────────────────────────────────────────────────

	if err := service.requestRepo.Create(context, request); err != nil {
		return nil, err
	}

	service.logger.Info("access_request_submitted",
		slog.String("request_id", request.ID),
		slog.String("user_id", userID),
		slog.String("book_id", requested.ID),
		slog.Int("chapters", len(chapterIDs)),
	)

	// ── 4. Notifications ─────────────────────────────────────────────────

	service.notifyUser(context, userID, notify.TypeRequestSubmitted,
		fmt.Sprintf("Your access request for %d chapter(s) of %q was submitted.", len(chapterIDs), requested.Name))
	service.notifyAdmin(context, notify.TypeUserRequest,
		fmt.Sprintf("New access request for %q (%d chapter(s)) awaits review.", requested.Name, len(chapterIDs)))

	return request, nil
}

// # Review

/*
List returns the admin review queue, optionally filtered by status.

Parameters:
  - context: context.Context
  - status: Status (Empty matches every status)
  - limit: int
  - offset: int

Returns:
  - []*View: Joined review rows, newest first
  - int: Total count matching the filter
  - error: Repository level errors
*/
func (service *Service) List(context context.Context, status Status, limit, offset int) ([]*View, int, error) {
	return service.requestRepo.List(context, status, limit, offset)
}

/*
Decide transitions one chapter, or every chapter, of a request.

Description: With a chapter ID the decision targets that single row;
without one it targets every row. Rows already carrying the requested
decision are skipped, which makes a repeated decision a no-op that emits
no duplicate notification. After the transition the overall status is
recomputed (approved / rejected / partial / pending) and the requester
is notified of the outcome.

Parameters:
  - context: context.Context
  - requestID: string (UUID)
  - chapterID: string (Optional; empty targets all chapters)
  - decision: Status (approved or rejected)

Returns:
  - *Request: The aggregate after the transition
  - error: Validation, NotFound, or persistence errors
*/
func (service *Service) Decide(context context.Context, requestID, chapterID string, decision Status) (*Request, error) {

	// ── 1. Validation & Load ─────────────────────────────────────────────

	if !decision.IsDecision() {
		return nil, validate.RequiredError(FieldDecision, "Must be approved or rejected")
	}

	request, err := service.requestRepo.FindByID(context, requestID)
	if err != nil {
		return nil, err
	}

	// ── 2. Target Selection ──────────────────────────────────────────────

	var targets []string
	found := chapterID == ""
	for index := range request.Chapters {
		row := &request.Chapters[index]
		if chapterID != "" && row.ChapterID != chapterID {
			continue
		}
		found = true
		// Idempotency: rows already in the target state are untouched
		if row.Status == decision {
			continue
		}
		targets = append(targets, row.ChapterID)
		row.Status = decision
	}
	if !found {
		return nil, apperr.NotFound("Requested chapter")
	}

	// No state change: idempotent no-op, no notification
	if len(targets) == 0 {
		return request, nil
	}

	// ── 3. Persistence ───────────────────────────────────────────────────

	decidedAt := time.Now().UTC()
	overall := AggregateStatus(request.Chapters)

	if err := service.requestRepo.ApplyDecision(context, requestID, targets, decision, decidedAt, overall); err != nil {
		return nil, err
	}
	request.Status = overall
	for index := range request.Chapters {
		row := &request.Chapters[index]
		for _, target := range targets {
			if row.ChapterID == target {
				row.DecidedAt = pointer.To(decidedAt)
			}
		}
	}

	service.logger.Info("access_request_decided",
		slog.String("request_id", requestID),
		slog.String("decision", string(decision)),
		slog.Int("chapters", len(targets)),
		slog.String("overall", string(overall)),
	)

	// ── 4. Notification ──────────────────────────────────────────────────

	notificationType := notify.TypeApproved
	verb := "approved"
	if decision == StatusRejected {
		notificationType = notify.TypeRejected
		verb = "rejected"
	}
	service.notifyUser(context, request.UserID, notificationType,
		fmt.Sprintf("%d chapter(s) of your access request were %s.", len(targets), verb))

	return request, nil
}

// # Derived Rights

/*
ApprovedForUser returns the user's derived viewing rights.

Parameters:
  - context: context.Context
  - userID: string (UUID)

Returns:
  - []*ApprovedChapter: One row per approved chapter
  - error: Repository level errors
*/
func (service *Service) ApprovedForUser(context context.Context, userID string) ([]*ApprovedChapter, error) {
	return service.requestRepo.ApprovedForUser(context, userID)
}

/*
ApprovedForBook returns the user's approved chapter rows for one book.

Parameters:
  - context: context.Context
  - userID: string (UUID)
  - bookID: string (UUID)

Returns:
  - []*ApprovedChapter: One row per approved chapter
  - error: Repository level errors
*/
func (service *Service) ApprovedForBook(context context.Context, userID, bookID string) ([]*ApprovedChapter, error) {
	return service.requestRepo.ApprovedForBook(context, userID, bookID)
}

// # Internal Helpers

// notifyUser sends a best-effort user notification. Workflow writes
// already committed; a lost notification is logged, not propagated.
func (service *Service) notifyUser(context context.Context, userID string, notificationType notify.Type, message string) {
	if _, err := service.notifier.NotifyUser(context, userID, notificationType, message); err != nil {
		service.logger.Error("request_notify_user_failed",
			slog.String("user_id", userID),
			slog.String("type", string(notificationType)),
			slog.String("error", err.Error()),
		)
	}
}

// notifyAdmin sends a best-effort admin notification.
func (service *Service) notifyAdmin(context context.Context, notificationType notify.Type, message string) {
	if _, err := service.notifier.NotifyAdmin(context, notificationType, message); err != nil {
		service.logger.Error("request_notify_admin_failed",
			slog.String("type", string(notificationType)),
			slog.String("error", err.Error()),
		)
	}
}

// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package request_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/chaptra/internal/access/request"
	"github.com/taibuivan/chaptra/internal/catalog/book"
	"github.com/taibuivan/chaptra/internal/notify"
	"github.com/taibuivan/chaptra/internal/platform/apperr"
)

// # Test Doubles

// memoryRequestRepository is an in-memory [request.RequestRepository].
type memoryRequestRepository struct {
	requests map[string]*request.Request
}

func newMemoryRequestRepository() *memoryRequestRepository {
	return &memoryRequestRepository{requests: make(map[string]*request.Request)}
}

func (repo *memoryRequestRepository) Create(_ context.Context, r *request.Request) error {
	clone := *r
	clone.Chapters = append([]request.ChapterDecision(nil), r.Chapters...)
	repo.requests[r.ID] = &clone
	return nil
}

func (repo *memoryRequestRepository) FindByID(_ context.Context, id string) (*request.Request, error) {
	r, ok := repo.requests[id]
	if !ok {
		return nil, apperr.NotFound("Request")
	}
	clone := *r
	clone.Chapters = append([]request.ChapterDecision(nil), r.Chapters...)
	return &clone, nil
}

func (repo *memoryRequestRepository) List(_ context.Context, status request.Status, _, _ int) ([]*request.View, int, error) {
	var views []*request.View
	for _, r := range repo.requests {
		if status != "" && r.Status != status {
			continue
		}
		views = append(views, &request.View{Request: *r})
	}
	return views, len(views), nil
}

func (repo *memoryRequestRepository) ApplyDecision(_ context.Context, requestID string, chapterIDs []string, decision request.Status, decidedAt time.Time, overall request.Status) error {
	r, ok := repo.requests[requestID]
	if !ok {
		return apperr.NotFound("Request")
	}
	for index := range r.Chapters {
		row := &r.Chapters[index]
		for _, target := range chapterIDs {
			if row.ChapterID == target {
				row.Status = decision
				at := decidedAt
				row.DecidedAt = &at
			}
		}
	}
	r.Status = overall
	return nil
}

func (repo *memoryRequestRepository) ApprovedForUser(_ context.Context, userID string) ([]*request.ApprovedChapter, error) {
	var approved []*request.ApprovedChapter
	for _, r := range repo.requests {
		if r.UserID != userID {
			continue
		}
		approved = append(approved, approvedRows(r)...)
	}
	return approved, nil
}

func (repo *memoryRequestRepository) ApprovedForBook(_ context.Context, userID, bookID string) ([]*request.ApprovedChapter, error) {
	var approved []*request.ApprovedChapter
	for _, r := range repo.requests {
		if r.UserID != userID || r.BookID != bookID {
			continue
		}
		approved = append(approved, approvedRows(r)...)
	}
	return approved, nil
}

func approvedRows(r *request.Request) []*request.ApprovedChapter {
	var rows []*request.ApprovedChapter
	for _, decision := range r.Chapters {
		if decision.Status == request.StatusApproved {
			rows = append(rows, &request.ApprovedChapter{
				RequestID: r.ID,
				UserID:    r.UserID,
				BookID:    r.BookID,
				ChapterID: decision.ChapterID,
				DecidedAt: decision.DecidedAt,
			})
		}
	}
	return rows
}

// stubCatalog serves one fixed book with chapters.
type stubCatalog struct {
	book *book.Book
}

func (catalog *stubCatalog) GetBook(_ context.Context, identifier string) (*book.Book, error) {
	if catalog.book == nil || (identifier != catalog.book.ID && identifier != catalog.book.Slug) {
		return nil, apperr.NotFound("Book")
	}
	return catalog.book, nil
}

func (catalog *stubCatalog) GetChapters(_ context.Context, chapterIDs []string) ([]*book.Chapter, error) {
	var chapters []*book.Chapter
	if catalog.book == nil {
		return nil, nil
	}
	for _, id := range chapterIDs {
		for index := range catalog.book.Chapters {
			if catalog.book.Chapters[index].ID == id {
				chapters = append(chapters, &catalog.book.Chapters[index])
			}
		}
	}
	return chapters, nil
}

// recordingNotifier captures workflow notifications.
type recordingNotifier struct {
	user  []notify.Type
	admin []notify.Type
}

func (notifier *recordingNotifier) NotifyUser(_ context.Context, _ string, notificationType notify.Type, _ string) (*notify.Notification, error) {
	notifier.user = append(notifier.user, notificationType)
	return &notify.Notification{Type: notificationType}, nil
}

func (notifier *recordingNotifier) NotifyAdmin(_ context.Context, notificationType notify.Type, _ string) (*notify.Notification, error) {
	notifier.admin = append(notifier.admin, notificationType)
	return &notify.Notification{Type: notificationType}, nil
}

func newTestService() (*request.Service, *recordingNotifier, *book.Book) {
	fixture := &book.Book{
		ID:   "0191a7b0-0000-7000-8000-000000000001",
		Name: "Modern Algebra",
		Slug: "modern-algebra",
		Chapters: []book.Chapter{
			{ID: "chapter-1", BookID: "0191a7b0-0000-7000-8000-000000000001", Name: "Groups"},
			{ID: "chapter-2", BookID: "0191a7b0-0000-7000-8000-000000000001", Name: "Rings"},
		},
	}

	notifier := &recordingNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := request.NewService(newMemoryRequestRepository(), &stubCatalog{book: fixture}, notifier, logger)
	return service, notifier, fixture
}

// # Status Derivation

/*
TestAggregateStatus verifies overall status derivation from chapter rows.
*/
func TestAggregateStatus(t *testing.T) {
	approved := request.ChapterDecision{Status: request.StatusApproved}
	rejected := request.ChapterDecision{Status: request.StatusRejected}
	pending := request.ChapterDecision{Status: request.StatusPending}

	tests := []struct {
		name      string
		decisions []request.ChapterDecision
		want      request.Status
	}{
		{"empty", nil, request.StatusPending},
		{"all_pending", []request.ChapterDecision{pending, pending}, request.StatusPending},
		{"one_pending", []request.ChapterDecision{approved, pending}, request.StatusPending},
		{"all_approved", []request.ChapterDecision{approved, approved}, request.StatusApproved},
		{"all_rejected", []request.ChapterDecision{rejected, rejected}, request.StatusRejected},
		{"mixed_decided", []request.ChapterDecision{approved, rejected}, request.StatusPartial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, request.AggregateStatus(tt.decisions))
		})
	}
}

// # Submission

/*
TestService_Submit verifies request creation and both notifications.
*/
func TestService_Submit(t *testing.T) {
	service, notifier, fixture := newTestService()
	ctx := context.Background()

	created, err := service.Submit(ctx, "user-1", fixture.ID, []string{"chapter-1", "chapter-2"})
	require.NoError(t, err)

	assert.Equal(t, request.StatusPending, created.Status)
	require.Len(t, created.Chapters, 2)
	for _, decision := range created.Chapters {
		assert.Equal(t, request.StatusPending, decision.Status)
	}

	assert.Equal(t, []notify.Type{notify.TypeRequestSubmitted}, notifier.user)
	assert.Equal(t, []notify.Type{notify.TypeUserRequest}, notifier.admin)
}

/*
TestService_Submit_Validation verifies the submission guards.
*/
func TestService_Submit_Validation(t *testing.T) {
	service, _, fixture := newTestService()
	ctx := context.Background()

	t.Run("empty_chapter_set", func(t *testing.T) {
		_, err := service.Submit(ctx, "user-1", fixture.ID, nil)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("unknown_book", func(t *testing.T) {
		_, err := service.Submit(ctx, "user-1", "missing-book", []string{"chapter-1"})
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	})

	t.Run("unknown_chapter", func(t *testing.T) {
		_, err := service.Submit(ctx, "user-1", fixture.ID, []string{"chapter-404"})
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	})
}

// # Review

/*
TestService_Decide verifies per-chapter transitions, overall recompute,
idempotency, and outcome notifications.
*/
func TestService_Decide(t *testing.T) {
	service, notifier, fixture := newTestService()
	ctx := context.Background()

	created, err := service.Submit(ctx, "user-1", fixture.ID, []string{"chapter-1", "chapter-2"})
	require.NoError(t, err)
	notifier.user = nil // Drop the submission notification

	// Approving one chapter keeps the request pending
	decided, err := service.Decide(ctx, created.ID, "chapter-1", request.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, request.StatusPending, decided.Status)
	assert.Equal(t, []notify.Type{notify.TypeApproved}, notifier.user)

	// Re-deciding the same chapter is a no-op without a notification
	notifier.user = nil
	again, err := service.Decide(ctx, created.ID, "chapter-1", request.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, request.StatusPending, again.Status)
	assert.Empty(t, notifier.user)

	// Rejecting the remaining chapter yields a partial overall status
	decided, err = service.Decide(ctx, created.ID, "chapter-2", request.StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, request.StatusPartial, decided.Status)
	assert.Equal(t, []notify.Type{notify.TypeRejected}, notifier.user)

	// Bulk-approving everything resolves to approved
	decided, err = service.Decide(ctx, created.ID, "", request.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, request.StatusApproved, decided.Status)

	// Unknown chapter is reported, not silently ignored
	_, err = service.Decide(ctx, created.ID, "chapter-404", request.StatusApproved)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)

	// Decision outside the enum is rejected
	_, err = service.Decide(ctx, created.ID, "", request.Status("maybe"))
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
}

/*
TestService_ApprovedForUser verifies derived viewing rights.
*/
func TestService_ApprovedForUser(t *testing.T) {
	service, _, fixture := newTestService()
	ctx := context.Background()

	created, err := service.Submit(ctx, "user-1", fixture.ID, []string{"chapter-1", "chapter-2"})
	require.NoError(t, err)

	// Nothing approved yet
	approved, err := service.ApprovedForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, approved)

	_, err = service.Decide(ctx, created.ID, "chapter-1", request.StatusApproved)
	require.NoError(t, err)

	approved, err = service.ApprovedForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "chapter-1", approved[0].ChapterID)

	byBook, err := service.ApprovedForBook(ctx, "user-1", fixture.ID)
	require.NoError(t, err)
	assert.Len(t, byBook, 1)
}

/*
TestService_ApprovedForBook_ScopedToUser verifies that the per-book
view never leaks another reader's approvals.
*/
func TestService_ApprovedForBook_ScopedToUser(t *testing.T) {
	service, _, fixture := newTestService()
	ctx := context.Background()

	created, err := service.Submit(ctx, "user-1", fixture.ID, []string{"chapter-1"})
	require.NoError(t, err)
	_, err = service.Decide(ctx, created.ID, "chapter-1", request.StatusApproved)
	require.NoError(t, err)

	other, err := service.Submit(ctx, "user-2", fixture.ID, []string{"chapter-2"})
	require.NoError(t, err)
	_, err = service.Decide(ctx, other.ID, "chapter-2", request.StatusApproved)
	require.NoError(t, err)

	byBook, err := service.ApprovedForBook(ctx, "user-1", fixture.ID)
	require.NoError(t, err)
	require.Len(t, byBook, 1)
	assert.Equal(t, "chapter-1", byBook[0].ChapterID)
	assert.Equal(t, "user-1", byBook[0].UserID)

	// A book the user never requested yields an empty view
	byBook, err = service.ApprovedForBook(ctx, "user-1", "unknown-book")
	require.NoError(t, err)
	assert.Empty(t, byBook)
}

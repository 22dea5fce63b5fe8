// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package assignment_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/chaptra/internal/access/assignment"
	"github.com/taibuivan/chaptra/internal/catalog/book"
	"github.com/taibuivan/chaptra/internal/notify"
	"github.com/taibuivan/chaptra/internal/platform/apperr"
)

// # Test Doubles

// memoryAssignmentRepository is an in-memory [assignment.AssignmentRepository].
// Chapter and book display names come from the catalog fixture.
type memoryAssignmentRepository struct {
	assignments map[string]*assignment.Assignment
	catalog     *book.Book
}

func newMemoryAssignmentRepository(catalog *book.Book) *memoryAssignmentRepository {
	return &memoryAssignmentRepository{
		assignments: make(map[string]*assignment.Assignment),
		catalog:     catalog,
	}
}

func (repo *memoryAssignmentRepository) UpsertAll(_ context.Context, assignments []*assignment.Assignment) error {
	for _, incoming := range assignments {
		replaced := false
		for id, existing := range repo.assignments {
			if existing.UserID == incoming.UserID &&
				existing.BookID == incoming.BookID &&
				existing.ChapterID == incoming.ChapterID {
				clone := *incoming
				clone.ID = existing.ID
				repo.assignments[id] = &clone
				replaced = true
				break
			}
		}
		if !replaced {
			clone := *incoming
			repo.assignments[incoming.ID] = &clone
		}
	}
	return nil
}

func (repo *memoryAssignmentRepository) FindByID(_ context.Context, id string) (*assignment.Assignment, error) {
	a, ok := repo.assignments[id]
	if !ok {
		return nil, apperr.NotFound("Assignment")
	}
	clone := *a
	return &clone, nil
}

func (repo *memoryAssignmentRepository) FindByKey(_ context.Context, userID, bookID, chapterID string) (*assignment.Assignment, error) {
	for _, a := range repo.assignments {
		if a.UserID == userID && a.BookID == bookID && a.ChapterID == chapterID {
			clone := *a
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Assignment")
}

func (repo *memoryAssignmentRepository) Delete(_ context.Context, id string) error {
	if _, ok := repo.assignments[id]; !ok {
		return apperr.NotFound("Assignment")
	}
	delete(repo.assignments, id)
	return nil
}

func (repo *memoryAssignmentRepository) ListActiveForUser(_ context.Context, userID string, now time.Time) ([]*assignment.BookGrants, error) {
	grouped := make(map[string]*assignment.BookGrants)
	for _, a := range repo.assignments {
		if a.UserID != userID || !a.Active(now) {
			continue
		}
		group, ok := grouped[a.BookID]
		if !ok {
			group = &assignment.BookGrants{BookID: a.BookID, BookName: repo.catalog.Name}
			grouped[a.BookID] = group
		}
		group.Chapters = append(group.Chapters, assignment.Grant{
			AssignmentID: a.ID,
			ChapterID:    a.ChapterID,
			ChapterName:  repo.chapterName(a.ChapterID),
			AssignedAt:   a.AssignedAt,
			ExpiresAt:    a.ExpiresAt,
		})
	}
	var groups []*assignment.BookGrants
	for _, group := range grouped {
		sort.Slice(group.Chapters, func(i, j int) bool {
			return group.Chapters[i].ChapterID < group.Chapters[j].ChapterID
		})
		groups = append(groups, group)
	}
	return groups, nil
}

func (repo *memoryAssignmentRepository) ListExpired(_ context.Context, now time.Time) ([]*assignment.Assignment, error) {
	var expired []*assignment.Assignment
	for _, a := range repo.assignments {
		if !a.Active(now) {
			clone := *a
			expired = append(expired, &clone)
		}
	}
	return expired, nil
}

func (repo *memoryAssignmentRepository) Overview(_ context.Context, _, _ int) ([]*assignment.OverviewRow, int, error) {
	var rows []*assignment.OverviewRow
	for _, a := range repo.assignments {
		expiresAt := a.ExpiresAt
		rows = append(rows, &assignment.OverviewRow{
			UserID:      a.UserID,
			BookID:      a.BookID,
			BookName:    repo.catalog.Name,
			ChapterID:   a.ChapterID,
			ChapterName: repo.chapterName(a.ChapterID),
			Source:      assignment.SourceAssigned,
			ExpiresAt:   &expiresAt,
		})
	}
	return rows, len(rows), nil
}

func (repo *memoryAssignmentRepository) chapterName(chapterID string) string {
	for _, chapter := range repo.catalog.Chapters {
		if chapter.ID == chapterID {
			return chapter.Name
		}
	}
	return ""
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
	for _, id := range chapterIDs {
		for index := range catalog.book.Chapters {
			if catalog.book.Chapters[index].ID == id {
				chapters = append(chapters, &catalog.book.Chapters[index])
			}
		}
	}
	return chapters, nil
}

// recordingNotifier captures grant lifecycle notifications.
type recordingNotifier struct {
	user []notify.Type
}

func (notifier *recordingNotifier) NotifyUser(_ context.Context, _ string, notificationType notify.Type, _ string) (*notify.Notification, error) {
	notifier.user = append(notifier.user, notificationType)
	return &notify.Notification{Type: notificationType}, nil
}

func newTestService() (*assignment.Service, *memoryAssignmentRepository, *recordingNotifier, *book.Book) {
	fixture := &book.Book{
		ID:   "0191a7b0-0000-7000-8000-000000000001",
		Name: "Modern Algebra",
		Slug: "modern-algebra",
		Chapters: []book.Chapter{
			{ID: "chapter-1", BookID: "0191a7b0-0000-7000-8000-000000000001", Name: "Groups"},
			{ID: "chapter-2", BookID: "0191a7b0-0000-7000-8000-000000000001", Name: "Rings"},
		},
	}

	repo := newMemoryAssignmentRepository(fixture)
	notifier := &recordingNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := assignment.NewService(repo, &stubCatalog{book: fixture}, notifier, logger)
	return service, repo, notifier, fixture
}

// # Granting

/*
TestService_Assign verifies grant creation, expiry calculation, and the
single user notification.
*/
func TestService_Assign(t *testing.T) {
	service, _, notifier, fixture := newTestService()

	before := time.Now().UTC()
	granted, err := service.Assign(context.Background(), assignment.AssignInput{
		UserID:       "user-1",
		BookID:       fixture.ID,
		ChapterIDs:   []string{"chapter-1", "chapter-2"},
		DurationDays: 30,
	})
	after := time.Now().UTC()

	require.NoError(t, err)
	require.Len(t, granted, 2)

	for _, grant := range granted {
		assert.Equal(t, "user-1", grant.UserID)
		assert.Equal(t, fixture.ID, grant.BookID)
		assert.True(t, grant.Active(after))
		assert.Equal(t, 30, grant.DurationDays())

		wantEarliest := before.Add(30 * 24 * time.Hour)
		wantLatest := after.Add(30 * 24 * time.Hour)
		assert.False(t, grant.ExpiresAt.Before(wantEarliest))
		assert.False(t, grant.ExpiresAt.After(wantLatest))
	}

	assert.Equal(t, []notify.Type{notify.TypeAssigned}, notifier.user)
}

/*
TestService_Assign_Validation verifies input and catalog guards.
*/
func TestService_Assign_Validation(t *testing.T) {
	tests := []struct {
		name     string
		input    assignment.AssignInput
		wantCode string
	}{
		{
			name: "missing_user",
			input: assignment.AssignInput{
				BookID:       "0191a7b0-0000-7000-8000-000000000001",
				ChapterIDs:   []string{"chapter-1"},
				DurationDays: 7,
			},
			wantCode: "VALIDATION_ERROR",
		},
		{
			name: "empty_chapter_set",
			input: assignment.AssignInput{
				UserID:       "user-1",
				BookID:       "0191a7b0-0000-7000-8000-000000000001",
				DurationDays: 7,
			},
			wantCode: "VALIDATION_ERROR",
		},
		{
			name: "zero_duration",
			input: assignment.AssignInput{
				UserID:     "user-1",
				BookID:     "0191a7b0-0000-7000-8000-000000000001",
				ChapterIDs: []string{"chapter-1"},
			},
			wantCode: "VALIDATION_ERROR",
		},
		{
			name: "unknown_book",
			input: assignment.AssignInput{
				UserID:       "user-1",
				BookID:       "0191a7b0-dead-7000-8000-000000000009",
				ChapterIDs:   []string{"chapter-1"},
				DurationDays: 7,
			},
			wantCode: "NOT_FOUND",
		},
		{
			name: "unknown_chapter",
			input: assignment.AssignInput{
				UserID:       "user-1",
				BookID:       "0191a7b0-0000-7000-8000-000000000001",
				ChapterIDs:   []string{"chapter-9"},
				DurationDays: 7,
			},
			wantCode: "NOT_FOUND",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			service, _, notifier, _ := newTestService()

			_, err := service.Assign(context.Background(), test.input)

			require.Error(t, err)
			appError := apperr.As(err)
			require.NotNil(t, appError)
			assert.Equal(t, test.wantCode, appError.Code)
			assert.Empty(t, notifier.user)
		})
	}
}

/*
TestService_Assign_Upsert verifies that re-assigning a chapter replaces
its expiry window instead of duplicating the grant.
*/
func TestService_Assign_Upsert(t *testing.T) {
	service, repo, _, fixture := newTestService()

	first, err := service.Assign(context.Background(), assignment.AssignInput{
		UserID:       "user-1",
		BookID:       fixture.ID,
		ChapterIDs:   []string{"chapter-1"},
		DurationDays: 7,
	})
	require.NoError(t, err)

	second, err := service.Assign(context.Background(), assignment.AssignInput{
		UserID:       "user-1",
		BookID:       fixture.ID,
		ChapterIDs:   []string{"chapter-1"},
		DurationDays: 30,
	})
	require.NoError(t, err)

	assert.True(t, second[0].ExpiresAt.After(first[0].ExpiresAt))
	assert.Len(t, repo.assignments, 1)

	stored, err := repo.FindByKey(context.Background(), "user-1", fixture.ID, "chapter-1")
	require.NoError(t, err)
	assert.Equal(t, 30, stored.DurationDays())
}

// # Revocation

/*
TestService_Revoke verifies grant deletion by ID and the revocation
notification.
*/
func TestService_Revoke(t *testing.T) {
	service, _, notifier, fixture := newTestService()

	granted, err := service.Assign(context.Background(), assignment.AssignInput{
		UserID:       "user-1",
		BookID:       fixture.ID,
		ChapterIDs:   []string{"chapter-1"},
		DurationDays: 7,
	})
	require.NoError(t, err)

	err = service.Revoke(context.Background(), granted[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []notify.Type{notify.TypeAssigned, notify.TypeRevoked}, notifier.user)

	err = service.Revoke(context.Background(), granted[0].ID)
	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "NOT_FOUND", appError.Code)
}

/*
TestService_RevokeByKey verifies deletion by the (user, book, chapter)
triple.
*/
func TestService_RevokeByKey(t *testing.T) {
	service, _, notifier, fixture := newTestService()

	_, err := service.Assign(context.Background(), assignment.AssignInput{
		UserID:       "user-1",
		BookID:       fixture.ID,
		ChapterIDs:   []string{"chapter-1", "chapter-2"},
		DurationDays: 7,
	})
	require.NoError(t, err)

	err = service.RevokeByKey(context.Background(), "user-1", fixture.ID, "chapter-2")
	require.NoError(t, err)
	assert.Equal(t, []notify.Type{notify.TypeAssigned, notify.TypeRevoked}, notifier.user)

	err = service.RevokeByKey(context.Background(), "user-1", fixture.ID, "chapter-2")
	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "NOT_FOUND", appError.Code)

	grants, err := service.ListForUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, grants, 1)
	require.Len(t, grants[0].Chapters, 1)
	assert.Equal(t, "chapter-1", grants[0].Chapters[0].ChapterID)
}

// # Visibility

/*
TestService_ListForUser verifies the grouped countdown view and that
expired grants are excluded.
*/
func TestService_ListForUser(t *testing.T) {
	service, repo, _, fixture := newTestService()

	_, err := service.Assign(context.Background(), assignment.AssignInput{
		UserID:       "user-1",
		BookID:       fixture.ID,
		ChapterIDs:   []string{"chapter-1", "chapter-2"},
		DurationDays: 7,
	})
	require.NoError(t, err)

	grants, err := service.ListForUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, fixture.ID, grants[0].BookID)
	assert.Equal(t, "Modern Algebra", grants[0].BookName)
	require.Len(t, grants[0].Chapters, 2)
	assert.Equal(t, "Groups", grants[0].Chapters[0].ChapterName)

	// Lapse one grant; only the other survives the listing
	for _, stored := range repo.assignments {
		if stored.ChapterID == "chapter-2" {
			stored.ExpiresAt = time.Now().UTC().Add(-time.Minute)
		}
	}

	grants, err = service.ListForUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, grants, 1)
	require.Len(t, grants[0].Chapters, 1)
	assert.Equal(t, "chapter-1", grants[0].Chapters[0].ChapterID)
}

/*
TestAssignment_DurationDays verifies whole-day rounding of grant length.
*/
func TestAssignment_DurationDays(t *testing.T) {
	start := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		expiry time.Time
		want   int
	}{
		{"exact_week", start.Add(7 * 24 * time.Hour), 7},
		{"partial_day_rounds_up", start.Add(7*24*time.Hour + time.Hour), 8},
		{"under_one_day", start.Add(3 * time.Hour), 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			grant := &assignment.Assignment{AssignedAt: start, ExpiresAt: test.expiry}
			assert.Equal(t, test.want, grant.DurationDays())
		})
	}
}

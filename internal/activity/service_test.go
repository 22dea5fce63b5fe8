// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package activity_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/chaptra/internal/activity"
	"github.com/taibuivan/chaptra/internal/catalog/book"
	"github.com/taibuivan/chaptra/internal/platform/apperr"
)

// # Test Doubles

// memoryActivityRepository is an in-memory [activity.ActivityRepository]
// keyed on (user, book, chapter).
type memoryActivityRepository struct {
	entries map[string]*activity.Entry
	catalog *book.Book
}

func newMemoryActivityRepository(catalog *book.Book) *memoryActivityRepository {
	return &memoryActivityRepository{
		entries: make(map[string]*activity.Entry),
		catalog: catalog,
	}
}

func (repo *memoryActivityRepository) Record(_ context.Context, entry *activity.Entry) (*activity.Entry, error) {
	key := entry.UserID + "/" + entry.BookID + "/" + entry.ChapterID
	existing, ok := repo.entries[key]
	if !ok {
		clone := *entry
		clone.UpdatedAt = time.Now().UTC()
		repo.entries[key] = &clone
		result := clone
		return &result, nil
	}
	existing.LastPage = entry.LastPage
	existing.PagesViewed += entry.PagesViewed
	existing.SecondsRead += entry.SecondsRead
	existing.UpdatedAt = time.Now().UTC()
	result := *existing
	return &result, nil
}

func (repo *memoryActivityRepository) ContinueReading(_ context.Context, userID string, limit int) ([]*activity.Progress, error) {
	var shelf []*activity.Progress
	for _, entry := range repo.entries {
		if entry.UserID != userID {
			continue
		}
		shelf = append(shelf, &activity.Progress{
			Entry:       *entry,
			BookName:    repo.catalog.Name,
			ChapterName: repo.chapterName(entry.ChapterID),
		})
	}
	sort.Slice(shelf, func(i, j int) bool {
		return shelf[i].UpdatedAt.After(shelf[j].UpdatedAt)
	})
	if len(shelf) > limit {
		shelf = shelf[:limit]
	}
	return shelf, nil
}

func (repo *memoryActivityRepository) Report(_ context.Context, _, _ int) ([]*activity.ReportRow, int, error) {
	var report []*activity.ReportRow
	for _, entry := range repo.entries {
		report = append(report, &activity.ReportRow{
			Progress: activity.Progress{
				Entry:       *entry,
				BookName:    repo.catalog.Name,
				ChapterName: repo.chapterName(entry.ChapterID),
			},
		})
	}
	return report, len(report), nil
}

func (repo *memoryActivityRepository) chapterName(chapterID string) string {
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
	if identifier != catalog.book.ID && identifier != catalog.book.Slug {
		return nil, apperr.NotFound("Book")
	}
	return catalog.book, nil
}

func (catalog *stubCatalog) GetChapter(_ context.Context, chapterID string) (*book.Chapter, error) {
	for index := range catalog.book.Chapters {
		if catalog.book.Chapters[index].ID == chapterID {
			return &catalog.book.Chapters[index], nil
		}
	}
	return nil, apperr.NotFound("Chapter")
}

func newTestService() (*activity.Service, *book.Book) {
	fixture := &book.Book{
		ID:   "0191a7b0-0000-7000-8000-000000000001",
		Name: "Modern Algebra",
		Slug: "modern-algebra",
		Chapters: []book.Chapter{
			{ID: "chapter-1", BookID: "0191a7b0-0000-7000-8000-000000000001", Name: "Groups"},
			{ID: "chapter-2", BookID: "0191a7b0-0000-7000-8000-000000000001", Name: "Rings"},
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := activity.NewService(newMemoryActivityRepository(fixture), &stubCatalog{book: fixture}, logger)
	return service, fixture
}

// # Recording

/*
TestService_Record verifies counter accumulation and last-page overwrite
across repeated records for one chapter.
*/
func TestService_Record(t *testing.T) {
	service, fixture := newTestService()

	first, err := service.Record(context.Background(), "user-1", activity.RecordInput{
		BookID:      fixture.ID,
		ChapterID:   "chapter-1",
		LastPage:    12,
		PagesViewed: 12,
		SecondsRead: 300,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, first.LastPage)
	assert.Equal(t, 12, first.PagesViewed)
	assert.Equal(t, int64(300), first.SecondsRead)

	second, err := service.Record(context.Background(), "user-1", activity.RecordInput{
		BookID:      fixture.ID,
		ChapterID:   "chapter-1",
		LastPage:    20,
		PagesViewed: 8,
		SecondsRead: 180,
	})
	require.NoError(t, err)
	assert.Equal(t, 20, second.LastPage)
	assert.Equal(t, 20, second.PagesViewed)
	assert.Equal(t, int64(480), second.SecondsRead)
}

/*
TestService_Record_Validation verifies input and catalog guards.
*/
func TestService_Record_Validation(t *testing.T) {
	bookID := "0191a7b0-0000-7000-8000-000000000001"

	tests := []struct {
		name     string
		input    activity.RecordInput
		wantCode string
	}{
		{
			name:     "missing_book",
			input:    activity.RecordInput{ChapterID: "chapter-1"},
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:     "negative_seconds",
			input:    activity.RecordInput{BookID: bookID, ChapterID: "chapter-1", SecondsRead: -1},
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:     "unknown_chapter",
			input:    activity.RecordInput{BookID: bookID, ChapterID: "chapter-9"},
			wantCode: "NOT_FOUND",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			service, _ := newTestService()

			_, err := service.Record(context.Background(), "user-1", test.input)

			require.Error(t, err)
			appError := apperr.As(err)
			require.NotNil(t, appError)
			assert.Equal(t, test.wantCode, appError.Code)
		})
	}
}

// # Reporting

/*
TestService_ContinueReading verifies per-user scoping and recency order
of the shelf.
*/
func TestService_ContinueReading(t *testing.T) {
	service, fixture := newTestService()

	_, err := service.Record(context.Background(), "user-1", activity.RecordInput{
		BookID: fixture.ID, ChapterID: "chapter-1", LastPage: 5, PagesViewed: 5, SecondsRead: 60,
	})
	require.NoError(t, err)
	_, err = service.Record(context.Background(), "user-1", activity.RecordInput{
		BookID: fixture.ID, ChapterID: "chapter-2", LastPage: 3, PagesViewed: 3, SecondsRead: 30,
	})
	require.NoError(t, err)
	_, err = service.Record(context.Background(), "user-2", activity.RecordInput{
		BookID: fixture.ID, ChapterID: "chapter-1", LastPage: 1, PagesViewed: 1, SecondsRead: 10,
	})
	require.NoError(t, err)

	shelf, err := service.ContinueReading(context.Background(), "user-1", 20)
	require.NoError(t, err)
	require.Len(t, shelf, 2)
	for _, progress := range shelf {
		assert.Equal(t, "user-1", progress.UserID)
		assert.Equal(t, "Modern Algebra", progress.BookName)
	}

	report, total, err := service.Report(context.Background(), 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, report, 3)
}

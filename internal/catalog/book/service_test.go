// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package book_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/chaptra/internal/catalog/book"
	"github.com/taibuivan/chaptra/internal/platform/apperr"
)

// # Test Doubles

// memoryBookRepository is an in-memory [book.BookRepository] for unit tests.
type memoryBookRepository struct {
	books map[string]*book.Book
}

func newMemoryBookRepository() *memoryBookRepository {
	return &memoryBookRepository{books: make(map[string]*book.Book)}
}

func (repo *memoryBookRepository) List(_ context.Context, _ book.Filter, _, _ int) ([]*book.Book, int, error) {
	var all []*book.Book
	for _, b := range repo.books {
		clone := *b
		clone.Chapters = nil
		all = append(all, &clone)
	}
	return all, len(all), nil
}

func (repo *memoryBookRepository) FindByID(_ context.Context, id string) (*book.Book, error) {
	b, ok := repo.books[id]
	if !ok {
		return nil, apperr.NotFound("Book")
	}
	clone := *b
	return &clone, nil
}

func (repo *memoryBookRepository) FindBySlug(_ context.Context, slug string) (*book.Book, error) {
	for _, b := range repo.books {
		if b.Slug == slug {
			clone := *b
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Book")
}

func (repo *memoryBookRepository) Create(_ context.Context, b *book.Book) error {
	clone := *b
	repo.books[b.ID] = &clone
	return nil
}

func (repo *memoryBookRepository) Update(_ context.Context, b *book.Book) error {
	if _, ok := repo.books[b.ID]; !ok {
		return apperr.NotFound("Book")
	}
	clone := *b
	repo.books[b.ID] = &clone
	return nil
}

func (repo *memoryBookRepository) Delete(_ context.Context, id string) error {
	if _, ok := repo.books[id]; !ok {
		return apperr.NotFound("Book")
	}
	delete(repo.books, id)
	return nil
}

func (repo *memoryBookRepository) FindChapter(_ context.Context, chapterID string) (*book.Chapter, error) {
	for _, b := range repo.books {
		for _, chapter := range b.Chapters {
			if chapter.ID == chapterID {
				clone := chapter
				return &clone, nil
			}
		}
	}
	return nil, apperr.NotFound("Chapter")
}

func (repo *memoryBookRepository) FindChapters(ctx context.Context, chapterIDs []string) ([]*book.Chapter, error) {
	var chapters []*book.Chapter
	for _, id := range chapterIDs {
		if chapter, err := repo.FindChapter(ctx, id); err == nil {
			chapters = append(chapters, chapter)
		}
	}
	return chapters, nil
}

// fakeBlobStore records uploads and signs deterministic URLs.
type fakeBlobStore struct {
	objects map[string]int64
	deleted []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string]int64)}
}

func (store *fakeBlobStore) Put(_ context.Context, key string, _ io.Reader, size int64, _ string) error {
	store.objects[key] = size
	return nil
}

func (store *fakeBlobStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://blob.test/" + key, nil
}

func (store *fakeBlobStore) Delete(_ context.Context, key string) error {
	store.deleted = append(store.deleted, key)
	delete(store.objects, key)
	return nil
}

func newTestService() (*book.Service, *memoryBookRepository, *fakeBlobStore) {
	repo := newMemoryBookRepository()
	blobs := newFakeBlobStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return book.NewService(repo, blobs, logger), repo, blobs
}

func testUpload(name string) *book.Upload {
	return &book.Upload{
		Reader:      strings.NewReader("payload"),
		Size:        7,
		ContentType: "application/octet-stream",
		Filename:    name,
	}
}

// # Book Lifecycle

/*
TestService_CreateBook verifies price derivation, slug generation, and
media upload on the create path.
*/
func TestService_CreateBook(t *testing.T) {
	service, _, blobs := newTestService()

	created, err := service.CreateBook(context.Background(), book.SaveBookInput{
		Name:    "Modern Algebra",
		Subject: "Mathematics",
		Tags:    []string{"algebra", "undergraduate"},
		Chapters: []book.ChapterInput{
			{Name: "Groups", PageFrom: 1, PageTo: 40, Price: 10, OrderIndex: 1},
			{Name: "Rings", PageFrom: 41, PageTo: 90, Price: 20, OrderIndex: 2},
		},
		Cover: testUpload("cover.png"),
		PDF:   testUpload("book.pdf"),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(30), created.Price)
	assert.Equal(t, "modern-algebra", created.Slug)
	assert.Len(t, created.Chapters, 2)
	assert.NotEmpty(t, created.Chapters[0].ID)

	// Both media objects landed in the blob store
	assert.Len(t, blobs.objects, 2)
	assert.Contains(t, blobs.objects, "covers/"+created.ID+".png")
	assert.Contains(t, blobs.objects, "pdfs/"+created.ID+".pdf")

	// Presigned URLs are decorated onto the result
	assert.NotEmpty(t, created.CoverURL)
	assert.NotEmpty(t, created.PDFURL)
}

/*
TestService_CreateBook_Validation verifies the create-path constraints.
*/
func TestService_CreateBook_Validation(t *testing.T) {
	service, _, _ := newTestService()

	tests := []struct {
		name  string
		input book.SaveBookInput
	}{
		{
			name: "missing_name",
			input: book.SaveBookInput{
				Subject: "Math",
				Cover:   testUpload("c.png"),
				PDF:     testUpload("b.pdf"),
			},
		},
		{
			name: "missing_media",
			input: book.SaveBookInput{
				Name:    "Algebra",
				Subject: "Math",
			},
		},
		{
			name: "negative_chapter_price",
			input: book.SaveBookInput{
				Name:    "Algebra",
				Subject: "Math",
				Chapters: []book.ChapterInput{
					{Name: "Groups", Price: -1},
				},
				Cover: testUpload("c.png"),
				PDF:   testUpload("b.pdf"),
			},
		},
		{
			name: "inverted_page_range",
			input: book.SaveBookInput{
				Name:    "Algebra",
				Subject: "Math",
				Chapters: []book.ChapterInput{
					{Name: "Groups", PageFrom: 50, PageTo: 10},
				},
				Cover: testUpload("c.png"),
				PDF:   testUpload("b.pdf"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CreateBook(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
		})
	}
}

/*
TestService_UpdateBook verifies chapter replacement and price re-derivation.
*/
func TestService_UpdateBook(t *testing.T) {
	service, _, blobs := newTestService()
	ctx := context.Background()

	created, err := service.CreateBook(ctx, book.SaveBookInput{
		Name:    "Modern Algebra",
		Subject: "Mathematics",
		Chapters: []book.ChapterInput{
			{Name: "Groups", Price: 10, PageFrom: 1, PageTo: 40, OrderIndex: 1},
			{Name: "Rings", Price: 20, PageFrom: 41, PageTo: 90, OrderIndex: 2},
		},
		Cover: testUpload("cover.png"),
		PDF:   testUpload("book.pdf"),
	})
	require.NoError(t, err)

	// Dropping a chapter re-sums the price
	updated, err := service.UpdateBook(ctx, created.ID, book.SaveBookInput{
		Name:    "Modern Algebra",
		Subject: "Mathematics",
		Chapters: []book.ChapterInput{
			{Name: "Groups", Price: 10, PageFrom: 1, PageTo: 40, OrderIndex: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), updated.Price)
	assert.Len(t, updated.Chapters, 1)

	// Media keys survive an update without new uploads
	assert.Len(t, blobs.objects, 2)

	// A replacement cover discards the previous object
	_, err = service.UpdateBook(ctx, created.ID, book.SaveBookInput{
		Name:    "Modern Algebra",
		Subject: "Mathematics",
		Cover:   testUpload("cover.jpg"),
	})
	require.NoError(t, err)
	assert.Contains(t, blobs.deleted, "covers/"+created.ID+".png")
	assert.Contains(t, blobs.objects, "covers/"+created.ID+".jpg")
}

/*
TestService_UpdateBook_PreservesChapterIdentity verifies that an edit
does not re-key chapters that are still present. Access and activity
rows reference chapters by ID, so a re-save must never mint new IDs
for surviving chapters.
*/
func TestService_UpdateBook_PreservesChapterIdentity(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()

	created, err := service.CreateBook(ctx, book.SaveBookInput{
		Name:    "Modern Algebra",
		Subject: "Mathematics",
		Chapters: []book.ChapterInput{
			{Name: "Groups", Price: 10, PageFrom: 1, PageTo: 40, OrderIndex: 1},
			{Name: "Rings", Price: 20, PageFrom: 41, PageTo: 90, OrderIndex: 2},
		},
		Cover: testUpload("cover.png"),
		PDF:   testUpload("book.pdf"),
	})
	require.NoError(t, err)
	groupsID := created.Chapters[0].ID
	ringsID := created.Chapters[1].ID

	// An identical payload without IDs keeps every chapter's identity
	updated, err := service.UpdateBook(ctx, created.ID, book.SaveBookInput{
		Name:    "Modern Algebra",
		Subject: "Mathematics",
		Chapters: []book.ChapterInput{
			{Name: "Groups", Price: 10, PageFrom: 1, PageTo: 40, OrderIndex: 1},
			{Name: "Rings", Price: 20, PageFrom: 41, PageTo: 90, OrderIndex: 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Chapters, 2)
	assert.Equal(t, groupsID, updated.Chapters[0].ID)
	assert.Equal(t, ringsID, updated.Chapters[1].ID)

	// A rename pinned by explicit ID keeps identity even when the
	// order index moves
	updated, err = service.UpdateBook(ctx, created.ID, book.SaveBookInput{
		Name:    "Modern Algebra",
		Subject: "Mathematics",
		Chapters: []book.ChapterInput{
			{ID: ringsID, Name: "Rings and Ideals", Price: 25, PageFrom: 41, PageTo: 90, OrderIndex: 1},
			{Name: "Fields", Price: 30, PageFrom: 91, PageTo: 130, OrderIndex: 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Chapters, 2)
	assert.Equal(t, ringsID, updated.Chapters[0].ID)
	assert.Equal(t, "Rings and Ideals", updated.Chapters[0].Name)

	// The unmatched input is a genuinely new chapter
	assert.NotEqual(t, groupsID, updated.Chapters[1].ID)
	assert.NotEqual(t, ringsID, updated.Chapters[1].ID)
	assert.Equal(t, int64(55), updated.Price)
}

/*
TestService_DeleteBook verifies removal and missing-book reporting.
*/
func TestService_DeleteBook(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()

	created, err := service.CreateBook(ctx, book.SaveBookInput{
		Name:    "Modern Algebra",
		Subject: "Mathematics",
		Cover:   testUpload("cover.png"),
		PDF:     testUpload("book.pdf"),
	})
	require.NoError(t, err)

	require.NoError(t, service.DeleteBook(ctx, created.ID))

	_, err = service.GetBook(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)

	err = service.DeleteBook(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

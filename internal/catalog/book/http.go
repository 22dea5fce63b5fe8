// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package book

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/chaptra/internal/platform/middleware"
	"github.com/taibuivan/chaptra/internal/platform/respond"
	"github.com/taibuivan/chaptra/internal/platform/sec"
	"github.com/taibuivan/chaptra/internal/platform/validate"
	"github.com/taibuivan/chaptra/pkg/pagination"

	requestutil "github.com/taibuivan/chaptra/internal/platform/request"
)

// maxUploadBytes bounds the in-memory multipart buffer for book uploads.
const maxUploadBytes = 64 << 20

// # Definitions & Constructors

// Handler implements catalogue-related HTTP endpoints.
type Handler struct {
	bookService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{bookService: service}
}

// Routes returns a [chi.Router] configured with catalogue routes.
//
// # Endpoints
//   - GET    /      : Lists books (public).
//   - GET    /{id}  : Fetches one book by UUID or slug (public).
//   - POST   /      : Creates a book from a multipart upload (admin).
//   - PUT    /{id}  : Updates a book, replacing its chapter set (admin).
//   - DELETE /{id}  : Removes a book (admin).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Get("/", handler.list)
	router.Get("/{id}", handler.get)

	// Admin endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(sec.RoleAdmin))
		r.Post("/", handler.create)
		r.Put("/{id}", handler.update)
		r.Delete("/{id}", handler.delete)
	})

	return router
}

/*
List returns the filtered, paginated catalogue.

GET /api/v1/books?q=&subject=&tag=&sort=&page=&limit=

Response:
  - 200: []Book: Paginated book list with presigned cover URLs
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	query := request.URL.Query()

	filter := Filter{
		Query:   query.Get("q"),
		Subject: query.Get("subject"),
		Tag:     query.Get("tag"),
		Sort:    query.Get("sort"),
		SortDir: query.Get("sort_dir"),
	}

	books, total, err := handler.bookService.ListBooks(request.Context(), filter, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, books, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
Get fetches one book with its ordered chapter list.

GET /api/v1/books/{id}

Response:
  - 200: Book: Hydrated entity with presigned media URLs
  - 404: ErrNotFound: Unknown UUID or slug
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	identifier := requestutil.ID(request, "id")

	book, err := handler.bookService.GetBook(request.Context(), identifier)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, book)
}

/*
Create persists a new book from a multipart payload.

POST /api/v1/books

Description: Accepts metadata fields, a chapters JSON array, and the
cover/pdf files in one multipart form. The book price is derived from
the chapter prices server-side.

Request (multipart/form-data):
  - name, subject, contents: string fields
  - tags: comma-separated string
  - chapters: JSON array of ChapterInput
  - cover, pdf: file parts

Response:
  - 201: Book: Created entity
  - 400: ErrValidation: Missing fields or malformed chapters JSON
  - 409: ErrConflict: Slug already exists
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	input, err := decodeSavePayload(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	book, err := handler.bookService.CreateBook(request.Context(), *input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, book)
}

/*
Update modifies a book and replaces its chapter set.

PUT /api/v1/books/{id}

Description: Same payload as Create; cover and pdf parts are optional
and keep their stored objects when absent.

Response:
  - 200: Book: Updated entity
  - 404: ErrNotFound: Unknown book
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	input, err := decodeSavePayload(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	book, err := handler.bookService.UpdateBook(request.Context(), id, *input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, book)
}

/*
Delete removes a book from the catalogue.

DELETE /api/v1/books/{id}

Response:
  - 204: No Content: Book removed
  - 404: ErrNotFound: Unknown book
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	if err := handler.bookService.DeleteBook(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Multipart Decoding

// decodeSavePayload extracts a [SaveBookInput] from a multipart form.
func decodeSavePayload(request *http.Request) (*SaveBookInput, error) {
	if err := request.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, validate.RequiredError("body", "Expected a multipart form")
	}

	input := &SaveBookInput{
		Name:     request.FormValue(FieldName),
		Subject:  request.FormValue(FieldSubject),
		Contents: request.FormValue(FieldContents),
		Tags:     splitTags(request.FormValue(FieldTags)),
	}

	// Chapters arrive as a JSON array inside one form field
	if raw := request.FormValue(FieldChapters); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input.Chapters); err != nil {
			return nil, validate.RequiredError(FieldChapters, "Must be a valid JSON array")
		}
	}

	cover, err := formUpload(request, FieldCover)
	if err != nil {
		return nil, err
	}
	input.Cover = cover

	pdf, err := formUpload(request, FieldPDF)
	if err != nil {
		return nil, err
	}
	input.PDF = pdf

	return input, nil
}

// formUpload extracts one optional file part. Absent parts return nil.
func formUpload(request *http.Request, field string) (*Upload, error) {
	file, header, err := request.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, validate.RequiredError(field, "Malformed file part")
	}

	return &Upload{
		Reader:      file,
		Size:        header.Size,
		ContentType: partContentType(header),
		Filename:    header.Filename,
	}, nil
}

// partContentType reads the declared MIME type of a file part.
func partContentType(header *multipart.FileHeader) string {
	if contentType := header.Header.Get("Content-Type"); contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}

// splitTags parses a comma-separated tag field into a trimmed slice.
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

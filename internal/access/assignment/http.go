// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package assignment

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/chaptra/internal/platform/middleware"
	"github.com/taibuivan/chaptra/internal/platform/respond"
	"github.com/taibuivan/chaptra/internal/platform/sec"
	"github.com/taibuivan/chaptra/internal/platform/validate"
	"github.com/taibuivan/chaptra/pkg/pagination"

	requestutil "github.com/taibuivan/chaptra/internal/platform/request"
)

// # Definitions & Constructors

// Handler implements assignment HTTP endpoints.
type Handler struct {
	assignmentService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{assignmentService: service}
}

// Routes returns a [chi.Router] for the /access/assignments subtree.
// The merged overview lives at /access/overview; the api server mounts
// [Handler.Overview] there directly.
//
// # Endpoints
//   - GET    /    : Lists the caller's active grants (auth).
//   - POST   /    : Grants chapters to a user (admin).
//   - DELETE /{id} : Revokes one grant (admin).
//   - DELETE /{userID}/{bookID}/{chapterID} : Revokes by key (admin).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Reader endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", handler.listForCaller)
	})

	// Admin endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(sec.RoleAdmin))
		r.Post("/", handler.assign)
		r.Delete("/{id}", handler.revoke)
		r.Delete("/{userID}/{bookID}/{chapterID}", handler.revokeByKey)
	})

	return router
}

/*
Assign grants a user time-limited access to chapters of one book.

POST /api/v1/access/assignments

Request:
  - Body: AssignInput (UserID, BookID, ChapterIDs, DurationDays > 0)

Response:
  - 201: []Assignment: One grant per chapter
  - 400: ErrValidation: Missing fields or non-positive duration
  - 404: ErrNotFound: Unknown book or chapter
  - 422: ErrUnprocessable: Chapter outside the named book
*/
func (handler *Handler) assign(writer http.ResponseWriter, request *http.Request) {
	var input AssignInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	granted, err := handler.assignmentService.Assign(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, granted)
}

/*
ListForCaller returns the reader's active grants grouped by book.

GET /api/v1/access/assignments

Response:
  - 200: []BookGrants: Countdown view, expired grants excluded
*/
func (handler *Handler) listForCaller(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	grants, err := handler.assignmentService.ListForUser(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, grants)
}

/*
Overview returns the merged admin access-management view. Exported so
the api server can mount it at /access/overview next to this subtree.

GET /api/v1/access/overview?page=&limit=

Response:
  - 200: []OverviewRow: Approved requests and direct grants merged
*/
func (handler *Handler) Overview(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	rows, total, err := handler.assignmentService.Overview(request.Context(), params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, rows, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
Revoke removes one grant by ID.

DELETE /api/v1/access/assignments/{id}

Response:
  - 204: No content
  - 404: ErrNotFound: Unknown grant
*/
func (handler *Handler) revoke(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	if err := handler.assignmentService.Revoke(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
RevokeByKey removes the grant for one (user, book, chapter) triple.

DELETE /api/v1/access/assignments/{userID}/{bookID}/{chapterID}

Response:
  - 204: No content
  - 404: ErrNotFound: No such grant
*/
func (handler *Handler) revokeByKey(writer http.ResponseWriter, request *http.Request) {
	userID := requestutil.ID(request, "userID")
	bookID := requestutil.ID(request, "bookID")
	chapterID := requestutil.ID(request, "chapterID")

	if err := handler.assignmentService.RevokeByKey(request.Context(), userID, bookID, chapterID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

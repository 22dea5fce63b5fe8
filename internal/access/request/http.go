// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package request

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

// Handler implements request-workflow HTTP endpoints.
type Handler struct {
	requestService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{requestService: service}
}

// Routes returns a [chi.Router] for the /access subtree.
//
// # Endpoints
//   - POST /requests               : Submits a request (auth).
//   - GET  /approved               : Lists the caller's viewing rights (auth).
//   - GET  /requests               : Lists the review queue (admin).
//   - PUT  /requests/{id}/decision : Decides one chapter or all (admin).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Reader endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/requests", handler.submit)
		r.Get("/approved", handler.approvedForCaller)
	})

	// Admin endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(sec.RoleAdmin))
		r.Get("/requests", handler.list)
		r.Put("/requests/{id}/decision", handler.decide)
	})

	return router
}

// # Request Payloads

type submitRequest struct {
	BookID     string   `json:"book_id"`
	ChapterIDs []string `json:"chapter_ids"`
}

type decideRequest struct {
	ChapterID string `json:"chapter_id,omitempty"` // Empty decides every chapter
	Decision  string `json:"decision"`             // approved | rejected
}

/*
Submit files an access request for the authenticated reader.

POST /api/v1/access/requests

Request:
  - Body: submitRequest (BookID, ChapterIDs non-empty)

Response:
  - 201: Request: All chapter rows pending
  - 400: ErrValidation: Empty chapter set
  - 404: ErrNotFound: Unknown book or chapter
  - 422: ErrUnprocessable: Chapter outside the named book
*/
func (handler *Handler) submit(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input submitRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	created, err := handler.requestService.Submit(request.Context(), userID, input.BookID, input.ChapterIDs)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, created)
}

/*
List returns the admin review queue.

GET /api/v1/access/requests?status=&page=&limit=

Response:
  - 200: []View: Joined rows with requester and book display fields
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	status := Status(request.URL.Query().Get("status"))

	views, total, err := handler.requestService.List(request.Context(), status, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, views, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
Decide transitions one chapter, or every chapter, of a request.

PUT /api/v1/access/requests/{id}/decision

Request:
  - Body: decideRequest (ChapterID optional, Decision required)

Response:
  - 200: Request: Aggregate after the transition (repeat decisions no-op)
  - 400: ErrValidation: Decision outside approved/rejected
  - 404: ErrNotFound: Unknown request or chapter
*/
func (handler *Handler) decide(writer http.ResponseWriter, request *http.Request) {
	requestID := requestutil.ID(request, "id")

	var input decideRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	decided, err := handler.requestService.Decide(request.Context(), requestID, input.ChapterID, Status(input.Decision))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, decided)
}

/*
ApprovedForCaller lists the authenticated reader's viewing rights.

GET /api/v1/access/approved

Response:
  - 200: []ApprovedChapter: Derived from approved chapter rows
*/
func (handler *Handler) approvedForCaller(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	approved, err := handler.requestService.ApprovedForUser(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, approved)
}

/*
ApprovedForBook lists the caller's approved chapter rows for one book.

GET /api/v1/books/{id}/approved (mounted by the API composition root)

Response:
  - 200: []ApprovedChapter: One row per approved chapter
*/
func (handler *Handler) ApprovedForBook(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	bookID := requestutil.ID(request, "id")

	approved, err := handler.requestService.ApprovedForBook(request.Context(), userID, bookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, approved)
}

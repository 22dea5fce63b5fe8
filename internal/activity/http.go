// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package activity

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/chaptra/internal/platform/middleware"
	"github.com/taibuivan/chaptra/internal/platform/respond"
	"github.com/taibuivan/chaptra/internal/platform/sec"
	"github.com/taibuivan/chaptra/internal/platform/validate"
	"github.com/taibuivan/chaptra/pkg/convert"
	"github.com/taibuivan/chaptra/pkg/pagination"

	requestutil "github.com/taibuivan/chaptra/internal/platform/request"
)

// shelfLimit caps the continue-reading listing when ?limit= is absent.
const shelfLimit = 20

// # Definitions & Constructors

// Handler implements activity HTTP endpoints.
type Handler struct {
	activityService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{activityService: service}
}

// Routes returns a [chi.Router] for the /activity subtree.
//
// # Endpoints
//   - POST /         : Records one reading increment (auth).
//   - GET  /continue : Lists the caller's shelf (auth).
//   - GET  /report   : Lists every reader's records (admin).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/", handler.record)
		r.Get("/continue", handler.continueReading)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(sec.RoleAdmin))
		r.Get("/report", handler.report)
	})

	return router
}

/*
Record folds one reading increment into the caller's progress row.

POST /api/v1/activity

Request:
  - Body: RecordInput (BookID, ChapterID, non-negative counters)

Response:
  - 200: Entry: The accumulated row after the write
  - 400: ErrValidation: Missing IDs or negative counters
  - 404: ErrNotFound: Unknown book or chapter
*/
func (handler *Handler) record(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input RecordInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	accumulated, err := handler.activityService.Record(request.Context(), userID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, accumulated)
}

/*
ContinueReading lists the caller's shelf, most recently read first.

GET /api/v1/activity/continue?limit=

Response:
  - 200: []Progress: Records with book and chapter display names
*/
func (handler *Handler) continueReading(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	limit := convert.ToIntD(request.URL.Query().Get("limit"), shelfLimit)
	shelf, err := handler.activityService.ContinueReading(request.Context(), userID, limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, shelf)
}

/*
Report lists every reader's records for the admin usage view.

GET /api/v1/activity/report?page=&limit=

Response:
  - 200: []ReportRow: Records joined with reader and book display fields
*/
func (handler *Handler) report(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	rows, total, err := handler.activityService.Report(request.Context(), params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, rows, pagination.NewMeta(params.Page, params.Limit, total))
}

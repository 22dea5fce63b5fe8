// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/taibuivan/chaptra/internal/platform/apperr"
	"github.com/taibuivan/chaptra/internal/platform/middleware"
	requestutil "github.com/taibuivan/chaptra/internal/platform/request"
	"github.com/taibuivan/chaptra/internal/platform/respond"
	"github.com/taibuivan/chaptra/internal/platform/sec"
	"github.com/taibuivan/chaptra/pkg/pagination"
)

// streamHeartbeat keeps intermediary proxies from closing an idle SSE
// connection.
const streamHeartbeat = 25 * time.Second

// # Handler Implementation

// Handler implements the HTTP layer for notifications: polling, bulk
// mark-read, and the live SSE stream.
type Handler struct {
	service  *Service
	registry *Registry
}

// NewHandler constructs a new notification [Handler].
func NewHandler(service *Service, registry *Registry) *Handler {
	return &Handler{service: service, registry: registry}
}

// Routes returns a [chi.Router] with notification endpoints.
//
// # Endpoints
//   - GET /              : The caller's notifications (paginated).
//   - PUT /mark-read     : Bulk mark-read for the caller.
//   - GET /stream        : Live SSE stream for the caller.
//   - GET /admin         : Admin-facing notifications (polled).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(user chi.Router) {
		user.Use(middleware.RequireAuth)
		user.Get("/", handler.ListMine)
		user.Put("/mark-read", handler.MarkAllRead)
		user.Get("/stream", handler.Stream)
	})

	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(sec.RoleAdmin))
		admin.Get("/admin", handler.ListAdmin)
	})

	return router
}

// # Polling Endpoints

/*
GET /api/v1/notifications.

Description: Returns the caller's notifications, newest first. The unread
badge is derived client-side by counting is_read=false entries.

Response:
  - 200: []Notification (paginated envelope)
  - 401: 401: NO_TOKEN: Authentication required
*/
func (handler *Handler) ListMine(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)

	notifications, total, err := handler.service.ListForUser(request.Context(), userID, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, notifications, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
PUT /api/v1/notifications/mark-read.

Description: Marks every notification of the caller as read. There is no
row-level variant.

Response:
  - 200: Message: Success
  - 401: 401: NO_TOKEN: Authentication required
*/
func (handler *Handler) MarkAllRead(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.MarkAllRead(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{"message": "All notifications marked as read"})
}

/*
GET /api/v1/notifications/admin.

Description: Admin dashboard polling endpoint for broadcast notifications.

Response:
  - 200: []Notification (paginated envelope)
  - 403: 403: FORBIDDEN: Admin role required
*/
func (handler *Handler) ListAdmin(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	notifications, total, err := handler.service.ListForAdmin(request.Context(), params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, notifications, pagination.NewMeta(params.Page, params.Limit, total))
}

// # Live Stream

/*
GET /api/v1/notifications/stream.

Description: Server-Sent Events stream of the caller's live notifications.
The connection registers the caller in the [Registry]; registration is
transient and re-established by the client after every reconnect.

Events:
  - notification: JSON-encoded Notification object
  - heartbeat comment lines every 25s

Response:
  - 200: text/event-stream
  - 401: 401: NO_TOKEN: Authentication required
*/
func (handler *Handler) Stream(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	flusher, supported := writer.(http.Flusher)
	if !supported {
		respond.Error(writer, request, apperr.Internal(fmt.Errorf("notify: response writer does not support streaming")))
		return
	}

	// Register this connection; deregistration must run on any exit path
	channel, cancel := handler.registry.Subscribe(userID)
	defer cancel()

	header := writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	writer.WriteHeader(http.StatusOK)

	// Initial comment confirms the stream is open before any event arrives
	fmt.Fprint(writer, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-request.Context().Done():
			return

		case <-heartbeat.C:
			fmt.Fprint(writer, ": heartbeat\n\n")
			flusher.Flush()

		case notification := <-channel:
			payload, err := json.Marshal(notification)
			if err != nil {
				continue
			}
			fmt.Fprintf(writer, "event: notification\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
